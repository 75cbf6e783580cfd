package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/studentpartner/backend/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// MonthQuery binds the `year` and `month` query params; zero values mean the current month.
type MonthQuery struct {
	Year   int
	Month  int
	UserID int
}

func (mq *MonthQuery) Bind(ctx echo.Context) error {
	var err error
	if mq.Year, err = intQueryParam(ctx, "year"); err != nil {
		return err
	}
	if mq.Month, err = intQueryParam(ctx, "month"); err != nil {
		return err
	}
	mq.UserID, err = intQueryParam(ctx, "user_id")
	return err
}

func intQueryParam(ctx echo.Context, name string) (int, error) {
	val := strings.TrimSpace(ctx.QueryParam(name))
	if val == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, core.NewFieldError(name, name+" must be a number")
	}
	return i, nil
}

// idParam parses a numeric path param; anything else is not found.
func idParam(ctx echo.Context, name ...string) (int, error) {
	param := "id"
	if len(name) > 0 {
		param = name[0]
	}
	id, err := strconv.Atoi(ctx.Param(param))
	if err != nil || id < 1 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// jsonList responds with items, never with a null list.
func jsonList[T any](ctx echo.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	return ctx.JSON(http.StatusOK, items)
}
