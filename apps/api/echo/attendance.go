package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/attendance"
)

type attendanceApi struct {
	svc  attendance.Service
	auth *authenticator
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc attendance.Service) {
	api := attendanceApi{svc: svc, auth: auth}

	ag := g.Group("/attendance", jwt, activeUserMiddleware(auth))
	ag.GET("", api.calendar)
	ag.PUT("", api.mark)
}

// calendar returns the month grid of `user_id` (the context user by default).
func (api *attendanceApi) calendar(ctx echo.Context) error {
	var query MonthQuery
	if err := query.Bind(ctx); err != nil {
		return err
	}
	today := attendance.Today()
	if query.Year == 0 {
		query.Year = today.Year()
	}
	if query.Month == 0 {
		query.Month = int(today.Month())
	}

	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	cal, err := api.svc.Calendar(ctx.Request().Context(), ctxUsr, query.UserID, query.Year, query.Month)
	if err != nil {
		return errors.Wrap(err, "building calendar")
	}
	return ctx.JSON(http.StatusOK, cal)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}

	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rec, err := api.svc.Mark(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	if rec == nil { // unmarked
		return ctx.NoContent(http.StatusNoContent)
	}
	return ctx.JSON(http.StatusOK, rec)
}
