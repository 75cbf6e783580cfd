package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/dashboard"
)

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc dashboard.Service) {
	g.GET("/dashboard", func(ctx echo.Context) error {
		var query MonthQuery
		if err := query.Bind(ctx); err != nil {
			return err
		}
		ctxUsr, err := auth.getContextUser(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		d, err := svc.Build(ctx.Request().Context(), ctxUsr, query.Year, query.Month)
		if err != nil {
			return errors.Wrap(err, "building dashboard")
		}
		return ctx.JSON(http.StatusOK, d)
	}, jwt)
}
