package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/result"
)

type resultApi struct {
	svc  result.Service
	auth *authenticator
}

func registerResultAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc result.Service) {
	api := resultApi{svc: svc, auth: auth}

	rg := g.Group("/results", jwt, activeUserMiddleware(auth))
	rg.POST("", api.create)
	rg.GET("/students/:id", api.studentResults)
}

func (api *resultApi) create(ctx echo.Context) error {
	var data result.NewResult
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResult")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	res, err := api.svc.Add(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "adding result")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *resultApi) studentResults(ctx echo.Context) error {
	studentID, err := idParam(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	results, err := api.svc.StudentResults(ctx.Request().Context(), ctxUsr, studentID)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return jsonList(ctx, results)
}
