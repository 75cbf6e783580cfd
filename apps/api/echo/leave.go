package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/leave"
)

type leaveApi struct {
	svc  leave.Service
	auth *authenticator
}

func registerLeaveAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc leave.Service) {
	api := leaveApi{svc: svc, auth: auth}

	lg := g.Group("/leaves", jwt, activeUserMiddleware(auth))
	lg.GET("", api.mine)
	lg.POST("", api.apply)
	lg.GET("/pending", api.pending, staffMiddleware(auth))
	lg.PUT("/:id/decision", api.decide, staffMiddleware(auth))
	lg.DELETE("/:id", api.cancel)
}

func (api *leaveApi) mine(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	leaves, err := api.svc.Mine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	return jsonList(ctx, leaves)
}

func (api *leaveApi) apply(ctx echo.Context) error {
	var data leave.NewLeave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeave")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lv, err := api.svc.Apply(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "applying for leave")
	}
	return ctx.JSON(http.StatusCreated, lv)
}

func (api *leaveApi) pending(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	leaves, err := api.svc.Pending(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying pending leaves")
	}
	return jsonList(ctx, leaves)
}

func (api *leaveApi) decide(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data leave.Decision
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	lv, err := api.svc.Decide(ctx.Request().Context(), ctxUsr, id, data)
	if err != nil {
		return errors.Wrap(err, "deciding leave")
	}
	return ctx.JSON(http.StatusOK, lv)
}

func (api *leaveApi) cancel(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Cancel(ctx.Request().Context(), ctxUsr, id); err != nil {
		return errors.Wrap(err, "cancelling leave")
	}
	return ctx.NoContent(http.StatusNoContent)
}
