package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/task"
)

type taskApi struct {
	svc  task.Service
	auth *authenticator
}

func registerTaskAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc task.Service) {
	api := taskApi{svc: svc, auth: auth}

	tg := g.Group("/tasks", jwt, activeUserMiddleware(auth))
	tg.GET("", api.mine)
	tg.POST("", api.create)
	tg.PUT("/:id/status", api.setStatus)
	tg.DELETE("/:id", api.destroy)
}

func (api *taskApi) mine(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	tasks, err := api.svc.Mine(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return jsonList(ctx, tasks)
}

func (api *taskApi) create(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *taskApi) setStatus(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data task.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	t, err := api.svc.SetStatus(ctx.Request().Context(), ctxUsr, id, data)
	if err != nil {
		return errors.Wrap(err, "setting task status")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *taskApi) destroy(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), ctxUsr, id); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.NoContent(http.StatusNoContent)
}
