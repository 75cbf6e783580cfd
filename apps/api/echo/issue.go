package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/issue"
)

type issueApi struct {
	svc  issue.Service
	auth *authenticator
}

func registerIssueAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc issue.Service) {
	api := issueApi{svc: svc, auth: auth}

	ig := g.Group("/issues", jwt, activeUserMiddleware(auth))
	ig.GET("", api.board)
	ig.GET("/categories", api.categories)
	ig.POST("", api.report)
	ig.PUT("/:id/status", api.setStatus)
}

func (api *issueApi) board(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	board, err := api.svc.Board(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return errors.Wrap(err, "building issues board")
	}
	if board.Issues == nil {
		board.Issues = []issue.Issue{}
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *issueApi) categories(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, issue.Categories)
}

func (api *issueApi) report(ctx echo.Context) error {
	var data issue.NewIssue
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewIssue")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	is, err := api.svc.Report(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "reporting issue")
	}
	return ctx.JSON(http.StatusCreated, is)
}

func (api *issueApi) setStatus(ctx echo.Context) error {
	id, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data issue.UpdateStatus
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	is, err := api.svc.SetStatus(ctx.Request().Context(), ctxUsr, id, data)
	if err != nil {
		return errors.Wrap(err, "setting issue status")
	}
	return ctx.JSON(http.StatusOK, is)
}
