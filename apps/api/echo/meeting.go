package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/meeting"
)

type meetingApi struct {
	svc  meeting.Service
	auth *authenticator
}

func registerMeetingAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc meeting.Service) {
	api := meetingApi{svc: svc, auth: auth}

	mg := g.Group("/meetings", jwt, activeUserMiddleware(auth))
	mg.GET("", api.query)
	mg.GET("/upcoming", api.upcoming)
	mg.POST("", api.create, staffMiddleware(auth))
}

func (api *meetingApi) query(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	meetings, err := api.svc.ForRole(ctx.Request().Context(), ctxUsr.Role)
	if err != nil {
		return errors.Wrap(err, "querying meetings")
	}
	return jsonList(ctx, meetings)
}

func (api *meetingApi) upcoming(ctx echo.Context) error {
	limit, err := intQueryParam(ctx, "limit")
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	meetings, err := api.svc.Upcoming(ctx.Request().Context(), ctxUsr.Role, limit)
	if err != nil {
		return errors.Wrap(err, "querying upcoming meetings")
	}
	return jsonList(ctx, meetings)
}

func (api *meetingApi) create(ctx echo.Context) error {
	var data meeting.NewMeeting
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMeeting")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	m, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating meeting")
	}
	return ctx.JSON(http.StatusCreated, m)
}
