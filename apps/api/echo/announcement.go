package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/announcement"
)

type announcementApi struct {
	svc  announcement.Service
	auth *authenticator
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc announcement.Service) {
	api := announcementApi{svc: svc, auth: auth}

	ag := g.Group("/announcements", jwt, activeUserMiddleware(auth))
	ag.GET("", api.query)
	ag.POST("", api.create, staffMiddleware(auth))
}

// query lists the announcements addressed to the context user's role, newest first.
func (api *announcementApi) query(ctx echo.Context) error {
	limit, err := intQueryParam(ctx, "limit")
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	anns, err := api.svc.ForRole(ctx.Request().Context(), ctxUsr.Role, limit)
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	return jsonList(ctx, anns)
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	created, err := api.svc.Create(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, created)
}
