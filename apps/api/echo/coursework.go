package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core/coursework"
)

type courseworkApi struct {
	svc  coursework.Service
	auth *authenticator
}

func registerCourseworkAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc coursework.Service) {
	api := courseworkApi{svc: svc, auth: auth}

	cg := g.Group("/coursework", jwt, activeUserMiddleware(auth))
	cg.GET("/sections/:id/materials", api.materials)
	cg.POST("/materials", api.createMaterial)
	cg.GET("/materials/:id/submissions", api.submissions)
	cg.POST("/materials/:id/submissions", api.submit)
	cg.PUT("/submissions/:id/grade", api.grade)
}

func (api *courseworkApi) materials(ctx echo.Context) error {
	sectionID, err := idParam(ctx)
	if err != nil {
		return err
	}
	materials, err := api.svc.SectionMaterials(ctx.Request().Context(), sectionID)
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	return jsonList(ctx, materials)
}

func (api *courseworkApi) createMaterial(ctx echo.Context) error {
	var data coursework.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	m, err := api.svc.CreateMaterial(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *courseworkApi) submissions(ctx echo.Context) error {
	materialID, err := idParam(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	subs, err := api.svc.Submissions(ctx.Request().Context(), ctxUsr, materialID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return jsonList(ctx, subs)
}

func (api *courseworkApi) submit(ctx echo.Context) error {
	materialID, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data coursework.NewSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.Submit(ctx.Request().Context(), ctxUsr, materialID, data)
	if err != nil {
		return errors.Wrap(err, "submitting assignment")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *courseworkApi) grade(ctx echo.Context) error {
	submissionID, err := idParam(ctx)
	if err != nil {
		return err
	}
	var data coursework.Grade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sub, err := api.svc.Grade(ctx.Request().Context(), ctxUsr, submissionID, data)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, sub)
}
