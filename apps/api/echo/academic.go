package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/user"
)

type academicApi struct {
	svc  academic.Service
	auth *authenticator
}

func registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc academic.Service) {
	api := academicApi{svc: svc, auth: auth}

	ag := g.Group("/academic", jwt, activeUserMiddleware(auth))
	ag.GET("/classes", api.classes)
	ag.POST("/classes", api.createClass)
	ag.GET("/sections", api.sections)
	ag.POST("/sections", api.createSection)
	ag.GET("/subjects", api.subjects)
	ag.POST("/subjects", api.createSubject)

	ag.GET("/allocations", api.allocations, staffMiddleware(auth))
	ag.PUT("/allocations", api.allocate)
	ag.PUT("/enrollments", api.enroll)
	ag.GET("/students/:id/enrollment", api.enrollment)

	ag.GET("/children", api.children, rolesMiddleware(auth, user.RoleParent))
	ag.POST("/parent-links", api.linkParent)
	ag.DELETE("/parent-links", api.unlinkParent)
}

func (api *academicApi) classes(ctx echo.Context) error {
	classes, err := api.svc.Classes(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	return jsonList(ctx, classes)
}

func (api *academicApi) createClass(ctx echo.Context) error {
	var data academic.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	c, err := api.svc.CreateClass(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, c)
}

// sections lists the sections of `class_id`, or all of them.
func (api *academicApi) sections(ctx echo.Context) error {
	classID, err := intQueryParam(ctx, "class_id")
	if err != nil {
		return err
	}
	sections, err := api.svc.Sections(ctx.Request().Context(), classID)
	if err != nil {
		return errors.Wrap(err, "querying sections")
	}
	return jsonList(ctx, sections)
}

func (api *academicApi) createSection(ctx echo.Context) error {
	var data academic.NewSection
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSection")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.CreateSection(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating section")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *academicApi) subjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	return jsonList(ctx, subjects)
}

func (api *academicApi) createSubject(ctx echo.Context) error {
	var data academic.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.CreateSubject(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "creating subject")
	}
	return ctx.JSON(http.StatusCreated, s)
}

// allocations lists the slots of the context teacher; admins may ask for any `teacher_id`.
func (api *academicApi) allocations(ctx echo.Context) error {
	teacherID, err := intQueryParam(ctx, "teacher_id")
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if teacherID == 0 || !ctxUsr.IsAdmin() {
		teacherID = ctxUsr.ID
	}
	allocs, err := api.svc.TeacherAllocations(ctx.Request().Context(), teacherID)
	if err != nil {
		return errors.Wrap(err, "querying allocations")
	}
	return jsonList(ctx, allocs)
}

func (api *academicApi) allocate(ctx echo.Context) error {
	var data academic.NewAllocation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAllocation")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	alloc, err := api.svc.AllocateTeacher(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "allocating teacher")
	}
	return ctx.JSON(http.StatusOK, alloc)
}

func (api *academicApi) enroll(ctx echo.Context) error {
	var data academic.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	enr, err := api.svc.EnrollStudent(ctx.Request().Context(), ctxUsr, data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return ctx.JSON(http.StatusOK, enr)
}

// enrollment returns the current enrollment of a student to themselves, their parents and staff.
func (api *academicApi) enrollment(ctx echo.Context) error {
	studentID, err := idParam(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	allowed := ctxUsr.ID == studentID || ctxUsr.Role.IsStaff()
	if !allowed && ctxUsr.IsParent() {
		if allowed, err = api.svc.IsParentOf(ctx.Request().Context(), ctxUsr.ID, studentID); err != nil {
			return errors.Wrap(err, "checking guardianship")
		}
	}
	if !allowed {
		return core.ErrPermissionDenied
	}

	enr, err := api.svc.CurrentEnrollment(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "getting enrollment")
	}
	if enr == nil {
		return academic.ErrEnrollmentNotFound
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *academicApi) children(ctx echo.Context) error {
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	children, err := api.svc.Children(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	return jsonList(ctx, children)
}

func (api *academicApi) linkParent(ctx echo.Context) error {
	var data academic.ParentLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentLink")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.LinkParent(ctx.Request().Context(), ctxUsr, data); err != nil {
		return errors.Wrap(err, "linking parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *academicApi) unlinkParent(ctx echo.Context) error {
	var data academic.ParentLink
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParentLink")
	}
	ctxUsr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.UnlinkParent(ctx.Request().Context(), ctxUsr, data); err != nil {
		return errors.Wrap(err, "unlinking parent")
	}
	return ctx.NoContent(http.StatusNoContent)
}
