package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/announcement"
	"github.com/studentpartner/backend/core/attendance"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/core/dashboard"
	"github.com/studentpartner/backend/core/issue"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/meeting"
	"github.com/studentpartner/backend/core/result"
	"github.com/studentpartner/backend/core/task"
	"github.com/studentpartner/backend/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc         user.Service
		AttendanceSvc   attendance.Service
		LeaveSvc        leave.Service
		TaskSvc         task.Service
		AnnouncementSvc announcement.Service
		MeetingSvc      meeting.Service
		AcademicSvc     academic.Service
		CourseworkSvc   coursework.Service
		ResultSvc       result.Service
		IssueSvc        issue.Service
		DashboardSvc    dashboard.Service
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		auth     *authenticator
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		auth:     newAuthenticator(deps.Conf, deps.UserSvc),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !conf.Server.DisableRequestLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", s.home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(s.auth.jwtConfig)

	registerUserAPI(v1, jwt, s.auth, s.deps.UserSvc, s.deps.Validate)
	registerAttendanceAPI(v1, jwt, s.auth, s.deps.AttendanceSvc)
	registerLeaveAPI(v1, jwt, s.auth, s.deps.LeaveSvc)
	registerTaskAPI(v1, jwt, s.auth, s.deps.TaskSvc)
	registerAnnouncementAPI(v1, jwt, s.auth, s.deps.AnnouncementSvc)
	registerMeetingAPI(v1, jwt, s.auth, s.deps.MeetingSvc)
	registerAcademicAPI(v1, jwt, s.auth, s.deps.AcademicSvc)
	registerCourseworkAPI(v1, jwt, s.auth, s.deps.CourseworkSvc)
	registerResultAPI(v1, jwt, s.auth, s.deps.ResultSvc)
	registerIssueAPI(v1, jwt, s.auth, s.deps.IssueSvc)
	registerDashboardAPI(v1, jwt, s.auth, s.deps.DashboardSvc)
}

// Start blocks until the server stops; failures are sent to Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address()); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.deps.Conf.AppName+" API!")
}
