package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/studentpartner/backend/apps/api/echo"
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
	emailsvc "github.com/studentpartner/backend/services/email"
	logsvc "github.com/studentpartner/backend/services/logger"
	smssvc "github.com/studentpartner/backend/services/sms"
	"github.com/studentpartner/backend/storage/database"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB, core.DBExecutor) {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db, conf.Database.Engine); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db, db
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	return validate, translator
}

// the academic service answers guardianship questions for the modules needing them
func newAttendanceGuardianship(svc academic.Service) attendance.Guardianship { return svc }
func newResultGuardianship(svc academic.Service) result.Guardianship         { return svc }

type dashboardParams struct {
	dig.In
	User         user.Service
	Attendance   attendance.Service
	Task         task.Service
	Announcement announcement.Service
	Meeting      meeting.Service
	Leave        leave.Service
	Academic     academic.Service
	Result       result.Service
}

func newDashboardService(p dashboardParams) dashboard.Service {
	return dashboard.NewService(dashboard.Services{
		User:         p.User,
		Attendance:   p.Attendance,
		Task:         p.Task,
		Announcement: p.Announcement,
		Meeting:      p.Meeting,
		Leave:        p.Leave,
		Academic:     p.Academic,
		Result:       p.Result,
	})
}

type serverParams struct {
	dig.In
	Conf            *core.Config
	Logger          core.Logger
	Validate        *validator.Validate
	Translator      ut.Translator
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

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		Validate:        p.Validate,
		Translator:      p.Translator,
		UserSvc:         p.UserSvc,
		AttendanceSvc:   p.AttendanceSvc,
		LeaveSvc:        p.LeaveSvc,
		TaskSvc:         p.TaskSvc,
		AnnouncementSvc: p.AnnouncementSvc,
		MeetingSvc:      p.MeetingSvc,
		AcademicSvc:     p.AcademicSvc,
		CourseworkSvc:   p.CourseworkSvc,
		ResultSvc:       p.ResultSvc,
		IssueSvc:        p.IssueSvc,
		DashboardSvc:    p.DashboardSvc,
	})
}

// New returns a new dependency injection dig.Container
func New(newConfig func() *core.Config) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(smssvc.NewConsoleService))
	must(c.Provide(newValidator))

	// repositories
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(new(user.Repository))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(sqlxrepos.NewLeaveRepository, dig.As(new(leave.Repository))))
	must(c.Provide(sqlxrepos.NewTaskRepository, dig.As(new(task.Repository))))
	must(c.Provide(sqlxrepos.NewAnnouncementRepository, dig.As(new(announcement.Repository))))
	must(c.Provide(sqlxrepos.NewMeetingRepository, dig.As(new(meeting.Repository))))
	must(c.Provide(sqlxrepos.NewAcademicRepository, dig.As(new(academic.Repository))))
	must(c.Provide(sqlxrepos.NewCourseworkRepository, dig.As(new(coursework.Repository))))
	must(c.Provide(sqlxrepos.NewResultRepository, dig.As(new(result.Repository))))
	must(c.Provide(sqlxrepos.NewIssueRepository, dig.As(new(issue.Repository))))

	// services
	must(c.Provide(user.NewService))
	must(c.Provide(academic.NewService))
	must(c.Provide(newAttendanceGuardianship))
	must(c.Provide(newResultGuardianship))
	must(c.Provide(attendance.NewService))
	must(c.Provide(leave.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(announcement.NewService))
	must(c.Provide(meeting.NewService))
	must(c.Provide(coursework.NewService))
	must(c.Provide(result.NewService))
	must(c.Provide(issue.NewService))
	must(c.Provide(newDashboardService))

	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
