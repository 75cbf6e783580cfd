package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"

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
	smssvc "github.com/studentpartner/backend/services/sms"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
	"github.com/studentpartner/backend/testutil"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	conf        *core.Config
	db          *sqlx.DB
	usrRepo     user.Repository
	academicSvc academic.Service
}

func setup(t *testing.T) testApp {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewTranslatedValidator()
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ResetSentMessages()
	smssvc.ResetSentMessages()

	// set up DB & repos
	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	smsSvc := smssvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)
	academicSvc := academic.NewService(sqlxrepos.NewAcademicRepository(db), usrSvc, validate)
	deps := ServerDeps{
		Conf:            conf,
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		AttendanceSvc:   attendance.NewService(sqlxrepos.NewAttendanceRepository(db), usrSvc, academicSvc, validate),
		LeaveSvc:        leave.NewService(sqlxrepos.NewLeaveRepository(db), usrSvc, mailSvc, validate),
		TaskSvc:         task.NewService(sqlxrepos.NewTaskRepository(db), usrSvc, validate),
		AnnouncementSvc: announcement.NewService(sqlxrepos.NewAnnouncementRepository(db), usrSvc, mailSvc, smsSvc, logger, validate),
		MeetingSvc:      meeting.NewService(sqlxrepos.NewMeetingRepository(db), usrSvc, mailSvc, logger, validate),
		AcademicSvc:     academicSvc,
		CourseworkSvc:   coursework.NewService(sqlxrepos.NewCourseworkRepository(db), academicSvc, validate),
		ResultSvc:       result.NewService(sqlxrepos.NewResultRepository(db), usrSvc, academicSvc, validate),
		IssueSvc:        issue.NewService(sqlxrepos.NewIssueRepository(db), validate),
	}
	deps.DashboardSvc = dashboard.NewService(dashboard.Services{
		User:         deps.UserSvc,
		Attendance:   deps.AttendanceSvc,
		Task:         deps.TaskSvc,
		Announcement: deps.AnnouncementSvc,
		Meeting:      deps.MeetingSvc,
		Leave:        deps.LeaveSvc,
		Academic:     deps.AcademicSvc,
		Result:       deps.ResultSvc,
	})

	return testApp{
		Server:      NewServer(deps),
		conf:        conf,
		db:          db,
		usrRepo:     usrRepo,
		academicSvc: academicSvc,
	}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	token, err := app.auth.GenerateToken(app.auth.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func (app testApp) createUser(t *testing.T, name, uname string, role user.Role, status ...user.Status) user.User {
	st := user.StatusActive
	if len(status) > 0 {
		st = status[0]
	}
	usr := testutil.CreateUser(t, app.usrRepo, name, uname, uname+"@test.cd", "Gr8!Tulip-Lamp", role, st)
	// reload so that timestamps compare as the API serializes them
	usr, err := app.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
	if err != nil {
		t.Fatalf("createUser(): %v", err)
	}
	return usr
}

// do serves a request and decodes the JSON response into dst, when given.
func (app testApp) do(t *testing.T, method, path, token string, body interface{}, dst interface{}) *httptest.ResponseRecorder {
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, token, data)
	app.ServeHTTP(rec, req)
	if dst != nil && rec.Code < http.StatusBadRequest {
		if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
			t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
		}
	}
	return rec
}

func (app testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData compares the response body only when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func (app testApp) ctx() context.Context { return context.Background() }
