package meeting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/meeting"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
	"github.com/studentpartner/backend/testutil"
)

type fixture struct {
	svc     meeting.Service
	usrRepo user.Repository
	teacher user.User
	student user.User
	parent  user.User
	today   core.Date
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ResetSentMessages()

	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)

	return fixture{
		svc:     meeting.NewService(sqlxrepos.NewMeetingRepository(db), usrSvc, mailSvc, logger, testutil.NewValidator()),
		usrRepo: usrRepo,
		teacher: testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive),
		student: testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", user.RoleStudent, user.StatusActive),
		parent:  testutil.CreateUser(t, usrRepo, "Parent", "parent", "parent@test.cd", "", user.RoleParent, user.StatusActive),
		today:   core.DateOf(time.Now().UTC()),
	}
}

func (f fixture) create(t *testing.T, title string, date core.Date, start string, audience user.Audience) meeting.Meeting {
	t.Helper()
	m, err := f.svc.Create(context.Background(), f.teacher, meeting.NewMeeting{
		Title: title, Date: date, StartTime: start, EndTime: "23:59", TargetRole: audience,
	})
	require.NoError(t, err)
	return m
}

func TestService_Create(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		actor   user.User
		nm      meeting.NewMeeting
		wantErr bool
	}{
		{name: "students cannot", actor: f.student, nm: meeting.NewMeeting{Title: "PTA", Date: f.today, StartTime: "09:00", EndTime: "10:00"}, wantErr: true},
		{name: "date required", actor: f.teacher, nm: meeting.NewMeeting{Title: "PTA", StartTime: "09:00", EndTime: "10:00"}, wantErr: true},
		{name: "ends when it starts", actor: f.teacher, nm: meeting.NewMeeting{Title: "PTA", Date: f.today, StartTime: "09:00", EndTime: "09:00"}, wantErr: true},
		{name: "ends before it starts", actor: f.teacher, nm: meeting.NewMeeting{Title: "PTA", Date: f.today, StartTime: "10:00", EndTime: "09:30"}, wantErr: true},
		{name: "unknown audience", actor: f.teacher, nm: meeting.NewMeeting{Title: "PTA", Date: f.today, StartTime: "09:00", EndTime: "10:00", TargetRole: "aliens"}, wantErr: true},
		{name: "valid", actor: f.teacher, nm: meeting.NewMeeting{Title: "  PTA ", Date: f.today, StartTime: "09:00", EndTime: "10:00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := f.svc.Create(ctx, tt.actor, tt.nm)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotZero(t, m.ID)
			assert.Equal(t, "PTA", m.Title)
			assert.Equal(t, user.AudienceAll, m.TargetRole)
			assert.Equal(t, f.teacher.ID, m.CreatedBy)
		})
	}

	_, err := f.svc.Create(ctx, f.student, meeting.NewMeeting{Title: "PTA", Date: f.today, StartTime: "09:00", EndTime: "10:00"})
	assert.Equal(t, core.ErrPermissionDenied, err)
}

func TestService_Upcoming(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.create(t, "yesterday", f.today.AddDays(-1), "09:00", user.AudienceAll)
	late := f.create(t, "today late", f.today, "15:00", user.AudienceAll)
	early := f.create(t, "today early", f.today, "08:00", user.AudienceAll)
	parents := f.create(t, "parents", f.today.AddDays(1), "09:00", user.AudienceOf(user.RoleParent))
	var later []meeting.Meeting
	for i := 2; i <= 6; i++ {
		later = append(later, f.create(t, "later", f.today.AddDays(i), "09:00", user.AudienceOf(user.RoleStudent)))
	}

	ids := func(ms []meeting.Meeting) []int {
		res := make([]int, 0, len(ms))
		for _, m := range ms {
			res = append(res, m.ID)
		}
		return res
	}

	tests := []struct {
		name  string
		role  user.Role
		limit int
		want  []int
	}{
		{name: "default limit", role: user.RoleStudent, want: []int{early.ID, late.ID, later[0].ID, later[1].ID, later[2].ID}},
		{name: "explicit limit", role: user.RoleStudent, limit: 2, want: []int{early.ID, late.ID}},
		{name: "other audience", role: user.RoleParent, limit: 10, want: []int{early.ID, late.ID, parents.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Upcoming(ctx, tt.role, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	all, err := f.svc.ForRole(ctx, user.RoleParent)
	require.NoError(t, err)
	assert.Len(t, all, 4) // yesterday's included
}

func TestService_SendReminders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	testutil.CreateUser(t, f.usrRepo, "Pending", "pending", "pending@test.cd", "", user.RoleStudent, user.StatusPending)
	testutil.CreateUser(t, f.usrRepo, "No Mail", "nomail", "", "", user.RoleStudent, user.StatusActive)
	f.create(t, "Science fair", f.today, "10:00", user.AudienceOf(user.RoleStudent))
	f.create(t, "PTA", f.today, "17:00", user.AudienceOf(user.RoleParent))
	f.create(t, "Tomorrow", f.today.AddDays(1), "10:00", user.AudienceAll)

	sent, err := f.svc.SendReminders(ctx, f.today)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	msgs := emailsvc.Sent()
	require.Len(t, msgs, 2)
	to := map[string]string{}
	for _, msg := range msgs {
		require.Len(t, msg.To, 1)
		to[msg.To[0].Address] = msg.Subject
		assert.NotEmpty(t, msg.TextContent)
	}
	assert.Equal(t, map[string]string{
		f.student.Email: "Reminder: Science fair at 10:00",
		f.parent.Email:  "Reminder: PTA at 17:00",
	}, to)

	t.Run("no meeting", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		sent, err := f.svc.SendReminders(ctx, f.today.AddDays(10))
		require.NoError(t, err)
		assert.Zero(t, sent)
		assert.Empty(t, emailsvc.Sent())
	})
}
