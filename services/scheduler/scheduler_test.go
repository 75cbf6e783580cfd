package scheduler

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

func TestNew(t *testing.T) {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)

	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{name: "daily", spec: "0 7 * * *"},
		{name: "descriptor", spec: "@hourly"},
		{name: "invalid", spec: "every morning", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf.Scheduler.MeetingReminderSpec = tt.spec
			s, err := New(conf, nil, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, s.cron.Entries(), 1)
		})
	}
}

func TestScheduler_RemindMeetings(t *testing.T) {
	conf := testutil.NewConfig()
	conf.Scheduler.MeetingReminderSpec = "0 7 * * *"
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)
	emailsvc.ResetSentMessages()

	db := testutil.PrepareDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	usrSvc := user.NewService(db, usrRepo, mailSvc, conf)
	meetingSvc := meeting.NewService(sqlxrepos.NewMeetingRepository(db), usrSvc, mailSvc, logger, testutil.NewValidator())

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", user.RoleTeacher, user.StatusActive)
	testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", user.RoleStudent, user.StatusActive)
	testutil.CreateUser(t, usrRepo, "Parent", "parent", "parent@test.cd", "", user.RoleParent, user.StatusActive)

	day := core.NewDate(2024, time.September, 10)
	nowFunc = func() time.Time { return day.Add(6 * time.Hour) }
	defer func() { nowFunc = time.Now }()

	_, err := meetingSvc.Create(context.Background(), teacher, meeting.NewMeeting{
		Title: "Assembly", Date: day, StartTime: "08:00", EndTime: "09:00",
	})
	require.NoError(t, err)
	_, err = meetingSvc.Create(context.Background(), teacher, meeting.NewMeeting{
		Title: "Next week", Date: day.AddDays(7), StartTime: "08:00", EndTime: "09:00",
	})
	require.NoError(t, err)

	s, err := New(conf, meetingSvc, logger)
	require.NoError(t, err)

	sent, err := s.RemindMeetings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent) // the whole school

	var to []string
	for _, msg := range emailsvc.Sent() {
		assert.Equal(t, "Reminder: Assembly at 08:00", msg.Subject)
		to = append(to, msg.To[0].Address)
	}
	assert.ElementsMatch(t, []string{"teacher@test.cd", "student@test.cd", "parent@test.cd"}, to)
}
