package echoapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/announcement"
	"github.com/studentpartner/backend/core/meeting"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
)

func Test_announcementApi(t *testing.T) {
	app := setup(t)

	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)
	parent := app.createUser(t, "Papa", "papa01", user.RoleParent)
	app.createUser(t, "Newbie", "newbie", user.RoleStudent, user.StatusPending)
	teacherToken := app.getToken(t, teacher)
	studentToken := app.getToken(t, student)

	app.run(t, []httpTest{
		{
			name: "Staff only", method: http.MethodPost, path: "/v1/announcements", token: studentToken,
			body: marchallObj(t, announcement.NewAnnouncement{Title: "Party", Content: "Friday"}), wantCode: http.StatusForbidden,
		},
		{
			name: "Unknown audience", method: http.MethodPost, path: "/v1/announcements", token: teacherToken,
			body: []byte(`{"title":"Party","content":"Friday","target_role":"aliens"}`), wantCode: http.StatusBadRequest,
		},
		{name: "Nothing yet", method: http.MethodGet, path: "/v1/announcements", token: studentToken, wantData: marchallList(t)},
	})

	t.Run("Broadcast to active students", func(t *testing.T) {
		emailsvc.ResetSentMessages()
		var created announcement.Created
		resp := app.do(t, http.MethodPost, "/v1/announcements", teacherToken,
			announcement.NewAnnouncement{Title: "Exams", Content: "Start on Monday", TargetRole: user.AudienceOf(user.RoleStudent)}, &created)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		assert.Equal(t, "Teacher", created.Announcement.AuthorName)
		assert.NotEmpty(t, created.Broadcast.BatchID)
		assert.Equal(t, 1, created.Broadcast.Emails) // pending accounts are skipped
		require.Len(t, emailsvc.Sent(), 1)
		assert.Equal(t, student.Email, emailsvc.Sent()[0].To[0].Address)

		var list []announcement.Announcement
		resp = app.do(t, http.MethodGet, "/v1/announcements", studentToken, nil, &list)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Len(t, list, 1)

		resp = app.do(t, http.MethodGet, "/v1/announcements", app.getToken(t, parent), nil, &list)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Empty(t, list)
	})
}

func Test_meetingApi(t *testing.T) {
	app := setup(t)

	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	parent := app.createUser(t, "Papa", "papa01", user.RoleParent)
	teacherToken := app.getToken(t, teacher)
	parentToken := app.getToken(t, parent)
	future := core.DateOf(time.Now().UTC()).AddDays(30)

	newMeeting := meeting.NewMeeting{Title: "PTA", Date: future, StartTime: "10:00", EndTime: "11:00", TargetRole: user.AudienceOf(user.RoleParent)}
	app.run(t, []httpTest{
		{name: "Staff only", method: http.MethodPost, path: "/v1/meetings", token: parentToken, body: marchallObj(t, newMeeting), wantCode: http.StatusForbidden},
		{
			name: "Ends before it starts", method: http.MethodPost, path: "/v1/meetings", token: teacherToken,
			body:     marchallObj(t, meeting.NewMeeting{Title: "PTA", Date: future, StartTime: "11:00", EndTime: "10:00"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"end_time": "end_time must be after start_time"}),
		},
		{
			name: "Invalid clock time", method: http.MethodPost, path: "/v1/meetings", token: teacherToken,
			body:     marchallObj(t, meeting.NewMeeting{Title: "PTA", Date: future, StartTime: "25:00", EndTime: "26:00"}),
			wantCode: http.StatusBadRequest,
		},
	})

	var m meeting.Meeting
	resp := app.do(t, http.MethodPost, "/v1/meetings", teacherToken, newMeeting, &m)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var list []meeting.Meeting
	resp = app.do(t, http.MethodGet, "/v1/meetings/upcoming?limit=3", parentToken, nil, &list)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.Len(t, list, 1)
	assert.Equal(t, m.ID, list[0].ID)

	resp = app.do(t, http.MethodGet, "/v1/meetings", teacherToken, nil, &list)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Empty(t, list)
}
