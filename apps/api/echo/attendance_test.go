package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/attendance"
	"github.com/studentpartner/backend/core/user"
)

func Test_attendanceApi(t *testing.T) {
	app := setup(t)

	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)
	parent := app.createUser(t, "Papa", "papa01", user.RoleParent)
	studentToken := app.getToken(t, student)
	day := core.NewDate(2024, 2, 14)

	mark := func(userID int, status attendance.Status) attendance.MarkAttendance {
		return attendance.MarkAttendance{UserID: userID, Date: day, Status: status}
	}

	app.run(t, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/attendance", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Invalid status", method: http.MethodPut, path: "/v1/attendance", token: studentToken,
			body: []byte(`{"date":"2024-02-14","status":"late"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "status must be one of present, absent, holiday, weekoff or none"}),
		},
		{
			name: "Invalid month", method: http.MethodGet, path: "/v1/attendance?year=2024&month=13", token: studentToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"month": "month must be between 1 and 12"}),
		},
		{
			name: "Non numeric year", method: http.MethodGet, path: "/v1/attendance?year=lol&month=2", token: studentToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Students cannot mark others", method: http.MethodPut, path: "/v1/attendance", token: studentToken,
			body: marchallObj(t, mark(teacher.ID, attendance.StatusAbsent)), wantCode: http.StatusForbidden,
		},
		{
			name: "Unlinked parents cannot view", method: http.MethodGet, token: app.getToken(t, parent),
			path:     fmt.Sprintf("/v1/attendance?year=2024&month=2&user_id=%d", student.ID),
			wantCode: http.StatusForbidden,
		},
	})

	t.Run("Mark then unmark", func(t *testing.T) {
		var rec attendance.Record
		resp := app.do(t, http.MethodPut, "/v1/attendance", studentToken, mark(0, attendance.StatusPresent), &rec)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, student.ID, rec.UserID)
		assert.Equal(t, attendance.StatusPresent, rec.Status)

		// teachers may override their students' days
		resp = app.do(t, http.MethodPut, "/v1/attendance", app.getToken(t, teacher), mark(student.ID, attendance.StatusHoliday), &rec)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, attendance.StatusHoliday, rec.Status)

		var cal attendance.Calendar
		resp = app.do(t, http.MethodGet, "/v1/attendance?year=2024&month=2", studentToken, nil, &cal)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, 29, cal.Days)
		assert.Equal(t, 3, cal.LeadingBlanks) // 2024-02-01 is a Thursday
		assert.Equal(t, 1, cal.Summary.Holiday)
		assert.Equal(t, attendance.StatusHoliday, cal.Cells[cal.LeadingBlanks+13].Status)

		resp = app.do(t, http.MethodPut, "/v1/attendance", studentToken, mark(0, attendance.StatusNone), nil)
		require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

		resp = app.do(t, http.MethodGet, "/v1/attendance?year=2024&month=2", studentToken, nil, &cal)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Zero(t, cal.Summary.Holiday)
		assert.Equal(t, attendance.StatusNone, cal.Cells[cal.LeadingBlanks+13].Status)
	})

	t.Run("Defaults to the current month", func(t *testing.T) {
		var cal attendance.Calendar
		resp := app.do(t, http.MethodGet, "/v1/attendance", studentToken, nil, &cal)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		today := attendance.Today()
		assert.Equal(t, today.Year(), cal.Year)
		assert.Equal(t, today.Month(), cal.Month)
	})
}
