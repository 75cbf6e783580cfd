package echoapi

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
)

func Test_leaveApi(t *testing.T) {
	app := setup(t)

	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)
	other := app.createUser(t, "Other", "other1", user.RoleStudent)
	studentToken := app.getToken(t, student)
	teacherToken := app.getToken(t, teacher)

	newLeave := leave.NewLeave{Reason: "Dentist", StartDate: core.NewDate(2024, 3, 4), EndDate: core.NewDate(2024, 3, 5)}

	app.run(t, []httpTest{
		{
			name: "Dates required", method: http.MethodPost, path: "/v1/leaves", token: studentToken,
			body: []byte(`{"reason":"Dentist"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"start_date": "start_date is a required field", "end_date": "end_date is a required field"}),
		},
		{
			name: "Inverted range", method: http.MethodPost, path: "/v1/leaves", token: studentToken,
			body:     []byte(`{"reason":"Dentist","start_date":"2024-03-05","end_date":"2024-03-04"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"end_date": leave.ErrInvalidRange.Error()}),
		},
		{name: "Students do not review", method: http.MethodGet, path: "/v1/leaves/pending", token: studentToken, wantCode: http.StatusForbidden},
		{name: "Nothing applied yet", method: http.MethodGet, path: "/v1/leaves", token: studentToken, wantData: marchallList(t)},
	})

	var lv leave.Leave
	resp := app.do(t, http.MethodPost, "/v1/leaves", studentToken, newLeave, &lv)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, leave.StatusPending, lv.Status)
	assert.Equal(t, user.RoleStudent, lv.Role)

	t.Run("Review", func(t *testing.T) {
		var pending []leave.Leave
		resp := app.do(t, http.MethodGet, "/v1/leaves/pending", teacherToken, nil, &pending)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		require.Len(t, pending, 1)
		assert.Equal(t, lv.ID, pending[0].ID)

		decisionPath := fmt.Sprintf("/v1/leaves/%d/decision", lv.ID)
		resp = app.do(t, http.MethodPut, decisionPath, app.getToken(t, other), leave.Decision{Status: leave.StatusApproved}, nil)
		assert.Equal(t, http.StatusForbidden, resp.Code)

		emailsvc.ResetSentMessages()
		var decided leave.Leave
		resp = app.do(t, http.MethodPut, decisionPath, teacherToken, leave.Decision{Status: leave.StatusApproved, Remarks: "Get well"}, &decided)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		assert.Equal(t, leave.StatusApproved, decided.Status)
		assert.Equal(t, teacher.ID, decided.ApprovedBy)
		assert.Len(t, emailsvc.Sent(), 1)

		app.run(t, []httpTest{
			{
				name: "Already decided", method: http.MethodPut, path: decisionPath, token: teacherToken,
				body: marchallObj(t, leave.Decision{Status: leave.StatusRejected}), wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, httpErr{Error: leave.ErrNotPending.Error()}),
			},
			{
				name: "Decided leaves cannot be cancelled", method: http.MethodDelete, path: fmt.Sprintf("/v1/leaves/%d", lv.ID),
				token: studentToken, wantCode: http.StatusBadRequest,
			},
		})
	})

	t.Run("Cancel", func(t *testing.T) {
		var lv leave.Leave
		resp := app.do(t, http.MethodPost, "/v1/leaves", studentToken, newLeave, &lv)
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

		path := fmt.Sprintf("/v1/leaves/%d", lv.ID)
		resp = app.do(t, http.MethodDelete, path, app.getToken(t, other), nil, nil)
		assert.Equal(t, http.StatusNotFound, resp.Code)
		resp = app.do(t, http.MethodDelete, path, studentToken, nil, nil)
		assert.Equal(t, http.StatusNoContent, resp.Code)
	})
}
