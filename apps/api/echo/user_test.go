package echoapi

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	app.createUser(t, "Hero", "hero01", user.RoleStudent)
	app.createUser(t, "Newbie", "newbie", user.RoleStudent, user.StatusPending)
	app.createUser(t, "N Dog", "ndog01", user.RoleStudent, user.StatusDeactivated) // 😂

	login := func(uname, pwd string) []byte {
		return marchallObj(t, LoginRequest{Username: uname, Password: pwd})
	}
	app.run(t, []httpTest{
		{
			name: "Fields required", method: http.MethodPost, path: "/v1/users/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": "this field is required", "password": "this field is required"}),
		},
		{
			name: "Unknown user", method: http.MethodPost, path: "/v1/users/login", body: login("ghost", "Gr8!Tulip-Lamp"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", method: http.MethodPost, path: "/v1/users/login", body: login("hero01", "nope"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Pending account", method: http.MethodPost, path: "/v1/users/login", body: login("newbie", "Gr8!Tulip-Lamp"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account pending approval"}),
		},
		{
			name: "Deactivated account", method: http.MethodPost, path: "/v1/users/login", body: login("ndog01", "Gr8!Tulip-Lamp"),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	})

	t.Run("Logged in with username or email", func(t *testing.T) {
		for _, uname := range []string{"HERO01", "hero01@test.cd"} {
			var resp LoginResponse
			rec := app.do(t, http.MethodPost, "/v1/users/login", "", LoginRequest{Username: uname, Password: "Gr8!Tulip-Lamp"}, &resp)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.NotEmpty(t, resp.Token)
		}
		usr, err := app.usrRepo.GetUser(app.ctx(), user.GetFilter{UsernameOrEmail: []string{"hero01"}})
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_register(t *testing.T) {
	app := setup(t)
	year := time.Now().UTC().Year()

	newUser := func(uname string, role user.Role) user.NewUser {
		return user.NewUser{
			Name:            "User " + uname,
			Username:        uname,
			Email:           uname + "@test.cd",
			Password:        "Gr8!Tulip-Lamp",
			PasswordConfirm: "Gr8!Tulip-Lamp",
			Role:            role,
		}
	}

	var usr user.User
	rec := app.do(t, http.MethodPost, "/v1/users/register", "", newUser("student1", user.RoleStudent), &usr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, fmt.Sprintf("%dST0001", year), usr.RegistrationID)
	assert.Equal(t, user.StatusActive, usr.Status)
	assert.NotEmpty(t, emailsvc.Sent())

	rec = app.do(t, http.MethodPost, "/v1/users/register", "", newUser("parent1", user.RoleParent), &usr)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, fmt.Sprintf("%dPR0001", year), usr.RegistrationID)

	taken := newUser("student1", user.RoleStudent)
	taken.Email = "other@test.cd"
	app.run(t, []httpTest{
		{
			name: "Teachers cannot self register", method: http.MethodPost, path: "/v1/users/register",
			body: marchallObj(t, newUser("teacher1", user.RoleTeacher)), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"role": user.ErrRoleNotSelfAssigned.Error()}),
		},
		{
			name: "Username taken", method: http.MethodPost, path: "/v1/users/register",
			body: marchallObj(t, taken), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"username": user.ErrUsernameExists.Error()}),
		},
		{
			name: "Passwords mismatch", method: http.MethodPost, path: "/v1/users/register",
			body: []byte(`{"name":"X","username":"student9","password":"Gr8!Tulip-Lamp","password_confirm":"other"}`),
			wantCode: http.StatusBadRequest,
		},
	})

	t.Run("Approval required", func(t *testing.T) {
		app.conf.Registration.RequireApproval = true
		defer func() { app.conf.Registration.RequireApproval = false }()

		rec := app.do(t, http.MethodPost, "/v1/users/register", "", newUser("student2", user.RoleStudent), &usr)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, user.StatusPending, usr.Status)
		assert.Equal(t, fmt.Sprintf("%dST0002", year), usr.RegistrationID)
	})

	t.Run("Sequence exhausted", func(t *testing.T) {
		_, err := app.db.Exec(`UPDATE registration_sequences SET last_value = ? WHERE year = ? AND role_code = ?`,
			user.MaxRegistrationSeq, year, user.RoleCode(user.RoleParent))
		require.NoError(t, err)

		rec := app.do(t, http.MethodPost, "/v1/users/register", "", newUser("parent2", user.RoleParent), nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.JSONEq(t, string(marchallObj(t, httpErr{Error: user.ErrRegistrationSequenceExhausted.Error()})), rec.Body.String())

		_, err = app.usrRepo.GetUser(app.ctx(), user.GetFilter{UsernameOrEmail: []string{"parent2"}})
		assert.True(t, core.IsNotFound(err), "user must not be created")
	})
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, ordering, status string, roles ...user.Role) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if status != "" {
			v.Add("status", status)
		}
		for _, r := range roles {
			v.Add("role", string(r))
		}
		return "/v1/users?" + v.Encode()
	}

	admin := app.createUser(t, "Admin", "admin1", user.RoleAdmin)
	teacher := app.createUser(t, "Teacher", "teacher", user.RoleTeacher)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)
	naughty := app.createUser(t, "N Dog", "ndog01", user.RoleStudent, user.StatusDeactivated)
	adminToken := app.getToken(t, admin)

	app.run(t, []httpTest{
		{name: "Auth required", method: http.MethodGet, path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", method: http.MethodGet, path: "/v1/users", token: app.getToken(t, teacher),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all", method: http.MethodGet, path: "/v1/users", token: adminToken,
			wantData: marchallList(t, admin, teacher, student, naughty),
		},
		{name: "search (unknown)", method: http.MethodGet, path: path("lol", "", ""), token: adminToken, wantData: marchallList(t)},
		{name: "search=ERO", method: http.MethodGet, path: path("ERO", "", ""), token: adminToken, wantData: marchallList(t, student)},
		{
			name: "role=student", method: http.MethodGet, path: path("", "", "", user.RoleStudent), token: adminToken,
			wantData: marchallList(t, student, naughty),
		},
		{
			name: "role (unknown)", method: http.MethodGet, path: path("", "", "", "lol"), token: adminToken,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "status=deactivated", method: http.MethodGet, path: path("", "", "deactivated"), token: adminToken,
			wantData: marchallList(t, naughty),
		},
		{
			name: "order by name", method: http.MethodGet, path: path("", "name", ""), token: adminToken,
			wantData: marchallList(t, admin, student, naughty, teacher),
		},
	})
}

func Test_userApi_detail(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", "admin1", user.RoleAdmin)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)
	other := app.createUser(t, "Other", "other1", user.RoleStudent)
	studentToken := app.getToken(t, student)
	adminToken := app.getToken(t, admin)
	userPath := func(usr user.User, suffix ...string) string {
		p := "/v1/users/" + usr.StrID()
		if len(suffix) > 0 {
			p += suffix[0]
		}
		return p
	}

	app.run(t, []httpTest{
		{name: "Own profile", method: http.MethodGet, path: userPath(student), token: studentToken, wantData: marchallObj(t, student)},
		{
			name: "Other profiles are hidden", method: http.MethodGet, path: userPath(other), token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Admin sees anyone", method: http.MethodGet, path: userPath(other), token: adminToken, wantData: marchallObj(t, other)},
		{name: "Unknown ID", method: http.MethodGet, path: "/v1/users/9999", token: adminToken, wantCode: http.StatusNotFound},
		{name: "Invalid ID", method: http.MethodGet, path: "/v1/users/lol", token: adminToken, wantCode: http.StatusNotFound},
		{
			name: "Students cannot change their role", method: http.MethodPut, path: userPath(student), token: studentToken,
			body: []byte(`{"role":"admin"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "Only admins delete", method: http.MethodDelete, path: userPath(student), token: studentToken,
			wantCode: http.StatusForbidden,
		},
		{
			name: "Admins cannot delete themselves", method: http.MethodDelete, path: userPath(admin), token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: user.ErrCannotDeleteYourself.Error()}),
		},
		{name: "Roles", method: http.MethodGet, path: "/v1/users/roles", token: studentToken, wantData: marchallObj(t, user.Roles)},
	})

	t.Run("Update own name", func(t *testing.T) {
		var usr user.User
		rec := app.do(t, http.MethodPut, userPath(student), studentToken, user.UpdateUser{Name: "Super Hero"}, &usr)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "Super Hero", usr.Name)
		assert.Equal(t, student.RegistrationID, usr.RegistrationID)
	})

	t.Run("Deactivation locks the account out", func(t *testing.T) {
		var usr user.User
		rec := app.do(t, http.MethodPut, userPath(other, "/status"), adminToken, SetStatusRequest{Status: user.StatusDeactivated}, &usr)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, user.StatusDeactivated, usr.Status)

		rec = app.do(t, http.MethodGet, "/v1/tasks", app.getToken(t, other), nil, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Delete multiple", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/v1/users?id="+other.StrID(), adminToken, nil, nil)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		_, err := app.usrRepo.GetUser(app.ctx(), user.GetFilter{ID: other.ID})
		assert.Error(t, err)
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app := setup(t)

	naughty := app.createUser(t, "N Dog", "ndog01", user.RoleStudent, user.StatusDeactivated)
	student := app.createUser(t, "Hero", "hero01", user.RoleStudent)

	now := time.Now()
	unrefreshableClaims := app.auth.GetUserClaims(student, now.Add(-2*app.conf.Server.JWTRefreshExpirationDelta).Unix())
	unrefreshableToken, err := app.auth.GenerateToken(unrefreshableClaims)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, app.auth.GetUserClaims(student)).SignedString([]byte("not the secret"))
	require.NoError(t, err)

	app.run(t, []httpTest{
		{name: "Auth required", method: http.MethodPost, path: "/v1/users/token-refresh", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Forged token", method: http.MethodPost, path: "/v1/users/token-refresh", token: forged, wantCode: http.StatusUnauthorized},
		{
			name: "Inactive user not allowed", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.getToken(t, naughty),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name: "Refresh period expired", method: http.MethodPost, path: "/v1/users/token-refresh", token: unrefreshableToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{name: "Token refreshed", method: http.MethodPost, path: "/v1/users/token-refresh", token: app.getToken(t, student)},
	})
}

func Test_userApi_passwordReset(t *testing.T) {
	app := setup(t)
	app.createUser(t, "Hero", "hero01", user.RoleStudent)

	success := marchallObj(t, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
	app.run(t, []httpTest{
		{
			name: "Email required", method: http.MethodPost, path: "/v1/users/password-reset", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "Unknown email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: []byte(`{"email":"ghost@test.cd"}`), wantData: success,
		},
		{
			name: "Known email", method: http.MethodPost, path: "/v1/users/password-reset",
			body: []byte(`{"email":"HERO01@test.cd"}`), wantData: success,
		},
		{
			name: "Invalid token", method: http.MethodPost, path: "/v1/users/password-reset-confirm",
			body: marchallObj(t, user.ResetUserPassword{Token: "abc", UID: "MQ", Password: "N3w!Tulip-Lamp", PasswordConfirm: "N3w!Tulip-Lamp"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "invalid token"}),
		},
	})
}
