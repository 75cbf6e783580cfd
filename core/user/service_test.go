package user_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
	emailsvc "github.com/studentpartner/backend/services/email"
	"github.com/studentpartner/backend/storage/database/sqlxrepos"
	"github.com/studentpartner/backend/testutil"
)

func setup(t *testing.T) (user.Service, user.Repository) {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	core.ParseEmailTemplates(conf, logger)
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)
	return user.NewService(db, repo, emailsvc.NewConsoleServiceMock(conf, logger), conf), repo
}

func TestService_registrationIDs(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()
	year := time.Now().UTC().Year()
	emailsvc.ResetSentMessages()

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
	admin := user.User{ID: -1, Role: user.RoleAdmin}

	s1, err := svc.Register(ctx, newUser("student1", user.RoleStudent))
	require.NoError(t, err)
	s2, err := svc.Register(ctx, newUser("student2", user.RoleStudent))
	require.NoError(t, err)
	p1, err := svc.Register(ctx, newUser("parent1", user.RoleParent))
	require.NoError(t, err)
	t1, err := svc.Create(ctx, admin, newUser("teacher1", user.RoleTeacher))
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("%dST0001", year), s1.RegistrationID)
	assert.Equal(t, fmt.Sprintf("%dST0002", year), s2.RegistrationID)
	assert.Equal(t, fmt.Sprintf("%dPR0001", year), p1.RegistrationID)
	assert.Equal(t, fmt.Sprintf("%dTR0001", year), t1.RegistrationID)
	assert.Equal(t, user.StatusActive, s1.Status)

	t.Run("teachers cannot self register", func(t *testing.T) {
		_, err := svc.Register(ctx, newUser("teacher2", user.RoleTeacher))
		assert.Error(t, err)
	})
	t.Run("no role above the creator", func(t *testing.T) {
		teacher := user.User{ID: t1.ID, Role: user.RoleTeacher}
		_, err := svc.Create(ctx, teacher, newUser("admin2", user.RoleAdmin))
		assert.Error(t, err)
	})
	t.Run("a failed creation does not consume a number", func(t *testing.T) {
		dup := newUser("student1", user.RoleStudent)
		_, err := svc.Register(ctx, dup)
		require.Error(t, err)

		s3, err := svc.Register(ctx, newUser("student3", user.RoleStudent))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%dST0003", year), s3.RegistrationID)
	})
	t.Run("welcome emails", func(t *testing.T) {
		assert.NotEmpty(t, emailsvc.Sent())
	})
}

func TestService_BackfillRegistrationIDs(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()

	y2024 := time.Date(2024, time.September, 1, 8, 0, 0, 0, time.UTC)
	old1 := testutil.CreateUser(t, repo, "Old One", "old_one", "", "", user.RoleStudent, user.StatusActive, y2024)
	old2 := testutil.CreateUser(t, repo, "Old Two", "old_two", "", "", user.RoleStudent, user.StatusActive, y2024.Add(time.Hour))
	oldT := testutil.CreateUser(t, repo, "Old Teacher", "old_teacher", "", "", user.RoleTeacher, user.StatusActive, y2024.Add(2*time.Hour))
	kept := testutil.CreateUser(t, repo, "Has ID", "has_id", "", "", user.RoleStudent, user.StatusActive, y2024.Add(-time.Hour))
	require.NoError(t, repo.SetRegistrationID(ctx, kept.ID, "2024ST0005"))

	updated, err := svc.BackfillRegistrationIDs(ctx)
	require.NoError(t, err)
	require.Len(t, updated, 3)

	want := map[int]string{
		old1.ID: "2024ST0006",
		old2.ID: "2024ST0007",
		oldT.ID: "2024TR0001",
		kept.ID: "2024ST0005",
	}
	for id, regID := range want {
		usr, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, regID, usr.RegistrationID, usr.Name)
	}

	updated, err = svc.BackfillRegistrationIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, updated, "backfill is idempotent")
}
