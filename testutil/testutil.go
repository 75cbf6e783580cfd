// Package testutil prepares migrated test databases, services and fixtures.
package testutil

import (
	"context"
	"io"
	"log"
	"path/filepath"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/attendance"
	"github.com/studentpartner/backend/core/user"
	logsvc "github.com/studentpartner/backend/services/logger"
	"github.com/studentpartner/backend/storage/database"
)

// NewConfig returns the test configuration.
func NewConfig() *core.Config {
	return core.NewTestConfig()
}

// NewLogger returns a logger writing nowhere.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every custom tag registered.
func NewValidator() *validator.Validate {
	validate, _ := NewTranslatedValidator()
	return validate
}

// NewTranslatedValidator returns a validator along with the translator its messages are registered in.
func NewTranslatedValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	attendance.InitValidators(validate, translator)
	return validate, translator
}

func prepare(t *testing.T, conf *core.Config) *sqlx.DB {
	t.Helper()
	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db, conf.Database.Engine); err != nil {
		t.Fatalf("PrepareDB(): %v", err)
	}
	return db
}

// PrepareDB opens a migrated in-memory sqlite database, closed at the end of the test.
// It holds a single connection: never use it directly while a transaction is open.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return prepare(t, NewConfig())
}

// PrepareFileDB opens a migrated sqlite database stored in a temporary file, usable concurrently.
func PrepareFileDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := NewConfig()
	conf.Database.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	return prepare(t, conf)
}

// FixturePassword is the password of users created by CreateUser without one.
const FixturePassword = "Fixture!Pwd-2024"

// CreateUser inserts a user straight through repo, without a registration ID.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	role user.Role,
	status user.Status,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Role:      role,
		Status:    status,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd == "" {
		pwd = FixturePassword
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}
