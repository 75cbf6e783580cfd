// Package sqlxrepos implements the core repositories with sqlx and squirrel, for postgres and sqlite.
package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
)

// repository holds the default executor of a repo; every method accepts an optional (transaction) executor.
type repository struct {
	exec core.DBExecutor
}

func (repo repository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps "no rows" to notFound
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

// insertID runs an INSERT .. RETURNING id statement.
func insertID(ctx context.Context, exec core.DBExecutor, q string, args ...interface{}) (int, error) {
	var id int
	err := exec.QueryRowxContext(ctx, exec.Rebind(q), args...).Scan(&id)
	return id, err
}

// execAffecting runs q and returns notFound when no row was affected.
func execAffecting(ctx context.Context, exec core.DBExecutor, notFound error, q string, args ...interface{}) error {
	res, err := exec.ExecContext(ctx, exec.Rebind(q), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func selectBuilt(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, exec.Rebind(q), args...)
}

func getBuilt(ctx context.Context, exec core.DBExecutor, dest interface{}, b sq.Sqlizer) error {
	q, args, err := b.ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, exec.Rebind(q), args...)
}

func execBuilt(ctx context.Context, exec core.DBExecutor, b sq.Sqlizer) (sql.Result, error) {
	q, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return exec.ExecContext(ctx, exec.Rebind(q), args...)
}

func nullString(s string) null.String { return null.NewString(s, s != "") }
func nullInt(i int) null.Int          { return null.NewInt(i, i != 0) }

func nullTime(t time.Time) null.Time {
	return null.NewTime(t.UTC(), !t.IsZero())
}

func nullDate(d core.Date) null.Time {
	return null.NewTime(d.Time, !d.IsZero())
}

func dateOf(t null.Time) core.Date {
	if !t.Valid {
		return core.Date{}
	}
	return core.DateOf(t.Time.UTC())
}
