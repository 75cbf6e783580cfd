package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/attendance"
)

type attendanceRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Date      core.Date `db:"date"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		ID:        r.ID,
		UserID:    r.UserID,
		Date:      r.Date,
		Status:    attendance.Status(r.Status),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	repository
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(exec core.DBExecutor) *attendanceRepository {
	return &attendanceRepository{repository{exec: exec}}
}

func (repo attendanceRepository) UpsertRecord(ctx context.Context, rec attendance.Record, exec ...core.DBExecutor) (attendance.Record, error) {
	const q = `INSERT INTO attendance (user_id, date, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, date) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at
RETURNING id, created_at`

	exe := repo.getExec(exec)
	err := exe.QueryRowxContext(ctx, exe.Rebind(q), rec.UserID, rec.Date, string(rec.Status), rec.CreatedAt.UTC(), rec.UpdatedAt.UTC()).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "upserting attendance")
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, nil
}

func (repo attendanceRepository) DeleteRecord(ctx context.Context, userID int, date core.Date, exec ...core.DBExecutor) error {
	_, err := execBuilt(ctx, repo.getExec(exec), sq.Delete("attendance").Where(sq.Eq{"user_id": userID, "date": date}))
	return errors.Wrap(err, "deleting attendance")
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, userID int, from, to core.Date, exec ...core.DBExecutor) ([]attendance.Record, error) {
	b := sq.Select("id", "user_id", "date", "status", "created_at", "updated_at").
		From("attendance").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{"date": from}).
		Where(sq.Lt{"date": to}).
		OrderBy("date ASC")

	var rows []attendanceRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}
