package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/leave"
	"github.com/studentpartner/backend/core/user"
)

var leaveColumns = []string{
	"l.id", "l.user_id", "u.name AS user_name", "l.role", "l.reason", "l.start_date", "l.end_date", "l.status",
	"l.approved_by", "l.remarks", "l.created_at", "l.updated_at",
}

type leaveRow struct {
	ID         int         `db:"id"`
	UserID     int         `db:"user_id"`
	UserName   string      `db:"user_name"`
	Role       string      `db:"role"`
	Reason     string      `db:"reason"`
	StartDate  core.Date   `db:"start_date"`
	EndDate    core.Date   `db:"end_date"`
	Status     string      `db:"status"`
	ApprovedBy null.Int    `db:"approved_by"`
	Remarks    null.String `db:"remarks"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}

func (r leaveRow) leave() leave.Leave {
	return leave.Leave{
		ID:         r.ID,
		UserID:     r.UserID,
		UserName:   r.UserName,
		Role:       user.Role(r.Role),
		Reason:     r.Reason,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Status:     leave.Status(r.Status),
		ApprovedBy: r.ApprovedBy.Int,
		Remarks:    r.Remarks.String,
		CreatedAt:  r.CreatedAt.UTC(),
		UpdatedAt:  r.UpdatedAt.UTC(),
	}
}

type leaveRepository struct {
	repository
}

var _ leave.Repository = (*leaveRepository)(nil)

func NewLeaveRepository(exec core.DBExecutor) *leaveRepository {
	return &leaveRepository{repository{exec: exec}}
}

func selectLeaves() sq.SelectBuilder {
	return sq.Select(leaveColumns...).From("leaves l").Join("users u ON u.id = l.user_id")
}

func (repo leaveRepository) CreateLeave(ctx context.Context, lv leave.Leave, exec ...core.DBExecutor) (leave.Leave, error) {
	const q = `INSERT INTO leaves (user_id, role, reason, start_date, end_date, status, approved_by, remarks, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q,
		lv.UserID, string(lv.Role), lv.Reason, lv.StartDate, lv.EndDate, string(lv.Status),
		nullInt(lv.ApprovedBy), nullString(lv.Remarks), lv.CreatedAt.UTC(), lv.UpdatedAt.UTC())
	if err != nil {
		return leave.Leave{}, errors.Wrap(err, "inserting leave")
	}
	lv.ID = id
	return lv, nil
}

func (repo leaveRepository) GetLeave(ctx context.Context, id int, exec ...core.DBExecutor) (leave.Leave, error) {
	var row leaveRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, selectLeaves().Where(sq.Eq{"l.id": id})); err != nil {
		return leave.Leave{}, trapNoRowsErr(err, leave.ErrNotFound, "getting leave")
	}
	return row.leave(), nil
}

func (repo leaveRepository) QueryLeaves(ctx context.Context, filter leave.QueryFilter, exec ...core.DBExecutor) ([]leave.Leave, error) {
	b := selectLeaves()
	if filter.UserID != 0 {
		b = b.Where(sq.Eq{"l.user_id": filter.UserID})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"l.status": string(filter.Status)})
	}
	if filter.Roles != nil {
		roles := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			roles = append(roles, string(r))
		}
		b = b.Where(sq.Eq{"l.role": roles})
	}
	if filter.OldestFirst {
		b = b.OrderBy("l.created_at ASC", "l.id ASC")
	} else {
		b = b.OrderBy("l.created_at DESC", "l.id DESC")
	}

	var rows []leaveRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying leaves")
	}
	leaves := make([]leave.Leave, 0, len(rows))
	for _, r := range rows {
		leaves = append(leaves, r.leave())
	}
	return leaves, nil
}

func (repo leaveRepository) UpdateLeave(ctx context.Context, lv leave.Leave, exec ...core.DBExecutor) (leave.Leave, error) {
	const q = `UPDATE leaves SET reason = ?, start_date = ?, end_date = ?, status = ?, approved_by = ?, remarks = ?, updated_at = ?
WHERE id = ?`

	err := execAffecting(ctx, repo.getExec(exec), leave.ErrNotFound, q,
		lv.Reason, lv.StartDate, lv.EndDate, string(lv.Status), nullInt(lv.ApprovedBy), nullString(lv.Remarks), lv.UpdatedAt.UTC(), lv.ID)
	if err != nil {
		if err == leave.ErrNotFound {
			return leave.Leave{}, err
		}
		return leave.Leave{}, errors.Wrap(err, "updating leave")
	}
	return lv, nil
}

func (repo leaveRepository) DeleteLeave(ctx context.Context, id int, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), leave.ErrNotFound, "DELETE FROM leaves WHERE id = ?", id)
	if err != nil && err != leave.ErrNotFound {
		return errors.Wrap(err, "deleting leave")
	}
	return err
}
