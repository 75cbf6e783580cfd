package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/issue"
	"github.com/studentpartner/backend/core/user"
)

type issueRow struct {
	ID              int         `db:"id"`
	ReporterID      int         `db:"reporter_id"`
	ReporterName    string      `db:"reporter_name"`
	ReporterRole    string      `db:"reporter_role"`
	Category        string      `db:"category"`
	IssueType       string      `db:"issue_type"`
	Description     string      `db:"description"`
	Priority        string      `db:"priority"`
	Status          string      `db:"status"`
	ResolutionNotes null.String `db:"resolution_notes"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

func (r issueRow) issue() issue.Issue {
	return issue.Issue{
		ID:              r.ID,
		ReporterID:      r.ReporterID,
		ReporterName:    r.ReporterName,
		ReporterRole:    user.Role(r.ReporterRole),
		Category:        r.Category,
		IssueType:       r.IssueType,
		Description:     r.Description,
		Priority:        issue.Priority(r.Priority),
		Status:          issue.Status(r.Status),
		ResolutionNotes: r.ResolutionNotes.String,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
	}
}

func selectIssues() sq.SelectBuilder {
	return sq.Select(
		"i.id", "i.reporter_id", "u.name AS reporter_name", "u.role AS reporter_role", "i.category", "i.issue_type",
		"i.description", "i.priority", "i.status", "i.resolution_notes", "i.created_at", "i.updated_at",
	).
		From("academic_issues i").
		Join("users u ON u.id = i.reporter_id")
}

type issueRepository struct {
	repository
}

var _ issue.Repository = (*issueRepository)(nil)

func NewIssueRepository(exec core.DBExecutor) *issueRepository {
	return &issueRepository{repository{exec: exec}}
}

func (repo issueRepository) CreateIssue(ctx context.Context, is issue.Issue, exec ...core.DBExecutor) (issue.Issue, error) {
	const q = `INSERT INTO academic_issues (reporter_id, category, issue_type, description, priority, status, resolution_notes, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	exe := repo.getExec(exec)
	id, err := insertID(ctx, exe, q, is.ReporterID, is.Category, is.IssueType, is.Description,
		string(is.Priority), string(is.Status), nullString(is.ResolutionNotes), is.CreatedAt.UTC(), is.UpdatedAt.UTC())
	if err != nil {
		return issue.Issue{}, errors.Wrap(err, "inserting issue")
	}
	return repo.GetIssue(ctx, id, exe)
}

func (repo issueRepository) GetIssue(ctx context.Context, id int, exec ...core.DBExecutor) (issue.Issue, error) {
	var row issueRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, selectIssues().Where(sq.Eq{"i.id": id})); err != nil {
		return issue.Issue{}, trapNoRowsErr(err, issue.ErrNotFound, "getting issue")
	}
	return row.issue(), nil
}

func (repo issueRepository) QueryIssues(ctx context.Context, filter issue.QueryFilter, exec ...core.DBExecutor) ([]issue.Issue, error) {
	b := selectIssues().OrderBy("i.created_at DESC", "i.id DESC")
	if filter.ReporterID != 0 {
		b = b.Where(sq.Eq{"i.reporter_id": filter.ReporterID})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"i.status": string(filter.Status)})
	}
	if filter.Category != "" {
		b = b.Where(sq.Eq{"i.category": filter.Category})
	}

	var rows []issueRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying issues")
	}
	issues := make([]issue.Issue, 0, len(rows))
	for _, r := range rows {
		issues = append(issues, r.issue())
	}
	return issues, nil
}

func (repo issueRepository) UpdateIssue(ctx context.Context, is issue.Issue, exec ...core.DBExecutor) (issue.Issue, error) {
	const q = `UPDATE academic_issues SET status = ?, resolution_notes = ?, updated_at = ? WHERE id = ?`

	err := execAffecting(ctx, repo.getExec(exec), issue.ErrNotFound, q, string(is.Status), nullString(is.ResolutionNotes), is.UpdatedAt.UTC(), is.ID)
	if err != nil {
		if err == issue.ErrNotFound {
			return issue.Issue{}, err
		}
		return issue.Issue{}, errors.Wrap(err, "updating issue")
	}
	return is, nil
}
