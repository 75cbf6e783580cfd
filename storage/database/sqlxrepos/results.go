package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/result"
)

type resultRow struct {
	ID            int         `db:"id"`
	StudentID     int         `db:"student_id"`
	SubjectID     int         `db:"subject_id"`
	SubjectName   string      `db:"subject_name"`
	ExamName      string      `db:"exam_name"`
	MarksObtained float64     `db:"marks_obtained"`
	MaxMarks      float64     `db:"max_marks"`
	Remarks       null.String `db:"remarks"`
	CreatedBy     null.Int    `db:"created_by"`
	CreatedAt     time.Time   `db:"created_at"`
}

type resultRepository struct {
	repository
}

var _ result.Repository = (*resultRepository)(nil)

func NewResultRepository(exec core.DBExecutor) *resultRepository {
	return &resultRepository{repository{exec: exec}}
}

func (repo resultRepository) CreateResult(ctx context.Context, r result.ExamResult, exec ...core.DBExecutor) (result.ExamResult, error) {
	const q = `INSERT INTO exam_results (student_id, subject_id, exam_name, marks_obtained, max_marks, remarks, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q,
		r.StudentID, r.SubjectID, r.ExamName, r.MarksObtained, r.MaxMarks, nullString(r.Remarks), nullInt(r.CreatedBy), r.CreatedAt.UTC())
	if err != nil {
		return result.ExamResult{}, errors.Wrap(err, "inserting result")
	}
	r.ID = id
	return r, nil
}

func (repo resultRepository) QueryResults(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]result.ExamResult, error) {
	b := sq.Select(
		"r.id", "r.student_id", "r.subject_id", "sj.name AS subject_name", "r.exam_name",
		"r.marks_obtained", "r.max_marks", "r.remarks", "r.created_by", "r.created_at",
	).
		From("exam_results r").
		Join("subjects sj ON sj.id = r.subject_id").
		Where(sq.Eq{"r.student_id": studentID}).
		OrderBy("r.created_at DESC", "r.id DESC")

	var rows []resultRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying results")
	}
	results := make([]result.ExamResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, result.ExamResult{
			ID:            r.ID,
			StudentID:     r.StudentID,
			SubjectID:     r.SubjectID,
			SubjectName:   r.SubjectName,
			ExamName:      r.ExamName,
			MarksObtained: r.MarksObtained,
			MaxMarks:      r.MaxMarks,
			Remarks:       r.Remarks.String,
			CreatedBy:     r.CreatedBy.Int,
			CreatedAt:     r.CreatedAt.UTC(),
		})
	}
	return results, nil
}
