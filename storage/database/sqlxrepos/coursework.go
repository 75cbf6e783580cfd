package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/coursework"
	"github.com/studentpartner/backend/storage/database"
)

type materialRow struct {
	ID           int         `db:"id"`
	Title        string      `db:"title"`
	Description  null.String `db:"description"`
	FilePath     null.String `db:"file_path"`
	UploaderID   int         `db:"uploader_id"`
	UploaderName string      `db:"uploader_name"`
	ClassID      int         `db:"class_id"`
	SectionID    int         `db:"section_id"`
	SubjectID    int         `db:"subject_id"`
	SubjectName  string      `db:"subject_name"`
	Type         string      `db:"type"`
	DueDate      null.Time   `db:"due_date"`
	CreatedAt    time.Time   `db:"created_at"`
}

func (r materialRow) material() coursework.Material {
	return coursework.Material{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description.String,
		FilePath:     r.FilePath.String,
		UploaderID:   r.UploaderID,
		UploaderName: r.UploaderName,
		ClassID:      r.ClassID,
		SectionID:    r.SectionID,
		SubjectID:    r.SubjectID,
		SubjectName:  r.SubjectName,
		Type:         coursework.MaterialType(r.Type),
		DueDate:      dateOf(r.DueDate),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

func selectMaterials() sq.SelectBuilder {
	return sq.Select(
		"m.id", "m.title", "m.description", "m.file_path", "m.uploader_id", "u.name AS uploader_name",
		"m.class_id", "m.section_id", "m.subject_id", "sj.name AS subject_name", "m.type", "m.due_date", "m.created_at",
	).
		From("materials m").
		Join("users u ON u.id = m.uploader_id").
		Join("subjects sj ON sj.id = m.subject_id")
}

type submissionRow struct {
	ID          int         `db:"id"`
	MaterialID  int         `db:"material_id"`
	StudentID   int         `db:"student_id"`
	StudentName string      `db:"student_name"`
	FilePath    null.String `db:"file_path"`
	Content     null.String `db:"content"`
	Status      string      `db:"status"`
	Grade       null.String `db:"grade"`
	Feedback    null.String `db:"feedback"`
	SubmittedAt time.Time   `db:"submitted_at"`
	GradedAt    null.Time   `db:"graded_at"`
}

func (r submissionRow) submission() coursework.Submission {
	s := coursework.Submission{
		ID:          r.ID,
		MaterialID:  r.MaterialID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		FilePath:    r.FilePath.String,
		Content:     r.Content.String,
		Status:      coursework.SubmissionStatus(r.Status),
		Grade:       r.Grade.String,
		Feedback:    r.Feedback.String,
		SubmittedAt: r.SubmittedAt.UTC(),
	}
	if r.GradedAt.Valid {
		t := r.GradedAt.Time.UTC()
		s.GradedAt = &t
	}
	return s
}

func selectSubmissions() sq.SelectBuilder {
	return sq.Select(
		"s.id", "s.material_id", "s.student_id", "u.name AS student_name", "s.file_path", "s.content",
		"s.status", "s.grade", "s.feedback", "s.submitted_at", "s.graded_at",
	).
		From("submissions s").
		Join("users u ON u.id = s.student_id")
}

type courseworkRepository struct {
	repository
}

var _ coursework.Repository = (*courseworkRepository)(nil)

func NewCourseworkRepository(exec core.DBExecutor) *courseworkRepository {
	return &courseworkRepository{repository{exec: exec}}
}

func (repo courseworkRepository) CreateMaterial(ctx context.Context, m coursework.Material, exec ...core.DBExecutor) (coursework.Material, error) {
	const q = `INSERT INTO materials (title, description, file_path, uploader_id, class_id, section_id, subject_id, type, due_date, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	exe := repo.getExec(exec)
	id, err := insertID(ctx, exe, q, m.Title, nullString(m.Description), nullString(m.FilePath), m.UploaderID,
		m.ClassID, m.SectionID, m.SubjectID, string(m.Type), nullDate(m.DueDate), m.CreatedAt.UTC())
	if err != nil {
		return coursework.Material{}, errors.Wrap(err, "inserting material")
	}
	return repo.GetMaterial(ctx, id, exe)
}

func (repo courseworkRepository) GetMaterial(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Material, error) {
	var row materialRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, selectMaterials().Where(sq.Eq{"m.id": id})); err != nil {
		return coursework.Material{}, trapNoRowsErr(err, coursework.ErrMaterialNotFound, "getting material")
	}
	return row.material(), nil
}

func (repo courseworkRepository) QueryMaterials(ctx context.Context, sectionID int, exec ...core.DBExecutor) ([]coursework.Material, error) {
	var rows []materialRow
	b := selectMaterials().Where(sq.Eq{"m.section_id": sectionID}).OrderBy("m.created_at DESC", "m.id DESC")
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying materials")
	}
	materials := make([]coursework.Material, 0, len(rows))
	for _, r := range rows {
		materials = append(materials, r.material())
	}
	return materials, nil
}

func (repo courseworkRepository) CreateSubmission(ctx context.Context, s coursework.Submission, exec ...core.DBExecutor) (coursework.Submission, error) {
	const q = `INSERT INTO submissions (material_id, student_id, file_path, content, status, submitted_at)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`

	exe := repo.getExec(exec)
	id, err := insertID(ctx, exe, q, s.MaterialID, s.StudentID, nullString(s.FilePath), nullString(s.Content), string(s.Status), s.SubmittedAt.UTC())
	if err != nil {
		if database.IsUniqueViolation(err) {
			return coursework.Submission{}, coursework.ErrAlreadySubmitted
		}
		return coursework.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return repo.GetSubmission(ctx, id, exe)
}

func (repo courseworkRepository) GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (coursework.Submission, error) {
	var row submissionRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, selectSubmissions().Where(sq.Eq{"s.id": id})); err != nil {
		return coursework.Submission{}, trapNoRowsErr(err, coursework.ErrSubmissionNotFound, "getting submission")
	}
	return row.submission(), nil
}

func (repo courseworkRepository) QuerySubmissions(ctx context.Context, materialID int, exec ...core.DBExecutor) ([]coursework.Submission, error) {
	var rows []submissionRow
	b := selectSubmissions().Where(sq.Eq{"s.material_id": materialID}).OrderBy("s.submitted_at ASC", "s.id ASC")
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]coursework.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo courseworkRepository) UpdateSubmission(ctx context.Context, s coursework.Submission, exec ...core.DBExecutor) (coursework.Submission, error) {
	var gradedAt null.Time
	if s.GradedAt != nil {
		gradedAt = null.TimeFrom(s.GradedAt.UTC())
	}
	const q = `UPDATE submissions SET file_path = ?, content = ?, status = ?, grade = ?, feedback = ?, graded_at = ? WHERE id = ?`

	err := execAffecting(ctx, repo.getExec(exec), coursework.ErrSubmissionNotFound, q,
		nullString(s.FilePath), nullString(s.Content), string(s.Status), nullString(s.Grade), nullString(s.Feedback), gradedAt, s.ID)
	if err != nil {
		if err == coursework.ErrSubmissionNotFound {
			return coursework.Submission{}, err
		}
		return coursework.Submission{}, errors.Wrap(err, "updating submission")
	}
	return s, nil
}
