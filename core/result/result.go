package result

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

var ErrMarksAboveMax = errors.New("marks_obtained cannot exceed max_marks")

type (
	ExamResult struct {
		ID            int       `json:"id"`
		StudentID     int       `json:"student_id"`
		SubjectID     int       `json:"subject_id"`
		SubjectName   string    `json:"subject_name,omitempty"`
		ExamName      string    `json:"exam_name"`
		MarksObtained float64   `json:"marks_obtained"`
		MaxMarks      float64   `json:"max_marks"`
		Remarks       string    `json:"remarks,omitempty"`
		CreatedBy     int       `json:"created_by,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}

	NewResult struct {
		StudentID     int     `json:"student_id" validate:"required"`
		SubjectID     int     `json:"subject_id" validate:"required"`
		ExamName      string  `json:"exam_name" validate:"required,max=255"`
		MarksObtained float64 `json:"marks_obtained" validate:"gte=0"`
		MaxMarks      float64 `json:"max_marks" validate:"gt=0"`
		Remarks       string  `json:"remarks"`
	}

	Repository interface {
		CreateResult(ctx context.Context, r ExamResult, exec ...core.DBExecutor) (ExamResult, error)
		// QueryResults returns the results of a student, newest first.
		QueryResults(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]ExamResult, error)
	}

	// Guardianship tells whether a parent is linked to a student.
	Guardianship interface {
		IsParentOf(ctx context.Context, parentID, studentID int) (bool, error)
	}

	Service interface {
		Add(ctx context.Context, actor user.User, nr NewResult) (ExamResult, error)
		StudentResults(ctx context.Context, actor user.User, studentID int) ([]ExamResult, error)
	}

	service struct {
		repo      Repository
		userSvc   user.Service
		guardians Guardianship
		validate  *validator.Validate
	}
)

// Percentage returns the share of marks obtained, rounded to 2 decimals.
func (r ExamResult) Percentage() float64 {
	if r.MaxMarks == 0 {
		return 0
	}
	return math.Round(r.MarksObtained/r.MaxMarks*10000) / 100
}

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, guardians Guardianship, validate *validator.Validate) Service {
	return &service{
		repo:      repo,
		userSvc:   userSvc,
		guardians: guardians,
		validate:  validate,
	}
}

func (svc *service) Add(ctx context.Context, actor user.User, nr NewResult) (ExamResult, error) {
	if !actor.Role.IsStaff() {
		return ExamResult{}, core.ErrPermissionDenied
	}
	nr.ExamName = core.CleanString(nr.ExamName)
	nr.Remarks = core.CleanString(nr.Remarks)
	if err := svc.validate.Struct(nr); err != nil {
		return ExamResult{}, err
	}
	if nr.MarksObtained > nr.MaxMarks {
		return ExamResult{}, core.NewValidationError(ErrMarksAboveMax, core.FieldError{Field: "marks_obtained", Error: ErrMarksAboveMax.Error()})
	}

	student, err := svc.userSvc.GetByID(ctx, nr.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return ExamResult{}, core.NewFieldError("student_id", "user not found")
		}
		return ExamResult{}, err
	}
	if !student.IsStudent() {
		return ExamResult{}, core.NewFieldError("student_id", "user is not a student")
	}

	return svc.repo.CreateResult(ctx, ExamResult{
		StudentID:     nr.StudentID,
		SubjectID:     nr.SubjectID,
		ExamName:      nr.ExamName,
		MarksObtained: nr.MarksObtained,
		MaxMarks:      nr.MaxMarks,
		Remarks:       nr.Remarks,
		CreatedBy:     actor.ID,
		CreatedAt:     time.Now().UTC(),
	})
}

func (svc *service) StudentResults(ctx context.Context, actor user.User, studentID int) ([]ExamResult, error) {
	switch actor.Role {
	case user.RoleAdmin, user.RoleTeacher:
	case user.RoleStudent:
		if actor.ID != studentID {
			return nil, core.ErrPermissionDenied
		}
	case user.RoleParent:
		ok, err := svc.guardians.IsParentOf(ctx, actor.ID, studentID)
		if err != nil {
			return nil, errors.Wrap(err, "checking guardianship")
		}
		if !ok {
			return nil, core.ErrPermissionDenied
		}
	default:
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryResults(ctx, studentID)
}
