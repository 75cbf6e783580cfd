package coursework

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/academic"
	"github.com/studentpartner/backend/core/user"
)

var (
	ErrMaterialNotFound   = core.NewNotFoundError("material")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")

	ErrNotAssignment    = errors.New("only assignments accept submissions")
	ErrAlreadySubmitted = errors.New("assignment already submitted")
	ErrEmptySubmission  = errors.New("a submission needs a content or a link")
	ErrNotTeaching      = errors.New("you do not teach this subject in this section")
)

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material, exec ...core.DBExecutor) (Material, error)
		GetMaterial(ctx context.Context, id int, exec ...core.DBExecutor) (Material, error)
		// QueryMaterials returns the materials of a section, newest first.
		QueryMaterials(ctx context.Context, sectionID int, exec ...core.DBExecutor) ([]Material, error)

		// CreateSubmission returns ErrAlreadySubmitted for a second submission of the same student.
		CreateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
		GetSubmission(ctx context.Context, id int, exec ...core.DBExecutor) (Submission, error)
		QuerySubmissions(ctx context.Context, materialID int, exec ...core.DBExecutor) ([]Submission, error)
		UpdateSubmission(ctx context.Context, s Submission, exec ...core.DBExecutor) (Submission, error)
	}

	Service interface {
		CreateMaterial(ctx context.Context, actor user.User, nm NewMaterial) (Material, error)
		SectionMaterials(ctx context.Context, sectionID int) ([]Material, error)
		Submit(ctx context.Context, actor user.User, materialID int, ns NewSubmission) (Submission, error)
		Submissions(ctx context.Context, actor user.User, materialID int) ([]Submission, error)
		Grade(ctx context.Context, actor user.User, submissionID int, g Grade) (Submission, error)
	}

	service struct {
		repo        Repository
		academicSvc academic.Service
		validate    *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, academicSvc academic.Service, validate *validator.Validate) Service {
	return &service{
		repo:        repo,
		academicSvc: academicSvc,
		validate:    validate,
	}
}

func (svc *service) CreateMaterial(ctx context.Context, actor user.User, nm NewMaterial) (Material, error) {
	switch actor.Role {
	case user.RoleAdmin:
	case user.RoleTeacher:
		ok, err := svc.academicSvc.IsTeaching(ctx, actor.ID, nm.SectionID, nm.SubjectID)
		if err != nil {
			return Material{}, errors.Wrap(err, "checking allocation")
		}
		if !ok {
			return Material{}, core.NewValidationError(ErrNotTeaching, core.FieldError{Field: "subject_id", Error: ErrNotTeaching.Error()})
		}
	case user.RoleStudent, user.RoleParent:
		return Material{}, core.ErrPermissionDenied
	default:
		return Material{}, core.ErrPermissionDenied
	}

	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.FilePath = core.CleanString(nm.FilePath)
	if nm.Type == "" {
		nm.Type = TypeMaterial
	}
	if err := svc.validate.Struct(nm); err != nil {
		return Material{}, err
	}
	if nm.Type == TypeAssignment && nm.DueDate.IsZero() {
		return Material{}, core.NewFieldError("due_date", "assignments need a due_date")
	}
	if nm.Type == TypeMaterial {
		nm.DueDate = core.Date{}
	}

	return svc.repo.CreateMaterial(ctx, Material{
		Title:       nm.Title,
		Description: nm.Description,
		FilePath:    nm.FilePath,
		UploaderID:  actor.ID,
		ClassID:     nm.ClassID,
		SectionID:   nm.SectionID,
		SubjectID:   nm.SubjectID,
		Type:        nm.Type,
		DueDate:     nm.DueDate,
		CreatedAt:   time.Now().UTC(),
	})
}

func (svc *service) SectionMaterials(ctx context.Context, sectionID int) ([]Material, error) {
	return svc.repo.QueryMaterials(ctx, sectionID)
}

func (svc *service) Submit(ctx context.Context, actor user.User, materialID int, ns NewSubmission) (Submission, error) {
	if !actor.IsStudent() {
		return Submission{}, core.ErrPermissionDenied
	}
	ns.FilePath = core.CleanString(ns.FilePath)
	ns.Content = core.CleanString(ns.Content)
	if err := svc.validate.Struct(ns); err != nil {
		return Submission{}, err
	}
	if ns.FilePath == "" && ns.Content == "" {
		return Submission{}, core.NewValidationError(ErrEmptySubmission)
	}

	m, err := svc.repo.GetMaterial(ctx, materialID)
	if err != nil {
		return Submission{}, err
	}
	if !m.IsAssignment() {
		return Submission{}, core.NewValidationError(ErrNotAssignment)
	}

	sub, err := svc.repo.CreateSubmission(ctx, Submission{
		MaterialID:  materialID,
		StudentID:   actor.ID,
		FilePath:    ns.FilePath,
		Content:     ns.Content,
		Status:      SubmissionSubmitted,
		SubmittedAt: time.Now().UTC(),
	})
	if errors.Cause(err) == ErrAlreadySubmitted {
		return Submission{}, core.NewValidationError(ErrAlreadySubmitted)
	}
	return sub, err
}

// canReview: the uploader of a material and admins review its submissions.
func canReview(actor user.User, m Material) bool {
	return actor.IsAdmin() || m.UploaderID == actor.ID
}

func (svc *service) Submissions(ctx context.Context, actor user.User, materialID int) ([]Submission, error) {
	m, err := svc.repo.GetMaterial(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !canReview(actor, m) {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QuerySubmissions(ctx, materialID)
}

func (svc *service) Grade(ctx context.Context, actor user.User, submissionID int, g Grade) (Submission, error) {
	g.Grade = core.CleanString(g.Grade)
	g.Feedback = core.CleanString(g.Feedback)
	if err := svc.validate.Struct(g); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmission(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	m, err := svc.repo.GetMaterial(ctx, sub.MaterialID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "getting material")
	}
	if !canReview(actor, m) {
		return Submission{}, core.ErrPermissionDenied
	}

	now := time.Now().UTC()
	sub.Status = SubmissionGraded
	sub.Grade = g.Grade
	sub.Feedback = g.Feedback
	sub.GradedAt = &now
	return svc.repo.UpdateSubmission(ctx, sub)
}
