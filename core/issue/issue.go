package issue

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

const NoCategory = "None"

type (
	Priority string
	Status   string
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"

	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var (
	ErrNotFound         = core.NewNotFoundError("issue")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownIssueType = errors.New("unknown issue type for this category")
)

type (
	Issue struct {
		ID              int       `json:"id"`
		ReporterID      int       `json:"reporter_id"`
		ReporterName    string    `json:"reporter_name,omitempty"`
		ReporterRole    user.Role `json:"reporter_role,omitempty"`
		Category        string    `json:"category"`
		IssueType       string    `json:"issue_type"`
		Description     string    `json:"description"`
		Priority        Priority  `json:"priority"`
		Status          Status    `json:"status"`
		ResolutionNotes string    `json:"resolution_notes,omitempty"`
		CreatedAt       time.Time `json:"created_at"`
		UpdatedAt       time.Time `json:"updated_at"`
	}

	NewIssue struct {
		Category    string   `json:"category" validate:"required"`
		IssueType   string   `json:"issue_type" validate:"required"`
		Description string   `json:"description" validate:"required"`
		Priority    Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	}

	UpdateStatus struct {
		Status          Status `json:"status" validate:"required,oneof=pending in_progress resolved closed"`
		ResolutionNotes string `json:"resolution_notes"`
	}

	Stats struct {
		Total          int    `json:"total"`
		Pending        int    `json:"pending"`
		Resolved       int    `json:"resolved"`
		ResolutionRate int    `json:"resolution_rate"` // percent
		TopCategory    string `json:"top_category"`
	}

	Board struct {
		Issues []Issue `json:"issues"`
		Stats  Stats   `json:"stats"`
	}

	// QueryFilter with a zero ReporterID matches every issue.
	QueryFilter struct {
		ReporterID int
		Status     Status
		Category   string
	}

	Repository interface {
		CreateIssue(ctx context.Context, is Issue, exec ...core.DBExecutor) (Issue, error)
		GetIssue(ctx context.Context, id int, exec ...core.DBExecutor) (Issue, error)
		// QueryIssues returns issues newest first, with their reporter.
		QueryIssues(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Issue, error)
		UpdateIssue(ctx context.Context, is Issue, exec ...core.DBExecutor) (Issue, error)
	}

	Service interface {
		Report(ctx context.Context, actor user.User, ni NewIssue) (Issue, error)
		// Board lists the issues visible to actor and their stats.
		Board(ctx context.Context, actor user.User) (Board, error)
		SetStatus(ctx context.Context, actor user.User, id int, us UpdateStatus) (Issue, error)
	}

	service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, validate *validator.Validate) Service {
	return &service{repo: repo, validate: validate}
}

// ComputeStats summarizes issues; the resolution rate is rounded to the nearest percent.
func ComputeStats(issues []Issue) Stats {
	st := Stats{Total: len(issues), TopCategory: NoCategory}
	perCategory := make(map[string]int, len(Categories))
	for _, is := range issues {
		switch is.Status {
		case StatusPending:
			st.Pending++
		case StatusResolved:
			st.Resolved++
		case StatusInProgress, StatusClosed:
		}
		perCategory[is.Category]++
	}
	if st.Total > 0 {
		st.ResolutionRate = int(math.Round(float64(st.Resolved) / float64(st.Total) * 100))
	}

	top := 0
	for _, c := range Categories {
		if n := perCategory[c.Name]; n > top {
			top = n
			st.TopCategory = c.Name
		}
	}
	return st
}

func (svc *service) Report(ctx context.Context, actor user.User, ni NewIssue) (Issue, error) {
	ni.Category = core.CleanString(ni.Category)
	ni.IssueType = core.CleanString(ni.IssueType)
	ni.Description = core.CleanString(ni.Description)
	if ni.Priority == "" {
		ni.Priority = PriorityMedium
	}
	if err := svc.validate.Struct(ni); err != nil {
		return Issue{}, err
	}
	if _, ok := findCategory(ni.Category); !ok {
		return Issue{}, core.NewValidationError(ErrUnknownCategory, core.FieldError{Field: "category", Error: ErrUnknownCategory.Error()})
	}
	if !ValidType(ni.Category, ni.IssueType) {
		return Issue{}, core.NewValidationError(ErrUnknownIssueType, core.FieldError{Field: "issue_type", Error: ErrUnknownIssueType.Error()})
	}

	now := time.Now().UTC()
	is, err := svc.repo.CreateIssue(ctx, Issue{
		ReporterID:  actor.ID,
		Category:    ni.Category,
		IssueType:   ni.IssueType,
		Description: ni.Description,
		Priority:    ni.Priority,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Issue{}, errors.Wrap(err, "creating issue")
	}
	is.ReporterName = actor.Name
	is.ReporterRole = actor.Role
	return is, nil
}

func (svc *service) Board(ctx context.Context, actor user.User) (Board, error) {
	var filter QueryFilter
	switch actor.Role {
	case user.RoleAdmin, user.RoleTeacher:
	case user.RoleStudent, user.RoleParent:
		filter.ReporterID = actor.ID
	default:
		filter.ReporterID = actor.ID
	}
	issues, err := svc.repo.QueryIssues(ctx, filter)
	if err != nil {
		return Board{}, errors.Wrap(err, "querying issues")
	}
	return Board{Issues: issues, Stats: ComputeStats(issues)}, nil
}

func (svc *service) SetStatus(ctx context.Context, actor user.User, id int, us UpdateStatus) (Issue, error) {
	if !actor.Role.IsStaff() {
		return Issue{}, core.ErrPermissionDenied
	}
	us.ResolutionNotes = core.CleanString(us.ResolutionNotes)
	if err := svc.validate.Struct(us); err != nil {
		return Issue{}, err
	}
	is, err := svc.repo.GetIssue(ctx, id)
	if err != nil {
		return Issue{}, err
	}
	is.Status = us.Status
	is.ResolutionNotes = us.ResolutionNotes
	is.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateIssue(ctx, is)
}
