package leave

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

var (
	ErrNotFound     = core.NewNotFoundError("leave")
	ErrInvalidRange = errors.New("end_date must not be before start_date")
	ErrNotPending   = errors.New("leave has already been decided")
)

type (
	Repository interface {
		CreateLeave(ctx context.Context, lv Leave, exec ...core.DBExecutor) (Leave, error)
		GetLeave(ctx context.Context, id int, exec ...core.DBExecutor) (Leave, error)
		// QueryLeaves returns leaves newest first, unless filter.OldestFirst.
		QueryLeaves(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Leave, error)
		UpdateLeave(ctx context.Context, lv Leave, exec ...core.DBExecutor) (Leave, error)
		DeleteLeave(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Apply(ctx context.Context, actor user.User, nl NewLeave) (Leave, error)
		Mine(ctx context.Context, actor user.User) ([]Leave, error)
		// Pending lists the leaves awaiting a decision from actor, oldest first.
		Pending(ctx context.Context, actor user.User) ([]Leave, error)
		Decide(ctx context.Context, actor user.User, id int, dec Decision) (Leave, error)
		// Cancel deletes a pending leave of actor.
		Cancel(ctx context.Context, actor user.User, id int) error
	}

	service struct {
		repo     Repository
		userSvc  user.Service
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, mailSvc core.EmailService, validate *validator.Validate) Service {
	return &service{
		repo:     repo,
		userSvc:  userSvc,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

func (svc *service) Apply(ctx context.Context, actor user.User, nl NewLeave) (Leave, error) {
	if err := nl.Validate(svc.validate); err != nil {
		return Leave{}, err
	}
	now := time.Now().UTC()
	return svc.repo.CreateLeave(ctx, Leave{
		UserID:    actor.ID,
		Role:      actor.Role,
		Reason:    nl.Reason,
		StartDate: nl.StartDate,
		EndDate:   nl.EndDate,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *service) Mine(ctx context.Context, actor user.User) ([]Leave, error) {
	return svc.repo.QueryLeaves(ctx, QueryFilter{UserID: actor.ID})
}

// reviewableRoles returns the applicant roles actor may decide on; nil means none.
func reviewableRoles(actor user.User) []user.Role {
	switch actor.Role {
	case user.RoleAdmin:
		return user.AllRoles
	case user.RoleTeacher:
		return []user.Role{user.RoleStudent}
	case user.RoleStudent, user.RoleParent:
	}
	return nil
}

func canReview(actor user.User, applicant user.Role) bool {
	for _, r := range reviewableRoles(actor) {
		if r == applicant {
			return true
		}
	}
	return false
}

func (svc *service) Pending(ctx context.Context, actor user.User) ([]Leave, error) {
	roles := reviewableRoles(actor)
	if roles == nil {
		return nil, core.ErrPermissionDenied
	}
	return svc.repo.QueryLeaves(ctx, QueryFilter{Status: StatusPending, Roles: roles, OldestFirst: true})
}

func (svc *service) Decide(ctx context.Context, actor user.User, id int, dec Decision) (Leave, error) {
	dec.Remarks = core.CleanString(dec.Remarks)
	if err := svc.validate.Struct(dec); err != nil {
		return Leave{}, err
	}
	lv, err := svc.repo.GetLeave(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	// the applicant's own leave is never reviewable by them
	if lv.UserID == actor.ID || !canReview(actor, lv.Role) {
		return Leave{}, core.ErrPermissionDenied
	}
	if lv.Status != StatusPending {
		return Leave{}, core.NewValidationError(ErrNotPending)
	}

	lv.Status = dec.Status
	lv.Remarks = dec.Remarks
	lv.ApprovedBy = actor.ID
	lv.UpdatedAt = time.Now().UTC()
	if lv, err = svc.repo.UpdateLeave(ctx, lv); err != nil {
		return Leave{}, errors.Wrap(err, "updating leave")
	}

	if applicant, err := svc.userSvc.GetByID(ctx, lv.UserID); err == nil {
		svc.sendDecisionMail(applicant, lv)
	}
	return lv, nil
}

func (svc *service) Cancel(ctx context.Context, actor user.User, id int) error {
	lv, err := svc.repo.GetLeave(ctx, id)
	if err != nil {
		return err
	}
	if lv.UserID != actor.ID {
		return ErrNotFound
	}
	if lv.Status != StatusPending {
		return core.NewValidationError(ErrNotPending)
	}
	return svc.repo.DeleteLeave(ctx, id)
}

func (svc *service) sendDecisionMail(applicant user.User, lv Leave) {
	if applicant.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: applicant.Name, Address: applicant.Email}},
		Subject:      "Leave request " + string(lv.Status),
		TemplateName: "leave_decision",
		TemplateData: DecisionData{
			Name:      applicant.Name,
			StartDate: lv.StartDate.String(),
			EndDate:   lv.EndDate.String(),
			Status:    string(lv.Status),
			Remarks:   lv.Remarks,
		},
	})
}
