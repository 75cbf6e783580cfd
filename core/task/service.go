package task

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("task")
	ErrAmbiguousTarget = errors.New("a task is assigned to either a user or a role")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (Task, error)
		// QueryTasks orders by due date (undated last), then by creation.
		QueryTasks(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Task, error)
		UpdateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nt NewTask) (Task, error)
		// Mine returns the tasks of actor and of actor's role.
		Mine(ctx context.Context, actor user.User) ([]Task, error)
		SetStatus(ctx context.Context, actor user.User, id int, us UpdateStatus) (Task, error)
		Delete(ctx context.Context, actor user.User, id int) error
	}

	service struct {
		repo     Repository
		userSvc  user.Service
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, validate *validator.Validate) Service {
	return &service{
		repo:     repo,
		userSvc:  userSvc,
		validate: validate,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nt NewTask) (Task, error) {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}
	if err := svc.validate.Struct(nt); err != nil {
		return Task{}, err
	}
	if nt.UserID != 0 && nt.TargetRole != "" {
		return Task{}, core.NewValidationError(ErrAmbiguousTarget)
	}

	t := Task{
		UserID:      nt.UserID,
		TargetRole:  nt.TargetRole,
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.DueDate,
		Priority:    nt.Priority,
		Status:      StatusPending,
		CreatedBy:   actor.ID,
	}
	if t.UserID == 0 && t.TargetRole == "" {
		t.UserID = actor.ID
	}
	if err := svc.checkCanAssign(ctx, actor, t); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return svc.repo.CreateTask(ctx, t)
}

// checkCanAssign: admins assign to anyone, teachers to students, others only to themselves.
func (svc *service) checkCanAssign(ctx context.Context, actor user.User, t Task) error {
	if t.UserID == actor.ID {
		return nil
	}

	targetRole := t.TargetRole
	if t.UserID != 0 {
		assignee, err := svc.userSvc.GetByID(ctx, t.UserID)
		if err != nil {
			if core.IsNotFound(err) {
				return core.NewFieldError("user_id", "user not found")
			}
			return err
		}
		targetRole = assignee.Role
	}

	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if targetRole == user.RoleStudent {
			return nil
		}
	case user.RoleStudent, user.RoleParent:
	}
	return core.ErrPermissionDenied
}

func (svc *service) Mine(ctx context.Context, actor user.User) ([]Task, error) {
	return svc.repo.QueryTasks(ctx, QueryFilter{UserID: actor.ID, Role: actor.Role})
}

// visible reports whether actor can see t.
func visible(actor user.User, t Task) bool {
	return t.UserID == actor.ID || t.CreatedBy == actor.ID || (t.TargetRole != "" && t.TargetRole == actor.Role) || actor.IsAdmin()
}

func (svc *service) SetStatus(ctx context.Context, actor user.User, id int, us UpdateStatus) (Task, error) {
	if err := svc.validate.Struct(us); err != nil {
		return Task{}, err
	}
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !visible(actor, t) {
		return Task{}, ErrNotFound
	}
	// role wide tasks are tracked by their creator
	if t.UserID != actor.ID && t.CreatedBy != actor.ID {
		return Task{}, core.ErrPermissionDenied
	}
	t.Status = us.Status
	t.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *service) Delete(ctx context.Context, actor user.User, id int) error {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if !visible(actor, t) {
		return ErrNotFound
	}
	if t.CreatedBy != actor.ID && !actor.IsAdmin() {
		return core.ErrPermissionDenied
	}
	return svc.repo.DeleteTask(ctx, id)
}
