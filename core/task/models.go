package task

import (
	"time"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

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
	StatusCompleted  Status = "completed"
)

// Task is either personal (UserID set, CreatedBy == UserID), assigned to a user, or assigned to every user of TargetRole.
type Task struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id,omitempty"`
	TargetRole  user.Role `json:"target_role,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	DueDate     core.Date `json:"due_date"`
	Priority    Priority  `json:"priority"`
	Status      Status    `json:"status"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t Task) IsPersonal() bool { return t.UserID != 0 && t.UserID == t.CreatedBy }

type NewTask struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description"`
	DueDate     core.Date `json:"due_date"`
	Priority    Priority  `json:"priority" validate:"omitempty,oneof=low medium high"`
	// assignment; both empty means a personal task
	UserID     int       `json:"user_id"`
	TargetRole user.Role `json:"target_role" validate:"omitempty,role"`
}

type UpdateStatus struct {
	Status Status `json:"status" validate:"required,oneof=pending in_progress completed"`
}

// QueryFilter matches tasks of UserID OR of Role; both zero matches everything.
type QueryFilter struct {
	UserID int
	Role   user.Role
	Status Status
}
