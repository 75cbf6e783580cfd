package leave

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Leave struct {
	ID         int       `json:"id"`
	UserID     int       `json:"user_id"`
	UserName   string    `json:"user_name,omitempty"`
	Role       user.Role `json:"role"`
	Reason     string    `json:"reason"`
	StartDate  core.Date `json:"start_date"`
	EndDate    core.Date `json:"end_date"`
	Status     Status    `json:"status"`
	ApprovedBy int       `json:"approved_by,omitempty"`
	Remarks    string    `json:"remarks,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Days returns the number of calendar days covered, bounds included.
func (l Leave) Days() int {
	return int(l.EndDate.Sub(l.StartDate.Time).Hours()/24) + 1
}

type NewLeave struct {
	Reason    string    `json:"reason" validate:"required,max=1000"`
	StartDate core.Date `json:"start_date"`
	EndDate   core.Date `json:"end_date"`
}

func (nl *NewLeave) Validate(validate *validator.Validate) error {
	nl.Reason = core.CleanString(nl.Reason)
	if err := validate.Struct(nl); err != nil {
		return err
	}
	var flds []core.FieldError
	if nl.StartDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "start_date", Error: "start_date is a required field"})
	}
	if nl.EndDate.IsZero() {
		flds = append(flds, core.FieldError{Field: "end_date", Error: "end_date is a required field"})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	if nl.EndDate.Before(nl.StartDate) {
		return core.NewValidationError(ErrInvalidRange, core.FieldError{Field: "end_date", Error: ErrInvalidRange.Error()})
	}
	return nil
}

type Decision struct {
	Status  Status `json:"status" validate:"required,oneof=approved rejected"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

type QueryFilter struct {
	UserID      int
	Status      Status
	Roles       []user.Role
	OldestFirst bool
}

// DecisionData is passed to the leave decision email template.
type DecisionData struct {
	Name      string
	StartDate string
	EndDate   string
	Status    string
	Remarks   string
}
