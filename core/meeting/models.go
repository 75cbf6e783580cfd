package meeting

import (
	"time"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

type Meeting struct {
	ID          int           `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Date        core.Date     `json:"meeting_date"`
	StartTime   string        `json:"start_time"` // HH:MM
	EndTime     string        `json:"end_time"`   // HH:MM
	TargetRole  user.Audience `json:"target_role"`
	CreatedBy   int           `json:"created_by"`
	CreatedAt   time.Time     `json:"created_at"`
}

type NewMeeting struct {
	Title       string        `json:"title" validate:"required,max=255"`
	Description string        `json:"description"`
	Date        core.Date     `json:"meeting_date"`
	StartTime   string        `json:"start_time" validate:"required,clocktime"`
	EndTime     string        `json:"end_time" validate:"required,clocktime"`
	TargetRole  user.Audience `json:"target_role" validate:"omitempty,audience"`
}

// QueryFilter selects the meetings addressed to one of Audiences, from From (inclusive) to To (exclusive).
type QueryFilter struct {
	Audiences []user.Audience
	From      core.Date
	To        core.Date
	Limit     int
}

// ReminderData is passed to the meeting reminder email template.
type ReminderData struct {
	Title       string
	StartTime   string
	EndTime     string
	Description string
}
