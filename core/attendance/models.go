package attendance

import (
	"time"

	"github.com/studentpartner/backend/core"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusHoliday Status = "holiday"
	StatusWeekoff Status = "weekoff"
	// StatusNone is never stored: marking it removes the day's record.
	StatusNone Status = "none"
)

// RecordedStatuses are the statuses that may be persisted.
var RecordedStatuses = []Status{StatusPresent, StatusAbsent, StatusHoliday, StatusWeekoff}

func ParseStatus(s string) (Status, error) {
	st := Status(core.CleanString(s, true /* lower */))
	if !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusHoliday, StatusWeekoff, StatusNone:
		return true
	}
	return false
}

type Record struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Date      core.Date `json:"date"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MarkAttendance struct {
	UserID int       `json:"user_id"`
	Date   core.Date `json:"date"`
	Status Status    `json:"status" validate:"required,attendance_status"`
}

// Summary counts the recorded days of a month per status.
type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Holiday int `json:"holiday"`
	Weekoff int `json:"weekoff"`
}

func (s Summary) Total() int { return s.Present + s.Absent + s.Holiday + s.Weekoff }

func Summarize(records []Record) Summary {
	var s Summary
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			s.Present++
		case StatusAbsent:
			s.Absent++
		case StatusHoliday:
			s.Holiday++
		case StatusWeekoff:
			s.Weekoff++
		case StatusNone:
		}
	}
	return s
}
