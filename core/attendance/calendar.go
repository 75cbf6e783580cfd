package attendance

import (
	"time"

	"github.com/studentpartner/backend/core"
)

const (
	minYear = 1000
	maxYear = 9999
)

// Cell is one slot of a 7 columns month grid; blank cells pad the first week and carry no date.
type Cell struct {
	Blank  bool       `json:"blank,omitempty"`
	Day    int        `json:"day,omitempty"`
	Date   *core.Date `json:"date,omitempty"`
	Status Status     `json:"status,omitempty"`
	Today  bool       `json:"today,omitempty"`
}

type Calendar struct {
	UserID        int        `json:"user_id"`
	Year          int        `json:"year"`
	Month         time.Month `json:"month"`
	LeadingBlanks int        `json:"leading_blanks"`
	Days          int        `json:"days"`
	Cells         []Cell     `json:"cells"`
	Summary       Summary    `json:"summary"`
}

func validateMonth(year, month int) error {
	if month < 1 || month > 12 {
		return core.NewFieldError("month", "month must be between 1 and 12")
	}
	if year < minYear || year > maxYear {
		return core.NewFieldError("year", "year must have 4 digits")
	}
	return nil
}

// MonthBounds returns the first day of the month and the first day of the next one.
func MonthBounds(year int, month time.Month) (from, to core.Date) {
	from = core.NewDate(year, month, 1)
	return from, core.Date{Time: from.AddDate(0, 1, 0)}
}

// LeadingBlanks is the number of placeholders before the 1st for a week starting on Monday.
func LeadingBlanks(year int, month time.Month) int {
	return (int(core.NewDate(year, month, 1).Weekday()) + 6) % 7
}

// DaysIn returns the number of days of month in the Gregorian calendar.
func DaysIn(year int, month time.Month) int {
	// day 0 of the next month normalizes to the last day of month
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// BuildCalendar projects the records of a month onto a flat grid:
// leading blanks then one cell per day, defaulting to StatusNone.
func BuildCalendar(userID, year int, month time.Month, records []Record, today core.Date) Calendar {
	byDay := make(map[int]Status, len(records))
	inMonth := make([]Record, 0, len(records))
	for _, rec := range records {
		if rec.Date.Year() == year && rec.Date.Month() == month {
			byDay[rec.Date.Day()] = rec.Status
			inMonth = append(inMonth, rec)
		}
	}

	blanks := LeadingBlanks(year, month)
	days := DaysIn(year, month)
	cells := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		date := core.NewDate(year, month, day)
		status, ok := byDay[day]
		if !ok {
			status = StatusNone
		}
		cells = append(cells, Cell{
			Day:    day,
			Date:   &date,
			Status: status,
			Today:  date.Equal(today),
		})
	}

	return Calendar{
		UserID:        userID,
		Year:          year,
		Month:         month,
		LeadingBlanks: blanks,
		Days:          days,
		Cells:         cells,
		Summary:       Summarize(inMonth),
	}
}
