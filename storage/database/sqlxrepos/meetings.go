package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/meeting"
	"github.com/studentpartner/backend/core/user"
)

type meetingRow struct {
	ID          int         `db:"id"`
	Title       string      `db:"title"`
	Description null.String `db:"description"`
	Date        core.Date   `db:"meeting_date"`
	StartTime   string      `db:"start_time"`
	EndTime     string      `db:"end_time"`
	TargetRole  string      `db:"target_role"`
	CreatedBy   int         `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
}

type meetingRepository struct {
	repository
}

var _ meeting.Repository = (*meetingRepository)(nil)

func NewMeetingRepository(exec core.DBExecutor) *meetingRepository {
	return &meetingRepository{repository{exec: exec}}
}

func (repo meetingRepository) CreateMeeting(ctx context.Context, m meeting.Meeting, exec ...core.DBExecutor) (meeting.Meeting, error) {
	const q = `INSERT INTO meetings (title, description, meeting_date, start_time, end_time, target_role, created_by, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q,
		m.Title, nullString(m.Description), m.Date, m.StartTime, m.EndTime, string(m.TargetRole), m.CreatedBy, m.CreatedAt.UTC())
	if err != nil {
		return meeting.Meeting{}, errors.Wrap(err, "inserting meeting")
	}
	m.ID = id
	return m, nil
}

func (repo meetingRepository) QueryMeetings(ctx context.Context, filter meeting.QueryFilter, exec ...core.DBExecutor) ([]meeting.Meeting, error) {
	b := sq.Select("id", "title", "description", "meeting_date", "start_time", "end_time", "target_role", "created_by", "created_at").
		From("meetings")
	if filter.Audiences != nil {
		targets := make([]string, 0, len(filter.Audiences))
		for _, a := range filter.Audiences {
			targets = append(targets, string(a))
		}
		b = b.Where(sq.Eq{"target_role": targets})
	}
	if !filter.From.IsZero() {
		b = b.Where(sq.GtOrEq{"meeting_date": filter.From})
	}
	if !filter.To.IsZero() {
		b = b.Where(sq.Lt{"meeting_date": filter.To})
	}
	b = b.OrderBy("meeting_date ASC", "start_time ASC", "id ASC")
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}

	var rows []meetingRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying meetings")
	}
	meetings := make([]meeting.Meeting, 0, len(rows))
	for _, r := range rows {
		meetings = append(meetings, meeting.Meeting{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description.String,
			Date:        r.Date,
			StartTime:   r.StartTime,
			EndTime:     r.EndTime,
			TargetRole:  user.Audience(r.TargetRole),
			CreatedBy:   r.CreatedBy,
			CreatedAt:   r.CreatedAt.UTC(),
		})
	}
	return meetings, nil
}
