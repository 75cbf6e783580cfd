package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/announcement"
	"github.com/studentpartner/backend/core/user"
)

type announcementRow struct {
	ID         int       `db:"id"`
	Title      string    `db:"title"`
	Content    string    `db:"content"`
	TargetRole string    `db:"target_role"`
	CreatedBy  int       `db:"created_by"`
	AuthorName string    `db:"author_name"`
	CreatedAt  time.Time `db:"created_at"`
}

type announcementRepository struct {
	repository
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(exec core.DBExecutor) *announcementRepository {
	return &announcementRepository{repository{exec: exec}}
}

func (repo announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement, exec ...core.DBExecutor) (announcement.Announcement, error) {
	const q = `INSERT INTO announcements (title, content, target_role, created_by, created_at) VALUES (?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q, a.Title, a.Content, string(a.TargetRole), a.CreatedBy, a.CreatedAt.UTC())
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	a.ID = id
	return a, nil
}

func (repo announcementRepository) QueryAnnouncements(ctx context.Context, audiences []user.Audience, limit int, exec ...core.DBExecutor) ([]announcement.Announcement, error) {
	targets := make([]string, 0, len(audiences))
	for _, a := range audiences {
		targets = append(targets, string(a))
	}
	b := sq.Select("a.id", "a.title", "a.content", "a.target_role", "a.created_by", "u.name AS author_name", "a.created_at").
		From("announcements a").
		Join("users u ON u.id = a.created_by").
		Where(sq.Eq{"a.target_role": targets}).
		OrderBy("a.created_at DESC", "a.id DESC")
	if limit > 0 {
		b = b.Limit(uint64(limit))
	}

	var rows []announcementRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	anns := make([]announcement.Announcement, 0, len(rows))
	for _, r := range rows {
		anns = append(anns, announcement.Announcement{
			ID:         r.ID,
			Title:      r.Title,
			Content:    r.Content,
			TargetRole: user.Audience(r.TargetRole),
			CreatedBy:  r.CreatedBy,
			AuthorName: r.AuthorName,
			CreatedAt:  r.CreatedAt.UTC(),
		})
	}
	return anns, nil
}
