package announcement

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

const smsMaxLen = 160

var ErrNotFound = core.NewNotFoundError("announcement")

type (
	Announcement struct {
		ID         int           `json:"id"`
		Title      string        `json:"title"`
		Content    string        `json:"content"`
		TargetRole user.Audience `json:"target_role"`
		CreatedBy  int           `json:"created_by"`
		AuthorName string        `json:"author_name,omitempty"`
		CreatedAt  time.Time     `json:"created_at"`
	}

	NewAnnouncement struct {
		Title      string        `json:"title" validate:"required,max=255"`
		Content    string        `json:"content" validate:"required"`
		TargetRole user.Audience `json:"target_role" validate:"omitempty,audience"`
	}

	// Broadcast reports the notifications queued for an announcement.
	Broadcast struct {
		BatchID string `json:"batch_id"`
		Emails  int    `json:"emails"`
		SMS     int    `json:"sms"`
	}

	Created struct {
		Announcement Announcement `json:"announcement"`
		Broadcast    Broadcast    `json:"broadcast"`
	}

	// MailData is passed to the announcement email template.
	MailData struct {
		Title      string
		Content    string
		AuthorName string
	}

	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement, exec ...core.DBExecutor) (Announcement, error)
		// QueryAnnouncements returns the announcements addressed to one of audiences, newest first; limit <= 0 means no limit.
		QueryAnnouncements(ctx context.Context, audiences []user.Audience, limit int, exec ...core.DBExecutor) ([]Announcement, error)
	}

	Service interface {
		// Create stores the announcement and notifies its audience by email and SMS.
		Create(ctx context.Context, actor user.User, na NewAnnouncement) (Created, error)
		ForRole(ctx context.Context, role user.Role, limit int) ([]Announcement, error)
	}

	service struct {
		repo     Repository
		userSvc  user.Service
		mailSvc  core.EmailService
		smsSvc   core.SMSService
		logger   core.Logger
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, mailSvc core.EmailService, smsSvc core.SMSService, logger core.Logger, validate *validator.Validate) Service {
	return &service{
		repo:     repo,
		userSvc:  userSvc,
		mailSvc:  mailSvc,
		smsSvc:   smsSvc,
		logger:   logger,
		validate: validate,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, na NewAnnouncement) (Created, error) {
	if !actor.Role.IsStaff() {
		return Created{}, core.ErrPermissionDenied
	}
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	if na.TargetRole == "" {
		na.TargetRole = user.AudienceAll
	}
	if err := svc.validate.Struct(na); err != nil {
		return Created{}, err
	}

	a, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:      na.Title,
		Content:    na.Content,
		TargetRole: na.TargetRole,
		CreatedBy:  actor.ID,
		CreatedAt:  time.Now().UTC(),
	})
	if err != nil {
		return Created{}, errors.Wrap(err, "creating announcement")
	}
	a.AuthorName = actor.Name

	bc, err := svc.broadcast(ctx, a)
	if err != nil {
		// the announcement is visible anyway
		svc.logger.Error(fmt.Sprintf("announcement.broadcast(%d): %v", a.ID, err), err)
	}
	return Created{Announcement: a, Broadcast: bc}, nil
}

func (svc *service) broadcast(ctx context.Context, a Announcement) (Broadcast, error) {
	bc := Broadcast{BatchID: uuid.NewString()}
	recipients, err := svc.userSvc.Query(ctx, &user.QueryFilter{Roles: a.TargetRole.Roles(), Status: user.StatusActive}, nil)
	if err != nil {
		return bc, errors.Wrap(err, "querying recipients")
	}

	var (
		emails []*core.EmailMessage
		texts  []core.SMSMessage
	)
	data := MailData{Title: a.Title, Content: a.Content, AuthorName: a.AuthorName}
	for _, usr := range recipients {
		if usr.ID == a.CreatedBy {
			continue
		}
		if usr.Email != "" {
			emails = append(emails, &core.EmailMessage{
				To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
				Subject:      "Announcement: " + a.Title,
				TemplateName: "announcement",
				TemplateData: data,
			})
		}
		if usr.Phone != "" {
			texts = append(texts, core.SMSMessage{To: usr.Phone, Body: SMSBody(a)})
		}
	}

	if len(emails) > 0 {
		svc.mailSvc.SendMessages(emails...)
	}
	if len(texts) > 0 {
		svc.smsSvc.SendSMS(texts...)
	}
	bc.Emails, bc.SMS = len(emails), len(texts)
	svc.logger.Info(fmt.Sprintf("announcement %d broadcast %s: %d emails, %d sms", a.ID, bc.BatchID, bc.Emails, bc.SMS))
	return bc, nil
}

// SMSBody returns the text message of an announcement, truncated to a single SMS.
func SMSBody(a Announcement) string {
	body := []rune(a.Title + ": " + a.Content)
	if len(body) <= smsMaxLen {
		return string(body)
	}
	return string(body[:smsMaxLen-3]) + "..."
}

func (svc *service) ForRole(ctx context.Context, role user.Role, limit int) ([]Announcement, error) {
	return svc.repo.QueryAnnouncements(ctx, []user.Audience{user.AudienceAll, user.AudienceOf(role)}, limit)
}
