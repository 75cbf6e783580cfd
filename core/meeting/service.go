package meeting

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

const DefaultUpcomingLimit = 5

var (
	nowFunc = time.Now // mockable

	ErrNotFound = core.NewNotFoundError("meeting")
)

type (
	Repository interface {
		CreateMeeting(ctx context.Context, m Meeting, exec ...core.DBExecutor) (Meeting, error)
		// QueryMeetings orders by date then start time.
		QueryMeetings(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Meeting, error)
	}

	Service interface {
		Create(ctx context.Context, actor user.User, nm NewMeeting) (Meeting, error)
		ForRole(ctx context.Context, role user.Role) ([]Meeting, error)
		// Upcoming returns the meetings of role from today on; limit <= 0 means DefaultUpcomingLimit.
		Upcoming(ctx context.Context, role user.Role, limit int) ([]Meeting, error)
		// SendReminders emails the audience of every meeting held on day and returns the number of emails sent.
		SendReminders(ctx context.Context, day core.Date) (int, error)
	}

	service struct {
		repo     Repository
		userSvc  user.Service
		mailSvc  core.EmailService
		logger   core.Logger
		validate *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, mailSvc core.EmailService, logger core.Logger, validate *validator.Validate) Service {
	return &service{
		repo:     repo,
		userSvc:  userSvc,
		mailSvc:  mailSvc,
		logger:   logger,
		validate: validate,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nm NewMeeting) (Meeting, error) {
	if !actor.Role.IsStaff() {
		return Meeting{}, core.ErrPermissionDenied
	}
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.StartTime = core.CleanString(nm.StartTime)
	nm.EndTime = core.CleanString(nm.EndTime)
	if nm.TargetRole == "" {
		nm.TargetRole = user.AudienceAll
	}
	if err := svc.validate.Struct(nm); err != nil {
		return Meeting{}, err
	}
	if nm.Date.IsZero() {
		return Meeting{}, core.NewFieldError("meeting_date", "meeting_date is a required field")
	}
	// HH:MM strings order like the times they represent
	if nm.EndTime <= nm.StartTime {
		return Meeting{}, core.NewFieldError("end_time", "end_time must be after start_time")
	}

	return svc.repo.CreateMeeting(ctx, Meeting{
		Title:       nm.Title,
		Description: nm.Description,
		Date:        nm.Date,
		StartTime:   nm.StartTime,
		EndTime:     nm.EndTime,
		TargetRole:  nm.TargetRole,
		CreatedBy:   actor.ID,
		CreatedAt:   nowFunc().UTC(),
	})
}

func audiencesOf(role user.Role) []user.Audience {
	return []user.Audience{user.AudienceAll, user.AudienceOf(role)}
}

func (svc *service) ForRole(ctx context.Context, role user.Role) ([]Meeting, error) {
	return svc.repo.QueryMeetings(ctx, QueryFilter{Audiences: audiencesOf(role)})
}

func (svc *service) Upcoming(ctx context.Context, role user.Role, limit int) ([]Meeting, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	return svc.repo.QueryMeetings(ctx, QueryFilter{
		Audiences: audiencesOf(role),
		From:      core.DateOf(nowFunc().UTC()),
		Limit:     limit,
	})
}

func (svc *service) SendReminders(ctx context.Context, day core.Date) (int, error) {
	meetings, err := svc.repo.QueryMeetings(ctx, QueryFilter{From: day, To: day.AddDays(1)})
	if err != nil {
		return 0, errors.Wrap(err, "querying meetings")
	}

	var messages []*core.EmailMessage
	for _, m := range meetings {
		attendees, err := svc.userSvc.Query(ctx, &user.QueryFilter{Roles: m.TargetRole.Roles(), Status: user.StatusActive}, nil)
		if err != nil {
			return 0, errors.Wrapf(err, "querying attendees of meeting %d", m.ID)
		}
		for _, usr := range attendees {
			if usr.Email == "" {
				continue
			}
			messages = append(messages, &core.EmailMessage{
				To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
				Subject:      fmt.Sprintf("Reminder: %s at %s", m.Title, m.StartTime),
				TemplateName: "meeting_reminder",
				TemplateData: ReminderData{
					Title:       m.Title,
					StartTime:   m.StartTime,
					EndTime:     m.EndTime,
					Description: m.Description,
				},
			})
		}
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
	svc.logger.Info(fmt.Sprintf("meeting reminders for %s: %d meetings, %d emails", day, len(meetings), len(messages)))
	return len(messages), nil
}
