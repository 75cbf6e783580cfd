package attendance

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrInvalidStatus = errors.New("invalid attendance status")

	statusTag  = "attendance_status"
	statusText = "status must be one of present, absent, holiday, weekoff or none"
)

type (
	Repository interface {
		// UpsertRecord inserts the (user, date) record or replaces its status.
		UpsertRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		DeleteRecord(ctx context.Context, userID int, date core.Date, exec ...core.DBExecutor) error
		// QueryRecords returns the records of userID in [from, to), by date.
		QueryRecords(ctx context.Context, userID int, from, to core.Date, exec ...core.DBExecutor) ([]Record, error)
	}

	// Guardianship tells whether a parent is linked to a student.
	Guardianship interface {
		IsParentOf(ctx context.Context, parentID, studentID int) (bool, error)
	}

	Service interface {
		Calendar(ctx context.Context, actor user.User, userID, year, month int) (Calendar, error)
		Mark(ctx context.Context, actor user.User, data MarkAttendance) (*Record, error)
		MonthlySummary(ctx context.Context, userID, year, month int) (Summary, error)
	}

	service struct {
		repo      Repository
		userSvc   user.Service
		guardians Guardianship
		validate  *validator.Validate
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, userSvc user.Service, guardians Guardianship, validate *validator.Validate) Service {
	return &service{
		repo:      repo,
		userSvc:   userSvc,
		guardians: guardians,
		validate:  validate,
	}
}

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

// Today returns the current calendar day, in UTC.
func Today() core.Date {
	return core.DateOf(nowFunc().UTC())
}

func (svc *service) Calendar(ctx context.Context, actor user.User, userID, year, month int) (Calendar, error) {
	if err := validateMonth(year, month); err != nil {
		return Calendar{}, err
	}
	if userID == 0 {
		userID = actor.ID
	}
	if err := svc.checkCanView(ctx, actor, userID); err != nil {
		return Calendar{}, err
	}

	records, err := svc.monthRecords(ctx, userID, year, time.Month(month))
	if err != nil {
		return Calendar{}, err
	}
	return BuildCalendar(userID, year, time.Month(month), records, Today()), nil
}

func (svc *service) MonthlySummary(ctx context.Context, userID, year, month int) (Summary, error) {
	if err := validateMonth(year, month); err != nil {
		return Summary{}, err
	}
	records, err := svc.monthRecords(ctx, userID, year, time.Month(month))
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}

func (svc *service) monthRecords(ctx context.Context, userID, year int, month time.Month) ([]Record, error) {
	from, to := MonthBounds(year, month)
	records, err := svc.repo.QueryRecords(ctx, userID, from, to)
	return records, errors.Wrap(err, "querying attendance records")
}

// Mark records the status of a day; StatusNone removes the record and returns nil.
func (svc *service) Mark(ctx context.Context, actor user.User, data MarkAttendance) (*Record, error) {
	data.Status = Status(core.CleanString(string(data.Status), true /* lower */))
	if err := svc.validate.Struct(data); err != nil {
		return nil, err
	}
	if data.UserID == 0 {
		data.UserID = actor.ID
	}
	if data.Date.IsZero() {
		data.Date = Today()
	}
	if err := svc.checkCanMark(ctx, actor, data.UserID); err != nil {
		return nil, err
	}

	if data.Status == StatusNone {
		err := svc.repo.DeleteRecord(ctx, data.UserID, data.Date)
		return nil, errors.Wrap(err, "deleting attendance record")
	}

	now := nowFunc().UTC()
	rec, err := svc.repo.UpsertRecord(ctx, Record{
		UserID:    data.UserID,
		Date:      data.Date,
		Status:    data.Status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, errors.Wrap(err, "upserting attendance record")
	}
	return &rec, nil
}

// checkCanMark: anyone marks their own attendance, admins anyone's and teachers their students'.
func (svc *service) checkCanMark(ctx context.Context, actor user.User, userID int) error {
	if userID == actor.ID {
		return nil
	}
	target, err := svc.userSvc.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	switch actor.Role {
	case user.RoleAdmin:
		return nil
	case user.RoleTeacher:
		if target.IsStudent() {
			return nil
		}
	case user.RoleStudent, user.RoleParent:
	}
	return core.ErrPermissionDenied
}

// checkCanView extends checkCanMark with parents viewing their children.
func (svc *service) checkCanView(ctx context.Context, actor user.User, userID int) error {
	if actor.Role != user.RoleParent || userID == actor.ID {
		return svc.checkCanMark(ctx, actor, userID)
	}
	ok, err := svc.guardians.IsParentOf(ctx, actor.ID, userID)
	if err != nil {
		return errors.Wrap(err, "checking guardianship")
	}
	if !ok {
		return core.ErrPermissionDenied
	}
	return nil
}
