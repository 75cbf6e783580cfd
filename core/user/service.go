package user

import (
	"context"
	"net/mail"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/studentpartner/backend/core"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("user")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrUsernameExists       = errors.New("a user with this username already exists")
	ErrAccountNotActive     = errors.New("account is not active")
	ErrRoleNotSelfAssigned  = errors.New("this role cannot be chosen at registration")
	ErrRoleAboveCreator     = errors.New("not enough rights to set this role")
	ErrCannotDeleteYourself = errors.New("you cannot delete your own account")
)

type (
	Repository interface {
		// NextRegistrationSeq atomically increments and returns the registration counter of (year, code).
		NextRegistrationSeq(ctx context.Context, year int, code string, exec ...core.DBExecutor) (int, error)
		// SyncRegistrationSequences raises every counter to the greatest sequence already used in users.
		SyncRegistrationSequences(ctx context.Context, exec ...core.DBExecutor) error
		CheckUniqueness(ctx context.Context, username, email string, excludeID int, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username, User.Email or User.RegistrationID.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]User, error)
		CountUsers(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) (int, error)
		// UsersWithoutRegistrationID returns users lacking a registration ID, oldest first.
		UsersWithoutRegistrationID(ctx context.Context, exec ...core.DBExecutor) ([]User, error)
		SetRegistrationID(ctx context.Context, id int, regID string, exec ...core.DBExecutor) error
		UpdateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		DeleteUsersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error
	}

	Service interface {
		// Register creates a self registered User; only roles allowed by the configuration may be chosen.
		Register(ctx context.Context, nu NewUser) (User, error)
		// Create creates a User on behalf of creator, who cannot grant a role above their own.
		Create(ctx context.Context, creator User, nu NewUser) (User, error)
		CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error)
		Count(ctx context.Context, filter *QueryFilter) (int, error)
		GetByID(ctx context.Context, id int) (User, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		Update(ctx context.Context, usr User, uu UpdateUser) (User, error)
		SetStatus(ctx context.Context, id int, status Status) (User, error)
		// SetLastLogin records a successful login and sends the welcome back email.
		SetLastLogin(ctx context.Context, usr User) (User, error)
		Delete(ctx context.Context, actor User, ids ...int) error
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
		// BackfillRegistrationIDs allocates a registration ID to every user lacking one, oldest first.
		BackfillRegistrationIDs(ctx context.Context) ([]User, error)
	}

	service struct {
		db      core.DB
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, mailSvc core.EmailService, conf *core.Config) Service {
	secretKey = []byte(conf.SecretKey)
	passwordResetTimeoutDelta = conf.Server.PasswordResetTimeoutDelta
	return &service{
		db:      db,
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
	}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, exclUsers ...User) error {
	var excludeID int
	if len(exclUsers) > 0 {
		excludeID = exclUsers[0].ID
	}
	if err := svc.repo.CheckUniqueness(ctx, uname, email, excludeID); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: errors.Cause(err).Error()})
	}
	return nil
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	allowed := false
	for _, r := range svc.conf.Registration.SelfRegisterRoles {
		if Role(r) == nu.Role {
			allowed = true
			break
		}
	}
	if !allowed {
		return User{}, core.NewValidationError(ErrRoleNotSelfAssigned, core.FieldError{Field: "role", Error: ErrRoleNotSelfAssigned.Error()})
	}

	status := StatusActive
	if svc.conf.Registration.RequireApproval {
		status = StatusPending
	}
	return svc.create(ctx, nu, status)
}

func (svc *service) Create(ctx context.Context, creator User, nu NewUser) (User, error) {
	if nu.Role.Priority() > creator.Role.Priority() {
		return User{}, core.NewValidationError(ErrRoleAboveCreator, core.FieldError{Field: "role", Error: ErrRoleAboveCreator.Error()})
	}
	return svc.create(ctx, nu, StatusActive)
}

func (svc *service) create(ctx context.Context, nu NewUser, status Status) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "setting password")
	}

	err := core.RunInTx(ctx, svc.db, func(tx core.DBTransactor) error {
		regID, err := svc.allocateRegistrationID(ctx, now.Year(), usr.Role, tx)
		if err != nil {
			return err
		}
		usr.RegistrationID = regID
		usr, err = svc.repo.CreateUser(ctx, usr, tx)
		return errors.Wrap(err, "creating user")
	})
	if err != nil {
		return User{}, err
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

// allocateRegistrationID must run inside the transaction creating (or updating) the user
// so that a rolled back creation does not consume a sequence number.
func (svc *service) allocateRegistrationID(ctx context.Context, year int, role Role, tx core.DBExecutor) (string, error) {
	seq, err := svc.repo.NextRegistrationSeq(ctx, year, RoleCode(role), tx)
	if err != nil {
		return "", errors.Wrap(err, "allocating registration sequence")
	}
	return FormatRegistrationID(year, role, seq)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering)
}

func (svc *service) Count(ctx context.Context, filter *QueryFilter) (int, error) {
	return svc.repo.CountUsers(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: []string{uname}})
}

func (svc *service) Update(ctx context.Context, usr User, uu UpdateUser) (User, error) {
	usr.Name = uu.Name
	usr.Username = uu.Username
	usr.Email = uu.Email
	usr.Phone = uu.Phone
	usr.Role = uu.Role
	usr.Status = uu.Status
	usr.UpdatedAt = time.Now().UTC()
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "setting password")
		}
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetStatus(ctx context.Context, id int, status Status) (User, error) {
	if !status.Valid() {
		return User{}, core.NewFieldError("status", "invalid status")
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	usr.Status = status
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) SetLastLogin(ctx context.Context, usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeBackMail(usr)
	return usr, nil
}

func (svc *service) Delete(ctx context.Context, actor User, ids ...int) error {
	for _, id := range ids {
		if id == actor.ID {
			return core.NewValidationError(ErrCannotDeleteYourself)
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.repo.GetUser(ctx, GetFilter{UsernameOrEmail: []string{email}})
	if err != nil {
		return err
	}
	if !usr.IsActive() || usr.Email != email {
		return ErrNotFound
	}
	token, err := makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making token")
	}
	svc.sendPasswordResetMail(usr, token)
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	uid, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	id, err := strconv.Atoi(uid)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.NewValidationError(errInvalidToken)
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = verifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "setting password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}

func (svc *service) BackfillRegistrationIDs(ctx context.Context) ([]User, error) {
	if err := svc.repo.SyncRegistrationSequences(ctx); err != nil {
		return nil, errors.Wrap(err, "syncing registration sequences")
	}
	users, err := svc.repo.UsersWithoutRegistrationID(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying users without registration ID")
	}

	updated := make([]User, 0, len(users))
	for _, usr := range users {
		usr := usr
		err = core.RunInTx(ctx, svc.db, func(tx core.DBTransactor) error {
			regID, err := svc.allocateRegistrationID(ctx, usr.CreatedAt.Year(), usr.Role, tx)
			if err != nil {
				return err
			}
			usr.RegistrationID = regID
			return svc.repo.SetRegistrationID(ctx, usr.ID, regID, tx)
		})
		if err != nil {
			return updated, errors.Wrapf(err, "backfilling user %d", usr.ID)
		}
		updated = append(updated, usr)
	}
	return updated, nil
}

// Emails

func (svc *service) recipient(usr User) []mail.Address {
	if usr.Email == "" {
		return nil
	}
	return []mail.Address{{Name: usr.Name, Address: usr.Email}}
}

func (svc *service) sendWelcomeMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           svc.recipient(usr),
		Subject:      "Welcome to " + svc.conf.AppName + "!",
		TemplateName: "welcome",
		TemplateData: ContactData{
			Name:           usr.Name,
			RegistrationID: usr.RegistrationID,
			Pending:        usr.Status == StatusPending,
		},
	})
}

func (svc *service) sendWelcomeBackMail(usr User) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           svc.recipient(usr),
		Subject:      "Welcome back to " + svc.conf.AppName + "!",
		TemplateName: "welcome_back",
		TemplateData: ContactData{
			Name:      usr.Name,
			LoginTime: usr.LastLogin.Format(time.RFC1123),
		},
	})
}

func (svc *service) sendPasswordResetMail(usr User, token string) {
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           svc.recipient(usr),
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: ContactData{
			Name:     usr.Name,
			UID:      EncodeUID(usr),
			Token:    token,
			ValidFor: passwordResetTimeoutDelta.String(),
		},
	})
}
