package sqlxrepos

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/studentpartner/backend/core"
	"github.com/studentpartner/backend/core/user"
	"github.com/studentpartner/backend/storage/database"
)

var (
	userColumns = []string{
		"id", "registration_id", "name", "username", "email", "phone", "role", "status",
		"password_hash", "created_at", "updated_at", "last_login",
	}
	userOrderings = []string{"id", "registration_id", "name", "username", "email", "role", "status", "created_at", "last_login"}
)

type userRow struct {
	ID             int         `db:"id"`
	RegistrationID null.String `db:"registration_id"`
	Name           string      `db:"name"`
	Username       null.String `db:"username"`
	Email          null.String `db:"email"`
	Phone          null.String `db:"phone"`
	Role           string      `db:"role"`
	Status         string      `db:"status"`
	PasswordHash   []byte      `db:"password_hash"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	LastLogin      null.Time   `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:             r.ID,
		RegistrationID: r.RegistrationID.String,
		Name:           r.Name,
		Username:       r.Username.String,
		Email:          r.Email.String,
		Phone:          r.Phone.String,
		Role:           user.Role(r.Role),
		Status:         user.Status(r.Status),
		PasswordHash:   r.PasswordHash,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		LastLogin:      r.LastLogin.Time.UTC(),
	}
}

func usersOf(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users
}

type userRepository struct {
	repository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{repository{exec: exec}}
}

func (repo userRepository) NextRegistrationSeq(ctx context.Context, year int, code string, exec ...core.DBExecutor) (int, error) {
	const q = `INSERT INTO registration_sequences (year, role_code, last_value) VALUES (?, ?, 1)
ON CONFLICT (year, role_code) DO UPDATE SET last_value = registration_sequences.last_value + 1
RETURNING last_value`

	exe := repo.getExec(exec)
	var seq int
	if err := exe.QueryRowxContext(ctx, exe.Rebind(q), year, code).Scan(&seq); err != nil {
		return 0, errors.Wrap(err, "incrementing registration sequence")
	}
	return seq, nil
}

func (repo userRepository) SyncRegistrationSequences(ctx context.Context, exec ...core.DBExecutor) error {
	const q = `INSERT INTO registration_sequences (year, role_code, last_value) VALUES (?, ?, ?)
ON CONFLICT (year, role_code) DO UPDATE SET last_value = CASE
	WHEN excluded.last_value > registration_sequences.last_value THEN excluded.last_value
	ELSE registration_sequences.last_value END`

	exe := repo.getExec(exec)
	var ids []string
	if err := selectBuilt(ctx, exe, &ids, sq.Select("registration_id").From("users").Where(sq.NotEq{"registration_id": nil})); err != nil {
		return errors.Wrap(err, "querying registration IDs")
	}

	type key struct {
		year int
		code string
	}
	greatest := make(map[key]int)
	for _, id := range ids {
		year, code, seq, err := user.ParseRegistrationID(id)
		if err != nil {
			continue // legacy formats never collide with allocated IDs
		}
		if k := (key{year, code}); seq > greatest[k] {
			greatest[k] = seq
		}
	}
	for k, seq := range greatest {
		if _, err := exe.ExecContext(ctx, exe.Rebind(q), k.year, k.code, seq); err != nil {
			return errors.Wrapf(err, "syncing registration sequence %d%s", k.year, k.code)
		}
	}
	return nil
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludeID int, exec ...core.DBExecutor) error {
	or := sq.Or{}
	if username != "" {
		or = append(or, sq.Eq{"username": username})
	}
	if email != "" {
		or = append(or, sq.Eq{"email": email})
	}
	if len(or) == 0 {
		return nil
	}

	var rows []userRow
	b := sq.Select(userColumns...).From("users").Where(or).Where(sq.NotEq{"id": excludeID})
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username.String == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func mapUserUniqueErr(err error, msg string) error {
	switch {
	case database.IsUniqueViolation(err, "username"):
		return user.ErrUsernameExists
	case database.IsUniqueViolation(err, "email"):
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	const q = `INSERT INTO users (registration_id, name, username, email, phone, role, status, password_hash, created_at, updated_at, last_login)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`

	id, err := insertID(ctx, repo.getExec(exec), q,
		nullString(usr.RegistrationID), usr.Name, nullString(usr.Username), nullString(usr.Email), nullString(usr.Phone),
		string(usr.Role), string(usr.Status), usr.PasswordHash, usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(), nullTime(usr.LastLogin))
	if err != nil {
		return user.User{}, mapUserUniqueErr(err, "inserting user")
	}
	usr.ID = id
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	b := sq.Select(userColumns...).From("users")
	switch {
	case filter.ID != 0:
		b = b.Where(sq.Eq{"id": filter.ID})
	case len(filter.UsernameOrEmail) > 0:
		b = b.Where(sq.Or{sq.Eq{"username": filter.UsernameOrEmail}, sq.Eq{"email": filter.UsernameOrEmail}})
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := getBuilt(ctx, repo.getExec(exec), &row, b.Limit(1)); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.user(), nil
}

func applyUserFilter(b sq.SelectBuilder, filter *user.QueryFilter) sq.SelectBuilder {
	if filter == nil {
		return b
	}
	// users with Name, Username, Email or RegistrationID matching the search keyword
	if filter.Search != "" {
		val := "%" + strings.ToLower(filter.Search) + "%"
		b = b.Where(sq.Or{
			sq.Like{"LOWER(name)": val},
			sq.Like{"LOWER(username)": val},
			sq.Like{"LOWER(email)": val},
			sq.Like{"LOWER(registration_id)": val},
		})
	}
	if len(filter.Roles) > 0 {
		roles := make([]string, 0, len(filter.Roles))
		for _, r := range filter.Roles {
			roles = append(roles, string(r))
		}
		b = b.Where(sq.Eq{"role": roles})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if !filter.CreatedFrom.IsZero() {
		b = b.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
	}
	if !filter.CreatedTo.IsZero() {
		b = b.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
	}
	if filter.IDs != nil {
		b = b.Where(sq.Eq{"id": filter.IDs})
	}
	return b
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	b := applyUserFilter(sq.Select(userColumns...).From("users"), filter)

	ordering = core.FilterOrderings(ordering, userOrderings...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "id", Ascending: true}}
	}
	for _, ord := range ordering {
		b = b.OrderBy(ord.String())
	}

	var rows []userRow
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return usersOf(rows), nil
}

func (repo userRepository) CountUsers(ctx context.Context, filter *user.QueryFilter, exec ...core.DBExecutor) (int, error) {
	var n int
	b := applyUserFilter(sq.Select("COUNT(*)").From("users"), filter)
	if err := getBuilt(ctx, repo.getExec(exec), &n, b); err != nil {
		return 0, errors.Wrap(err, "counting users")
	}
	return n, nil
}

func (repo userRepository) UsersWithoutRegistrationID(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []userRow
	b := sq.Select(userColumns...).From("users").Where(sq.Eq{"registration_id": nil}).OrderBy("created_at ASC", "id ASC")
	if err := selectBuilt(ctx, repo.getExec(exec), &rows, b); err != nil {
		return nil, errors.Wrap(err, "querying users without registration ID")
	}
	return usersOf(rows), nil
}

func (repo userRepository) SetRegistrationID(ctx context.Context, id int, regID string, exec ...core.DBExecutor) error {
	err := execAffecting(ctx, repo.getExec(exec), user.ErrNotFound,
		"UPDATE users SET registration_id = ? WHERE id = ?", regID, id)
	if err != nil && err != user.ErrNotFound {
		return errors.Wrap(err, "setting registration ID")
	}
	return err
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	const q = `UPDATE users SET name = ?, username = ?, email = ?, phone = ?, role = ?, status = ?,
password_hash = ?, updated_at = ?, last_login = ? WHERE id = ?`

	err := execAffecting(ctx, repo.getExec(exec), user.ErrNotFound, q,
		usr.Name, nullString(usr.Username), nullString(usr.Email), nullString(usr.Phone), string(usr.Role), string(usr.Status),
		usr.PasswordHash, usr.UpdatedAt.UTC(), nullTime(usr.LastLogin), usr.ID)
	if err != nil {
		if err == user.ErrNotFound {
			return user.User{}, err
		}
		return user.User{}, mapUserUniqueErr(err, "updating user")
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids []int, exec ...core.DBExecutor) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := execBuilt(ctx, repo.getExec(exec), sq.Delete("users").Where(sq.Eq{"id": ids}))
	return errors.Wrap(err, "deleting users")
}
