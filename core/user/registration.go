package user

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

const (
	// FallbackRoleCode is used for roles without a dedicated code.
	FallbackRoleCode = "US"

	registrationSeqWidth = 4
	MaxRegistrationSeq   = 9999
)

var (
	registrationIDRegex = regexp.MustCompile(`^(\d{4})([A-Z]{2})(\d{4})$`)

	// errors
	ErrRegistrationSequenceExhausted = errors.New("registration sequence exhausted")
	ErrInvalidRegistrationID         = errors.New("invalid registration ID")
)

// RoleCode returns the two letters code of a role used in registration IDs.
func RoleCode(r Role) string {
	switch r {
	case RoleStudent:
		return "ST"
	case RoleTeacher:
		return "TR"
	case RoleParent:
		return "PR"
	case RoleAdmin:
		return "AD"
	}
	return FallbackRoleCode
}

// RegistrationPrefix returns the `{year}{roleCode}` prefix shared by all registration IDs of a role in a year.
func RegistrationPrefix(year int, r Role) string {
	return fmt.Sprintf("%04d%s", year, RoleCode(r))
}

// FormatRegistrationID builds a `{year}{roleCode}{seq}` registration ID, seq being zero-padded to 4 digits.
func FormatRegistrationID(year int, r Role, seq int) (string, error) {
	if seq < 1 {
		return "", errors.Errorf("invalid registration sequence %d", seq)
	}
	if seq > MaxRegistrationSeq {
		return "", ErrRegistrationSequenceExhausted
	}
	return fmt.Sprintf("%s%0*d", RegistrationPrefix(year, r), registrationSeqWidth, seq), nil
}

// ParseRegistrationID splits a registration ID into its year, role code and sequence number.
func ParseRegistrationID(id string) (year int, code string, seq int, err error) {
	m := registrationIDRegex.FindStringSubmatch(id)
	if m == nil {
		return 0, "", 0, ErrInvalidRegistrationID
	}
	year, _ = strconv.Atoi(m[1])
	seq, _ = strconv.Atoi(m[3])
	return year, m[2], seq, nil
}
