package user

import (
	"fmt"

	"github.com/studentpartner/backend/core"
)

// Role is the closed set of account roles. Every switch over a Role must handle all of them.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// AllRoles lists every Role, lowest priority first.
var AllRoles = []Role{RoleStudent, RoleParent, RoleTeacher, RoleAdmin}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

// Roles describes AllRoles for clients.
var Roles = []RoleInfo{
	{Name: RoleStudent.Label(), Value: RoleStudent},
	{Name: RoleParent.Label(), Value: RoleParent},
	{Name: RoleTeacher.Label(), Value: RoleTeacher},
	{Name: RoleAdmin.Label(), Value: RoleAdmin},
}

func ParseRole(s string) (Role, error) {
	r := Role(core.CleanString(s, true /* lower */))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return true
	}
	return false
}

func (r Role) Label() string {
	switch r {
	case RoleStudent:
		return "Student"
	case RoleTeacher:
		return "Teacher"
	case RoleParent:
		return "Parent"
	case RoleAdmin:
		return "Admin"
	}
	return "Unknown"
}

// Priority orders roles by privilege. An unknown role has priority 0.
func (r Role) Priority() int {
	switch r {
	case RoleAdmin:
		return 30
	case RoleTeacher:
		return 20
	case RoleParent:
		return 10
	case RoleStudent:
		return 1
	}
	return 0
}

// IsStaff reports whether the role belongs to school staff (teachers and admins).
func (r Role) IsStaff() bool {
	switch r {
	case RoleAdmin, RoleTeacher:
		return true
	case RoleStudent, RoleParent:
		return false
	}
	return false
}

func (r Role) String() string { return string(r) }
