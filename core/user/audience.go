package user

// Audience targets every user ("all") or the users of one Role.
type Audience string

const AudienceAll Audience = "all"

func AudienceOf(r Role) Audience { return Audience(r) }

func (a Audience) Valid() bool {
	return a == AudienceAll || Role(a).Valid()
}

// Roles returns the roles reached by the audience.
func (a Audience) Roles() []Role {
	if a == AudienceAll {
		return AllRoles
	}
	switch r := Role(a); r {
	case RoleStudent, RoleTeacher, RoleParent, RoleAdmin:
		return []Role{r}
	}
	return nil
}

// Includes reports whether users of role r are part of the audience.
func (a Audience) Includes(r Role) bool {
	for _, role := range a.Roles() {
		if role == r {
			return true
		}
	}
	return false
}
