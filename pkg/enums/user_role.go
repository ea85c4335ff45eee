package enums

// UserRole is the platform-wide role carried on the access token.
type UserRole string

const (
	UserRoleUser        UserRole = "user"
	UserRoleSystemAdmin UserRole = "system_admin"
)

var userRoles = []UserRole{UserRoleUser, UserRoleSystemAdmin}

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return member(userRoles, r) }

// IsAdmin reports whether the role may run privileged operations.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleSystemAdmin
}
