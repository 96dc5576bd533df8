package model

// Role is an ordered privilege tag, not a type hierarchy.
type Role int

const (
	RoleUser Role = iota
	RoleManager
	RoleAdmin
)

var roleNames = map[Role]string{
	RoleUser:    "USER",
	RoleManager: "MANAGER",
	RoleAdmin:   "ADMIN",
}

func (r Role) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return "USER"
}

// ParseRole maps the auth collaborator's role claim onto a Role.
// Unknown values degrade to the least-privileged role.
func ParseRole(s string) Role {
	switch s {
	case "ADMIN":
		return RoleAdmin
	case "MANAGER":
		return RoleManager
	default:
		return RoleUser
	}
}

// AtLeast reports whether r carries at least the privilege of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// Actor is the resolved identity + role of the caller, supplied by the
// out-of-scope authentication layer. The core trusts it completely.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
