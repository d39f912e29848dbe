package models

// Role is one of the two console roles.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User is a backend account. Accounts are read-only in the console.
type User struct {
	ID       FlexString `json:"id"`
	Username string     `json:"username"`
	Role     Role       `json:"role"`
}
