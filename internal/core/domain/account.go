package domain

import "time"

const (
	RoleClient     = "client"
	RoleConsultant = "consultant"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the fixed role enumeration.
func ValidRole(role string) bool {
	return role == RoleClient || role == RoleConsultant || role == RoleAdmin
}

// Profile carries role-specific account details. The core treats these
// fields as opaque payload.
type Profile struct {
	FullName       string `json:"full_name,omitempty"`
	Company        string `json:"company,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// Account models one human actor in the system. The password is only ever
// stored as a bcrypt hash; PasswordHash is excluded from JSON output.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
