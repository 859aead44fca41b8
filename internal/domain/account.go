package domain

import "time"

// Role is the closed set of account roles below the staff/superuser flags.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleBrand    Role = "brand"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleBrand:
		return true
	}
	return false
}

// Account is a registered identity. Brands author offers; customers browse them.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	IsStaff      bool      `json:"isStaff"`
	IsSuperuser  bool      `json:"isSuperuser"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Caller is the identity an operation is evaluated against.
type Caller struct {
	AccountID     string
	Authenticated bool
	Superuser     bool
	Staff         bool
	Role          Role
}

// Anonymous returns the caller used when no credentials were presented.
func Anonymous() Caller {
	return Caller{}
}

// CallerFor builds an authenticated caller from a stored account.
func CallerFor(a *Account) Caller {
	if a == nil {
		return Anonymous()
	}
	return Caller{
		AccountID:     a.ID,
		Authenticated: true,
		Superuser:     a.IsSuperuser,
		Staff:         a.IsStaff,
		Role:          a.Role,
	}
}
