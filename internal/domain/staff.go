package domain

import "time"

type Role string

const (
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

func (r Role) Valid() bool {
	return r == RoleManager || r == RoleStaff
}

type Tenant struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is an external login. Staff rows may point at one through LinkedUserID but never own it.
type Account struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Membership grants an account a role inside a tenant.
type Membership struct {
	TenantID  int64 `json:"tenantID"`
	AccountID int64 `json:"accountID"`
	Role      Role  `json:"role"`
}

type Staff struct {
	ID           int64     `json:"id"`
	TenantID     int64     `json:"tenantID"`
	Name         string    `json:"name"`
	LinkedUserID *int64    `json:"linkedUserID"`
	Role         *Role     `json:"role"` // nil when no role was recorded
	CreatedAt    time.Time `json:"createdAt"`
}

func (s *Staff) IsManager() bool {
	return s.Role != nil && *s.Role == RoleManager
}

// Actor is the caller of a core operation: who they are, in which tenant, with which role.
// StaffID is set when the account is linked to a staff row of the tenant.
type Actor struct {
	TenantID  int64
	AccountID int64
	Role      Role
	StaffID   *int64
}

func (a Actor) IsManager() bool {
	return a.Role == RoleManager
}
