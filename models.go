package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the coarse permission class used to gate whole view subtrees.
type UserRole = string

const (
	// RoleStudent is the default role for new accounts (ie. own dashboard, tasks)
	RoleStudent UserRole = "student"
	// RoleMentor is a mentor (i.e. team dashboards, reports, reviews)
	RoleMentor UserRole = "mentor"
)

// AuthStatus is the single flag consumers must check before trusting
// identity or role.
type AuthStatus string

const (
	// StatusInitializing means restoration has not settled yet. No consumer
	// may branch on identity or role while in this state.
	StatusInitializing AuthStatus = "initializing"
	// StatusAuthenticated means an identity is present.
	StatusAuthenticated AuthStatus = "authenticated"
	// StatusUnauthenticated means there is definitively no session.
	StatusUnauthenticated AuthStatus = "unauthenticated"
)

// IsSettled reports whether the status has left initializing.
func (s AuthStatus) IsSettled() bool {
	return s == StatusAuthenticated || s == StatusUnauthenticated
}

// Profile is the application-level user record, fetched after identity
// confirmation and separate from it.
type Profile struct {
	ID          uuid.UUID  `json:"id,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone_number,omitempty"`
	Role        UserRole   `json:"role,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Snapshot is the read-only view of SessionState handed to consumers. Only
// the state machine mutates the underlying state; everything else reads a
// copy.
type Snapshot struct {
	Status    AuthStatus
	Identity  Identity
	Profile   *Profile
	Role      UserRole
	LastError error
}

// IsAuthenticated reports whether the snapshot carries a confirmed identity.
func (s Snapshot) IsAuthenticated() bool {
	return s.Status == StatusAuthenticated && s.Identity != nil
}

// IsSettled reports whether the machine produced a definitive answer.
func (s Snapshot) IsSettled() bool {
	return s.Status.IsSettled()
}

// User is the stored account record backing the local reference service.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	DisplayName    string     `bun:"display_name,notnull" json:"display_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Phone          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AsProfile maps the stored record to the application profile.
func (u *User) AsProfile() *Profile {
	if u == nil {
		return nil
	}
	role := u.Role
	if !ValidRole(role) {
		role = RoleStudent
	}
	return &Profile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
