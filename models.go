package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the account's global role
type Role string

const (
	// RoleAdmin may manage every account
	RoleAdmin Role = "admin"
	// RoleSubAdmin may manage plain subscribers
	RoleSubAdmin Role = "sub-admin"
	// RoleSubscriber is the default role for new accounts
	RoleSubscriber Role = "subscriber"
)

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleSubAdmin, RoleSubscriber:
		return true
	default:
		return false
	}
}

// DefaultAvatarURL is the placeholder assigned to accounts created without
// a provider supplied picture.
const DefaultAvatarURL = "https://res.cloudinary.com/dzmaiebsp/image/upload/v1612718849/default_ny1fpf.png"

// User is the account model. PasswordHash always holds a bcrypt hash once
// persisted, never plaintext, and is excluded from JSON output.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	Role          Role       `bun:"user_role,notnull,default:'subscriber'" json:"role,omitempty"`
	Avatar        string     `bun:"avatar" json:"avatar,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NewUser builds an account record with the role and avatar defaults applied.
func NewUser(name, email, passwordHash string) *User {
	return &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleSubscriber,
		Avatar:       DefaultAvatarURL,
	}
}
