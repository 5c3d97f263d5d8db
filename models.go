package tokens

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleUser is the default role assigned on registration
	RoleUser UserRole = "user"
	// RoleAdmin can access administrative endpoints
	RoleAdmin UserRole = "admin"
)

// DefaultAvatarURL is assigned when a provider profile carries no picture.
const DefaultAvatarURL = "https://eu.ui-avatars.com/api/?background=random"

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string     `bun:"first_name,notnull" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"-"`
	ProviderUserID string     `bun:"provider_user_id" json:"-"`
	AvatarURL      string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	Favorites      []string   `bun:"favorites,type:jsonb" json:"favorites,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Username returns the identifier used for display purposes.
func (u *User) Username() string {
	return u.Email
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
