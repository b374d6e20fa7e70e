package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleOrganizer Role = "Organizer"
	RoleAttendee  Role = "Attendee"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOrganizer || r == RoleAttendee
}

type UserStatus string

const (
	UserActive   UserStatus = "Active"
	UserInactive UserStatus = "Inactive"
)

// User mirrors the identity provider's subject. The record is created on
// first authentication; the role is fixed at creation time.
type User struct {
	ID        string // identity-provider subject id, trusted as-is
	Name      string
	Email     string
	Role      Role
	AvatarURL string
	Status    UserStatus
	LastLogin time.Time
	CreatedAt time.Time
}

// NewAttendee builds the default record minted on first sign-in.
func NewAttendee(subject, name, email string, now time.Time) (*User, error) {
	subject = strings.TrimSpace(subject)
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if subject == "" {
		return nil, ErrValidation("subject id is required")
	}
	if email == "" {
		return nil, ErrValidation("email is required")
	}
	if name == "" {
		name = email
	}

	return &User{
		ID:        subject,
		Name:      name,
		Email:     email,
		Role:      RoleAttendee,
		Status:    UserActive,
		LastLogin: now.UTC(),
		CreatedAt: now.UTC(),
	}, nil
}
