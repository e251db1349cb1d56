package models

import "time"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is the identity record returned by the backend.
type User struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          Role       `json:"role"`
	BranchID      string     `json:"branch_id,omitempty"`
	LevelID       string     `json:"level_id,omitempty"`
	Filiere       string     `json:"filiere,omitempty"`
	AvatarURL     string     `json:"avatar_url,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	Establishment string     `json:"establishment,omitempty"`
	Objectives    string     `json:"objectives,omitempty"`
	IsValidated   bool       `json:"is_validated"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

// Clone returns a copy that does not share the CreatedAt pointer.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	return &c
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Role     Role   `json:"role" validate:"required,oneof=admin teacher student"`
	BranchID string `json:"branch_id,omitempty"`
	LevelID  string `json:"level_id,omitempty"`
	Filiere  string `json:"filiere,omitempty"`
}

// AuthResponse is the body of /auth/login and /auth/register.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Name          *string `json:"name,omitempty"`
	AvatarURL     *string `json:"avatar_url,omitempty"`
	Bio           *string `json:"bio,omitempty"`
	Establishment *string `json:"establishment,omitempty"`
	Objectives    *string `json:"objectives,omitempty"`
	BranchID      *string `json:"branch_id,omitempty"`
	LevelID       *string `json:"level_id,omitempty"`
	Filiere       *string `json:"filiere,omitempty"`
}

// Apply merges the non-nil fields of p into u.
func (p ProfileUpdate) Apply(u *User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&u.Name, p.Name)
	set(&u.AvatarURL, p.AvatarURL)
	set(&u.Bio, p.Bio)
	set(&u.Establishment, p.Establishment)
	set(&u.Objectives, p.Objectives)
	set(&u.BranchID, p.BranchID)
	set(&u.LevelID, p.LevelID)
	set(&u.Filiere, p.Filiere)
}
