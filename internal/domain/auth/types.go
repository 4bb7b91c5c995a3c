package auth

// Package auth contains domain-level types for lab portal authentication.
// It is pure and free of framework/adapter concerns.

import (
	"strings"

	"github.com/DarwinOsingo/Afrigene/internal/domain/model"
)

// Role is the lab role attribute carried by the user profile.
// The string form matches the upstream API so it round-trips unchanged.
type Role string

const (
	RoleLabAdmin      Role = "Lab Admin"
	RoleResearcher    Role = "Researcher"
	RoleLabTechnician Role = "Lab Technician"
	RoleObserver      Role = "Observer"
)

// Known reports whether r is one of the enumerated lab roles.
func (r Role) Known() bool {
	switch r {
	case RoleLabAdmin, RoleResearcher, RoleLabTechnician, RoleObserver:
		return true
	}
	return false
}

// User is the profile of the authenticated actor.
type User struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	Role          Role             `json:"role"`
	InstitutionID string           `json:"institution_id,omitempty"`
	MFAEnabled    bool             `json:"mfa_enabled"`
	IsActive      bool             `json:"is_active"`
	CreatedAt     *model.Timestamp `json:"created_at,omitempty"`
	LastLogin     *model.Timestamp `json:"last_login,omitempty"`
}

// Clone returns a copy that shares no pointers with u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.CreatedAt != nil {
		t := *u.CreatedAt
		c.CreatedAt = &t
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

// DisplayName is the local part of the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if at := strings.IndexByte(u.Email, '@'); at > 0 {
		return u.Email[:at]
	}
	return u.Email
}

// Credentials are the inputs to a login attempt. MFACode is optional.
type Credentials struct {
	Email    string
	Password string
	MFACode  string
}

// Normalize trims whitespace around the email and MFA code.
// The password is left untouched.
func (c Credentials) Normalize() Credentials {
	c.Email = strings.TrimSpace(c.Email)
	c.MFACode = strings.TrimSpace(c.MFACode)
	return c
}

// Tokens are the opaque bearer credentials issued by the API.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// LoginResult is the outcome of a successful authentication call.
type LoginResult struct {
	Tokens
	User User `json:"user"`
}
