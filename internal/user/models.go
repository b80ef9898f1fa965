// Package user manages AirAlert accounts: profile data, the simulated Pro
// upgrade, data export and usage statistics.
//
// # Personal data
//
// Patients may supply age, gender, weight and a free-text health record.
// These fields are only returned to the account owner (session, export) and
// are removed together with the account. The password hash never leaves the
// repository layer.
package user

import (
	"strings"
	"time"
)

// Type is the persona an account was registered with.
type Type string

// User types.
const (
	TypePatient Type = "patient"
	TypePlanner Type = "planner"
)

// User is a registered account.
type User struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Email                string     `json:"email"`
	Region               string     `json:"region"`
	City                 string     `json:"city"`
	NotificationsEnabled bool       `json:"notifications_enabled"`
	UserType             Type       `json:"userType"`
	IsPro                bool       `json:"isPro"`
	Age                  int        `json:"age,omitempty"`
	Gender               string     `json:"gender,omitempty"`
	Weight               float64    `json:"weight,omitempty"`
	HealthRecord         string     `json:"healthRecord,omitempty"`
	ProSince             *time.Time `json:"proSince,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty"`

	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string `json:"-"`
}

// Summary is the subset of a user returned by auth and profile endpoints.
type Summary struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Region               string `json:"region"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	UserType             Type   `json:"userType"`
	IsPro                bool   `json:"isPro"`
}

// Summary returns the public subset of u.
func (u *User) Summary() Summary {
	return Summary{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		Region:               u.Region,
		NotificationsEnabled: u.NotificationsEnabled,
		UserType:             u.UserType,
		IsPro:                u.IsPro,
	}
}

// NormalizeEmail lower-cases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileUpdate holds the editable profile fields.
type ProfileUpdate struct {
	Name   string  `json:"name" validate:"required,max=100"`
	Email  string  `json:"email" validate:"required,email,max=254"`
	Region string  `json:"region" validate:"required,max=100"`
	City   *string `json:"city,omitempty" validate:"omitempty,max=100"`
}

func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ProSince != nil {
		t := *u.ProSince
		c.ProSince = &t
	}
	if u.UpdatedAt != nil {
		t := *u.UpdatedAt
		c.UpdatedAt = &t
	}
	return &c
}
