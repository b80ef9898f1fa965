// Package auth provides password authentication and bearer sessions for
// AirAlert accounts.
package auth

import (
	"github.com/airalert/airalert/internal/user"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name                 string    `json:"name" validate:"required,max=100"`
	Email                string    `json:"email" validate:"required,email,max=254"`
	Password             string    `json:"password" validate:"required,min=6,max=72"`
	Region               string    `json:"region" validate:"required,max=100"`
	City                 string    `json:"city" validate:"max=100"`
	NotificationsEnabled *bool     `json:"notifications_enabled"`
	UserType             user.Type `json:"userType" validate:"required,oneof=patient planner"`

	// Patients must give age and gender; weight and health record are optional.
	Age          int     `json:"age" validate:"required_if=UserType patient,gte=0,lte=130"`
	Gender       string  `json:"gender" validate:"required_if=UserType patient,max=50"`
	Weight       float64 `json:"weight" validate:"gte=0,lte=500"`
	HealthRecord string  `json:"healthRecord" validate:"max=5000"`
}

// LoginRequest is the login payload. UserType is accepted for client
// compatibility and ignored.
type LoginRequest struct {
	Email    string    `json:"email" validate:"required,email"`
	Password string    `json:"password" validate:"required"`
	UserType user.Type `json:"userType,omitempty"`
}

// Session is the result of a successful login.
type Session struct {
	User        *user.User
	AccessToken *AccessToken
}
