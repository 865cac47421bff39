package model

import "time"

const (
	RolePatient      = "patient"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

const (
	StatusActive   = "active"
	StatusPending  = "pending"
	StatusInactive = "inactive"
)

// User represents an account of the hospital system
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never exposed in JSON responses
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	Phone        string    `json:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Patient-only fields
	BirthDate string `json:"birthDate,omitempty"`
	Gender    string `json:"gender,omitempty"`

	// Professional-only fields
	Specialty          string `json:"specialty,omitempty"`
	RegistrationNumber string `json:"registrationNumber,omitempty"`
}

// RegisterRequest is the payload accepted by the registration endpoint.
// Role-specific fields are required according to Role.
type RegisterRequest struct {
	Name               string `json:"name" binding:"required,min=3,max=120"`
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required,min=8,max=72"`
	Role               string `json:"role" binding:"required,oneof=patient professional"`
	Phone              string `json:"phone,omitempty" binding:"omitempty,min=8,max=20"`
	BirthDate          string `json:"birthDate,omitempty" binding:"required_if=Role patient,omitempty,datetime=2006-01-02,pastdate"`
	Gender             string `json:"gender,omitempty" binding:"required_if=Role patient,omitempty,oneof=female male other"`
	Specialty          string `json:"specialty,omitempty" binding:"required_if=Role professional,omitempty,max=120"`
	RegistrationNumber string `json:"registrationNumber,omitempty" binding:"required_if=Role professional,omitempty,max=40"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
	Token   string `json:"token"`
}
