// Package workflow implements the client side of sign-up: the registration
// wizard, the consent gate shown after an account is created, and the login
// form. The state machines do no I/O of their own; network calls go through
// the Registrar and Authenticator interfaces.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"

	"vidaplus/internal/model"
	"vidaplus/internal/validation"
)

// Step is a state of the registration wizard
type Step int

const (
	StepBasic Step = iota
	StepDetails
	StepConfirm
	StepConsent
)

func (s Step) String() string {
	switch s {
	case StepBasic:
		return "basic"
	case StepDetails:
		return "details"
	case StepConfirm:
		return "confirm"
	case StepConsent:
		return "consent"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

var (
	ErrNotAtConfirm     = errors.New("registration can only be submitted from the confirmation step")
	ErrSubmitInProgress = errors.New("registration is already being submitted")
	ErrAwaitingConsent  = errors.New("account created; consent decision pending")
	ErrNoFurtherStep    = errors.New("no further step; submit the registration")
)

// ValidationError carries field-level messages keyed by JSON field name
type ValidationError struct {
	Step   Step
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + validation.Summary(e.Fields)
}

// BasicInfo is the first step of the wizard
type BasicInfo struct {
	Name            string `json:"name" binding:"required,min=3,max=120"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
	Role            string `json:"role" binding:"required,oneof=patient professional"`
}

// PatientInfo is the second step for patients
type PatientInfo struct {
	BirthDate string `json:"birthDate" binding:"required,datetime=2006-01-02,pastdate"`
	Gender    string `json:"gender" binding:"required,oneof=female male other"`
	Phone     string `json:"phone,omitempty" binding:"omitempty,min=8,max=20"`
}

// ProfessionalInfo is the second step for professionals
type ProfessionalInfo struct {
	Specialty          string `json:"specialty" binding:"required,max=120"`
	RegistrationNumber string `json:"registrationNumber" binding:"required,max=40"`
	Phone              string `json:"phone,omitempty" binding:"omitempty,min=8,max=20"`
}

// Draft accumulates the wizard input until submission
type Draft struct {
	Basic        BasicInfo
	Patient      PatientInfo
	Professional ProfessionalInfo
}

// Request builds the registration payload. Only the fields of the chosen
// role are included.
func (d Draft) Request() model.RegisterRequest {
	req := model.RegisterRequest{
		Name:     d.Basic.Name,
		Email:    d.Basic.Email,
		Password: d.Basic.Password,
		Role:     d.Basic.Role,
	}
	switch d.Basic.Role {
	case model.RolePatient:
		req.BirthDate = d.Patient.BirthDate
		req.Gender = d.Patient.Gender
		req.Phone = d.Patient.Phone
	case model.RoleProfessional:
		req.Specialty = d.Professional.Specialty
		req.RegistrationNumber = d.Professional.RegistrationNumber
		req.Phone = d.Professional.Phone
	}
	return req
}

// Registrar sends a registration to the API
type Registrar interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
}

// Wizard is the registration state machine: basic, details, confirm, then
// consent once the account exists
type Wizard struct {
	registrar  Registrar
	validate   *validator.Validate
	step       Step
	draft      Draft
	err        error
	submitting atomic.Bool
	gate       *ConsentGate
}

// NewWizard creates a wizard at the first step
func NewWizard(r Registrar) *Wizard {
	return &Wizard{registrar: r, validate: validation.New()}
}

func (w *Wizard) Step() Step { return w.step }

// Draft returns the editable draft
func (w *Wizard) Draft() *Draft { return &w.draft }

// Err returns the top-level error shown above the form, if any
func (w *Wizard) Err() error { return w.err }

// Submitting reports whether a submission is pending
func (w *Wizard) Submitting() bool { return w.submitting.Load() }

// Consent returns the consent gate while the wizard is at StepConsent
func (w *Wizard) Consent() *ConsentGate { return w.gate }

// Next validates the current step and advances on success
func (w *Wizard) Next() error {
	switch w.step {
	case StepBasic, StepDetails:
		if err := w.check(w.step); err != nil {
			return err
		}
		w.err = nil
		w.step++
		return nil
	case StepConfirm:
		return ErrNoFurtherStep
	default:
		return ErrAwaitingConsent
	}
}

// Back returns to the previous step. It is a no-op on the first step and
// once the account has been created.
func (w *Wizard) Back() {
	if w.step == StepDetails || w.step == StepConfirm {
		w.step--
	}
}

// Submit re-validates the whole draft and sends it to the registrar. On
// success the draft is discarded and the consent gate opens; on failure the
// wizard stays at the confirmation step with the draft intact.
func (w *Wizard) Submit(ctx context.Context) (*ConsentGate, error) {
	if w.step != StepConfirm {
		return nil, ErrNotAtConfirm
	}
	if !w.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmitInProgress
	}
	defer w.submitting.Store(false)

	for _, s := range []Step{StepBasic, StepDetails} {
		if err := w.check(s); err != nil {
			return nil, err
		}
	}

	user, err := w.registrar.Register(ctx, w.draft.Request())
	if err != nil {
		w.err = err
		return nil, err
	}

	w.err = nil
	w.draft = Draft{}
	w.step = StepConsent
	w.gate = newConsentGate(w, *user)
	return w.gate, nil
}

// restart returns the wizard to an empty first step with err shown
func (w *Wizard) restart(err error) {
	w.draft = Draft{}
	w.gate = nil
	w.step = StepBasic
	w.err = err
}

func (w *Wizard) check(s Step) error {
	var err error
	switch s {
	case StepBasic:
		err = w.validate.Struct(w.draft.Basic)
	case StepDetails:
		switch w.draft.Basic.Role {
		case model.RolePatient:
			err = w.validate.Struct(w.draft.Patient)
		case model.RoleProfessional:
			err = w.validate.Struct(w.draft.Professional)
		default:
			return &ValidationError{Step: StepBasic, Fields: map[string]string{"role": "is required"}}
		}
	}
	if err == nil {
		return nil
	}
	if fields := validation.FieldErrors(err); fields != nil {
		return &ValidationError{Step: s, Fields: fields}
	}
	return fmt.Errorf("failed to validate %s step: %w", s, err)
}
