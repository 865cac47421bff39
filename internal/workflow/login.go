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

var ErrLoginInProgress = errors.New("login is already in progress")

// Authenticator checks credentials against the API
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*model.LoginResponse, error)
}

// Session is the result of a successful login
type Session struct {
	User  model.User
	Token string
}

// LoginForm is the login state machine. Notice carries the message handed
// over by the consent gate.
type LoginForm struct {
	Email    string
	Password string

	auth       Authenticator
	validate   *validator.Validate
	notice     string
	err        error
	submitting atomic.Bool
	session    *Session
}

// NewLoginForm creates a login form showing notice above the fields
func NewLoginForm(auth Authenticator, notice string) *LoginForm {
	return &LoginForm{auth: auth, validate: validation.New(), notice: notice}
}

// NewLoginFormFromConsent prefills the form after an accepted consent
func NewLoginFormFromConsent(auth Authenticator, out ConsentOutcome) *LoginForm {
	f := NewLoginForm(auth, out.Message)
	f.Email = out.Email
	return f
}

func (f *LoginForm) Notice() string { return f.notice }

func (f *LoginForm) Err() error { return f.err }

func (f *LoginForm) Session() *Session { return f.session }

// Submitting reports whether a login request is pending
func (f *LoginForm) Submitting() bool { return f.submitting.Load() }

// Submit validates the fields and authenticates. The password is cleared
// once the session is established.
func (f *LoginForm) Submit(ctx context.Context) (*Session, error) {
	if !f.submitting.CompareAndSwap(false, true) {
		return nil, ErrLoginInProgress
	}
	defer f.submitting.Store(false)

	req := model.LoginRequest{Email: f.Email, Password: f.Password}
	if err := f.validate.Struct(req); err != nil {
		if fields := validation.FieldErrors(err); fields != nil {
			return nil, &ValidationError{Fields: fields}
		}
		return nil, fmt.Errorf("failed to validate login: %w", err)
	}

	resp, err := f.auth.Login(ctx, f.Email, f.Password)
	if err != nil {
		f.err = err
		return nil, err
	}

	f.err = nil
	f.notice = ""
	f.Password = ""
	f.session = &Session{User: resp.User, Token: resp.Token}
	return f.session, nil
}
