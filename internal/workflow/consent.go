package workflow

import (
	"errors"

	"vidaplus/internal/model"
)

var (
	ErrConsentNotAcknowledged = errors.New("consent must be acknowledged before accepting")
	ErrConsentDeclined        = errors.New("consent declined: registration cannot continue without accepting the privacy terms")
	ErrConsentDecided         = errors.New("consent has already been decided")
)

// DestinationLogin is where an accepted consent leads
const DestinationLogin = "login"

// ConsentStatement is the privacy text shown by the gate
const ConsentStatement = "VidaPlus processes your personal and health data to provide care, " +
	"scheduling and billing services, in accordance with the LGPD (Lei 13.709/2018). " +
	"Your data is only shared with the professionals responsible for your care."

// ConsentOutcome tells the caller where to go after an accepted consent
type ConsentOutcome struct {
	Destination string
	Message     string
	Email       string
}

// ConsentGate blocks progress after registration until the user accepts or
// declines the privacy terms. It exists only in memory.
type ConsentGate struct {
	wizard       *Wizard
	user         model.User
	acknowledged bool
	decided      bool
}

func newConsentGate(w *Wizard, user model.User) *ConsentGate {
	return &ConsentGate{wizard: w, user: user}
}

// Statement returns the text the user is asked to accept
func (g *ConsentGate) Statement() string { return ConsentStatement }

// Role of the account that was created
func (g *ConsentGate) Role() string { return g.user.Role }

// Acknowledge sets the checkbox state
func (g *ConsentGate) Acknowledge(checked bool) {
	if !g.decided {
		g.acknowledged = checked
	}
}

// CanAccept reports whether the accept action is enabled
func (g *ConsentGate) CanAccept() bool {
	return g.acknowledged && !g.decided
}

// Accept closes the gate and sends the user to login with a message for
// their role
func (g *ConsentGate) Accept() (ConsentOutcome, error) {
	if g.decided {
		return ConsentOutcome{}, ErrConsentDecided
	}
	if !g.acknowledged {
		return ConsentOutcome{}, ErrConsentNotAcknowledged
	}
	g.decided = true
	g.wizard.restart(nil)

	return ConsentOutcome{
		Destination: DestinationLogin,
		Message:     welcomeMessage(g.user.Role),
		Email:       g.user.Email,
	}, nil
}

// Decline closes the gate and returns the wizard to its first step with a
// blocking error. Nothing from the attempt is kept on the client.
func (g *ConsentGate) Decline() error {
	if g.decided {
		return ErrConsentDecided
	}
	g.decided = true
	g.acknowledged = false
	g.wizard.restart(ErrConsentDeclined)
	return nil
}

func welcomeMessage(role string) string {
	switch role {
	case model.RoleProfessional:
		return "Registration complete. Your professional account is pending administrator approval; " +
			"you will be able to access clinical features once it is approved."
	case model.RoleAdmin:
		return "Registration complete. Sign in to access the administration area."
	default:
		return "Registration complete. Sign in to access your patient portal."
	}
}
