// Command signup walks through registration, consent and login against a
// running VidaPlus API from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"vidaplus/internal/client"
	"vidaplus/internal/model"
	"vidaplus/internal/workflow"
)

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "base URL of the VidaPlus API")
	timeout := flag.Duration("timeout", 10*time.Second, "HTTP request timeout")
	verbose := flag.Bool("v", false, "log HTTP client activity")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.NewAPIClient(*apiURL, *timeout, log)
	p := newPrompter(os.Stdin, os.Stdout)

	if err := run(ctx, api, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stdout, "\naborted")
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, api *client.APIClient, p *prompter) error {
	wiz := workflow.NewWizard(api)
	declined := false

	for {
		outcome, err := register(ctx, wiz, p, declined)
		if errors.Is(err, errAccountExists) {
			form := workflow.NewLoginForm(api, "an account with this email already exists; sign in instead")
			form.Email = wiz.Draft().Basic.Email
			p.printf("\n%s\n\n", form.Notice())
			return login(ctx, api, form, p)
		}
		if err != nil {
			return err
		}
		if outcome == nil {
			// Consent declined; the wizard starts over
			p.printf("\n%v\n\n", wiz.Err())
			p.printf("the account already created for that email stays registered\n\n")
			declined = true
			continue
		}

		p.printf("\n%s\n\n", outcome.Message)
		return login(ctx, api, workflow.NewLoginFormFromConsent(api, *outcome), p)
	}
}

var errAccountExists = errors.New("account exists")

// register drives the wizard to the consent decision. A nil outcome means
// the user declined. After an earlier decline a duplicate email ends
// registration with errAccountExists.
func register(ctx context.Context, wiz *workflow.Wizard, p *prompter, declined bool) (*workflow.ConsentOutcome, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch wiz.Step() {
		case workflow.StepBasic:
			if err := askBasic(wiz.Draft(), p); err != nil {
				return nil, err
			}
			reportStep(wiz.Next(), p)

		case workflow.StepDetails:
			if err := askDetails(wiz.Draft(), p); err != nil {
				return nil, err
			}
			reportStep(wiz.Next(), p)

		case workflow.StepConfirm:
			printSummary(wiz.Draft(), p)
			choice, err := p.ask("[s]ubmit or [b]ack")
			if err != nil {
				return nil, err
			}
			if strings.HasPrefix(strings.ToLower(choice), "b") {
				wiz.Back()
				continue
			}
			if _, err := wiz.Submit(ctx); err != nil {
				if declined && client.IsStatus(err, http.StatusConflict) {
					return nil, errAccountExists
				}
				p.printf("registration failed: %v\n", err)
			}

		case workflow.StepConsent:
			return decideConsent(wiz.Consent(), p)
		}
	}
}

func decideConsent(gate *workflow.ConsentGate, p *prompter) (*workflow.ConsentOutcome, error) {
	p.printf("\n%s\n\n", gate.Statement())
	for {
		answer, err := p.ask("I have read and agree to the terms [y/n]")
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			gate.Acknowledge(true)
			out, err := gate.Accept()
			if err != nil {
				return nil, err
			}
			return &out, nil
		case "n", "no":
			if err := gate.Decline(); err != nil {
				return nil, err
			}
			return nil, nil
		}
	}
}

func login(ctx context.Context, api *client.APIClient, form *workflow.LoginForm, p *prompter) error {
	for {
		var err error
		if form.Email, err = p.askDefault("email", form.Email); err != nil {
			return err
		}
		if form.Password, err = p.askSecret("password"); err != nil {
			return err
		}

		session, err := form.Submit(ctx)
		if err != nil {
			p.printf("login failed: %v\n", err)
			continue
		}

		me, err := api.Me(ctx, session.Token)
		if err != nil {
			return fmt.Errorf("failed to load account: %w", err)
		}
		p.printf("signed in as %s (%s, %s)\n", me.Name, me.Role, me.Status)
		return nil
	}
}

func askBasic(d *workflow.Draft, p *prompter) error {
	b := &d.Basic
	return p.fill(
		field{label: "full name", dst: &b.Name},
		field{label: "email", dst: &b.Email},
		field{label: "password", dst: &b.Password, secret: true},
		field{label: "confirm password", dst: &b.ConfirmPassword, secret: true},
		field{label: "role (patient/professional)", dst: &b.Role},
	)
}

func askDetails(d *workflow.Draft, p *prompter) error {
	switch d.Basic.Role {
	case model.RoleProfessional:
		pr := &d.Professional
		return p.fill(
			field{label: "specialty", dst: &pr.Specialty},
			field{label: "registration number", dst: &pr.RegistrationNumber},
			field{label: "phone (optional)", dst: &pr.Phone},
		)
	default:
		pa := &d.Patient
		return p.fill(
			field{label: "birth date (YYYY-MM-DD)", dst: &pa.BirthDate},
			field{label: "gender (female/male/other)", dst: &pa.Gender},
			field{label: "phone (optional)", dst: &pa.Phone},
		)
	}
}

func reportStep(err error, p *prompter) {
	var verr *workflow.ValidationError
	switch {
	case err == nil:
	case errors.As(err, &verr):
		for f, msg := range verr.Fields {
			p.printf("  %s %s\n", f, msg)
		}
	default:
		p.printf("%v\n", err)
	}
}

func printSummary(d *workflow.Draft, p *prompter) {
	req := d.Request()
	p.printf("\nname:  %s\nemail: %s\nrole:  %s\n", req.Name, req.Email, req.Role)
	switch req.Role {
	case model.RolePatient:
		p.printf("birth date: %s\ngender: %s\n", req.BirthDate, req.Gender)
	case model.RoleProfessional:
		p.printf("specialty: %s\nregistration number: %s\n", req.Specialty, req.RegistrationNumber)
	}
	if req.Phone != "" {
		p.printf("phone: %s\n", req.Phone)
	}
}

type field struct {
	label  string
	dst    *string
	secret bool
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	// fd is the terminal descriptor secrets are read from, or -1
	fd int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) ask(label string) (string, error) {
	p.printf("%s: ", label)
	line, err := p.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// askSecret reads without echo on a terminal and falls back to line
// reading for piped input
func (p *prompter) askSecret(label string) (string, error) {
	if p.fd < 0 {
		return p.ask(label)
	}
	p.printf("%s: ", label)
	b, err := term.ReadPassword(p.fd)
	p.printf("\n")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// askDefault keeps def when the answer is empty
func (p *prompter) askDefault(label, def string) (string, error) {
	if def == "" {
		return p.ask(label)
	}
	v, err := p.ask(fmt.Sprintf("%s [%s]", label, def))
	if err != nil || v == "" {
		return def, err
	}
	return v, nil
}

func (p *prompter) fill(fields ...field) error {
	for _, f := range fields {
		var v string
		var err error
		if f.secret {
			// Never echo a stored secret back as a default
			v, err = p.askSecret(f.label)
			if v == "" {
				v = *f.dst
			}
		} else {
			v, err = p.askDefault(f.label, *f.dst)
		}
		if err != nil {
			return err
		}
		*f.dst = v
	}
	return nil
}
