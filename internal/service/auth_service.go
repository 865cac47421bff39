package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"vidaplus/internal/model"
	"vidaplus/internal/repository"
	"vidaplus/internal/utils"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
)

// AuthService provides authentication related services
type AuthService interface {
	Register(ctx context.Context, req model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Me(ctx context.Context, userID string) (*model.User, error)
}

type authService struct {
	userRepo          repository.UserRepository
	jwtUtil           *utils.JWTUtil
	initialAdminEmail string
	log               *slog.Logger
}

// NewAuthService creates a new AuthService. initialAdminEmail, when set,
// makes the account registered with that email an active administrator.
func NewAuthService(userRepo repository.UserRepository, jwtUtil *utils.JWTUtil, initialAdminEmail string, log *slog.Logger) AuthService {
	return &authService{
		userRepo:          userRepo,
		jwtUtil:           jwtUtil,
		initialAdminEmail: NormalizeEmail(initialAdminEmail),
		log:               log,
	}
}

// NormalizeEmail trims and lowercases an email for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	email := NormalizeEmail(req.Email)

	existingUser, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         req.Role,
		Status:       initialStatus(req.Role),
		Phone:        strings.TrimSpace(req.Phone),
	}

	// Role-specific fields of the other role are dropped
	switch req.Role {
	case model.RolePatient:
		user.BirthDate = req.BirthDate
		user.Gender = req.Gender
	case model.RoleProfessional:
		user.Specialty = strings.TrimSpace(req.Specialty)
		user.RegistrationNumber = strings.TrimSpace(req.RegistrationNumber)
	}

	if s.initialAdminEmail != "" && email == s.initialAdminEmail {
		user.Role = model.RoleAdmin
		user.Status = model.StatusActive
		s.log.Info("registering initial administrator", slog.String("email", email))
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}
	if user == nil {
		return nil, "", ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	if user.Status == model.StatusInactive {
		return nil, "", ErrAccountInactive
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	return user, token, nil
}

// Me returns the account behind an authenticated token
func (s *authService) Me(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Professionals wait for administrator approval
func initialStatus(role string) string {
	if role == model.RoleProfessional {
		return model.StatusPending
	}
	return model.StatusActive
}
