package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/roomly/apiserver/internal/credentials"
	"github.com/roomly/apiserver/internal/store"
	"github.com/roomly/apiserver/types"
	"github.com/sirupsen/logrus"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByToken(ctx context.Context, token string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// Issuer produces random strings for salts and tokens.
type Issuer interface {
	Issue() (string, error)
}

// SignupRequest carries the signup fields.
type SignupRequest struct {
	Password    string
	Username    string
	Email       string
	Description string
}

// Validate checks that all fields are present.
func (r SignupRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Description, validation.Required),
	)
}

// LoginRequest carries the login fields.
type LoginRequest struct {
	Password string
	Email    string
}

// Validate checks that both fields are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.Email, validation.Required),
	)
}

// AccountService handles signup, login and bearer token resolution.
type AccountService struct {
	repo        UserRepository
	saltIssuer  Issuer
	tokenIssuer Issuer
	events      *Events
	logger      logrus.FieldLogger
}

// NewAccountService constructs an AccountService. events may be nil.
func NewAccountService(repo UserRepository, events *Events, logger logrus.FieldLogger) *AccountService {
	return &AccountService{
		repo:        repo,
		saltIssuer:  credentials.NewIssuer(credentials.DefaultLength),
		tokenIssuer: credentials.NewIssuer(credentials.DefaultLength),
		events:      events,
		logger:      logger,
	}
}

// Signup creates an account and returns its public profile, token included.
func (s *AccountService) Signup(ctx context.Context, req SignupRequest) (types.UserProfile, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return types.UserProfile{}, ErrMissingParameter
	}

	// Clean errors for the common case; the unique constraints decide races.
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return types.UserProfile{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.UserProfile{}, fmt.Errorf("check email: %w", err)
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return types.UserProfile{}, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.UserProfile{}, fmt.Errorf("check username: %w", err)
	}

	salt, err := s.saltIssuer.Issue()
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("issue salt: %w", err)
	}
	token, err := s.tokenIssuer.Issue()
	if err != nil {
		return types.UserProfile{}, fmt.Errorf("issue token: %w", err)
	}

	created, err := s.repo.Create(ctx, types.User{
		ID:    uuid.NewString(),
		Email: req.Email,
		Account: types.Account{
			Username:    req.Username,
			Description: req.Description,
		},
		Token: token,
		Hash:  credentials.Hash(req.Password, salt),
		Salt:  salt,
		Rooms: []string{},
	})
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		return types.UserProfile{}, ErrDuplicateEmail
	case errors.Is(err, store.ErrUsernameTaken):
		return types.UserProfile{}, ErrDuplicateUsername
	case err != nil:
		return types.UserProfile{}, fmt.Errorf("create user: %w", err)
	}

	s.logger.WithField("user_id", created.ID).Info("user signed up")
	s.events.Emit(ctx, types.EventUserCreated, created.ID, "")
	return created.Profile(), nil
}

// Login verifies the password and returns the stored profile and token.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (types.UserProfile, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return types.UserProfile{}, ErrMissingParameter
	}

	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.UserProfile{}, ErrAccountNotFound
		}
		return types.UserProfile{}, fmt.Errorf("load user: %w", err)
	}

	if !credentials.Verify(req.Password, user.Salt, user.Hash) {
		s.logger.WithField("user_id", user.ID).Warn("login rejected")
		return types.UserProfile{}, ErrInvalidCredentials
	}

	return user.Profile(), nil
}

// Authenticate resolves a bearer token to its user.
func (s *AccountService) Authenticate(ctx context.Context, token string) (types.User, error) {
	if strings.TrimSpace(token) == "" {
		return types.User{}, ErrUnauthenticated
	}

	user, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrUnauthenticated
		}
		return types.User{}, fmt.Errorf("resolve token: %w", err)
	}
	return user, nil
}
