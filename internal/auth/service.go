// Package auth handles registration, password login and bearer token issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/user"
)

const minPasswordLength = 8

// ErrInvalidCredentials is returned when login fails for any reason.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ValidationError reports a rejected registration field.
type ValidationError struct {
	Code   string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Code + ": " + e.Reason
}

// ErrorCode returns the client-facing code.
func (e *ValidationError) ErrorCode() string {
	return e.Code
}

// Users is the account store the auth flow depends on. *user.Service implements it.
type Users interface {
	Create(ctx context.Context, email, hashedPassword string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	Update(ctx context.Context, id string, ch user.Changes) (*user.User, error)
}

const (
	registerCodes = "REGISTER"
	updateCodes   = "UPDATE_USER"
)

// Service contains the business logic for password authentication.
type Service struct {
	users     Users
	tokens    *TokenManager
	cost      int
	dummyHash []byte
	log       *logger.Logger
}

// NewService creates a new auth Service hashing passwords with the given bcrypt cost.
func NewService(users Users, tokens *TokenManager, cost int, log *logger.Logger) (*Service, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("timing-equalizer"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &Service{users: users, tokens: tokens, cost: cost, dummyHash: dummy, log: log}, nil
}

// Register validates the credentials and creates an active, unverified user.
func (s *Service) Register(ctx context.Context, email, password string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	if err := validateEmail(registerCodes, email); err != nil {
		return nil, err
	}
	if err := validatePassword(registerCodes, email, password); err != nil {
		return nil, err
	}

	hash, err := s.hash(password)
	if err != nil {
		return nil, err
	}

	u, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the password and returns a signed access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		// unknown emails still pay for one bcrypt compare
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	if !u.IsActive {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}

// UpdateUser validates a profile change, re-hashes a new password and applies
// it. Changing the email clears the verified flag unless the update sets it.
func (s *Service) UpdateUser(ctx context.Context, id string, upd user.Update) (*user.User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	ch := user.Changes{IsActive: upd.IsActive, IsSuperuser: upd.IsSuperuser, IsVerified: upd.IsVerified}
	email := current.Email

	if upd.Email != nil {
		newEmail := user.NormalizeEmail(*upd.Email)
		if err := validateEmail(updateCodes, newEmail); err != nil {
			return nil, err
		}
		if newEmail != current.Email {
			email = newEmail
			ch.Email = &newEmail
			if ch.IsVerified == nil {
				unverified := false
				ch.IsVerified = &unverified
			}
		}
	}

	if upd.Password != nil {
		if err := validatePassword(updateCodes, email, *upd.Password); err != nil {
			return nil, err
		}
		hash, err := s.hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		ch.HashedPassword = &hash
	}

	u, err := s.users.Update(ctx, id, ch)
	if err != nil {
		return nil, err
	}

	s.log.Info("user updated", "user_id", u.ID, "email_changed", ch.Email != nil, "password_changed", ch.HashedPassword != nil)
	return u, nil
}

func (s *Service) hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func validateEmail(codes, email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return &ValidationError{Code: codes + "_INVALID_EMAIL", Reason: "email address is not valid"}
	}
	return nil
}

func validatePassword(codes, email, password string) error {
	code := codes + "_INVALID_PASSWORD"
	switch {
	case len(password) < minPasswordLength:
		return &ValidationError{Code: code, Reason: fmt.Sprintf("password should be at least %d characters", minPasswordLength)}
	case len(password) > 72:
		return &ValidationError{Code: code, Reason: "password should be at most 72 bytes"}
	case strings.Contains(strings.ToLower(password), email):
		return &ValidationError{Code: code, Reason: "password should not contain e-mail"}
	}
	return nil
}
