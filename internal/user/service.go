package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/snapfeed/service/internal/logger"
	"github.com/snapfeed/service/internal/middleware"
)

// MediaRemover deletes stored media objects. storage.Storage implements it.
type MediaRemover interface {
	Delete(ctx context.Context, fileName string) error
}

// Service contains business logic for user management.
type Service struct {
	repo  Store
	media MediaRemover
	log   *logger.Logger
}

// NewService creates a new user Service.
func NewService(repo Store, media MediaRemover, log *logger.Logger) *Service {
	return &Service{repo: repo, media: media, log: log}
}

// Create registers a new user account. The email is normalized to lower case.
func (s *Service) Create(ctx context.Context, email, hashedPassword string) (*User, error) {
	u, err := s.repo.Create(ctx, NormalizeEmail(email), hashedPassword)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// GetByID returns a user by their UUID. Malformed IDs are reported as not found.
func (s *Service) GetByID(ctx context.Context, id string) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// GetByEmail returns a user by their email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// Update applies already validated changes to a user.
func (s *Service) Update(ctx context.Context, id string, ch Changes) (*User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	if ch.Email != nil {
		email := NormalizeEmail(*ch.Email)
		ch.Email = &email
	}
	return s.repo.Update(ctx, id, ch)
}

// Delete removes a user and, by cascade, all of their posts. The posts' media
// objects are then removed on a best-effort basis.
func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}

	fileNames, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}

	for _, name := range fileNames {
		if err := s.media.Delete(ctx, name); err != nil {
			s.log.Warn("remove media object of deleted user", "user_id", id, "file_name", name, "err", err)
		}
	}
	s.log.Info("user deleted", "user_id", id, "media_objects", len(fileNames))
	return nil
}

// Account implements middleware.AccountLookup.
func (s *Service) Account(ctx context.Context, id string) (middleware.Account, error) {
	u, err := s.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return middleware.Account{}, middleware.ErrUnknownAccount
	}
	if err != nil {
		return middleware.Account{}, err
	}
	return middleware.Account{ID: u.ID, IsActive: u.IsActive, IsSuperuser: u.IsSuperuser}, nil
}

// IsNotFound returns true when the error indicates a user was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
