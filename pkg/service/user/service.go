// Package user handles registration and profile management.
package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/amirasaad/marketplace/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Profile is the user's own account view. The password hash never leaves
// the service layer.
type Profile struct {
	ID               uuid.UUID
	Email            string
	Name             string
	AvatarURL        string
	StripeAccountID  string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// Service implements account management.
type Service struct {
	uow     repository.UnitOfWork
	storage storage.ObjectStorage
	logger  *slog.Logger
}

// New creates a user Service.
func New(uow repository.UnitOfWork, store storage.ObjectStorage, logger *slog.Logger) *Service {
	return &Service{uow: uow, storage: store, logger: logger}
}

// Register creates an account with a bcrypt-hashed password. A duplicate
// email yields domain.ErrConflict.
func (s *Service) Register(
	ctx context.Context,
	email, name, password string,
) (*Profile, error) {
	if len(password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	var profile *Profile
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		create := &dto.UserCreate{
			ID:       uuid.New(),
			Email:    email,
			Name:     name,
			Password: string(hash),
		}
		if err := userRepo.Create(ctx, create); err != nil {
			return err
		}
		user, err := userRepo.Get(ctx, create.ID)
		if err != nil {
			return err
		}
		profile = s.toProfile(ctx, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", profile.ID)
	return profile, nil
}

// GetProfile returns the user's own account view.
func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	var profile *Profile
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		user, err := userRepo.Get(ctx, userID)
		if err != nil {
			return err
		}
		profile = s.toProfile(ctx, user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile changes the display name and/or password.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID uuid.UUID,
	name, password *string,
) error {
	update := &dto.UserUpdate{Name: name}
	if password != nil {
		if len(*password) < 8 {
			return fmt.Errorf("%w: password must be at least 8 characters", domain.ErrValidation)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}
		hashed := string(hash)
		update.Password = &hashed
	}

	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return userRepo.Update(ctx, userID, update)
	})
}

// UploadAvatar stores the avatar image and records its key.
func (s *Service) UploadAvatar(
	ctx context.Context,
	userID uuid.UUID,
	body io.Reader,
	contentType string,
) error {
	key := fmt.Sprintf("avatars/%s/%s", userID, uuid.New())
	if err := s.storage.Upload(ctx, key, body, contentType); err != nil {
		return fmt.Errorf("%w: storing avatar: %v", domain.ErrUpstream, err)
	}
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		userRepo, err := uow.UserRepository()
		if err != nil {
			return err
		}
		return userRepo.Update(ctx, userID, &dto.UserUpdate{AvatarFileKey: &key})
	})
}

func (s *Service) toProfile(ctx context.Context, user *dto.UserRead) *Profile {
	profile := &Profile{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		StripeAccountID:  user.StripeAccountID,
		ChargesEnabled:   user.ChargesEnabled,
		PayoutsEnabled:   user.PayoutsEnabled,
		DetailsSubmitted: user.DetailsSubmitted,
	}
	if user.AvatarFileKey != "" && s.storage != nil {
		url, err := s.storage.ResolveURL(ctx, user.AvatarFileKey)
		if err != nil {
			s.logger.Warn("failed to resolve avatar url", "user_id", user.ID, "error", err)
		} else {
			profile.AvatarURL = url
		}
	}
	return profile
}
