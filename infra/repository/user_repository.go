package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	pkgrepo "github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) pkgrepo.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, create *dto.UserCreate) error {
	user := &User{
		ID:       create.ID,
		Email:    create.Email,
		Name:     create.Name,
		Password: create.Password,
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*dto.UserRead, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapUserToDTO(&user), nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*dto.UserRead, error) {
	var user User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapUserToDTO(&user), nil
}

func (r *userRepository) GetByStripeAccountID(
	ctx context.Context,
	accountID string,
) (*dto.UserRead, error) {
	var user User
	if err := r.db.WithContext(
		ctx,
	).Where("stripe_account_id = ?", accountID).First(&user).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return mapUserToDTO(&user), nil
}

func (r *userRepository) Update(
	ctx context.Context,
	id uuid.UUID,
	update *dto.UserUpdate,
) error {
	updates := make(map[string]interface{})
	if update.Name != nil {
		updates["name"] = *update.Name
	}
	if update.Password != nil {
		updates["password"] = *update.Password
	}
	if update.AvatarFileKey != nil {
		updates["avatar_file_key"] = *update.AvatarFileKey
	}
	if update.StripeAccountID != nil {
		updates["stripe_account_id"] = *update.StripeAccountID
	}
	if update.StripeCustomerID != nil {
		updates["stripe_customer_id"] = *update.StripeCustomerID
	}
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepository) UpdateAccountStatus(
	ctx context.Context,
	id uuid.UUID,
	status dto.AccountStatusUpdate,
) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"charges_enabled":   status.ChargesEnabled,
		"payouts_enabled":   status.PayoutsEnabled,
		"details_submitted": status.DetailsSubmitted,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapUserToDTO(user *User) *dto.UserRead {
	return &dto.UserRead{
		ID:               user.ID,
		Email:            user.Email,
		Name:             user.Name,
		Password:         user.Password,
		AvatarFileKey:    user.AvatarFileKey,
		StripeAccountID:  user.StripeAccountID,
		ChargesEnabled:   user.ChargesEnabled,
		PayoutsEnabled:   user.PayoutsEnabled,
		DetailsSubmitted: user.DetailsSubmitted,
		StripeCustomerID: user.StripeCustomerID,
		CreatedAt:        user.CreatedAt,
		UpdatedAt:        user.UpdatedAt,
	}
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
