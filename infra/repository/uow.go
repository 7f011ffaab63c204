package repository

import (
	"context"

	pkgrepo "github.com/amirasaad/marketplace/pkg/repository"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one
// abstraction. All repositories obtained from a UoW inside Do share the same
// DB session, so read-modify-write sequences stay atomic.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db, tx: db}
}

// Do runs fn in a transaction boundary, providing a UoW bound to that
// transaction. fn returning an error rolls the transaction back.
func (u *UoW) Do(ctx context.Context, fn func(uow pkgrepo.UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
}

// UserRepository returns a UserRepository bound to the current session.
func (u *UoW) UserRepository() (pkgrepo.UserRepository, error) {
	return NewUserRepository(u.tx), nil
}

// OfferRepository returns an OfferRepository bound to the current session.
func (u *UoW) OfferRepository() (pkgrepo.OfferRepository, error) {
	return NewOfferRepository(u.tx), nil
}

// TransactionRepository returns a TransactionRepository bound to the current
// session.
func (u *UoW) TransactionRepository() (pkgrepo.TransactionRepository, error) {
	return NewTransactionRepository(u.tx), nil
}

// MessageRepository returns a MessageRepository bound to the current session.
func (u *UoW) MessageRepository() (pkgrepo.MessageRepository, error) {
	return NewMessageRepository(u.tx), nil
}
