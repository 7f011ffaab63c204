// Package fakes provides in-memory implementations of the persistence and
// gateway contracts for service-level tests. The fakes honor the same
// invariants as the real implementations (uniqueness, conditional updates)
// so concurrency-sensitive paths can be tested deterministically.
package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/amirasaad/marketplace/pkg/domain"
	"github.com/amirasaad/marketplace/pkg/dto"
	"github.com/amirasaad/marketplace/pkg/repository"
	"github.com/google/uuid"
)

// Store is the shared in-memory state behind the fake repositories.
type Store struct {
	mu           sync.Mutex
	Users        map[uuid.UUID]*dto.UserRead
	Offers       map[uuid.UUID]*dto.OfferRead
	Transactions map[uuid.UUID]*dto.TransactionRead
	Messages     []*dto.MessageRead
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		Users:        make(map[uuid.UUID]*dto.UserRead),
		Offers:       make(map[uuid.UUID]*dto.OfferRead),
		Transactions: make(map[uuid.UUID]*dto.TransactionRead),
	}
}

// UoW returns a repository.UnitOfWork view of the store. Do simply runs the
// function against the same store; there is no real transactionality.
func (s *Store) UoW() repository.UnitOfWork {
	return &uow{store: s}
}

// AddUser seeds a user and returns it.
func (s *Store) AddUser(name, email string) *dto.UserRead {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &dto.UserRead{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Users[user.ID] = user
	return user
}

// AddOffer seeds an active offer and returns it.
func (s *Store) AddOffer(ownerID uuid.UUID, title string, price float64) *dto.OfferRead {
	s.mu.Lock()
	defer s.mu.Unlock()
	offer := &dto.OfferRead{
		ID:        uuid.New(),
		UserID:    ownerID,
		Title:     title,
		Price:     price,
		Active:    true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Offers[offer.ID] = offer
	return offer
}

// AddTransaction seeds a negotiation thread and returns it.
func (s *Store) AddTransaction(offerID, buyerID uuid.UUID) *dto.TransactionRead {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx := &dto.TransactionRead{
		ID:        uuid.New(),
		OfferID:   offerID,
		UserID:    buyerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.Transactions[tx.ID] = tx
	return tx
}

// AddMessage seeds a message and returns it.
func (s *Store) AddMessage(
	transactionID, authorID uuid.UUID,
	content string,
	price *float64,
	status domain.MessageStatus,
) *dto.MessageRead {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := &dto.MessageRead{
		ID:            uuid.New(),
		TransactionID: transactionID,
		UserID:        authorID,
		Content:       content,
		Price:         price,
		Status:        status,
		CreatedAt:     time.Now(),
	}
	if author, ok := s.Users[authorID]; ok {
		msg.AuthorName = author.Name
	}
	s.Messages = append(s.Messages, msg)
	return msg
}

type uow struct {
	store *Store
}

func (u *uow) Do(ctx context.Context, fn func(repository.UnitOfWork) error) error {
	return fn(u)
}

func (u *uow) UserRepository() (repository.UserRepository, error) {
	return &userRepo{store: u.store}, nil
}

func (u *uow) OfferRepository() (repository.OfferRepository, error) {
	return &offerRepo{store: u.store}, nil
}

func (u *uow) TransactionRepository() (repository.TransactionRepository, error) {
	return &transactionRepo{store: u.store}, nil
}

func (u *uow) MessageRepository() (repository.MessageRepository, error) {
	return &messageRepo{store: u.store}, nil
}

type userRepo struct {
	store *Store
}

func (r *userRepo) Create(_ context.Context, create *dto.UserCreate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, u := range r.store.Users {
		if strings.EqualFold(u.Email, create.Email) {
			return fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
	}
	r.store.Users[create.ID] = &dto.UserRead{
		ID:        create.ID,
		Email:     create.Email,
		Name:      create.Name,
		Password:  create.Password,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (r *userRepo) Get(_ context.Context, id uuid.UUID) (*dto.UserRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.Users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	copied := *user
	return &copied, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*dto.UserRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.Users {
		if strings.EqualFold(user.Email, email) {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
}

func (r *userRepo) GetByStripeAccountID(
	_ context.Context,
	accountID string,
) (*dto.UserRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, user := range r.store.Users {
		if user.StripeAccountID == accountID {
			copied := *user
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
}

func (r *userRepo) Update(_ context.Context, id uuid.UUID, update *dto.UserUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.Users[id]
	if !ok {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	if update.Name != nil {
		user.Name = *update.Name
	}
	if update.Password != nil {
		user.Password = *update.Password
	}
	if update.AvatarFileKey != nil {
		user.AvatarFileKey = *update.AvatarFileKey
	}
	if update.StripeAccountID != nil {
		user.StripeAccountID = *update.StripeAccountID
	}
	if update.StripeCustomerID != nil {
		user.StripeCustomerID = *update.StripeCustomerID
	}
	user.UpdatedAt = time.Now()
	return nil
}

func (r *userRepo) UpdateAccountStatus(
	_ context.Context,
	id uuid.UUID,
	status dto.AccountStatusUpdate,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	user, ok := r.store.Users[id]
	if !ok {
		return fmt.Errorf("%w: user", domain.ErrNotFound)
	}
	user.ChargesEnabled = status.ChargesEnabled
	user.PayoutsEnabled = status.PayoutsEnabled
	user.DetailsSubmitted = status.DetailsSubmitted
	user.UpdatedAt = time.Now()
	return nil
}

type offerRepo struct {
	store *Store
}

func (r *offerRepo) Create(_ context.Context, create *dto.OfferCreate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.Offers[create.ID] = &dto.OfferRead{
		ID:           create.ID,
		UserID:       create.UserID,
		Title:        create.Title,
		Description:  create.Description,
		Price:        create.Price,
		Active:       true,
		ImageFileKey: create.ImageFileKey,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	return nil
}

func (r *offerRepo) Get(_ context.Context, id uuid.UUID) (*dto.OfferRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.Offers[id]
	if !ok {
		return nil, fmt.Errorf("%w: offer", domain.ErrNotFound)
	}
	copied := *offer
	return &copied, nil
}

func (r *offerRepo) GetActive(ctx context.Context, id uuid.UUID) (*dto.OfferRead, error) {
	offer, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !offer.Active {
		return nil, fmt.Errorf("%w: offer", domain.ErrNotFound)
	}
	return offer, nil
}

func (r *offerRepo) ListActive(_ context.Context) ([]*dto.OfferRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*dto.OfferRead
	for _, offer := range r.store.Offers {
		if offer.Active {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	return offers, nil
}

func (r *offerRepo) ListByOwner(_ context.Context, userID uuid.UUID) ([]*dto.OfferRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var offers []*dto.OfferRead
	for _, offer := range r.store.Offers {
		if offer.UserID == userID {
			copied := *offer
			offers = append(offers, &copied)
		}
	}
	return offers, nil
}

func (r *offerRepo) Update(_ context.Context, id uuid.UUID, update *dto.OfferUpdate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.Offers[id]
	if !ok {
		return fmt.Errorf("%w: offer", domain.ErrNotFound)
	}
	if update.Title != nil {
		offer.Title = *update.Title
	}
	if update.Description != nil {
		offer.Description = *update.Description
	}
	if update.Price != nil {
		offer.Price = *update.Price
		// Mirrors the real repository: a price edit invalidates the synced
		// remote price.
		offer.StripePriceID = ""
	}
	if update.Active != nil {
		offer.Active = *update.Active
	}
	if update.ImageFileKey != nil {
		offer.ImageFileKey = *update.ImageFileKey
	}
	offer.UpdatedAt = time.Now()
	return nil
}

func (r *offerRepo) SaveProductSync(
	_ context.Context,
	id uuid.UUID,
	sync dto.OfferProductSync,
) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	offer, ok := r.store.Offers[id]
	if !ok {
		return fmt.Errorf("%w: offer", domain.ErrNotFound)
	}
	offer.StripeProductID = sync.StripeProductID
	offer.StripePriceID = sync.StripePriceID
	offer.UpdatedAt = time.Now()
	return nil
}

type transactionRepo struct {
	store *Store
}

func (r *transactionRepo) Create(_ context.Context, create *dto.TransactionCreate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.Transactions {
		if tx.OfferID == create.OfferID && tx.UserID == create.UserID {
			return fmt.Errorf("%w: transaction already exists", domain.ErrConflict)
		}
	}
	r.store.Transactions[create.ID] = &dto.TransactionRead{
		ID:        create.ID,
		OfferID:   create.OfferID,
		UserID:    create.UserID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	return nil
}

func (r *transactionRepo) Get(_ context.Context, id uuid.UUID) (*dto.TransactionRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.Transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction", domain.ErrNotFound)
	}
	copied := *tx
	return &copied, nil
}

func (r *transactionRepo) GetByOfferAndBuyer(
	_ context.Context,
	offerID, buyerID uuid.UUID,
) (*dto.TransactionRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.Transactions {
		if tx.OfferID == offerID && tx.UserID == buyerID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: transaction", domain.ErrNotFound)
}

func (r *transactionRepo) GetByCheckoutSessionID(
	_ context.Context,
	sessionID string,
) (*dto.TransactionRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.Transactions {
		if tx.StripeCheckoutSessionID == sessionID {
			copied := *tx
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: transaction", domain.ErrNotFound)
}

func (r *transactionRepo) ListForUser(
	_ context.Context,
	userID uuid.UUID,
) ([]dto.TransactionListItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var items []dto.TransactionListItem
	for _, tx := range r.store.Transactions {
		offer, ok := r.store.Offers[tx.OfferID]
		if !ok {
			continue
		}
		if tx.UserID != userID && offer.UserID != userID {
			continue
		}
		item := dto.TransactionListItem{
			ID:         tx.ID,
			OfferID:    tx.OfferID,
			BuyerID:    tx.UserID,
			SellerID:   offer.UserID,
			OfferTitle: offer.Title,
			OfferPrice: offer.Price,
			CreatedAt:  tx.CreatedAt,
			UpdatedAt:  tx.UpdatedAt,
		}
		if buyer, ok := r.store.Users[tx.UserID]; ok {
			item.BuyerName = buyer.Name
		}
		if seller, ok := r.store.Users[offer.UserID]; ok {
			item.SellerName = seller.Name
		}
		for _, msg := range r.store.Messages {
			if msg.TransactionID != tx.ID {
				continue
			}
			if msg.CreatedAt.After(item.LastMessageAt) {
				item.LastMessageAt = msg.CreatedAt
			}
			if msg.Status == domain.StatusPendingOffer {
				item.HasPendingOffers = true
			}
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *transactionRepo) CountOpenForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, tx := range r.store.Transactions {
		offer, ok := r.store.Offers[tx.OfferID]
		if !ok {
			continue
		}
		if tx.UserID == userID || offer.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *transactionRepo) UpsertCheckoutSession(
	_ context.Context,
	offerID, buyerID uuid.UUID,
	sessionID string,
) (*dto.TransactionRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.Transactions {
		if tx.OfferID == offerID && tx.UserID == buyerID {
			tx.StripeCheckoutSessionID = sessionID
			tx.UpdatedAt = time.Now()
			copied := *tx
			return &copied, nil
		}
	}
	tx := &dto.TransactionRead{
		ID:                      uuid.New(),
		OfferID:                 offerID,
		UserID:                  buyerID,
		StripeCheckoutSessionID: sessionID,
		CreatedAt:               time.Now(),
		UpdatedAt:               time.Now(),
	}
	r.store.Transactions[tx.ID] = tx
	copied := *tx
	return &copied, nil
}

func (r *transactionRepo) SetPaymentIntentIfEmpty(
	_ context.Context,
	id uuid.UUID,
	paymentIntentID string,
) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.Transactions[id]
	if !ok {
		return false, nil
	}
	if tx.StripePaymentIntentID != "" {
		return false, nil
	}
	tx.StripePaymentIntentID = paymentIntentID
	tx.UpdatedAt = time.Now()
	return true, nil
}

type messageRepo struct {
	store *Store
}

func (r *messageRepo) Create(_ context.Context, create *dto.MessageCreate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	msg := &dto.MessageRead{
		ID:            create.ID,
		TransactionID: create.TransactionID,
		UserID:        create.UserID,
		Content:       create.Content,
		Price:         create.Price,
		Status:        create.Status,
		CreatedAt:     time.Now(),
	}
	if author, ok := r.store.Users[create.UserID]; ok {
		msg.AuthorName = author.Name
	}
	r.store.Messages = append(r.store.Messages, msg)
	return nil
}

func (r *messageRepo) Get(_ context.Context, id uuid.UUID) (*dto.MessageRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, msg := range r.store.Messages {
		if msg.ID == id {
			copied := *msg
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("%w: message", domain.ErrNotFound)
}

func (r *messageRepo) ListByTransaction(
	_ context.Context,
	transactionID uuid.UUID,
) ([]dto.MessageRead, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var messages []dto.MessageRead
	for _, msg := range r.store.Messages {
		if msg.TransactionID == transactionID {
			messages = append(messages, *msg)
		}
	}
	return messages, nil
}

func (r *messageRepo) UpdateStatusIfPending(
	_ context.Context,
	id, transactionID uuid.UUID,
	status domain.MessageStatus,
) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, msg := range r.store.Messages {
		if msg.ID != id || msg.TransactionID != transactionID {
			continue
		}
		if msg.Status != domain.StatusPendingOffer {
			return false, nil
		}
		msg.Status = status
		return true, nil
	}
	return false, nil
}

func (r *messageRepo) CountPendingForSeller(
	_ context.Context,
	sellerID uuid.UUID,
) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, msg := range r.store.Messages {
		if msg.Status != domain.StatusPendingOffer || msg.UserID == sellerID {
			continue
		}
		tx, ok := r.store.Transactions[msg.TransactionID]
		if !ok {
			continue
		}
		offer, ok := r.store.Offers[tx.OfferID]
		if ok && offer.UserID == sellerID {
			count++
		}
	}
	return count, nil
}

func (r *messageRepo) CountPendingByAuthor(
	_ context.Context,
	authorID uuid.UUID,
) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var count int64
	for _, msg := range r.store.Messages {
		if msg.Status == domain.StatusPendingOffer && msg.UserID == authorID {
			count++
		}
	}
	return count, nil
}
