package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
)

// TransactionEventRepository defines the interface for the append-only
// TransactionEvent audit log. Events are created and read, never updated.
type TransactionEventRepository interface {
	Append(ctx context.Context, event *models.TransactionEvent) error
	FindByTransaction(ctx context.Context, transactionID string) ([]*models.TransactionEvent, error)
}

// transactionEventRepository implements TransactionEventRepository
type transactionEventRepository struct {
	db *gorm.DB
}

// NewTransactionEventRepository creates a new TransactionEventRepository instance
func NewTransactionEventRepository(db *gorm.DB) TransactionEventRepository {
	return &transactionEventRepository{db: db}
}

// Append persists a new event
func (r *transactionEventRepository) Append(ctx context.Context, event *models.TransactionEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// FindByTransaction returns the event log of one transaction in append order
func (r *transactionEventRepository) FindByTransaction(ctx context.Context, transactionID string) ([]*models.TransactionEvent, error) {
	var events []*models.TransactionEvent
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Order("id ASC").
		Find(&events).Error
	return events, err
}
