package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
)

// BridgeTransactionRepository defines the interface for BridgeTransaction
// data access. The orchestrator depends on this contract only, never on the
// storage technology behind it.
type BridgeTransactionRepository interface {
	Create(ctx context.Context, tx *models.BridgeTransaction) error
	GetByID(ctx context.Context, id string) (*models.BridgeTransaction, error)
	Update(ctx context.Context, tx *models.BridgeTransaction) error

	FindByStatus(ctx context.Context, statuses ...models.BridgeStatus) ([]*models.BridgeTransaction, error)
	FindBySourceTxHash(ctx context.Context, sourceTxHash string) ([]*models.BridgeTransaction, error)
	List(ctx context.Context, page, pageSize int) ([]*models.BridgeTransaction, int64, error)
}

// bridgeTransactionRepository implements BridgeTransactionRepository
type bridgeTransactionRepository struct {
	db *gorm.DB
}

// NewBridgeTransactionRepository creates a new BridgeTransactionRepository instance
func NewBridgeTransactionRepository(db *gorm.DB) BridgeTransactionRepository {
	return &bridgeTransactionRepository{db: db}
}

// Create creates a new bridge transaction
func (r *bridgeTransactionRepository) Create(ctx context.Context, tx *models.BridgeTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// GetByID retrieves a bridge transaction by ID
func (r *bridgeTransactionRepository) GetByID(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	var tx models.BridgeTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// Update persists all fields of a bridge transaction
func (r *bridgeTransactionRepository) Update(ctx context.Context, tx *models.BridgeTransaction) error {
	return r.db.WithContext(ctx).Save(tx).Error
}

// FindByStatus finds bridge transactions in any of the given states
func (r *bridgeTransactionRepository) FindByStatus(ctx context.Context, statuses ...models.BridgeStatus) ([]*models.BridgeTransaction, error) {
	var txs []*models.BridgeTransaction
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

// FindBySourceTxHash finds bridge transactions by source chain tx hash
func (r *bridgeTransactionRepository) FindBySourceTxHash(ctx context.Context, sourceTxHash string) ([]*models.BridgeTransaction, error) {
	var txs []*models.BridgeTransaction
	err := r.db.WithContext(ctx).
		Where("source_tx_hash = ?", sourceTxHash).
		Order("created_at DESC").
		Find(&txs).Error
	return txs, err
}

// List retrieves paginated bridge transactions
func (r *bridgeTransactionRepository) List(ctx context.Context, page, pageSize int) ([]*models.BridgeTransaction, int64, error) {
	var txs []*models.BridgeTransaction
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.BridgeTransaction{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&txs).Error

	return txs, total, err
}
