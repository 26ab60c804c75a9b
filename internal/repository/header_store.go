package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/relay"
)

// gormHeaderStore is the database-backed implementation of
// relay.HeaderStore, so the relay chain survives process restarts. Rows are
// only ever inserted; the relay enforces chain-extension rules above this
// layer.
type gormHeaderStore struct {
	db *gorm.DB
}

// NewHeaderStore creates a relay.HeaderStore backed by the database.
func NewHeaderStore(db *gorm.DB) relay.HeaderStore {
	return &gormHeaderStore{db: db}
}

// Append inserts the header at its height
func (s *gormHeaderStore) Append(h *relay.Header) error {
	return s.db.Create(&models.RelayHeader{
		Height:         h.Height,
		Hash:           h.Hash.Hex(),
		PrevHash:       h.PrevHash.Hex(),
		Timestamp:      h.Timestamp,
		DifficultyBits: h.DifficultyBits,
	}).Error
}

// ByHash looks a header up by block hash
func (s *gormHeaderStore) ByHash(hash merkle.Hash32) (*relay.Header, bool, error) {
	var row models.RelayHeader
	err := s.db.Where("hash = ?", hash.Hex()).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	h, err := fromRow(&row)
	return h, err == nil, err
}

// ByHeight looks a header up by chain height
func (s *gormHeaderStore) ByHeight(height uint64) (*relay.Header, bool, error) {
	var row models.RelayHeader
	err := s.db.Where("height = ?", height).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	h, err := fromRow(&row)
	return h, err == nil, err
}

// Tip returns the highest stored header, or nil for an empty chain
func (s *gormHeaderStore) Tip() (*relay.Header, error) {
	var row models.RelayHeader
	err := s.db.Order("height DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row)
}

func fromRow(row *models.RelayHeader) (*relay.Header, error) {
	hash, err := merkle.ParseHash(row.Hash)
	if err != nil {
		return nil, fmt.Errorf("corrupt header row %d: %w", row.Height, err)
	}
	var prev merkle.Hash32
	if row.Height > 0 {
		prev, err = merkle.ParseHash(row.PrevHash)
		if err != nil {
			return nil, fmt.Errorf("corrupt header row %d: %w", row.Height, err)
		}
	}
	return &relay.Header{
		Hash:           hash,
		PrevHash:       prev,
		Timestamp:      row.Timestamp,
		DifficultyBits: row.DifficultyBits,
		Height:         row.Height,
	}, nil
}
