package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/registry"
)

// ProofRecordRepository mirrors registry proof records into the database.
// It implements registry.RecordSink; the in-memory registry stays the
// source of truth for the proof lifecycle, the rows exist for audit and
// restart review.
type ProofRecordRepository interface {
	registry.RecordSink
	FindBySubject(ctx context.Context, subjectTxHash string) ([]*models.ProofRecordRow, error)
}

// proofRecordRepository implements ProofRecordRepository
type proofRecordRepository struct {
	db *gorm.DB
}

// NewProofRecordRepository creates a new ProofRecordRepository instance
func NewProofRecordRepository(db *gorm.DB) ProofRecordRepository {
	return &proofRecordRepository{db: db}
}

// ProofSubmitted inserts the row for a freshly accepted proof
func (r *proofRecordRepository) ProofSubmitted(ctx context.Context, record *registry.ProofRecord) error {
	return r.db.WithContext(ctx).Create(toRow(record)).Error
}

// ProofVerified records the once-only verification result
func (r *proofRecordRepository) ProofVerified(ctx context.Context, record *registry.ProofRecord) error {
	return r.db.WithContext(ctx).
		Model(&models.ProofRecordRow{}).
		Where("proof_hash = ?", record.ProofHash.Hex()).
		Updates(map[string]interface{}{
			"verified":    record.Verified,
			"valid":       record.Valid,
			"verified_by": record.VerifiedBy,
		}).Error
}

// FindBySubject returns all mirrored records for a subject transaction
func (r *proofRecordRepository) FindBySubject(ctx context.Context, subjectTxHash string) ([]*models.ProofRecordRow, error) {
	var rows []*models.ProofRecordRow
	err := r.db.WithContext(ctx).
		Where("subject_tx_hash = ?", subjectTxHash).
		Order("submitted_at DESC").
		Find(&rows).Error
	return rows, err
}

func toRow(record *registry.ProofRecord) *models.ProofRecordRow {
	return &models.ProofRecordRow{
		ProofHash:     record.ProofHash.Hex(),
		CircuitID:     record.CircuitID,
		ProofBytes:    record.ProofBytes,
		PublicInputs:  strings.Join(record.PublicInputs, ","),
		SubjectTxHash: record.SubjectTxHash,
		SubmittedAt:   record.SubmittedAt,
		Verified:      record.Verified,
		Valid:         record.Valid,
		VerifiedBy:    record.VerifiedBy,
	}
}
