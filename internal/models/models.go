package models

import (
	"time"
)

// BridgeStatus is the bridge-transaction state machine. Status only moves
// forward through the transition graph; COMPLETED and FAILED are terminal.
type BridgeStatus string

const (
	StatusPending        BridgeStatus = "pending"         // transaction record created, waiting for the worker
	StatusVerifying      BridgeStatus = "verifying"       // fetching source tx and waiting for confirmations
	StatusProofGenerated BridgeStatus = "proof_generated" // proof backend returned a proof blob
	StatusSubmitting     BridgeStatus = "submitting"      // proof submitted to the registry
	StatusCompleted      BridgeStatus = "completed"       // registry verified the proof as valid
	StatusFailed         BridgeStatus = "failed"          // terminal failure, see ErrorMessage
)

// statusRank orders the forward-only transition graph.
var statusRank = map[BridgeStatus]int{
	StatusPending:        0,
	StatusVerifying:      1,
	StatusProofGenerated: 2,
	StatusSubmitting:     3,
	StatusCompleted:      4,
	StatusFailed:         4,
}

// IsTerminal reports whether the status admits no further transitions.
func (s BridgeStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether moving from s to next respects the
// forward-only transition graph. FAILED is reachable from any non-terminal
// state; no stage may be skipped backwards or revisited.
func (s BridgeStatus) CanTransitionTo(next BridgeStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusFailed {
		return true
	}
	curRank, ok := statusRank[s]
	if !ok {
		return false
	}
	nextRank, ok := statusRank[next]
	if !ok {
		return false
	}
	// Stages advance one at a time; skipping ahead is not a transition.
	return nextRank == curRank+1
}

// Direction of a cross-chain transfer.
type Direction string

const (
	DirectionBTCToEVM Direction = "btc_to_evm"
	DirectionEVMToBTC Direction = "evm_to_btc"
)

// BridgeTransaction is one cross-chain transfer driven through the proof
// pipeline. Terminal records are immutable except for event appends.
type BridgeTransaction struct {
	ID            string       `json:"id" gorm:"primaryKey"`
	Direction     Direction    `json:"direction" gorm:"not null"`
	Status        BridgeStatus `json:"status" gorm:"not null;index"`
	SourceTxHash  string       `json:"source_tx_hash" gorm:"not null;index"`
	SourceAmount  int64        `json:"source_amount" gorm:"not null"`
	SourceAddress string       `json:"source_address" gorm:"not null"`
	TargetAddress string       `json:"target_address" gorm:"not null"`
	Confirmations int64        `json:"confirmations"`

	// Inclusion evidence, set once the source block is proven.
	MerkleRoot  string `json:"merkle_root"`
	BlockHeight uint64 `json:"block_height"`
	BlockHash   string `json:"block_hash"`
	LeafIndex   uint32 `json:"leaf_index"`
	SiblingPath string `json:"sibling_path" gorm:"type:text"`

	// ProofRef is the opaque proof blob returned by the generation backend;
	// PublicSignals carries its public inputs for registry submission.
	ProofRef      string `json:"proof_ref" gorm:"type:text"`
	PublicSignals string `json:"public_signals" gorm:"type:text"`
	ProofHash     string `json:"proof_hash" gorm:"index"`

	ErrorMessage string    `json:"error_message" gorm:"type:text"`
	ErrorCount   int       `json:"error_count" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TransactionEvent is one entry of the append-only audit log owned by a
// single bridge transaction. Every state change writes one event; events
// are never updated or deleted.
type TransactionEvent struct {
	ID            uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	TransactionID string    `json:"transaction_id" gorm:"not null;index"`
	Stage         string    `json:"stage" gorm:"not null"`
	Status        string    `json:"status" gorm:"not null"`
	Message       string    `json:"message" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at"`
}

// ProofRecordRow is the persistence mirror of a registry proof record,
// written through the registry's record sink for audit and restart review.
type ProofRecordRow struct {
	ProofHash     string    `json:"proof_hash" gorm:"primaryKey"`
	CircuitID     string    `json:"circuit_id" gorm:"not null;index"`
	ProofBytes    []byte    `json:"proof_bytes" gorm:"type:bytea"`
	PublicInputs  string    `json:"public_inputs" gorm:"type:text"`
	SubjectTxHash string    `json:"subject_tx_hash" gorm:"not null;index"`
	SubmittedAt   time.Time `json:"submitted_at"`
	Verified      bool      `json:"verified"`
	Valid         bool      `json:"valid"`
	VerifiedBy    string    `json:"verified_by"`
}

// RelayHeader is the persistence mirror of the header relay chain so the
// chain survives restarts. Rows are append-only.
type RelayHeader struct {
	Height         uint64    `json:"height" gorm:"primaryKey;autoIncrement:false"`
	Hash           string    `json:"hash" gorm:"not null;uniqueIndex"`
	PrevHash       string    `json:"prev_hash"`
	Timestamp      int64     `json:"timestamp" gorm:"not null"`
	DifficultyBits uint32    `json:"difficulty_bits"`
	CreatedAt      time.Time `json:"created_at"`
}

// Database indexes are created by GORM AutoMigrate from the struct tags:
// - bridge_transactions: idx status, idx source_tx_hash, idx proof_hash
// - transaction_events: idx transaction_id
// - proof_record_rows: idx circuit_id, idx subject_tx_hash
// - relay_headers: unique idx hash
