package registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/metrics"
)

// Rejection reasons surfaced synchronously by the registry.
var (
	ErrCircuitNotFound     = errors.New("registry: circuit is not registered")
	ErrCircuitInactive     = errors.New("registry: circuit is not active")
	ErrProofSizeMismatch   = errors.New("registry: proof size does not match circuit config")
	ErrTooManyInputs       = errors.New("registry: public input count exceeds circuit limit")
	ErrCooldownActive      = errors.New("registry: submission cooldown active for subject transaction")
	ErrDuplicateProof      = errors.New("registry: proof hash already recorded")
	ErrProofNotFound       = errors.New("registry: proof hash is not recorded")
	ErrAlreadyVerified     = errors.New("registry: proof record already verified")
	ErrVerificationExpired = errors.New("registry: verification window has expired")
	ErrBatchTooLarge       = errors.New("registry: batch exceeds maximum size")
	ErrEmptyBatch          = errors.New("registry: batch is empty")
	ErrDuplicateCircuit    = errors.New("registry: circuit id already registered")
)

const (
	// DefaultProofCooldown is the minimum interval between submissions for
	// the same subject transaction.
	DefaultProofCooldown = 60 * time.Second

	// DefaultVerificationTimeout bounds the submission-to-verification
	// window of a proof record.
	DefaultVerificationTimeout = 300 * time.Second

	// DefaultMaxBatchSize bounds BatchVerifyProofs.
	DefaultMaxBatchSize = 10
)

// CircuitConfig describes one proof scheme accepted by the registry.
// Administratively created; submissions are matched against it exactly.
type CircuitConfig struct {
	CircuitID          string `json:"circuit_id"`
	VerificationKeyRef string `json:"verification_key_ref"`
	MaxPublicInputs    int    `json:"max_public_inputs"`
	ExpectedProofSize  int    `json:"expected_proof_size"`
	Active             bool   `json:"active"`
}

// ProofRecord is the lifecycle state of one submitted proof. A record is
// created on submission, mutated exactly once by verification, and never
// deleted. Valid is meaningless until Verified is true.
type ProofRecord struct {
	ProofHash     merkle.Hash32 `json:"proof_hash"`
	CircuitID     string        `json:"circuit_id"`
	ProofBytes    []byte        `json:"proof_bytes"`
	PublicInputs  []string      `json:"public_inputs"`
	SubjectTxHash string        `json:"subject_tx_hash"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	Verified      bool          `json:"verified"`
	Valid         bool          `json:"valid"`
	VerifiedBy    string        `json:"verified_by"`
}

// Verifier is the external cryptographic verification predicate. The
// registry never bakes in an always-valid stand-in; the real check is
// delegated here.
type Verifier interface {
	Verify(ctx context.Context, circuitID string, proofBytes []byte, publicInputs []string) (bool, error)
}

// RecordSink receives proof-record lifecycle callbacks for persistence or
// audit. Sink failures are logged, never propagated into the proof
// lifecycle.
type RecordSink interface {
	ProofSubmitted(ctx context.Context, record *ProofRecord) error
	ProofVerified(ctx context.Context, record *ProofRecord) error
}

// Stats are observability counters with no control-flow significance.
type Stats struct {
	Submitted uint64 `json:"submitted"`
	Verified  uint64 `json:"verified"`
	Rejected  uint64 `json:"rejected"`
}

// Registry accepts externally generated proofs keyed by circuit id,
// enforces per-subject cooldown, dedup and verification timeout, and
// verifies single proofs or bounded batches.
type Registry struct {
	mu  sync.Mutex
	log *logrus.Entry

	verifier   Verifier
	verifierID string
	sink       RecordSink

	circuits       map[string]*CircuitConfig
	records        map[merkle.Hash32]*ProofRecord
	lastSubmission map[string]time.Time

	cooldown            time.Duration
	verificationTimeout time.Duration
	maxBatch            int
	now                 func() time.Time

	stats Stats
}

// Option customises registry construction.
type Option func(*Registry)

// WithCooldown overrides the per-subject submission cooldown.
func WithCooldown(d time.Duration) Option {
	return func(r *Registry) { r.cooldown = d }
}

// WithVerificationTimeout overrides the verification window.
func WithVerificationTimeout(d time.Duration) Option {
	return func(r *Registry) { r.verificationTimeout = d }
}

// WithMaxBatchSize overrides the batch-verification bound.
func WithMaxBatchSize(n int) Option {
	return func(r *Registry) { r.maxBatch = n }
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithVerifierID sets the identity recorded in ProofRecord.VerifiedBy.
func WithVerifierID(id string) Option {
	return func(r *Registry) { r.verifierID = id }
}

// WithRecordSink attaches a persistence/audit sink.
func WithRecordSink(sink RecordSink) Option {
	return func(r *Registry) { r.sink = sink }
}

// New creates a proof registry delegating cryptographic checks to verifier.
func New(verifier Verifier, opts ...Option) *Registry {
	r := &Registry{
		log:                 logrus.WithField("service", "proof_registry"),
		verifier:            verifier,
		verifierID:          "external-verifier",
		circuits:            make(map[string]*CircuitConfig),
		records:             make(map[merkle.Hash32]*ProofRecord),
		lastSubmission:      make(map[string]time.Time),
		cooldown:            DefaultProofCooldown,
		verificationTimeout: DefaultVerificationTimeout,
		maxBatch:            DefaultMaxBatchSize,
		now:                 time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterCircuit adds a circuit configuration.
func (r *Registry) RegisterCircuit(cfg CircuitConfig) error {
	if cfg.CircuitID == "" {
		return fmt.Errorf("registry: circuit id is required")
	}
	if cfg.ExpectedProofSize <= 0 {
		return fmt.Errorf("registry: expected proof size must be positive")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.circuits[cfg.CircuitID]; ok {
		return ErrDuplicateCircuit
	}
	stored := cfg
	r.circuits[cfg.CircuitID] = &stored
	r.log.WithFields(logrus.Fields{
		"circuit_id": cfg.CircuitID,
		"active":     cfg.Active,
	}).Info("Circuit registered")
	return nil
}

// SetCircuitActive flips a circuit's active flag.
func (r *Registry) SetCircuitActive(circuitID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.circuits[circuitID]
	if !ok {
		return ErrCircuitNotFound
	}
	cfg.Active = active
	return nil
}

// Circuit returns a copy of the named circuit configuration.
func (r *Registry) Circuit(circuitID string) (CircuitConfig, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.circuits[circuitID]
	if !ok {
		return CircuitConfig{}, false
	}
	return *cfg, true
}

// SubmitProof validates and stores an externally generated proof, returning
// its content-derived hash. The hash is deliberately independent of the
// submission time so a legitimate resubmission after the cooldown produces
// the same identity and duplicates cannot dodge deduplication.
func (r *Registry) SubmitProof(circuitID string, proofBytes []byte, publicInputs []string, subjectTxHash string) (merkle.Hash32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cfg, ok := r.circuits[circuitID]
	if !ok {
		return merkle.ZeroHash, r.reject("circuit_not_found", ErrCircuitNotFound)
	}
	if !cfg.Active {
		return merkle.ZeroHash, r.reject("circuit_inactive", ErrCircuitInactive)
	}
	if len(proofBytes) != cfg.ExpectedProofSize {
		return merkle.ZeroHash, r.reject("proof_size", fmt.Errorf("%w: got %d, expected %d",
			ErrProofSizeMismatch, len(proofBytes), cfg.ExpectedProofSize))
	}
	if len(publicInputs) > cfg.MaxPublicInputs {
		return merkle.ZeroHash, r.reject("too_many_inputs", fmt.Errorf("%w: got %d, limit %d",
			ErrTooManyInputs, len(publicInputs), cfg.MaxPublicInputs))
	}

	now := r.now()
	if last, ok := r.lastSubmission[subjectTxHash]; ok && now.Sub(last) < r.cooldown {
		return merkle.ZeroHash, r.reject("cooldown", ErrCooldownActive)
	}

	proofHash := ComputeProofHash(circuitID, proofBytes, publicInputs, subjectTxHash)
	if _, ok := r.records[proofHash]; ok {
		return merkle.ZeroHash, r.reject("duplicate", ErrDuplicateProof)
	}

	record := &ProofRecord{
		ProofHash:     proofHash,
		CircuitID:     circuitID,
		ProofBytes:    append([]byte(nil), proofBytes...),
		PublicInputs:  append([]string(nil), publicInputs...),
		SubjectTxHash: subjectTxHash,
		SubmittedAt:   now,
	}
	r.records[proofHash] = record
	r.lastSubmission[subjectTxHash] = now
	r.stats.Submitted++
	metrics.ProofsSubmitted.Inc()

	r.notifySink(record, false)
	r.log.WithFields(logrus.Fields{
		"proof_hash": proofHash.Hex(),
		"circuit_id": circuitID,
		"subject_tx": subjectTxHash,
	}).Info("Proof submitted")
	return proofHash, nil
}

// VerifyProof runs the circuit verification predicate for a stored record.
// The record transitions verified=false to true exactly once; a collaborator
// error leaves it unverified so the caller can retry within the window.
func (r *Registry) VerifyProof(ctx context.Context, proofHash merkle.Hash32) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, err := r.verifiableRecord(proofHash)
	if err != nil {
		return false, err
	}

	valid, err := r.verifier.Verify(ctx, record.CircuitID, record.ProofBytes, record.PublicInputs)
	if err != nil {
		r.stats.Rejected++
		metrics.ProofsRejected.WithLabelValues("verifier_error").Inc()
		return false, fmt.Errorf("registry: verification predicate failed: %w", err)
	}

	r.markVerified(record, valid)
	return valid, nil
}

// BatchVerifyProofs verifies a bounded batch atomically: every per-item
// check and every predicate call must succeed before any record is marked,
// so a failed batch leaves no partial verification behind.
func (r *Registry) BatchVerifyProofs(ctx context.Context, proofHashes []merkle.Hash32) ([]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(proofHashes) == 0 {
		return nil, r.reject("empty_batch", ErrEmptyBatch)
	}
	if len(proofHashes) > r.maxBatch {
		return nil, r.reject("batch_too_large", fmt.Errorf("%w: got %d, limit %d",
			ErrBatchTooLarge, len(proofHashes), r.maxBatch))
	}

	eligible := make([]*ProofRecord, len(proofHashes))
	seen := make(map[merkle.Hash32]struct{}, len(proofHashes))
	for i, hash := range proofHashes {
		if _, dup := seen[hash]; dup {
			return nil, r.reject("duplicate_in_batch", fmt.Errorf("%w: repeated in batch", ErrDuplicateProof))
		}
		seen[hash] = struct{}{}
		record, err := r.verifiableRecord(hash)
		if err != nil {
			return nil, fmt.Errorf("batch item %d: %w", i, err)
		}
		eligible[i] = record
	}

	results := make([]bool, len(eligible))
	for i, record := range eligible {
		valid, err := r.verifier.Verify(ctx, record.CircuitID, record.ProofBytes, record.PublicInputs)
		if err != nil {
			r.stats.Rejected++
			metrics.ProofsRejected.WithLabelValues("verifier_error").Inc()
			return nil, fmt.Errorf("registry: batch item %d: verification predicate failed: %w", i, err)
		}
		results[i] = valid
	}

	for i, record := range eligible {
		r.markVerified(record, results[i])
	}
	return results, nil
}

// Record returns a copy of the stored record for a proof hash.
func (r *Registry) Record(proofHash merkle.Hash32) (*ProofRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[proofHash]
	if !ok {
		return nil, false
	}
	copied := *record
	copied.ProofBytes = append([]byte(nil), record.ProofBytes...)
	copied.PublicInputs = append([]string(nil), record.PublicInputs...)
	return &copied, true
}

// Stats returns a snapshot of the observability counters.
func (r *Registry) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// verifiableRecord resolves a proof hash to a record eligible for
// verification. Caller holds r.mu.
func (r *Registry) verifiableRecord(proofHash merkle.Hash32) (*ProofRecord, error) {
	record, ok := r.records[proofHash]
	if !ok {
		return nil, r.reject("not_found", ErrProofNotFound)
	}
	if record.Verified {
		return nil, r.reject("already_verified", ErrAlreadyVerified)
	}
	if r.now().Sub(record.SubmittedAt) > r.verificationTimeout {
		return nil, r.reject("expired", ErrVerificationExpired)
	}
	return record, nil
}

// markVerified applies the once-only verification transition. Caller holds
// r.mu.
func (r *Registry) markVerified(record *ProofRecord, valid bool) {
	record.Verified = true
	record.Valid = valid
	record.VerifiedBy = r.verifierID
	r.stats.Verified++

	result := "invalid"
	if valid {
		result = "valid"
	}
	metrics.ProofsVerified.WithLabelValues(result).Inc()
	r.notifySink(record, true)
	r.log.WithFields(logrus.Fields{
		"proof_hash": record.ProofHash.Hex(),
		"valid":      valid,
	}).Info("Proof verified")
}

func (r *Registry) reject(reason string, err error) error {
	r.stats.Rejected++
	metrics.ProofsRejected.WithLabelValues(reason).Inc()
	return err
}

func (r *Registry) notifySink(record *ProofRecord, verified bool) {
	if r.sink == nil {
		return
	}
	copied := *record
	copied.ProofBytes = append([]byte(nil), record.ProofBytes...)
	copied.PublicInputs = append([]string(nil), record.PublicInputs...)

	var err error
	if verified {
		err = r.sink.ProofVerified(context.Background(), &copied)
	} else {
		err = r.sink.ProofSubmitted(context.Background(), &copied)
	}
	if err != nil {
		r.log.WithError(err).Warn("Proof record sink failed")
	}
}

// ComputeProofHash derives the content-addressed identity of a submission.
// Each component is length-prefixed so distinct submissions cannot collide
// through concatenation ambiguity.
func ComputeProofHash(circuitID string, proofBytes []byte, publicInputs []string, subjectTxHash string) merkle.Hash32 {
	var buf bytes.Buffer
	writeChunk := func(chunk []byte) {
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(chunk)))
		buf.Write(lenBuf[:])
		buf.Write(chunk)
	}

	writeChunk([]byte(circuitID))
	writeChunk(proofBytes)
	var countBuf [8]byte
	binary.BigEndian.PutUint64(countBuf[:], uint64(len(publicInputs)))
	buf.Write(countBuf[:])
	for _, input := range publicInputs {
		writeChunk([]byte(input))
	}
	writeChunk([]byte(subjectTxHash))

	return merkle.DoubleHash(buf.Bytes())
}
