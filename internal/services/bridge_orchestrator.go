package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/clients"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/metrics"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/models"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/registry"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/relay"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/repository"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/utils"
)

// ChainDataSource is the external block/transaction lookup collaborator.
type ChainDataSource interface {
	GetTransaction(ctx context.Context, txHash string) (*clients.ChainTransaction, error)
	GetBlockTransactionHashes(ctx context.Context, blockHash string) ([]string, error)
	GetConfirmationDepth(ctx context.Context, txHash string) (int64, error)
}

// ProofGenerator is the external proof-generation collaborator.
type ProofGenerator interface {
	GenerateProof(ctx context.Context, req *clients.ProofRequest) (*clients.ProofResponse, error)
}

// TransactionNotifier observes committed transitions, e.g. for NATS or
// websocket delivery. Notifier failures never affect the state machine.
type TransactionNotifier interface {
	NotifyTransactionUpdate(tx *models.BridgeTransaction, event *models.TransactionEvent)
}

var (
	// ErrTransactionTerminal rejects operations on COMPLETED/FAILED records.
	ErrTransactionTerminal = errors.New("bridge: transaction is in a terminal state")

	// errStaleTransition marks a transition that lost against a concurrent
	// one, such as a late stage result arriving after a cancellation.
	errStaleTransition = errors.New("bridge: transition no longer applicable")
)

const (
	// DefaultConfirmationThreshold is the confirmation depth required on
	// both the source chain and the header relay before proving inclusion.
	DefaultConfirmationThreshold = 6

	// DefaultPollInterval paces the background verification loop.
	DefaultPollInterval = 15 * time.Second
)

// InitiateRequest is the caller-facing input of a transfer.
type InitiateRequest struct {
	Direction     models.Direction `json:"direction"`
	SourceTxHash  string           `json:"source_tx_hash"`
	SourceAmount  int64            `json:"source_amount"`
	SourceAddress string           `json:"source_address"`
	TargetAddress string           `json:"target_address"`
}

// BridgeOrchestrator drives each transfer through source-chain lookup,
// confirmation waiting, Merkle proof construction, proof generation and
// registry submission. Initiating calls return immediately; a background
// worker advances state and every transition is event-logged.
type BridgeOrchestrator struct {
	txRepo    repository.BridgeTransactionRepository
	eventRepo repository.TransactionEventRepository
	chain     ChainDataSource
	prover    ProofGenerator
	registry  *registry.Registry
	relayOp   relay.OperatorCap
	notifiers []TransactionNotifier
	log       *logrus.Entry

	circuitID             string
	confirmationThreshold int64
	pollInterval          time.Duration

	// processing holds the at-most-one-in-flight-task-per-id guard;
	// txLocks serializes mutations of one transaction against Cancel.
	mu         sync.Mutex
	processing map[string]bool
	txLocks    map[string]*sync.Mutex

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// OrchestratorOption customises orchestrator construction.
type OrchestratorOption func(*BridgeOrchestrator)

// WithConfirmationThreshold overrides the confirmation depth requirement.
func WithConfirmationThreshold(n int64) OrchestratorOption {
	return func(o *BridgeOrchestrator) { o.confirmationThreshold = n }
}

// WithPollInterval overrides the worker tick interval.
func WithPollInterval(d time.Duration) OrchestratorOption {
	return func(o *BridgeOrchestrator) { o.pollInterval = d }
}

// WithNotifier attaches a transition observer.
func WithNotifier(n TransactionNotifier) OrchestratorOption {
	return func(o *BridgeOrchestrator) { o.notifiers = append(o.notifiers, n) }
}

// NewBridgeOrchestrator creates the bridge state machine service.
func NewBridgeOrchestrator(
	txRepo repository.BridgeTransactionRepository,
	eventRepo repository.TransactionEventRepository,
	chain ChainDataSource,
	prover ProofGenerator,
	proofRegistry *registry.Registry,
	relayOp relay.OperatorCap,
	circuitID string,
	opts ...OrchestratorOption,
) *BridgeOrchestrator {
	o := &BridgeOrchestrator{
		txRepo:                txRepo,
		eventRepo:             eventRepo,
		chain:                 chain,
		prover:                prover,
		registry:              proofRegistry,
		relayOp:               relayOp,
		log:                   logrus.WithField("service", "bridge_orchestrator"),
		circuitID:             circuitID,
		confirmationThreshold: DefaultConfirmationThreshold,
		pollInterval:          DefaultPollInterval,
		processing:            make(map[string]bool),
		txLocks:               make(map[string]*sync.Mutex),
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start launches the background verification worker and resumes any
// transfer that was in flight when the process last stopped.
func (o *BridgeOrchestrator) Start() {
	o.log.Info("Starting bridge orchestrator")
	o.wg.Add(1)
	go o.processLoop()
	o.recoverInFlight()
}

// Stop shuts the worker down and waits for in-flight stage handlers.
func (o *BridgeOrchestrator) Stop() {
	o.log.Info("Stopping bridge orchestrator")
	close(o.stopChan)
	o.wg.Wait()
}

// InitiateTransfer validates the request, persists a PENDING transaction
// and returns it immediately. The background worker picks it up; progress
// is observed via GetStatus, Events or an attached notifier.
func (o *BridgeOrchestrator) InitiateTransfer(ctx context.Context, req *InitiateRequest) (*models.BridgeTransaction, error) {
	if err := validateInitiateRequest(req); err != nil {
		return nil, err
	}

	now := time.Now()
	tx := &models.BridgeTransaction{
		ID:            uuid.New().String(),
		Direction:     req.Direction,
		Status:        models.StatusPending,
		SourceTxHash:  strings.ToLower(strings.TrimPrefix(req.SourceTxHash, "0x")),
		SourceAmount:  req.SourceAmount,
		SourceAddress: req.SourceAddress,
		TargetAddress: req.TargetAddress,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.txRepo.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to create bridge transaction: %w", err)
	}
	o.appendEvent(ctx, tx, "initiate", "transfer initiated, awaiting verification worker")
	metrics.TransfersInitiated.Inc()

	o.log.WithFields(logrus.Fields{
		"tx_id":     tx.ID,
		"source_tx": tx.SourceTxHash,
		"direction": tx.Direction,
	}).Info("Transfer initiated")

	// Trigger processing without blocking the caller.
	o.spawnWorker(tx.ID)

	return tx, nil
}

// GetStatus returns the last known state of a transfer.
func (o *BridgeOrchestrator) GetStatus(ctx context.Context, id string) (*models.BridgeTransaction, error) {
	return o.txRepo.GetByID(ctx, id)
}

// Events returns the append-only audit log of a transfer.
func (o *BridgeOrchestrator) Events(ctx context.Context, id string) ([]*models.TransactionEvent, error) {
	return o.eventRepo.FindByTransaction(ctx, id)
}

// Cancel marks a non-terminal transfer FAILED with a cancellation reason.
// It only transitions state; an in-flight external call is not aborted and
// will find the terminal status before acting on its late result.
func (o *BridgeOrchestrator) Cancel(ctx context.Context, id, reason string) error {
	message := "cancelled by user"
	if reason != "" {
		message = fmt.Sprintf("cancelled by user: %s", reason)
	}
	_, err := o.failTransaction(ctx, id, "cancel", message)
	if errors.Is(err, errStaleTransition) {
		return ErrTransactionTerminal
	}
	return err
}

// processLoop periodically picks up every non-terminal transaction.
func (o *BridgeOrchestrator) processLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopChan:
			return
		case <-ticker.C:
			txs, err := o.txRepo.FindByStatus(context.Background(),
				models.StatusPending, models.StatusVerifying,
				models.StatusProofGenerated, models.StatusSubmitting)
			if err != nil {
				o.log.WithError(err).Error("Failed to query in-flight transactions")
				continue
			}
			for _, tx := range txs {
				o.spawnWorker(tx.ID)
			}
		}
	}
}

// recoverInFlight resumes transactions left mid-pipeline by a previous
// process. Each stage is idempotent, so resuming re-runs at most the stage
// that was interrupted.
func (o *BridgeOrchestrator) recoverInFlight() {
	txs, err := o.txRepo.FindByStatus(context.Background(),
		models.StatusPending, models.StatusVerifying,
		models.StatusProofGenerated, models.StatusSubmitting)
	if err != nil {
		o.log.WithError(err).Warn("Failed to query transactions for recovery")
		return
	}
	if len(txs) == 0 {
		return
	}
	o.log.WithField("count", len(txs)).Info("Recovering in-flight transfers")
	for _, tx := range txs {
		o.spawnWorker(tx.ID)
	}
}

// spawnWorker runs one processing pass in the background. Workers are
// tracked so Stop can wait for stage handlers still writing through the
// repositories.
func (o *BridgeOrchestrator) spawnWorker(id string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.processTransaction(id)
	}()
}

// processTransaction advances one transfer as far as current chain reality
// allows. At most one task runs per transaction id; a duplicate trigger is
// a no-op.
func (o *BridgeOrchestrator) processTransaction(id string) {
	o.mu.Lock()
	if o.processing[id] {
		o.mu.Unlock()
		return
	}
	o.processing[id] = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		delete(o.processing, id)
		o.mu.Unlock()
	}()

	ctx := context.Background()
	tx, err := o.txRepo.GetByID(ctx, id)
	if err != nil {
		o.log.WithError(err).WithField("tx_id", id).Error("Failed to load transaction")
		return
	}
	if tx.Status.IsTerminal() {
		return
	}

	start := time.Now()
	stage := string(tx.Status)
	defer func() {
		metrics.TransferStageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	}()

	switch tx.Status {
	case models.StatusPending:
		tx, err = o.applyTransition(ctx, id, models.StatusVerifying, "verify",
			"verification worker picked up transfer", nil)
		if err != nil {
			return
		}
		o.runVerifyStage(ctx, tx)
	case models.StatusVerifying:
		o.runVerifyStage(ctx, tx)
	case models.StatusProofGenerated:
		o.runGenerateStage(ctx, tx)
	case models.StatusSubmitting:
		o.runSubmitStage(ctx, tx)
	}
}

// runVerifyStage fetches the source transaction, waits for confirmation
// depth on both the source chain and the header relay, and constructs the
// Merkle inclusion evidence. Transient conditions leave the transaction in
// VERIFYING for the next tick; structural ones terminate it.
func (o *BridgeOrchestrator) runVerifyStage(ctx context.Context, tx *models.BridgeTransaction) {
	logger := o.log.WithField("tx_id", tx.ID)

	chainTx, err := o.chain.GetTransaction(ctx, tx.SourceTxHash)
	if errors.Is(err, clients.ErrTxNotFound) {
		o.failTransaction(ctx, tx.ID, "verify", "source transaction not found on chain")
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Chain lookup failed, will retry")
		return
	}
	if !chainTx.Confirmed {
		logger.Debug("Source transaction not yet confirmed")
		return
	}

	confirmations, err := o.chain.GetConfirmationDepth(ctx, tx.SourceTxHash)
	if err != nil {
		logger.WithError(err).Warn("Confirmation lookup failed, will retry")
		return
	}
	if confirmations != tx.Confirmations {
		tx, err = o.updateProgress(ctx, tx.ID, func(t *models.BridgeTransaction) {
			t.Confirmations = confirmations
		})
		if err != nil {
			return
		}
	}
	if confirmations < o.confirmationThreshold {
		logger.WithFields(logrus.Fields{
			"confirmations": confirmations,
			"threshold":     o.confirmationThreshold,
		}).Debug("Waiting for source-chain confirmations")
		return
	}

	// The containing block must be anchored in the relay's verified
	// history and buried at least as deep there.
	header, err := o.relayOp.HeaderByHeight(chainTx.BlockHeight)
	if errors.Is(err, relay.ErrEmergencyPaused) {
		logger.Warn("Header relay paused, holding transfer")
		return
	}
	if errors.Is(err, relay.ErrUnknownHeight) {
		logger.Debug("Header relay has not reached the block height yet")
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Relay lookup failed, will retry")
		return
	}
	if !equalHash(header.Hash.Hex(), chainTx.BlockHash) {
		o.failTransaction(ctx, tx.ID, "verify",
			fmt.Sprintf("block %s at height %d is not anchored in the header relay", chainTx.BlockHash, chainTx.BlockHeight))
		return
	}
	relayConfs, err := o.relayOp.Confirmations(chainTx.BlockHeight)
	if err != nil {
		logger.WithError(err).Warn("Relay confirmation read failed, will retry")
		return
	}
	if relayConfs < uint64(o.confirmationThreshold) {
		logger.WithField("relay_confirmations", relayConfs).Debug("Waiting for relay depth")
		return
	}

	txHashes, err := o.chain.GetBlockTransactionHashes(ctx, chainTx.BlockHash)
	if err != nil {
		logger.WithError(err).Warn("Block transaction list fetch failed, will retry")
		return
	}
	leaves, leafIndex, err := leavesAndIndex(txHashes, tx.SourceTxHash)
	if err != nil {
		o.failTransaction(ctx, tx.ID, "verify", err.Error())
		return
	}

	proof, err := merkle.BuildProof(leaves, leafIndex)
	if err != nil {
		o.failTransaction(ctx, tx.ID, "verify", fmt.Sprintf("failed to build inclusion proof: %v", err))
		return
	}
	if !merkle.VerifyProof(proof) {
		o.failTransaction(ctx, tx.ID, "verify", "constructed inclusion proof does not verify")
		return
	}

	siblingPath, err := json.Marshal(hashesToHex(proof.SiblingPath))
	if err != nil {
		o.failTransaction(ctx, tx.ID, "verify", fmt.Sprintf("failed to encode sibling path: %v", err))
		return
	}

	tx, err = o.applyTransition(ctx, tx.ID, models.StatusProofGenerated, "merkle_proof",
		fmt.Sprintf("inclusion proven in block %s at height %d (index %d of %d txs)",
			chainTx.BlockHash, chainTx.BlockHeight, leafIndex, len(txHashes)),
		func(t *models.BridgeTransaction) {
			t.MerkleRoot = proof.Root.Hex()
			t.BlockHeight = chainTx.BlockHeight
			t.BlockHash = chainTx.BlockHash
			t.LeafIndex = proof.LeafIndex
			t.SiblingPath = string(siblingPath)
			t.Confirmations = confirmations
		})
	if err != nil {
		return
	}

	o.runGenerateStage(ctx, tx)
}

// runGenerateStage calls the proof-generation backend with the stored
// Merkle evidence. Backend failure is structural.
func (o *BridgeOrchestrator) runGenerateStage(ctx context.Context, tx *models.BridgeTransaction) {
	var siblingPath []string
	if err := json.Unmarshal([]byte(tx.SiblingPath), &siblingPath); err != nil {
		o.failTransaction(ctx, tx.ID, "generate_proof", fmt.Sprintf("corrupt sibling path: %v", err))
		return
	}

	resp, err := o.prover.GenerateProof(ctx, &clients.ProofRequest{
		TxHash:       tx.SourceTxHash,
		MerkleRoot:   tx.MerkleRoot,
		SiblingPath:  siblingPath,
		LeafIndex:    tx.LeafIndex,
		SourceAmount: tx.SourceAmount,
	})
	if err != nil {
		o.failTransaction(ctx, tx.ID, "generate_proof", fmt.Sprintf("proof backend call failed: %v", err))
		return
	}

	tx, err = o.applyTransition(ctx, tx.ID, models.StatusSubmitting, "generate_proof",
		fmt.Sprintf("proof generated (request %s), submitting to registry", resp.RequestID),
		func(t *models.BridgeTransaction) {
			t.ProofRef = resp.ProofData
			t.PublicSignals = strings.Join(resp.PublicSignals, ",")
		})
	if err != nil {
		return
	}

	o.runSubmitStage(ctx, tx)
}

// runSubmitStage submits the stored proof to the registry and drives it to
// a verification verdict. On resumption a proof that was already submitted
// is looked up instead of re-submitted.
func (o *BridgeOrchestrator) runSubmitStage(ctx context.Context, tx *models.BridgeTransaction) {
	var publicSignals []string
	if tx.PublicSignals != "" {
		publicSignals = strings.Split(tx.PublicSignals, ",")
	}

	var proofHash merkle.Hash32
	haveRecord := false
	if tx.ProofHash != "" {
		parsed, err := merkle.ParseHash(tx.ProofHash)
		if err != nil {
			o.failTransaction(ctx, tx.ID, "submit_proof", fmt.Sprintf("corrupt proof hash: %v", err))
			return
		}
		proofHash = parsed

		// A record may be absent after a process restart; the proof is
		// then re-submitted from the stored blob below.
		if record, ok := o.registry.Record(proofHash); ok {
			if record.Verified {
				o.settleVerdict(ctx, tx.ID, record.Valid)
				return
			}
			haveRecord = true
		}
	}
	if !haveRecord {
		proofBytes, err := hex.DecodeString(strings.TrimPrefix(tx.ProofRef, "0x"))
		if err != nil {
			o.failTransaction(ctx, tx.ID, "submit_proof", fmt.Sprintf("corrupt proof blob: %v", err))
			return
		}

		// The proof hash is content-derived, so a submission whose hash was
		// never persisted can be recognized instead of tripping the
		// registry's duplicate check.
		computed := registry.ComputeProofHash(o.circuitID, proofBytes, publicSignals, tx.SourceTxHash)
		if record, ok := o.registry.Record(computed); ok {
			if record.Verified {
				o.settleVerdict(ctx, tx.ID, record.Valid)
				return
			}
			proofHash = computed
		} else {
			proofHash, err = o.registry.SubmitProof(o.circuitID, proofBytes, publicSignals, tx.SourceTxHash)
			if err != nil {
				o.failTransaction(ctx, tx.ID, "submit_proof", fmt.Sprintf("registry rejected proof: %v", err))
				return
			}
		}

		var updateErr error
		tx, updateErr = o.updateProgress(ctx, tx.ID, func(t *models.BridgeTransaction) {
			t.ProofHash = proofHash.Hex()
		})
		if updateErr != nil {
			return
		}
		o.appendEvent(ctx, tx, "submit_proof", fmt.Sprintf("proof accepted by registry as %s", proofHash.Hex()))
	}

	valid, err := o.registry.VerifyProof(ctx, proofHash)
	if errors.Is(err, registry.ErrAlreadyVerified) {
		if record, ok := o.registry.Record(proofHash); ok {
			o.settleVerdict(ctx, tx.ID, record.Valid)
		}
		return
	}
	if err != nil {
		o.failTransaction(ctx, tx.ID, "submit_proof", fmt.Sprintf("registry verification failed: %v", err))
		return
	}

	o.settleVerdict(ctx, tx.ID, valid)
}

// settleVerdict converts the registry's verification result into the
// terminal transition.
func (o *BridgeOrchestrator) settleVerdict(ctx context.Context, id string, valid bool) {
	if valid {
		o.applyTransition(ctx, id, models.StatusCompleted, "complete",
			"proof verified valid, transfer completed", nil)
		return
	}
	o.failTransaction(ctx, id, "submit_proof", "proof verified invalid")
}

// applyTransition serializes one state change: the record is reloaded under
// the per-id lock, the forward-only graph is enforced, and the change plus
// its audit event are persisted before notifiers run. A transition that is
// no longer applicable (e.g. after a cancellation) returns
// errStaleTransition and mutates nothing.
func (o *BridgeOrchestrator) applyTransition(
	ctx context.Context,
	id string,
	next models.BridgeStatus,
	stage, message string,
	mutate func(*models.BridgeTransaction),
) (*models.BridgeTransaction, error) {
	lock := o.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tx, err := o.txRepo.GetByID(ctx, id)
	if err != nil {
		o.log.WithError(err).WithField("tx_id", id).Error("Failed to load transaction for transition")
		return nil, err
	}
	if !tx.Status.CanTransitionTo(next) {
		o.log.WithFields(logrus.Fields{
			"tx_id": id,
			"from":  tx.Status,
			"to":    next,
		}).Debug("Dropping stale transition")
		return nil, errStaleTransition
	}

	if mutate != nil {
		mutate(tx)
	}
	tx.Status = next
	tx.UpdatedAt = time.Now()
	if err := o.txRepo.Update(ctx, tx); err != nil {
		o.log.WithError(err).WithField("tx_id", id).Error("Failed to persist transition")
		return nil, err
	}

	event := o.appendEvent(ctx, tx, stage, message)
	metrics.TransferTransitions.WithLabelValues(string(next)).Inc()
	for _, n := range o.notifiers {
		n.NotifyTransactionUpdate(tx, event)
	}

	o.log.WithFields(logrus.Fields{
		"tx_id":  id,
		"status": next,
		"stage":  stage,
	}).Info("Transaction transitioned")
	return tx, nil
}

// failTransaction terminates a transfer with a recorded reason. Every
// failure increments ErrorCount; the count never resets.
func (o *BridgeOrchestrator) failTransaction(ctx context.Context, id, stage, reason string) (*models.BridgeTransaction, error) {
	return o.applyTransition(ctx, id, models.StatusFailed, stage, reason,
		func(t *models.BridgeTransaction) {
			t.ErrorMessage = reason
			t.ErrorCount++
		})
}

// updateProgress mutates non-status fields of a non-terminal transaction
// under the same serialization as transitions.
func (o *BridgeOrchestrator) updateProgress(ctx context.Context, id string, mutate func(*models.BridgeTransaction)) (*models.BridgeTransaction, error) {
	lock := o.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	tx, err := o.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx.Status.IsTerminal() {
		return nil, errStaleTransition
	}
	mutate(tx)
	tx.UpdatedAt = time.Now()
	if err := o.txRepo.Update(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// appendEvent writes one audit-log entry. Event persistence failure is
// logged but never blocks the state machine.
func (o *BridgeOrchestrator) appendEvent(ctx context.Context, tx *models.BridgeTransaction, stage, message string) *models.TransactionEvent {
	event := &models.TransactionEvent{
		TransactionID: tx.ID,
		Stage:         stage,
		Status:        string(tx.Status),
		Message:       message,
		CreatedAt:     time.Now(),
	}
	if err := o.eventRepo.Append(ctx, event); err != nil {
		o.log.WithError(err).WithField("tx_id", tx.ID).Error("Failed to append transaction event")
	}
	return event
}

func (o *BridgeOrchestrator) lockFor(id string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.txLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		o.txLocks[id] = lock
	}
	return lock
}

// leavesAndIndex parses the block's transaction hashes and locates the
// target. An unparseable list or an absent target is structural.
func leavesAndIndex(txHashes []string, target string) ([]merkle.Hash32, int, error) {
	leaves := make([]merkle.Hash32, len(txHashes))
	index := -1
	normalizedTarget := strings.ToLower(strings.TrimPrefix(target, "0x"))
	for i, raw := range txHashes {
		h, err := merkle.ParseHash(raw)
		if err != nil {
			return nil, 0, fmt.Errorf("block contains unparseable tx hash at position %d: %v", i, err)
		}
		leaves[i] = h
		if strings.ToLower(strings.TrimPrefix(raw, "0x")) == normalizedTarget {
			index = i
		}
	}
	if index < 0 {
		return nil, 0, fmt.Errorf("transaction %s is absent from its claimed block", target)
	}
	return leaves, index, nil
}

func hashesToHex(hashes []merkle.Hash32) []string {
	out := make([]string, len(hashes))
	for i, h := range hashes {
		out[i] = h.Hex()
	}
	return out
}

func equalHash(a, b string) bool {
	return strings.ToLower(strings.TrimPrefix(a, "0x")) == strings.ToLower(strings.TrimPrefix(b, "0x"))
}

func validateInitiateRequest(req *InitiateRequest) error {
	if req == nil {
		return fmt.Errorf("request is required")
	}
	switch req.Direction {
	case models.DirectionBTCToEVM, models.DirectionEVMToBTC:
	default:
		return fmt.Errorf("unsupported direction %q", req.Direction)
	}
	if _, err := merkle.ParseHash(req.SourceTxHash); err != nil {
		return fmt.Errorf("invalid source tx hash: %w", err)
	}
	if req.SourceAmount <= 0 {
		return fmt.Errorf("source amount must be positive")
	}
	if req.SourceAddress == "" {
		return fmt.Errorf("source address is required")
	}
	switch req.Direction {
	case models.DirectionBTCToEVM:
		if !utils.IsValidEVMAddress(req.TargetAddress) {
			return fmt.Errorf("invalid EVM target address %q", req.TargetAddress)
		}
	case models.DirectionEVMToBTC:
		if !utils.IsValidBitcoinAddress(req.TargetAddress) {
			return fmt.Errorf("invalid bitcoin target address %q", req.TargetAddress)
		}
	}
	return nil
}
