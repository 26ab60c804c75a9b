package relay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
	"github.com/suryansh863/ZKBridge.app-sub000/internal/metrics"
)

// Rejection reasons surfaced by the relay. Appends and confirmation reads
// fail synchronously with one of these; nothing is partially applied.
var (
	ErrZeroHash        = errors.New("relay: header hash is the zero digest")
	ErrUnknownParent   = errors.New("relay: prev hash does not resolve to a known header")
	ErrStaleParent     = errors.New("relay: prev hash is not the current chain tip")
	ErrFutureTimestamp = errors.New("relay: header timestamp exceeds allowed future drift")
	ErrDuplicateHeader = errors.New("relay: header hash already recorded")
	ErrUnknownHeight   = errors.New("relay: height exceeds current chain tip")
	ErrEmergencyPaused = errors.New("relay: service unavailable, emergency mode active")
	ErrNotPaused       = errors.New("relay: relay is not paused")
	ErrCooldownActive  = errors.New("relay: emergency cooldown has not elapsed")
	ErrInvalidCap      = errors.New("relay: capability not minted by this relay")
	ErrGenesisMismatch = errors.New("relay: stored chain is anchored on a different genesis")
)

const (
	// DefaultMaxFutureDrift bounds how far ahead of wall clock a header
	// timestamp may claim to be.
	DefaultMaxFutureDrift = 2 * time.Hour

	// DefaultEmergencyCooldown is the minimum time between entering
	// emergency mode and resuming, preventing rapid pause/resume abuse.
	DefaultEmergencyCooldown = 24 * time.Hour
)

// Relay maintains an append-only chain of block headers anchoring Merkle
// roots to a verified history. One relayer writes at a time; confirmation
// reads may run concurrently and always observe a consistent tip.
type Relay struct {
	mu    sync.RWMutex
	store HeaderStore
	log   *logrus.Entry

	maxFutureDrift    time.Duration
	emergencyCooldown time.Duration
	now               func() time.Time

	paused   bool
	pausedAt time.Time
}

// Option customises relay construction.
type Option func(*Relay)

// WithMaxFutureDrift overrides the timestamp drift bound.
func WithMaxFutureDrift(d time.Duration) Option {
	return func(r *Relay) { r.maxFutureDrift = d }
}

// WithEmergencyCooldown overrides the pause/resume cooldown.
func WithEmergencyCooldown(d time.Duration) Option {
	return func(r *Relay) { r.emergencyCooldown = d }
}

// WithClock overrides the wall clock, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

// AdminCap authorises emergency controls. RelayerCap authorises appends.
// OperatorCap authorises confirmation reads. The zero value of each is
// invalid; capabilities are only minted by New and passed explicitly into
// operations instead of relying on ambient identity.
type AdminCap struct{ relay *Relay }
type RelayerCap struct{ relay *Relay }
type OperatorCap struct{ relay *Relay }

// New creates a relay whose chain starts at the given genesis (hash,
// timestamp) pair at height 0, pre-appended to the store. It returns the
// three capability handles alongside the relay.
func New(store HeaderStore, genesisHash merkle.Hash32, genesisTimestamp int64, opts ...Option) (*Relay, AdminCap, RelayerCap, OperatorCap, error) {
	if genesisHash.IsZero() {
		return nil, AdminCap{}, RelayerCap{}, OperatorCap{}, ErrZeroHash
	}

	r := &Relay{
		store:             store,
		log:               logrus.WithField("service", "header_relay"),
		maxFutureDrift:    DefaultMaxFutureDrift,
		emergencyCooldown: DefaultEmergencyCooldown,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	tip, err := store.Tip()
	if err != nil {
		return nil, AdminCap{}, RelayerCap{}, OperatorCap{}, fmt.Errorf("relay: reading tip: %w", err)
	}
	if tip == nil {
		genesis := &Header{
			Hash:      genesisHash,
			Timestamp: genesisTimestamp,
			Height:    0,
		}
		if err := store.Append(genesis); err != nil {
			return nil, AdminCap{}, RelayerCap{}, OperatorCap{}, fmt.Errorf("relay: appending genesis: %w", err)
		}
		r.log.WithFields(logrus.Fields{
			"genesis_hash": genesisHash.Hex(),
			"timestamp":    genesisTimestamp,
		}).Info("Header relay initialized at genesis")
	} else {
		stored, ok, err := store.ByHeight(0)
		if err != nil {
			return nil, AdminCap{}, RelayerCap{}, OperatorCap{}, fmt.Errorf("relay: reading stored genesis: %w", err)
		}
		if !ok || stored.Hash != genesisHash {
			return nil, AdminCap{}, RelayerCap{}, OperatorCap{}, ErrGenesisMismatch
		}
		r.log.WithFields(logrus.Fields{
			"tip_hash":   tip.Hash.Hex(),
			"tip_height": tip.Height,
		}).Info("Header relay resumed from existing chain")
	}

	return r, AdminCap{relay: r}, RelayerCap{relay: r}, OperatorCap{relay: r}, nil
}

// AppendHeader validates and appends a header extending the current tip.
// The new header is stored at prevHeader.height + 1 and becomes the tip.
func (c RelayerCap) AppendHeader(hash, prevHash merkle.Hash32, timestamp int64, difficultyBits uint32) (*Header, error) {
	r := c.relay
	if r == nil {
		return nil, ErrInvalidCap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return nil, ErrEmergencyPaused
	}
	if hash.IsZero() {
		return nil, ErrZeroHash
	}
	if timestamp > r.now().Add(r.maxFutureDrift).Unix() {
		return nil, ErrFutureTimestamp
	}
	if _, ok, err := r.store.ByHash(hash); err != nil {
		return nil, fmt.Errorf("relay: looking up header: %w", err)
	} else if ok {
		return nil, ErrDuplicateHeader
	}

	parent, ok, err := r.store.ByHash(prevHash)
	if err != nil {
		return nil, fmt.Errorf("relay: looking up parent: %w", err)
	}
	if !ok {
		return nil, ErrUnknownParent
	}
	tip, err := r.store.Tip()
	if err != nil {
		return nil, fmt.Errorf("relay: reading tip: %w", err)
	}
	if tip.Hash != parent.Hash {
		return nil, ErrStaleParent
	}

	header := &Header{
		Hash:           hash,
		PrevHash:       prevHash,
		Timestamp:      timestamp,
		DifficultyBits: difficultyBits,
		Height:         parent.Height + 1,
	}
	if err := r.store.Append(header); err != nil {
		return nil, fmt.Errorf("relay: appending header: %w", err)
	}

	metrics.RelayTipHeight.Set(float64(header.Height))
	r.log.WithFields(logrus.Fields{
		"hash":   hash.Hex(),
		"height": header.Height,
	}).Info("Header appended")
	return header, nil
}

// Confirmations returns the confirmation depth of the block at the given
// height, 1-indexed at the block itself.
func (c OperatorCap) Confirmations(height uint64) (uint64, error) {
	r := c.relay
	if r == nil {
		return 0, ErrInvalidCap
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.paused {
		return 0, ErrEmergencyPaused
	}
	tip, err := r.store.Tip()
	if err != nil {
		return 0, fmt.Errorf("relay: reading tip: %w", err)
	}
	if tip == nil || height > tip.Height {
		return 0, ErrUnknownHeight
	}
	return tip.Height - height + 1, nil
}

// HeaderByHeight returns the header anchored at the given height, used to
// check that a claimed block hash and Merkle root are part of the verified
// history.
func (c OperatorCap) HeaderByHeight(height uint64) (*Header, error) {
	r := c.relay
	if r == nil {
		return nil, ErrInvalidCap
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.paused {
		return nil, ErrEmergencyPaused
	}
	h, ok, err := r.store.ByHeight(height)
	if err != nil {
		return nil, fmt.Errorf("relay: looking up header: %w", err)
	}
	if !ok {
		return nil, ErrUnknownHeight
	}
	return h, nil
}

// Tip returns the current chain tip.
func (c OperatorCap) Tip() (*Header, error) {
	r := c.relay
	if r == nil {
		return nil, ErrInvalidCap
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Tip()
}

// Pause forces the relay into emergency mode: all appends and
// proof-dependent reads are rejected until an admin resumes.
func (c AdminCap) Pause() error {
	r := c.relay
	if r == nil {
		return ErrInvalidCap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.paused {
		return nil
	}
	r.paused = true
	r.pausedAt = r.now()
	metrics.RelayEmergencyMode.Set(1)
	r.log.Warn("Header relay entered emergency mode")
	return nil
}

// Resume leaves emergency mode. It is rejected until the emergency
// cooldown has elapsed since the pause.
func (c AdminCap) Resume() error {
	r := c.relay
	if r == nil {
		return ErrInvalidCap
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.paused {
		return ErrNotPaused
	}
	if r.now().Sub(r.pausedAt) < r.emergencyCooldown {
		return ErrCooldownActive
	}
	r.paused = false
	metrics.RelayEmergencyMode.Set(0)
	r.log.Warn("Header relay left emergency mode")
	return nil
}

// Paused reports whether the relay is in emergency mode.
func (c AdminCap) Paused() bool {
	r := c.relay
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}
