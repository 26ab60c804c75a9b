package relay

import (
	"sync"

	"github.com/suryansh863/ZKBridge.app-sub000/internal/merkle"
)

// Header is one entry of the append-only block-header chain. Headers are
// created once by a relayer appending to the tip and never mutated or
// deleted afterwards.
type Header struct {
	Hash           merkle.Hash32
	PrevHash       merkle.Hash32
	Timestamp      int64
	DifficultyBits uint32
	Height         uint64
}

// HeaderStore is the narrow persistence contract for the relay chain. It
// exposes only append/get/tip so past entries cannot be rewritten through
// this interface.
type HeaderStore interface {
	Append(h *Header) error
	ByHash(hash merkle.Hash32) (*Header, bool, error)
	ByHeight(height uint64) (*Header, bool, error)
	Tip() (*Header, error)
}

// MemoryHeaderStore keeps the header chain in process memory. It backs unit
// tests and single-node deployments without a database.
type MemoryHeaderStore struct {
	mu       sync.RWMutex
	byHash   map[merkle.Hash32]*Header
	byHeight []*Header
}

// NewMemoryHeaderStore creates an empty in-memory header store.
func NewMemoryHeaderStore() *MemoryHeaderStore {
	return &MemoryHeaderStore{
		byHash: make(map[merkle.Hash32]*Header),
	}
}

// Append stores a header at the next height. The relay validates chain
// extension rules before calling this.
func (s *MemoryHeaderStore) Append(h *Header) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *h
	s.byHash[stored.Hash] = &stored
	s.byHeight = append(s.byHeight, &stored)
	return nil
}

// ByHash looks a header up by its block hash.
func (s *MemoryHeaderStore) ByHash(hash merkle.Hash32) (*Header, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.byHash[hash]
	if !ok {
		return nil, false, nil
	}
	copied := *h
	return &copied, true, nil
}

// ByHeight looks a header up by chain height.
func (s *MemoryHeaderStore) ByHeight(height uint64) (*Header, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if height >= uint64(len(s.byHeight)) {
		return nil, false, nil
	}
	copied := *s.byHeight[height]
	return &copied, true, nil
}

// Tip returns the highest stored header, or nil for an empty store.
func (s *MemoryHeaderStore) Tip() (*Header, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.byHeight) == 0 {
		return nil, nil
	}
	copied := *s.byHeight[len(s.byHeight)-1]
	return &copied, nil
}
