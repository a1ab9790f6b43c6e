package store

import (
	"context"
	"sync"

	"github.com/buff/report-engine/internal/model"
)

// MemoryStore implements Store with in-memory slices. Used for testing and
// development. The tables are fixed at construction, matching the read-only
// lifecycle of the real tables.
type MemoryStore struct {
	mu        sync.RWMutex
	txns      []model.Transaction
	positions []model.Position
	chains    []model.Chain
	shared    map[string][]byte
}

// NewMemoryStore creates an in-memory store over the given tables.
func NewMemoryStore(txns []model.Transaction, positions []model.Position, chains []model.Chain) *MemoryStore {
	return &MemoryStore{
		txns:      txns,
		positions: positions,
		chains:    chains,
		shared:    make(map[string][]byte),
	}
}

func (s *MemoryStore) Transactions(_ context.Context) ([]model.Transaction, error) {
	out := make([]model.Transaction, len(s.txns))
	copy(out, s.txns)
	return out, nil
}

func (s *MemoryStore) Positions(_ context.Context) ([]model.Position, error) {
	out := make([]model.Position, len(s.positions))
	copy(out, s.positions)
	return out, nil
}

func (s *MemoryStore) Chains(_ context.Context) ([]model.Chain, error) {
	out := make([]model.Chain, len(s.chains))
	copy(out, s.chains)
	return out, nil
}

func (s *MemoryStore) PutSharedSummary(_ context.Context, id string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(payload))
	copy(buf, payload)
	s.shared[id] = buf
	return nil
}

func (s *MemoryStore) GetSharedSummary(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.shared[id]
	if !ok {
		return nil, ErrNotFound
	}
	return payload, nil
}
