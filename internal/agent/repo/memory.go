package repo

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SalvadorCordova96/ProJect-Medical/internal/agent/model"
)

// MemoryCheckpointRepository is the degraded fallback used when Redis is
// unavailable at startup: the pipeline keeps working, but checkpoints do not
// survive a restart. Snapshots are stored as JSON so load always hands back
// an independent copy, matching the durable implementation.
type MemoryCheckpointRepository struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryCheckpointRepository() *MemoryCheckpointRepository {
	return &MemoryCheckpointRepository{items: make(map[string][]byte)}
}

func (r *MemoryCheckpointRepository) Load(_ context.Context, threadID string) (*model.AgentState, error) {
	r.mu.RLock()
	raw, ok := r.items[threadID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	var state model.AgentState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *MemoryCheckpointRepository) Save(_ context.Context, threadID string, state *model.AgentState) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.items[threadID] = b
	r.mu.Unlock()
	return nil
}

var _ model.CheckpointRepository = (*MemoryCheckpointRepository)(nil)
