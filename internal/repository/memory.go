package repository

import (
	"context"
	"fmt"
	"sync"

	"worldforge/internal/domain"
	"worldforge/shared/models"

	"go.uber.org/zap"
)

var _ WorldRepository = (*memoryWorldRepository)(nil)

// memoryWorldRepository keeps encoded worlds in a map, so callers never share
// memory with the store.
type memoryWorldRepository struct {
	mu     sync.RWMutex
	worlds map[domain.WorldID][]byte
	logger *zap.Logger
}

// NewMemoryWorldRepository creates an in-process store.
func NewMemoryWorldRepository(logger *zap.Logger) WorldRepository {
	return &memoryWorldRepository{
		worlds: make(map[domain.WorldID][]byte),
		logger: logger.Named("MemoryWorldRepo"),
	}
}

func (r *memoryWorldRepository) Get(_ context.Context, id domain.WorldID) (*domain.World, error) {
	r.mu.RLock()
	data, ok := r.worlds[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("world %s: %w", id, models.ErrNotFound)
	}
	return decodeWorld(data)
}

func (r *memoryWorldRepository) Save(_ context.Context, world *domain.World) error {
	data, err := encodeWorld(world)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.worlds[world.ID] = data
	r.mu.Unlock()
	r.logger.Debug("World saved", zap.String("worldID", world.ID.String()), zap.Int("bytes", len(data)))
	return nil
}

func (r *memoryWorldRepository) Delete(_ context.Context, id domain.WorldID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.worlds[id]; !ok {
		return fmt.Errorf("world %s: %w", id, models.ErrNotFound)
	}
	delete(r.worlds, id)
	return nil
}

func (r *memoryWorldRepository) List(_ context.Context) ([]*domain.World, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	worlds := make([]*domain.World, 0, len(r.worlds))
	for _, data := range r.worlds {
		w, err := decodeWorld(data)
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, w)
	}
	sortWorlds(worlds)
	return worlds, nil
}
