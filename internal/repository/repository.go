package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"worldforge/internal/domain"
)

// WorldRepository stores World aggregates as whole blobs keyed by id.
type WorldRepository interface {
	// Get returns the stored world or models.ErrNotFound.
	Get(ctx context.Context, id domain.WorldID) (*domain.World, error)
	// Save replaces the whole aggregate.
	Save(ctx context.Context, world *domain.World) error
	// Delete removes the world or returns models.ErrNotFound.
	Delete(ctx context.Context, id domain.WorldID) error
	// List returns every world, most recently updated first.
	List(ctx context.Context) ([]*domain.World, error)
}

func encodeWorld(w *domain.World) ([]byte, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("encode world %s: %w", w.ID, err)
	}
	return data, nil
}

func decodeWorld(data []byte) (*domain.World, error) {
	var w domain.World
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode world: %w", err)
	}
	return &w, nil
}

// sortWorlds orders worlds by UpdatedAt descending, then by id.
func sortWorlds(worlds []*domain.World) {
	sort.SliceStable(worlds, func(i, j int) bool {
		if !worlds[i].UpdatedAt.Equal(worlds[j].UpdatedAt) {
			return worlds[i].UpdatedAt.After(worlds[j].UpdatedAt)
		}
		return worlds[i].ID < worlds[j].ID
	})
}
