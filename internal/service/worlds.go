package service

import (
	"context"
	"fmt"
	"time"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/repository"

	"go.uber.org/zap"
)

// WorldService serves reads, deletion and the export/import round trip.
type WorldService struct {
	repo   repository.WorldRepository
	latch  engine.Latch
	now    func() time.Time
	logger *zap.Logger
}

// NewWorldService creates a WorldService.
func NewWorldService(repo repository.WorldRepository, latch engine.Latch, logger *zap.Logger) *WorldService {
	return &WorldService{
		repo:   repo,
		latch:  latch,
		now:    time.Now,
		logger: logger.Named("WorldService"),
	}
}

func (s *WorldService) GetWorld(ctx context.Context, id domain.WorldID) (*domain.World, error) {
	return s.repo.Get(ctx, id)
}

func (s *WorldService) ListWorlds(ctx context.Context) ([]*domain.World, error) {
	return s.repo.List(ctx)
}

// DeleteWorld removes a world. It is refused while an advancement holds the
// world's latch.
func (s *WorldService) DeleteWorld(ctx context.Context, id domain.WorldID) error {
	release, err := s.latch.TryAcquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("World deleted", zap.String("worldID", id.String()))
	return nil
}

// ExportWorld returns the versioned export document of a world.
func (s *WorldService) ExportWorld(ctx context.Context, id domain.WorldID) ([]byte, error) {
	w, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return repository.ExportWorld(w)
}

// ImportWorld validates and stores an exported world, replacing any world
// with the same id.
func (s *WorldService) ImportWorld(ctx context.Context, data []byte) (*domain.World, error) {
	w, err := repository.ImportWorld(data)
	if err != nil {
		return nil, err
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = s.now().UTC()
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = w.CreatedAt
	}

	release, err := s.latch.TryAcquire(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.repo.Save(ctx, w); err != nil {
		return nil, fmt.Errorf("save imported world %s: %w", w.ID, err)
	}
	s.logger.Info("World imported",
		zap.String("worldID", w.ID.String()),
		zap.Int("races", len(w.Races)),
		zap.Int("currentYear", w.CurrentYear),
	)
	return w, nil
}

// mutateWorld loads a world under its latch, applies fn to a copy and saves
// the copy when fn succeeds. Nothing is stored when fn returns an error.
func mutateWorld(
	ctx context.Context,
	repo repository.WorldRepository,
	latch engine.Latch,
	now func() time.Time,
	id domain.WorldID,
	fn func(w *domain.World) error,
) (*domain.World, error) {
	release, err := latch.TryAcquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := current.Clone()
	if err != nil {
		return nil, err
	}
	if err := fn(next); err != nil {
		return nil, err
	}
	next.UpdatedAt = now().UTC()
	if err := repo.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save world %s: %w", id, err)
	}
	return next, nil
}
