package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/messaging"
	"worldforge/internal/prompt"
	"worldforge/internal/repository"
	"worldforge/internal/schemas"
	"worldforge/shared/models"

	"go.uber.org/zap"
)

// AdvanceResult is what one successful advancement produced.
type AdvanceResult struct {
	World  *domain.World         `json:"world"`
	Output schemas.AdvanceOutput `json:"output"`
	Repair engine.RepairReport   `json:"repair"`
	Merge  engine.MergeReport    `json:"merge"`
	Usage  UsageInfo             `json:"usage"`
}

// AdvancementService runs the advance-time pipeline.
type AdvancementService struct {
	repo      repository.WorldRepository
	caller    *StructuredCaller
	latch     engine.Latch
	publisher messaging.EventPublisher
	validator *schemas.Validator
	repairer  *engine.Repairer
	merger    *engine.Merger
	worldMap  *domain.WorldMap
	now       func() time.Time
	logger    *zap.Logger
}

// NewAdvancementService wires the pipeline.
func NewAdvancementService(
	repo repository.WorldRepository,
	caller *StructuredCaller,
	latch engine.Latch,
	publisher messaging.EventPublisher,
	validator *schemas.Validator,
	catalog *domain.BoonCatalog,
	worldMap *domain.WorldMap,
	logger *zap.Logger,
) *AdvancementService {
	return &AdvancementService{
		repo:      repo,
		caller:    caller,
		latch:     latch,
		publisher: publisher,
		validator: validator,
		repairer:  engine.NewRepairer(validator),
		merger:    engine.NewMerger(catalog, worldMap, logger),
		worldMap:  worldMap,
		now:       time.Now,
		logger:    logger.Named("AdvancementService"),
	}
}

// AdvanceTime advances worldID by years (1 or 10). The stored world is only
// replaced when every step succeeds; any error leaves it untouched.
func (s *AdvancementService) AdvanceTime(ctx context.Context, worldID domain.WorldID, years int) (*AdvanceResult, error) {
	yearsLabel := strconv.Itoa(years)
	log := s.logger.With(zap.String("worldID", worldID.String()), zap.Int("years", years))

	if !schemas.ValidYears(years) {
		advancementsTotal.WithLabelValues(outcomeInvalidYears, yearsLabel).Inc()
		return nil, fmt.Errorf("%w: got %d", models.ErrInvalidYears, years)
	}

	release, err := s.latch.TryAcquire(ctx, worldID)
	if err != nil {
		if errors.Is(err, models.ErrAdvanceInProgress) {
			advancementsTotal.WithLabelValues(outcomeBusy, yearsLabel).Inc()
			log.Info("Advancement rejected, another one is in flight")
		} else {
			advancementsTotal.WithLabelValues(outcomeInternalError, yearsLabel).Inc()
			log.Error("Failed to acquire advancement latch", zap.Error(err))
		}
		return nil, err
	}
	defer release()

	start := time.Now()
	result, err := s.advanceLocked(ctx, worldID, years, log)
	if err != nil {
		advancementsTotal.WithLabelValues(outcomeFor(err), yearsLabel).Inc()
		return nil, err
	}
	advancementsTotal.WithLabelValues(outcomeSuccess, yearsLabel).Inc()
	advancementDuration.Observe(time.Since(start).Seconds())
	return result, nil
}

func (s *AdvancementService) advanceLocked(ctx context.Context, worldID domain.WorldID, years int, log *zap.Logger) (*AdvanceResult, error) {
	world, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, err
	}

	in := engine.BuildAdvanceInput(world, s.worldMap, years)
	system, user, err := prompt.BuildAdvancePrompt(in)
	if err != nil {
		log.Error("Failed to build advancement prompt", zap.Error(err))
		return nil, fmt.Errorf("build advancement prompt: %w", err)
	}

	raw, usage, err := s.caller.Call(ctx, worldID.String(), schemas.SchemaAdvance, system, user)
	if err != nil {
		log.Warn("Model call failed, nothing merged", zap.Error(err))
		return nil, err
	}

	partial, err := schemas.DecodePartialOutput(raw)
	if err != nil {
		log.Warn("Model output is not an advancement object", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
	}
	if s.validator != nil {
		if verr := s.validator.Validate(schemas.SchemaAdvance, raw); verr != nil {
			log.Warn("Model output violates the advancement contract, repairing", zap.Error(verr))
		}
	}

	out, repairReport, err := s.repairer.Repair(in, partial)
	if err != nil {
		return nil, err
	}
	if n := repairReport.DefaultedCount(); n > 0 || repairReport.YearRepaired {
		log.Warn("Advancement output repaired",
			zap.Int("racesDefaulted", n),
			zap.Bool("yearRepaired", repairReport.YearRepaired),
			zap.Int("unknownEntries", repairReport.UnknownEntries),
			zap.Int("duplicateEntries", repairReport.DuplicateEntries),
			zap.Int("discardedEntries", repairReport.DiscardedEntries),
		)
	}

	next, err := world.Clone()
	if err != nil {
		return nil, err
	}
	mergeReport := s.merger.Apply(next, years, out)
	next.UpdatedAt = s.now().UTC()

	if err := s.repo.Save(ctx, next); err != nil {
		log.Error("Failed to save advanced world", zap.Error(err))
		return nil, &storageError{op: "save world " + worldID.String(), err: err}
	}

	event := messaging.EraAdvancedEvent{
		WorldID:          worldID.String(),
		PreviousYear:     mergeReport.PreviousYear,
		NewYear:          mergeReport.NewYear,
		Years:            years,
		PopulationBefore: mergeReport.PopulationBefore,
		PopulationAfter:  mergeReport.PopulationAfter,
		RacesDefaulted:   repairReport.DefaultedCount(),
	}
	if err := s.publisher.PublishEraAdvanced(ctx, event); err != nil {
		log.Warn("Failed to publish era advanced event", zap.Error(err))
	}

	log.Info("World advanced",
		zap.Int("newYear", mergeReport.NewYear),
		zap.Int("populationAfter", mergeReport.PopulationAfter),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return &AdvanceResult{
		World:  next,
		Output: out,
		Repair: repairReport,
		Merge:  mergeReport,
		Usage:  usage,
	}, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return outcomeNotFound
	case errors.Is(err, models.ErrModelUnavailable):
		return outcomeModelUnavailable
	case errors.Is(err, models.ErrInvalidYears):
		return outcomeInvalidYears
	}
	if isStorageError(err) {
		return outcomeStorageError
	}
	return outcomeInternalError
}

// storageError marks a failed write of the advanced world.
type storageError struct {
	op  string
	err error
}

func (e *storageError) Error() string { return e.op + ": " + e.err.Error() }
func (e *storageError) Unwrap() error { return e.err }

func isStorageError(err error) bool {
	var se *storageError
	return errors.As(err, &se)
}
