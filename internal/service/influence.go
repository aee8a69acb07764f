package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/repository"
	"worldforge/shared/models"

	"go.uber.org/zap"
)

// PurchaseResult tells how a purchased boon took effect.
type PurchaseResult struct {
	World     *domain.World         `json:"world"`
	Activated bool                  `json:"activated"`
	Directive *domain.BoonDirective `json:"directive,omitempty"`
}

// InfluenceService applies the Creator's interventions: boons and chronicle
// entries.
type InfluenceService struct {
	repo    repository.WorldRepository
	latch   engine.Latch
	catalog *domain.BoonCatalog
	now     func() time.Time
	logger  *zap.Logger
}

// NewInfluenceService creates an InfluenceService.
func NewInfluenceService(repo repository.WorldRepository, latch engine.Latch, catalog *domain.BoonCatalog, logger *zap.Logger) *InfluenceService {
	return &InfluenceService{
		repo:    repo,
		latch:   latch,
		catalog: catalog,
		now:     time.Now,
		logger:  logger.Named("InfluenceService"),
	}
}

// PurchaseBoon spends the race's points on boonID. Self boons bought without
// content whose effect lasts beyond one event are activated directly; every
// other purchase queues a directive for the next advancement.
func (s *InfluenceService) PurchaseBoon(
	ctx context.Context,
	worldID domain.WorldID,
	raceID domain.RaceID,
	boonID domain.BoonID,
	targets []domain.CharacterID,
	content string,
) (*PurchaseResult, error) {
	boon, ok := s.catalog.Get(boonID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownBoon, boonID)
	}
	content = strings.TrimSpace(content)
	log := s.logger.With(
		zap.String("worldID", worldID.String()),
		zap.String("raceID", raceID.String()),
		zap.String("boonID", boonID.String()),
	)

	result := &PurchaseResult{}
	w, err := mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		race := w.Race(raceID)
		if race == nil {
			return fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
		}
		if race.RacePoints < boon.Cost {
			return fmt.Errorf("%w: %s costs %d, race has %d", models.ErrInsufficientPoints, boon.Name, boon.Cost, race.RacePoints)
		}
		for _, id := range targets {
			c := race.Character(id)
			if c == nil || !c.Alive() {
				return fmt.Errorf("%w: %s is not a living character of %s", models.ErrInvalidInput, id, race.Name)
			}
		}
		if boon.TargetType == domain.TargetCharacter && len(targets) == 0 {
			return fmt.Errorf("%w: %s needs a target character", models.ErrInvalidInput, boon.Name)
		}

		race.RacePoints -= boon.Cost
		if boon.TargetType == domain.TargetSelf && content == "" && boon.Duration != domain.DurationSingleEvent {
			if !race.HasBoon(boon.ID) {
				race.ActiveBoons = append(race.ActiveBoons, boon.ID)
			}
			result.Activated = true
			return nil
		}

		directive := domain.BoonDirective{
			ID:      domain.DirectiveID(string(boon.ID) + "_" + strconv.FormatInt(s.now().UnixNano(), 10)),
			BoonID:  boon.ID,
			RaceID:  race.ID,
			Targets: append([]domain.CharacterID{}, targets...),
			Content: content,
		}
		w.BoonDirectives = append(w.BoonDirectives, directive)
		result.Directive = &directive
		return nil
	})
	if err != nil {
		log.Info("Boon purchase rejected", zap.Error(err))
		return nil, err
	}
	result.World = w
	log.Info("Boon purchased", zap.Int("cost", boon.Cost), zap.Bool("activated", result.Activated))
	return result, nil
}

// ToggleBoon switches a boon on or off for a race without spending points.
func (s *InfluenceService) ToggleBoon(ctx context.Context, worldID domain.WorldID, raceID domain.RaceID, boonID domain.BoonID, active bool) (*domain.World, error) {
	if _, ok := s.catalog.Get(boonID); !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownBoon, boonID)
	}
	return mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		race := w.Race(raceID)
		if race == nil {
			return fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
		}
		has := race.HasBoon(boonID)
		switch {
		case active && !has:
			race.ActiveBoons = append(race.ActiveBoons, boonID)
		case !active && has:
			kept := race.ActiveBoons[:0]
			for _, b := range race.ActiveBoons {
				if b != boonID {
					kept = append(kept, b)
				}
			}
			race.ActiveBoons = kept
		}
		return nil
	})
}

// AddChronicleEntry records Creator guidance. The latest entry is what the
// next advancement is steered by.
func (s *InfluenceService) AddChronicleEntry(ctx context.Context, worldID domain.WorldID, text string) (*domain.World, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: chronicle entry is empty", models.ErrInvalidInput)
	}
	return mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		w.SignificantEvents = append(w.SignificantEvents, text)
		w.NarrativeLog = append(w.NarrativeLog, domain.NarrativeEntry{
			Year:    w.CurrentYear,
			Type:    domain.NarrativeUser,
			Content: text,
		})
		return nil
	})
}

// Boons returns the catalog in display order.
func (s *InfluenceService) Boons() []domain.Boon {
	return s.catalog.All()
}
