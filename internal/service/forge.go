package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/repository"
	"worldforge/shared/models"

	"go.uber.org/zap"
)

// Race draft limits.
const (
	MinNameLength         = 3
	MinDescriptionLength  = 10
	MinTraitsLength       = 3
	MinLocationLength     = 3
	MinRacePopulation     = 100
	MaxRacePopulation     = 5000
	DefaultRacePopulation = 1000
	StartingRacePoints    = 100
	StatusEmerging        = "Emerging"
	noneText              = "None"
)

// RaceDraft is the user's description of a new race.
type RaceDraft struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	RacialTraits  string `json:"racialTraits"`
	SpecialTraits string `json:"specialTraits"`
	Location      string `json:"location"`
	Population    *int   `json:"population,omitempty"`
}

// NamingProfileGenerator produces a naming profile for a race name.
type NamingProfileGenerator interface {
	GenerateNamingProfile(ctx context.Context, raceName string) (*domain.NamingProfile, error)
}

// ForgeService creates worlds and adds races to them.
type ForgeService struct {
	repo     repository.WorldRepository
	latch    engine.Latch
	profiles NamingProfileGenerator
	worldMap *domain.WorldMap
	now      func() time.Time
	logger   *zap.Logger
}

// NewForgeService creates a ForgeService. profiles may be nil, in which case
// races are created without a naming profile.
func NewForgeService(
	repo repository.WorldRepository,
	latch engine.Latch,
	profiles NamingProfileGenerator,
	worldMap *domain.WorldMap,
	logger *zap.Logger,
) *ForgeService {
	return &ForgeService{
		repo:     repo,
		latch:    latch,
		profiles: profiles,
		worldMap: worldMap,
		now:      time.Now,
		logger:   logger.Named("ForgeService"),
	}
}

// CreateWorld stores a new, empty world at year 0.
func (s *ForgeService) CreateWorld(ctx context.Context, name string, era domain.Era, cataclysmPreparations string) (*domain.World, error) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) < MinNameLength {
		return nil, fmt.Errorf("%w: world name must be at least %d characters", models.ErrInvalidInput, MinNameLength)
	}
	if era == "" {
		era = domain.EraPrimal
	}
	if !era.Valid() {
		return nil, fmt.Errorf("%w: unknown era %q", models.ErrInvalidInput, era)
	}
	cataclysmPreparations = strings.TrimSpace(cataclysmPreparations)
	if cataclysmPreparations == "" {
		cataclysmPreparations = noneText
	}

	now := s.now().UTC()
	w := &domain.World{
		ID:                    domain.NewWorldID(),
		Name:                  name,
		Era:                   era,
		CurrentYear:           0,
		Races:                 []domain.Race{},
		SignificantEvents:     []string{fmt.Sprintf("The world of %s was forged in the %s.", name, era)},
		CataclysmPreparations: cataclysmPreparations,
		NarrativeLog: []domain.NarrativeEntry{{
			Year:    0,
			Type:    domain.NarrativeNarrative,
			Content: fmt.Sprintf("In the beginning, the world of %s was created, marking the start of the %s.", name, era),
		}},
		BoonDirectives: []domain.BoonDirective{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Save(ctx, w); err != nil {
		s.logger.Error("Failed to save new world", zap.String("name", name), zap.Error(err))
		return nil, fmt.Errorf("save new world: %w", err)
	}
	s.logger.Info("World forged", zap.String("worldID", w.ID.String()), zap.String("name", name), zap.String("era", string(era)))
	return w, nil
}

// AddRace validates draft and appends the resulting race to the world.
func (s *ForgeService) AddRace(ctx context.Context, worldID domain.WorldID, draft RaceDraft) (*domain.World, *domain.Race, error) {
	population, err := validateDraft(&draft)
	if err != nil {
		return nil, nil, err
	}
	log := s.logger.With(zap.String("worldID", worldID.String()), zap.String("race", draft.Name))

	// The model call happens before the world is locked.
	var profile *domain.NamingProfile
	if s.profiles != nil {
		profile, err = s.profiles.GenerateNamingProfile(ctx, draft.Name)
		if err != nil {
			log.Warn("Naming profile generation failed, race created without one", zap.Error(err))
			profile = nil
		}
	}

	var created domain.Race
	w, err := mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		for _, r := range w.Races {
			if strings.EqualFold(r.Name, draft.Name) {
				return fmt.Errorf("%w: race %q already exists", models.ErrAlreadyExists, draft.Name)
			}
		}

		taken := make(map[domain.TileID]bool)
		for _, r := range w.Races {
			for _, t := range r.OccupiedTiles {
				taken[t] = true
			}
		}
		occupied := []domain.TileID{}
		known := []domain.TileID{}
		if tile, ok := s.worldMap.FirstLandTile(taken); ok {
			occupied = append(occupied, tile)
			known = append(known, tile)
			known = append(known, s.worldMap.Neighbours(tile)...)
		} else {
			log.Warn("No free land tile left, race starts without territory")
		}

		created = domain.Race{
			ID:                domain.NewRaceID(),
			Name:              draft.Name,
			Population:        population,
			RacePoints:        StartingRacePoints,
			ActiveBoons:       []domain.BoonID{},
			Traits:            composeTraits(draft),
			Status:            StatusEmerging,
			Problems:          []domain.Problem{},
			NotableCharacters: []domain.NotableCharacter{},
			History:           []domain.HistoryEntry{},
			CultureLog:        []domain.LogEntry{},
			PoliticalLog:      []domain.LogEntry{},
			OccupiedTiles:     occupied,
			KnownTiles:        known,
			Technologies:      []string{},
			Settlement:        draft.Location,
			NamingProfile:     profile,
		}
		w.Races = append(w.Races, created)
		w.NarrativeLog = append(w.NarrativeLog, domain.NarrativeEntry{
			Year:    w.CurrentYear,
			Type:    domain.NarrativeNarrative,
			Content: fmt.Sprintf("The races of %s have been forged.", w.Name),
		})
		w.RecomputePopulation()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	log.Info("Race added", zap.String("raceID", created.ID.String()), zap.Int("population", population))
	return w, w.Race(created.ID), nil
}

func validateDraft(d *RaceDraft) (int, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.RacialTraits = strings.TrimSpace(d.RacialTraits)
	d.SpecialTraits = strings.TrimSpace(d.SpecialTraits)
	d.Location = strings.TrimSpace(d.Location)

	checks := []struct {
		field string
		value string
		min   int
	}{
		{"name", d.Name, MinNameLength},
		{"description", d.Description, MinDescriptionLength},
		{"racialTraits", d.RacialTraits, MinTraitsLength},
		{"location", d.Location, MinLocationLength},
	}
	for _, c := range checks {
		if utf8.RuneCountInString(c.value) < c.min {
			return 0, fmt.Errorf("%w: %s must be at least %d characters", models.ErrInvalidInput, c.field, c.min)
		}
	}

	population := DefaultRacePopulation
	if d.Population != nil {
		population = *d.Population
	}
	if population < MinRacePopulation || population > MaxRacePopulation {
		return 0, fmt.Errorf("%w: population must be between %d and %d", models.ErrInvalidInput, MinRacePopulation, MaxRacePopulation)
	}
	return population, nil
}

func composeTraits(d RaceDraft) string {
	special := d.SpecialTraits
	if special == "" {
		special = noneText
	}
	return fmt.Sprintf("Common traits: %s. Special traits: %s. They are from %s. %s",
		d.RacialTraits, special, d.Location, d.Description)
}
