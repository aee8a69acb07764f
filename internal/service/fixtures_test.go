package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldforge/internal/config"
	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/mocks"
	"worldforge/internal/repository"
	"worldforge/internal/schemas"
	"worldforge/internal/service"
)

// harness wires every service to an in-memory store, a local latch and a
// mocked model.
type harness struct {
	repo      repository.WorldRepository
	latch     *engine.LocalLatch
	ai        *mocks.MockAIClient
	publisher *mocks.MockEventPublisher
	caller    *service.StructuredCaller
	validator *schemas.Validator
	cfg       *config.Config

	advancement *service.AdvancementService
	forge       *service.ForgeService
	influence   *service.InfluenceService
	aux         *service.AuxService
	worlds      *service.WorldService
}

func testConfig() *config.Config {
	return &config.Config{
		AIModel:          "test-model",
		AITimeout:        time.Second,
		AITemperature:    0.7,
		AITopP:           1,
		AIMaxTokens:      1024,
		AIBaseRetryDelay: time.Millisecond,
		NameMaxAttempts:  3,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	validator, err := schemas.NewValidator()
	require.NoError(t, err)

	h := &harness{
		repo:      repository.NewMemoryWorldRepository(logger),
		latch:     engine.NewLocalLatch(),
		ai:        mocks.NewMockAIClient(t),
		publisher: mocks.NewMockEventPublisher(t),
		validator: validator,
		cfg:       testConfig(),
	}
	h.caller = service.NewStructuredCaller(h.ai, h.cfg, logger)
	catalog := domain.DefaultBoonCatalog()
	worldMap := domain.GenerateWorldMap()

	h.advancement = service.NewAdvancementService(h.repo, h.caller, h.latch, h.publisher, validator, catalog, worldMap, logger)
	h.aux = service.NewAuxService(h.repo, h.latch, h.caller, validator, h.cfg, logger)
	h.forge = service.NewForgeService(h.repo, h.latch, h.aux, worldMap, logger)
	h.influence = service.NewInfluenceService(h.repo, h.latch, catalog, logger)
	h.worlds = service.NewWorldService(h.repo, h.latch, logger)
	return h
}

// seedWorld stores a world at year 20 with one race, two living characters
// and one dead one.
func seedWorld(t *testing.T, repo repository.WorldRepository) *domain.World {
	t.Helper()
	deathYear := 5
	w := &domain.World{
		ID:                "w1",
		Name:              "Aerth",
		Era:               domain.EraPrimal,
		CurrentYear:       20,
		SignificantEvents: []string{"The world of Aerth was forged in the Primal Era."},
		NarrativeLog:      []domain.NarrativeEntry{},
		BoonDirectives:    []domain.BoonDirective{},
		Races: []domain.Race{{
			ID:          "r1",
			Name:        "Riverfolk",
			Population:  1000,
			RacePoints:  200,
			ActiveBoons: []domain.BoonID{},
			Problems:    []domain.Problem{},
			NotableCharacters: []domain.NotableCharacter{
				{ID: "c1", RaceID: "r1", Name: "Ama", Status: domain.StatusAlive, Age: 30, PersonalLog: []domain.PersonalLogEntry{}},
				{ID: "c2", RaceID: "r1", Name: "Tobe", Status: domain.StatusAlive, Age: 18, PersonalLog: []domain.PersonalLogEntry{}},
				{ID: "c0", RaceID: "r1", Name: "Old Hen", Status: domain.StatusDead, Age: 70, DeathYear: &deathYear},
			},
			OccupiedTiles: []domain.TileID{"tile-10-10"},
			KnownTiles:    []domain.TileID{"tile-10-10", "tile-10-9", "tile-10-11", "tile-9-10", "tile-11-10"},
			Technologies:  []string{},
			Settlement:    "Reedhold",
		}},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	w.RecomputePopulation()
	require.NoError(t, repo.Save(context.Background(), w))
	return w
}

func mustGet(t *testing.T, repo repository.WorldRepository, id domain.WorldID) *domain.World {
	t.Helper()
	w, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	return w
}
