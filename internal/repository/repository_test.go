package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldforge/internal/domain"
	"worldforge/internal/repository"
	"worldforge/shared/models"
)

func sampleWorld(id domain.WorldID, updated time.Time) *domain.World {
	deathYear := 3
	w := &domain.World{
		ID:                    id,
		Name:                  "Aerth " + string(id),
		Era:                   domain.EraTribal,
		CurrentYear:           11,
		SignificantEvents:     []string{"The world was forged in the Tribal Era."},
		CataclysmPreparations: "Dig canals",
		NarrativeLog:          []domain.NarrativeEntry{{Year: 11, Type: domain.NarrativeNarrative, Content: "Rain."}},
		BoonDirectives:        []domain.BoonDirective{},
		CreatedAt:             time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:             updated,
		Races: []domain.Race{{
			ID:          "r1",
			Name:        "Riverfolk",
			Population:  420,
			RacePoints:  50,
			ActiveBoons: []domain.BoonID{"oral_tradition"},
			Problems:    []domain.Problem{{ID: "p1", Title: "Floods", Severity: domain.SeverityMedium}},
			NotableCharacters: []domain.NotableCharacter{
				{ID: "c1", RaceID: "r1", Name: "Ama", Status: domain.StatusAlive, Age: 31, Ambition: domain.AmbitionKnowledge},
				{ID: "c2", RaceID: "r1", Name: "Hen", Status: domain.StatusDead, DeathYear: &deathYear, DeathDetails: &domain.DeathDetails{Reason: "flood"}},
			},
			History:       []domain.HistoryEntry{{Year: 11, Summary: "Rain.", PopulationChange: domain.PopulationChange{Born: 20, NewPopulation: 420}, Events: []string{"rain"}}},
			OccupiedTiles: []domain.TileID{"tile-10-10"},
			KnownTiles:    []domain.TileID{"tile-10-10", "tile-10-11"},
			Technologies:  []string{"fire"},
			NamingProfile: &domain.NamingProfile{Phonemes: "a, m"},
		}},
	}
	w.RecomputePopulation()
	return w
}

func openSQLite(t *testing.T) repository.WorldRepository {
	t.Helper()
	repo, err := repository.OpenSQLiteWorldRepository(filepath.Join(t.TempDir(), "worlds.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestWorldRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) repository.WorldRepository{
		"memory": func(*testing.T) repository.WorldRepository { return repository.NewMemoryWorldRepository(zap.NewNop()) },
		"sqlite": openSQLite,
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			runRepositoryContract(t, open(t))
		})
	}
}

func runRepositoryContract(t *testing.T, repo repository.WorldRepository) {
	ctx := context.Background()
	older := sampleWorld("w1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	newer := sampleWorld("w2", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	_, err := repo.Get(ctx, "w1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	got, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	if diff := cmp.Diff(older, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	got.Races[0].Population = 1
	again, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 420, again.Races[0].Population, "callers never share memory with the store")

	older.CurrentYear = 12
	require.NoError(t, repo.Save(ctx, older), "save replaces the aggregate")
	got, err = repo.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, 12, got.CurrentYear)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, domain.WorldID("w2"), list[0].ID, "most recently updated first")

	require.NoError(t, repo.Delete(ctx, "w1"))
	assert.ErrorIs(t, repo.Delete(ctx, "w1"), models.ErrNotFound)
	_, err = repo.Get(ctx, "w1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSQLiteWorldRepository_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "worlds.db")

	repo, err := repository.OpenSQLiteWorldRepository(path, zap.NewNop())
	require.NoError(t, err)
	w := sampleWorld("w1", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, w))
	require.NoError(t, repo.Close())

	repo, err = repository.OpenSQLiteWorldRepository(path, zap.NewNop())
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.Get(ctx, "w1")
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(w, got))
}
