package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/schemas"
)

func ptr[T any](v T) *T { return &v }

// testWorld has two races: Riverfolk with two living characters, one dead
// one and two boons; Stonekin with nobody notable.
func testWorld() *domain.World {
	deathYear := 5
	w := &domain.World{
		ID:                "w1",
		Name:              "Aerth",
		Era:               domain.EraPrimal,
		CurrentYear:       20,
		SignificantEvents: []string{"The world of Aerth was forged in the Primal Era."},
		Races: []domain.Race{
			{
				ID:          "r1",
				Name:        "Riverfolk",
				Population:  1000,
				RacePoints:  100,
				ActiveBoons: []domain.BoonID{"oral_tradition", "pop_boom_1"},
				Problems: []domain.Problem{
					{ID: "p1", Title: "Floods", Description: "The river rises", Severity: domain.SeverityHigh},
				},
				NotableCharacters: []domain.NotableCharacter{
					{ID: "c1", RaceID: "r1", Name: "Ama", Status: domain.StatusAlive, Age: 30, PersonalLog: []domain.PersonalLogEntry{}},
					{ID: "c2", RaceID: "r1", Name: "Tobe", Status: domain.StatusAlive, Age: 18, PersonalLog: []domain.PersonalLogEntry{}},
					{
						ID: "c0", RaceID: "r1", Name: "Old Hen", Status: domain.StatusDead, Age: 70,
						DeathYear: &deathYear, DeathDetails: &domain.DeathDetails{Reason: "old age"},
					},
				},
				OccupiedTiles: []domain.TileID{"tile-10-10"},
				KnownTiles:    []domain.TileID{"tile-10-10", "tile-10-9", "tile-10-11", "tile-9-10", "tile-11-10"},
				Technologies:  []string{"fire"},
				Settlement:    "Reedhold",
				NamingProfile: &domain.NamingProfile{Phonemes: "a, m, t", Inspiration: "Bantu"},
			},
			{
				ID:            "r2",
				Name:          "Stonekin",
				Population:    300,
				RacePoints:    100,
				Problems:      []domain.Problem{},
				OccupiedTiles: []domain.TileID{"tile-10-11"},
				KnownTiles:    []domain.TileID{"tile-10-11"},
			},
		},
		BoonDirectives: []domain.BoonDirective{
			{ID: "appear_in_dreams_1", BoonID: "appear_in_dreams", RaceID: "r1", Targets: []domain.CharacterID{"c1"}, Content: "Go north"},
		},
	}
	w.RecomputePopulation()
	return w
}

func newMerger() *engine.Merger {
	return engine.NewMerger(domain.DefaultBoonCatalog(), domain.GenerateWorldMap(), zap.NewNop())
}

func advanceInput(t *testing.T, w *domain.World, years int) schemas.AdvanceInput {
	t.Helper()
	in := engine.BuildAdvanceInput(w, domain.GenerateWorldMap(), years)
	require.Len(t, in.Races, len(w.Races))
	return in
}

// repair applies the repair rules without contract validation.
func repair(in schemas.AdvanceInput, out *schemas.PartialOutput) (schemas.AdvanceOutput, engine.RepairReport, error) {
	return engine.NewRepairer(nil).Repair(in, out)
}

func repairAndMerge(t *testing.T, w *domain.World, years int, raw string) engine.MergeReport {
	t.Helper()
	out, err := schemas.DecodePartialOutput([]byte(raw))
	require.NoError(t, err)
	repaired, _, err := repair(advanceInput(t, w, years), out)
	require.NoError(t, err)
	return newMerger().Apply(w, years, repaired)
}
