package domain_test

import (
	"encoding/json"
	"testing"

	"worldforge/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBoonCatalog(t *testing.T) {
	catalog := domain.DefaultBoonCatalog()

	all := catalog.All()
	require.Len(t, all, 10)
	assert.Equal(t, domain.BoonID("possess_animal"), all[0].ID, "catalog keeps document order")

	oral, ok := catalog.Get("oral_tradition")
	require.True(t, ok)
	assert.Equal(t, 50, oral.Cost)
	assert.True(t, oral.Permanent())

	fertility, ok := catalog.Get("pop_boom_1")
	require.True(t, ok)
	assert.Equal(t, domain.DurationNextEra, fertility.Duration)
	assert.False(t, catalog.IsPermanent("pop_boom_1"))

	dreams, ok := catalog.Get("appear_in_dreams")
	require.True(t, ok)
	assert.Equal(t, domain.TargetCharacter, dreams.TargetType)
	assert.Equal(t, domain.DurationSingleEvent, dreams.Duration)

	assert.False(t, catalog.IsPermanent("no_such_boon"))
}

func TestParseBoonCatalog_Rejects(t *testing.T) {
	tests := map[string]string{
		"duplicate id":     "boons:\n  - {id: a, duration: Permanent}\n  - {id: a, duration: Permanent}\n",
		"unknown duration": "boons:\n  - {id: a, duration: Forever}\n",
		"missing id":       "boons:\n  - {name: x, duration: Permanent}\n",
		"negative cost":    "boons:\n  - {id: a, cost: -1, duration: Permanent}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := domain.ParseBoonCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestGenerateWorldMap(t *testing.T) {
	m := domain.GenerateWorldMap()
	require.Len(t, m.Tiles(), domain.MapSize*domain.MapSize)

	biomeAt := func(x, y int) domain.Biome {
		tile, ok := m.Tile(domain.TileIDAt(x, y))
		require.True(t, ok)
		return tile.Biome
	}
	assert.Equal(t, domain.BiomeOcean, biomeAt(0, 0))
	assert.Equal(t, domain.BiomeOcean, biomeAt(18, 10))
	assert.Equal(t, domain.BiomeMountains, biomeAt(6, 7))
	assert.Equal(t, domain.BiomeForest, biomeAt(10, 16))
	assert.Equal(t, domain.BiomePlains, biomeAt(10, 10))
}

func TestWorldMap_Neighbours(t *testing.T) {
	m := domain.GenerateWorldMap()

	assert.ElementsMatch(t,
		[]domain.TileID{"tile-5-4", "tile-5-6", "tile-4-5", "tile-6-5"},
		m.Neighbours("tile-5-5"))
	assert.ElementsMatch(t, []domain.TileID{"tile-0-1", "tile-1-0"}, m.Neighbours("tile-0-0"))
	assert.Empty(t, m.Neighbours("tile-99-99"))
	assert.Empty(t, m.Neighbours("bogus"))
}

func TestParseTileID(t *testing.T) {
	x, y, err := domain.ParseTileID("tile-12-3")
	require.NoError(t, err)
	assert.Equal(t, 12, x)
	assert.Equal(t, 3, y)

	for _, bad := range []domain.TileID{"", "tile-1", "tile-a-2", "cell-1-2"} {
		_, _, err := domain.ParseTileID(bad)
		assert.Error(t, err, "id %q", bad)
	}
}

func TestFirstLandTile(t *testing.T) {
	m := domain.GenerateWorldMap()
	first, ok := m.FirstLandTile(nil)
	require.True(t, ok)
	assert.Equal(t, domain.TileID("tile-10-10"), first)

	second, ok := m.FirstLandTile(map[domain.TileID]bool{first: true})
	require.True(t, ok)
	assert.NotEqual(t, first, second)
	tile, _ := m.Tile(second)
	assert.NotEqual(t, domain.BiomeOcean, tile.Biome)
}

func TestSeverity(t *testing.T) {
	assert.True(t, domain.SeverityLow.Rank() < domain.SeverityCatastrophic.Rank())
	assert.Equal(t, domain.SeverityCritical, domain.SeverityHigh.Escalate())
	assert.Equal(t, domain.SeverityCatastrophic, domain.SeverityCatastrophic.Escalate())

	var p domain.Problem
	err := json.Unmarshal([]byte(`{"id":"p1","title":"t","description":"d","severity":"Apocalyptic"}`), &p)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"id":"p1","title":"t","description":"d","severity":"High"}`), &p)
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityHigh, p.Severity)
}

func TestNotableCharacter_KillIsOneWay(t *testing.T) {
	c := domain.NotableCharacter{ID: "c1", Status: domain.StatusAlive, Age: 30}

	assert.True(t, c.Kill(12, &domain.DeathDetails{Reason: "fever"}))
	assert.Equal(t, domain.StatusDead, c.Status)
	require.NotNil(t, c.DeathYear)
	assert.Equal(t, 12, *c.DeathYear)

	assert.False(t, c.Kill(20, &domain.DeathDetails{Reason: "again"}))
	assert.Equal(t, 12, *c.DeathYear)
	assert.Equal(t, "fever", c.DeathDetails.Reason)
}

func TestWorld_CloneIsDeep(t *testing.T) {
	w := &domain.World{
		ID: "w1",
		Races: []domain.Race{{
			ID:                "r1",
			Population:        10,
			NotableCharacters: []domain.NotableCharacter{{ID: "c1", Status: domain.StatusAlive}},
		}},
	}
	clone, err := w.Clone()
	require.NoError(t, err)

	clone.Races[0].Population = 99
	clone.Races[0].NotableCharacters[0].Status = domain.StatusDead

	assert.Equal(t, 10, w.Races[0].Population)
	assert.Equal(t, domain.StatusAlive, w.Races[0].NotableCharacters[0].Status)
}

func TestWorld_Fingerprint(t *testing.T) {
	w := &domain.World{ID: "w1", Name: "Aerth", CurrentYear: 3}
	a, err := w.Fingerprint()
	require.NoError(t, err)

	clone, err := w.Clone()
	require.NoError(t, err)
	b, err := clone.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	clone.CurrentYear = 4
	c, err := clone.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestWorld_Helpers(t *testing.T) {
	w := &domain.World{
		Races: []domain.Race{
			{ID: "r1", Population: 100},
			{ID: "r2", Population: 250},
		},
		SignificantEvents: []string{"forged", "bring rain"},
		BoonDirectives: []domain.BoonDirective{
			{ID: "d1", RaceID: "r1"}, {ID: "d2", RaceID: "r2"}, {ID: "d3", RaceID: "r1"},
		},
	}
	w.RecomputePopulation()
	assert.Equal(t, 350, w.Population)
	assert.Equal(t, "bring rain", w.ChronicleEntry())
	assert.Len(t, w.DirectivesFor("r1"), 2)
	assert.Nil(t, w.Race("r3"))
}
