package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/schemas"
)

func TestBuildRaceInputs(t *testing.T) {
	w := testWorld()
	w.Races[0].KnownTiles = append(w.Races[0].KnownTiles, "tile-404-404")
	inputs := engine.BuildRaceInputs(w, domain.GenerateWorldMap())
	require.Len(t, inputs, 2)

	river := inputs[0]
	assert.Equal(t, map[domain.BoonID]bool{"oral_tradition": true, "pop_boom_1": true}, river.Boons)
	assert.Equal(t, 2, river.LivingCharacterCount)
	require.Len(t, river.LivingCharacters, 2)
	assert.Equal(t, domain.CharacterID("c1"), river.LivingCharacters[0].ID)
	assert.Equal(t, []string{"Ama", "Tobe", "Old Hen"}, river.ExistingNames, "dead characters keep their names taken")
	assert.Equal(t, []schemas.DirectiveInput{
		{BoonID: "appear_in_dreams", Targets: []domain.CharacterID{"c1"}, Content: "Go north"},
	}, river.Directives)

	require.Len(t, river.KnownTiles, 5, "tiles that are not on the map are left out")
	var occupant string
	for _, kt := range river.KnownTiles {
		if kt.ID == "tile-10-11" {
			occupant = kt.Occupant
			assert.Equal(t, domain.BiomePlains, kt.Biome)
		}
		if kt.ID == "tile-10-10" {
			assert.Empty(t, kt.Occupant, "a race is not listed as occupant of its own tiles")
		}
	}
	assert.Equal(t, "Stonekin", occupant)

	stone := inputs[1]
	assert.Empty(t, stone.Boons)
	assert.NotNil(t, stone.ActiveBoons)
	assert.Equal(t, 0, stone.LivingCharacterCount)
	assert.Empty(t, stone.Directives)
	assert.NotNil(t, stone.Directives)
}

func TestBuildAdvanceInput(t *testing.T) {
	w := testWorld()
	w.SignificantEvents = append(w.SignificantEvents, "Bring rain")
	in := engine.BuildAdvanceInput(w, domain.GenerateWorldMap(), 10)

	assert.Equal(t, 10, in.Years)
	assert.Equal(t, 20, in.CurrentYear)
	assert.Equal(t, "Bring rain", in.ChronicleEntry)
	assert.Len(t, in.WorldMap, domain.MapSize*domain.MapSize)
	assert.Len(t, in.BoonDirectives, 1)
}
