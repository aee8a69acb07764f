package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
	"worldforge/internal/service"
	"worldforge/shared/models"
)

func TestCreateWorld(t *testing.T) {
	h := newHarness(t)

	w, err := h.forge.CreateWorld(context.Background(), "  Aerth ", "", "")
	require.NoError(t, err)

	assert.NotEmpty(t, w.ID)
	assert.Equal(t, "Aerth", w.Name)
	assert.Equal(t, domain.EraPrimal, w.Era)
	assert.Equal(t, 0, w.CurrentYear)
	assert.Equal(t, "None", w.CataclysmPreparations)
	assert.Equal(t, []string{"The world of Aerth was forged in the Primal Era."}, w.SignificantEvents)
	require.Len(t, w.NarrativeLog, 1)
	assert.Equal(t, "In the beginning, the world of Aerth was created, marking the start of the Primal Era.", w.NarrativeLog[0].Content)

	stored := mustGet(t, h.repo, w.ID)
	assert.Equal(t, w.Name, stored.Name)
}

func TestCreateWorld_Validation(t *testing.T) {
	h := newHarness(t)

	_, err := h.forge.CreateWorld(context.Background(), "Ae", domain.EraPrimal, "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = h.forge.CreateWorld(context.Background(), "Aerth", domain.Era("Space Age"), "")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func validDraft() service.RaceDraft {
	return service.RaceDraft{
		Name:          "Riverfolk",
		Description:   "Reed weavers of the great delta",
		RacialTraits:  "patient, tall",
		SpecialTraits: "",
		Location:      "The Delta",
	}
}

func TestAddRace(t *testing.T) {
	h := newHarness(t)
	w, err := h.forge.CreateWorld(context.Background(), "Aerth", domain.EraTribal, "Dikes")
	require.NoError(t, err)

	h.ai.On("GenerateText", mock.Anything, "Riverfolk", mock.Anything, mock.Anything,
		mock.MatchedBy(func(p service.GenerationParams) bool { return p.SchemaName == schemas.SchemaNamingProfile }),
	).Return(`{"phonemes": "r, v, l", "inspiration": "Finnish", "languageStructure": "CVC"}`, service.UsageInfo{}, nil).Once()

	updated, race, err := h.forge.AddRace(context.Background(), w.ID, validDraft())
	require.NoError(t, err)
	require.NotNil(t, race)

	assert.Equal(t, 1000, race.Population)
	assert.Equal(t, 100, race.RacePoints)
	assert.Equal(t, "Emerging", race.Status)
	assert.Equal(t, "The Delta", race.Settlement)
	assert.Equal(t, "Common traits: patient, tall. Special traits: None. They are from The Delta. Reed weavers of the great delta", race.Traits)
	require.NotNil(t, race.NamingProfile)
	assert.Equal(t, "Finnish", race.NamingProfile.Inspiration)

	require.Len(t, race.OccupiedTiles, 1)
	assert.Contains(t, race.KnownTiles, race.OccupiedTiles[0])
	assert.Greater(t, len(race.KnownTiles), 1)

	assert.Equal(t, 1000, updated.Population)
	assert.Equal(t, "The races of Aerth have been forged.", updated.NarrativeLog[len(updated.NarrativeLog)-1].Content)
	assert.Len(t, mustGet(t, h.repo, w.ID).Races, 1)
}

func TestAddRace_SecondRaceGetsAnotherTile(t *testing.T) {
	h := newHarness(t)
	w, err := h.forge.CreateWorld(context.Background(), "Aerth", "", "")
	require.NoError(t, err)
	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.New("model offline"))

	_, first, err := h.forge.AddRace(context.Background(), w.ID, validDraft())
	require.NoError(t, err)
	assert.Nil(t, first.NamingProfile, "profile failure is not fatal")

	draft := validDraft()
	draft.Name = "Stonekin"
	pop := 250
	draft.Population = &pop
	updated, second, err := h.forge.AddRace(context.Background(), w.ID, draft)
	require.NoError(t, err)

	assert.NotEqual(t, first.OccupiedTiles[0], second.OccupiedTiles[0])
	assert.Equal(t, 1250, updated.Population)
}

func TestAddRace_Validation(t *testing.T) {
	h := newHarness(t)
	w, err := h.forge.CreateWorld(context.Background(), "Aerth", "", "")
	require.NoError(t, err)

	tooMany, tooFew := 5001, 99
	cases := map[string]func(d *service.RaceDraft){
		"short name":        func(d *service.RaceDraft) { d.Name = "Ri" },
		"short description": func(d *service.RaceDraft) { d.Description = "tiny" },
		"short traits":      func(d *service.RaceDraft) { d.RacialTraits = "ok" },
		"short location":    func(d *service.RaceDraft) { d.Location = " X " },
		"population high":   func(d *service.RaceDraft) { d.Population = &tooMany },
		"population low":    func(d *service.RaceDraft) { d.Population = &tooFew },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := validDraft()
			mutate(&d)
			_, _, err := h.forge.AddRace(context.Background(), w.ID, d)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}
	h.ai.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAddRace_DuplicateName(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)
	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"phonemes": "a", "inspiration": "b", "languageStructure": "c"}`, service.UsageInfo{}, nil)

	d := validDraft()
	d.Name = "riverfolk"
	_, _, err := h.forge.AddRace(context.Background(), "w1", d)
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}
