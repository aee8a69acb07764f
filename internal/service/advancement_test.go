package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/messaging"
	"worldforge/internal/mocks"
	"worldforge/internal/schemas"
	"worldforge/internal/service"
	"worldforge/shared/models"
)

const advanceReply = "Here you go:\n```json\n" + `{
  "newYear": 30,
  "raceResults": [{
    "raceId": "r1",
    "narrative": "The Riverfolk dug canals.",
    "populationChange": {"born": 80, "died": 20, "newPopulation": 1060},
    "events": ["Canals dug"],
    "updatedProblems": [],
    "characterLogEntries": [{"characterId": "c1", "logEntry": "I led the diggers."}],
    "fallenNotableCharacters": [],
    "namedCommonerDeaths": [],
    "newAchievements": [],
    "updatedOccupiedTiles": ["tile-10-10"],
    "updatedKnownTiles": ["tile-10-10"],
    "newTechnologies": ["irrigation"]
  }]
}` + "\n```"

func TestAdvanceTime_Success(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, "w1", mock.Anything, mock.Anything,
		mock.MatchedBy(func(p service.GenerationParams) bool { return p.SchemaName == schemas.SchemaAdvance && p.Schema != nil }),
	).Return(advanceReply, service.UsageInfo{PromptTokens: 100, CompletionTokens: 50}, nil).Once()
	h.publisher.On("PublishEraAdvanced", mock.Anything, mock.MatchedBy(func(e messaging.EraAdvancedEvent) bool {
		return e.WorldID == "w1" && e.PreviousYear == 20 && e.NewYear == 30 && e.Years == 10 &&
			e.PopulationBefore == 1000 && e.PopulationAfter == 1060
	})).Return(nil).Once()

	res, err := h.advancement.AdvanceTime(context.Background(), "w1", 10)
	require.NoError(t, err)

	assert.Equal(t, 30, res.World.CurrentYear)
	assert.Equal(t, 30, res.Output.NewYear)
	assert.Equal(t, 0, res.Repair.DefaultedCount())
	assert.Equal(t, 100, res.Usage.PromptTokens)

	stored := mustGet(t, h.repo, "w1")
	assert.Equal(t, 30, stored.CurrentYear)
	assert.Equal(t, 1060, stored.Population)
	race := stored.Race("r1")
	require.NotNil(t, race)
	require.Len(t, race.History, 1)
	assert.Equal(t, 30, race.History[0].Year)
	assert.Contains(t, race.Technologies, "irrigation")
	assert.True(t, stored.UpdatedAt.After(stored.CreatedAt))

	h.ai.AssertExpectations(t)
	h.publisher.AssertExpectations(t)
}

func TestAdvanceTime_MissingRaceIsDefaulted(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(`{"newYear": 21, "raceResults": []}`, service.UsageInfo{}, nil).Once()
	h.publisher.On("PublishEraAdvanced", mock.Anything, mock.MatchedBy(func(e messaging.EraAdvancedEvent) bool {
		return e.RacesDefaulted == 1
	})).Return(nil).Once()

	res, err := h.advancement.AdvanceTime(context.Background(), "w1", 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Repair.DefaultedCount())

	stored := mustGet(t, h.repo, "w1")
	assert.Equal(t, 21, stored.CurrentYear)
	assert.Equal(t, 1000, stored.Population)
	assert.Len(t, stored.Race("r1").History, 1)
}

func TestAdvanceTime_InvalidYears(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	for _, years := range []int{0, 2, 5, 100, -1} {
		_, err := h.advancement.AdvanceTime(context.Background(), "w1", years)
		assert.ErrorIs(t, err, models.ErrInvalidYears, "years=%d", years)
	}
	h.ai.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceTime_ModelFailureLeavesWorldUntouched(t *testing.T) {
	h := newHarness(t)
	before := seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.New("connection reset")).Once()

	_, err := h.advancement.AdvanceTime(context.Background(), "w1", 10)
	require.ErrorIs(t, err, models.ErrModelUnavailable)

	stored := mustGet(t, h.repo, "w1")
	assert.Equal(t, before.CurrentYear, stored.CurrentYear)
	assert.Empty(t, stored.Race("r1").History)
	h.publisher.AssertNotCalled(t, "PublishEraAdvanced", mock.Anything, mock.Anything)
}

func TestAdvanceTime_NonJSONReplyIsModelUnavailable(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("I cannot help with that.", service.UsageInfo{}, nil).Once()

	_, err := h.advancement.AdvanceTime(context.Background(), "w1", 1)
	require.ErrorIs(t, err, models.ErrModelUnavailable)
	assert.Equal(t, 20, mustGet(t, h.repo, "w1").CurrentYear)
}

func TestAdvanceTime_ConcurrentTriggerIsRejected(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	release, err := h.latch.TryAcquire(context.Background(), "w1")
	require.NoError(t, err)
	defer release()

	_, err = h.advancement.AdvanceTime(context.Background(), "w1", 1)
	require.ErrorIs(t, err, models.ErrAdvanceInProgress)
	h.ai.AssertNotCalled(t, "GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdvanceTime_UnknownWorld(t *testing.T) {
	h := newHarness(t)
	_, err := h.advancement.AdvanceTime(context.Background(), "missing", 1)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestAdvanceTime_PublishFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(advanceReply, service.UsageInfo{}, nil).Once()
	h.publisher.On("PublishEraAdvanced", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	res, err := h.advancement.AdvanceTime(context.Background(), "w1", 10)
	require.NoError(t, err)
	assert.Equal(t, 30, res.World.CurrentYear)
	assert.Equal(t, 30, mustGet(t, h.repo, "w1").CurrentYear)
}

func TestAdvanceTime_SaveFailureIsPropagated(t *testing.T) {
	h := newHarness(t)
	world := seedWorld(t, h.repo)

	repo := mocks.NewMockWorldRepository(t)
	repo.On("Get", mock.Anything, domain.WorldID("w1")).Return(world, nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()
	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(advanceReply, service.UsageInfo{}, nil).Once()

	svc := service.NewAdvancementService(repo, h.caller, engine.NewLocalLatch(), h.publisher, h.validator,
		domain.DefaultBoonCatalog(), domain.GenerateWorldMap(), zap.NewNop())
	_, err := svc.AdvanceTime(context.Background(), "w1", 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 20, world.CurrentYear, "the loaded world must not be mutated")
	h.publisher.AssertNotCalled(t, "PublishEraAdvanced", mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestAdvanceTime_LatchIsReleased(t *testing.T) {
	h := newHarness(t)
	seedWorld(t, h.repo)

	h.ai.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", service.UsageInfo{}, errors.New("timeout")).Once()
	_, err := h.advancement.AdvanceTime(context.Background(), "w1", 1)
	require.Error(t, err)

	release, err := h.latch.TryAcquire(context.Background(), "w1")
	require.NoError(t, err)
	release()
}
