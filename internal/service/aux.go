package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/prompt"
	"worldforge/internal/repository"
	"worldforge/internal/schemas"
	"worldforge/shared/models"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// DefaultDeathReason is used when a deaths request gives no reason.
const DefaultDeathReason = "Old age and natural causes"

const (
	flowName      = "name"
	flowProfile   = "naming_profile"
	flowCataclysm = "cataclysm"
	flowDeaths    = "deaths"
)

// CataclysmResult is the outcome of an applied cataclysm.
type CataclysmResult struct {
	World          *domain.World           `json:"world"`
	Output         schemas.CataclysmOutput `json:"output"`
	PopulationLost int                     `json:"populationLost"`
	Narrative      string                  `json:"narrative"`
}

// DeathsResult is the outcome of an applied deaths event.
type DeathsResult struct {
	World  *domain.World        `json:"world"`
	Output schemas.DeathsOutput `json:"output"`
	Died   []domain.CharacterID `json:"died"`
}

// AuxService runs the single-purpose model flows around the advancement
// engine: names, naming profiles, cataclysms and deaths.
type AuxService struct {
	repo        repository.WorldRepository
	latch       engine.Latch
	caller      *StructuredCaller
	validator   *schemas.Validator
	maxAttempts int
	baseDelay   time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

var _ NamingProfileGenerator = (*AuxService)(nil)

// NewAuxService creates an AuxService.
func NewAuxService(
	repo repository.WorldRepository,
	latch engine.Latch,
	caller *StructuredCaller,
	validator *schemas.Validator,
	cfg *config.Config,
	logger *zap.Logger,
) *AuxService {
	attempts := cfg.NameMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &AuxService{
		repo:        repo,
		latch:       latch,
		caller:      caller,
		validator:   validator,
		maxAttempts: attempts,
		baseDelay:   cfg.AIBaseRetryDelay,
		now:         time.Now,
		logger:      logger.Named("AuxService"),
	}
}

// call runs one structured model call and decodes the reply into out.
func (s *AuxService) call(ctx context.Context, tag, schemaName, system, user string, out interface{}) error {
	raw, _, err := s.caller.Call(ctx, tag, schemaName, system, user)
	if err != nil {
		return err
	}
	if s.validator != nil {
		if verr := s.validator.Validate(schemaName, raw); verr != nil {
			s.logger.Warn("Model output violates contract, clamping", zap.String("schema", schemaName), zap.Error(verr))
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: %w: %v", schemaName, models.ErrModelUnavailable, err)
	}
	return nil
}

func (s *AuxService) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0.5
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.maxAttempts-1)), ctx)
}

// GenerateCharacterName asks the model for a name absent from
// in.ExistingNames. A case-insensitive repeat counts as a failed attempt.
func (s *AuxService) GenerateCharacterName(ctx context.Context, in schemas.CharacterNameInput) (*schemas.CharacterNameOutput, error) {
	system, user, err := prompt.BuildCharacterNamePrompt(in)
	if err != nil {
		return nil, fmt.Errorf("build name prompt: %w", err)
	}
	existing := make(map[string]bool, len(in.ExistingNames))
	for _, n := range in.ExistingNames {
		existing[strings.ToLower(strings.TrimSpace(n))] = true
	}
	log := s.logger.With(zap.String("race", in.RaceName))

	var result schemas.CharacterNameOutput
	attempt := 0
	var lastErr error
	op := func() error {
		attempt++
		var out schemas.CharacterNameOutput
		if err := s.call(ctx, in.RaceName, schemas.SchemaCharacterName, system, user, &out); err != nil {
			nameAttemptsTotal.WithLabelValues("model_error").Inc()
			log.Warn("Name attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			return err
		}
		out.Name = strings.TrimSpace(out.Name)
		if out.Name == "" || existing[strings.ToLower(out.Name)] {
			nameAttemptsTotal.WithLabelValues("collision").Inc()
			log.Info("Generated name collides, retrying", zap.Int("attempt", attempt), zap.String("name", out.Name))
			lastErr = fmt.Errorf("%w: %q is taken", models.ErrNameCollision, out.Name)
			return lastErr
		}
		nameAttemptsTotal.WithLabelValues("accepted").Inc()
		result = out
		return nil
	}

	if err := backoff.Retry(op, s.newBackOff(ctx)); err != nil {
		auxFlowsTotal.WithLabelValues(flowName, "failed").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil && lastErr == nil {
			return nil, ctxErr
		}
		if errors.Is(lastErr, models.ErrNameCollision) {
			return nil, fmt.Errorf("%w after %d attempts", models.ErrNameCollision, attempt)
		}
		return nil, lastErr
	}
	auxFlowsTotal.WithLabelValues(flowName, outcomeSuccess).Inc()
	return &result, nil
}

// NameCharacter generates a new name for a race, avoiding every name it has
// ever used.
func (s *AuxService) NameCharacter(ctx context.Context, worldID domain.WorldID, raceID domain.RaceID, nameContext string) (*schemas.CharacterNameOutput, error) {
	w, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, err
	}
	race := w.Race(raceID)
	if race == nil {
		return nil, fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
	}
	return s.GenerateCharacterName(ctx, schemas.CharacterNameInput{
		RaceName:      race.Name,
		NamingProfile: race.NamingProfile,
		ExistingNames: race.CharacterNames(),
		Context:       strings.TrimSpace(nameContext),
	})
}

// GenerateNamingProfile asks the model for a race's linguistic profile.
func (s *AuxService) GenerateNamingProfile(ctx context.Context, raceName string) (*domain.NamingProfile, error) {
	system, user, err := prompt.BuildNamingProfilePrompt(schemas.NamingProfileInput{RaceName: raceName})
	if err != nil {
		return nil, fmt.Errorf("build naming profile prompt: %w", err)
	}
	var out domain.NamingProfile
	if err := s.call(ctx, raceName, schemas.SchemaNamingProfile, system, user, &out); err != nil {
		auxFlowsTotal.WithLabelValues(flowProfile, "failed").Inc()
		return nil, err
	}
	auxFlowsTotal.WithLabelValues(flowProfile, outcomeSuccess).Inc()
	return &out, nil
}

// SimulateCataclysm strikes one race with a disaster and applies the outcome:
// the race's population is multiplied by the survival rate.
func (s *AuxService) SimulateCataclysm(
	ctx context.Context,
	worldID domain.WorldID,
	raceID domain.RaceID,
	cataclysm schemas.CataclysmType,
	preparationLevel int,
) (*CataclysmResult, error) {
	if !cataclysm.Valid() {
		return nil, fmt.Errorf("%w: unknown cataclysm type %q", models.ErrInvalidInput, cataclysm)
	}
	if preparationLevel < schemas.MinPreparationLevel || preparationLevel > schemas.MaxPreparationLevel {
		return nil, fmt.Errorf("%w: preparation level must be between %d and %d",
			models.ErrInvalidInput, schemas.MinPreparationLevel, schemas.MaxPreparationLevel)
	}

	w, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, err
	}
	race := w.Race(raceID)
	if race == nil {
		return nil, fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
	}

	system, user, err := prompt.BuildCataclysmPrompt(schemas.CataclysmInput{
		WorldName:        w.Name,
		RaceName:         race.Name,
		CataclysmType:    cataclysm,
		PreparationLevel: preparationLevel,
		Preparations:     w.CataclysmPreparations,
	})
	if err != nil {
		return nil, fmt.Errorf("build cataclysm prompt: %w", err)
	}
	var out schemas.CataclysmOutput
	if err := s.call(ctx, worldID.String(), schemas.SchemaCataclysm, system, user, &out); err != nil {
		auxFlowsTotal.WithLabelValues(flowCataclysm, "failed").Inc()
		return nil, err
	}
	out.RaceSurvivalRate = clampUnit(out.RaceSurvivalRate)
	out.InfrastructureDamage = clampUnit(out.InfrastructureDamage)

	result := &CataclysmResult{Output: out}
	updated, err := mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		race := w.Race(raceID)
		if race == nil {
			return fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
		}
		survivors := int(math.Floor(float64(race.Population) * out.RaceSurvivalRate))
		result.PopulationLost = race.Population - survivors
		race.Population = survivors
		result.Narrative = fmt.Sprintf("%s %s The %s people suffered greatly, with a survival rate of only %d%%. Infrastructure damage was estimated at %d%%.",
			out.EventDescription, out.OutcomeDescription, race.Name,
			int(math.Round(out.RaceSurvivalRate*100)), int(math.Round(out.InfrastructureDamage*100)))
		w.NarrativeLog = append(w.NarrativeLog, domain.NarrativeEntry{
			Year:    w.CurrentYear,
			Type:    domain.NarrativeCataclysm,
			Content: result.Narrative,
		})
		w.RecomputePopulation()
		return nil
	})
	if err != nil {
		auxFlowsTotal.WithLabelValues(flowCataclysm, "failed").Inc()
		return nil, err
	}
	auxFlowsTotal.WithLabelValues(flowCataclysm, outcomeSuccess).Inc()
	s.logger.Info("Cataclysm applied",
		zap.String("worldID", worldID.String()),
		zap.String("raceID", raceID.String()),
		zap.String("type", string(cataclysm)),
		zap.Int("populationLost", result.PopulationLost),
	)
	result.World = updated
	return result, nil
}

// SimulateDeaths kills the given living characters of a race, or all of
// them when characterIDs is empty, and subtracts the commoner toll.
func (s *AuxService) SimulateDeaths(
	ctx context.Context,
	worldID domain.WorldID,
	raceID domain.RaceID,
	characterIDs []domain.CharacterID,
	reason string,
) (*DeathsResult, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultDeathReason
	}
	w, err := s.repo.Get(ctx, worldID)
	if err != nil {
		return nil, err
	}
	race := w.Race(raceID)
	if race == nil {
		return nil, fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
	}
	victims, err := selectVictims(race, characterIDs)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(victims))
	for _, c := range victims {
		names = append(names, c.Name)
	}

	system, user, err := prompt.BuildDeathsPrompt(schemas.DeathsInput{
		RaceName:              race.Name,
		NotableCharacterNames: names,
		ReasonForDeaths:       reason,
		CurrentYear:           w.CurrentYear,
	})
	if err != nil {
		return nil, fmt.Errorf("build deaths prompt: %w", err)
	}
	var out schemas.DeathsOutput
	if err := s.call(ctx, worldID.String(), schemas.SchemaDeaths, system, user, &out); err != nil {
		auxFlowsTotal.WithLabelValues(flowDeaths, "failed").Inc()
		return nil, err
	}
	if out.CommonerDeathToll < 0 {
		out.CommonerDeathToll = 0
	}

	result := &DeathsResult{Output: out}
	updated, err := mutateWorld(ctx, s.repo, s.latch, s.now, worldID, func(w *domain.World) error {
		race := w.Race(raceID)
		if race == nil {
			return fmt.Errorf("race %s: %w", raceID, models.ErrNotFound)
		}
		for _, v := range victims {
			c := race.Character(v.ID)
			if c == nil {
				continue
			}
			details := &domain.DeathDetails{Reason: deathNarrativeFor(out.DeathNarratives, c.Name, reason)}
			if c.Kill(w.CurrentYear, details) {
				result.Died = append(result.Died, c.ID)
			}
		}
		race.Population -= out.CommonerDeathToll
		if race.Population < 0 {
			race.Population = 0
		}
		w.NarrativeLog = append(w.NarrativeLog, deathEntries(w.CurrentYear, out)...)
		w.RecomputePopulation()
		return nil
	})
	if err != nil {
		auxFlowsTotal.WithLabelValues(flowDeaths, "failed").Inc()
		return nil, err
	}
	auxFlowsTotal.WithLabelValues(flowDeaths, outcomeSuccess).Inc()
	s.logger.Info("Deaths applied",
		zap.String("worldID", worldID.String()),
		zap.String("raceID", raceID.String()),
		zap.Int("notableDeaths", len(result.Died)),
		zap.Int("commonerDeaths", out.CommonerDeathToll),
	)
	result.World = updated
	return result, nil
}

func selectVictims(race *domain.Race, ids []domain.CharacterID) ([]domain.NotableCharacter, error) {
	if len(ids) == 0 {
		living := race.LivingCharacters()
		if len(living) == 0 {
			return nil, fmt.Errorf("%w: %s has no living notable characters", models.ErrInvalidInput, race.Name)
		}
		return living, nil
	}
	victims := make([]domain.NotableCharacter, 0, len(ids))
	seen := make(map[domain.CharacterID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		c := race.Character(id)
		if c == nil || !c.Alive() {
			return nil, fmt.Errorf("%w: %s is not a living character of %s", models.ErrInvalidInput, id, race.Name)
		}
		victims = append(victims, *c)
	}
	return victims, nil
}

func deathNarrativeFor(narratives []schemas.DeathNarrative, name, fallback string) string {
	for _, n := range narratives {
		if strings.EqualFold(strings.TrimSpace(n.CharacterName), name) && strings.TrimSpace(n.Narrative) != "" {
			return n.Narrative
		}
	}
	return fallback
}

// deathEntries builds the narrative log lines of a deaths event, dropping
// empty and "n/a" lines.
func deathEntries(year int, out schemas.DeathsOutput) []domain.NarrativeEntry {
	lines := make([]string, 0, len(out.DeathNarratives)+2)
	for _, n := range out.DeathNarratives {
		lines = append(lines, n.Narrative)
	}
	lines = append(lines, fmt.Sprintf("%d commoners also perished.", out.CommonerDeathToll))
	if strings.TrimSpace(out.ImpactfulQuote) != "" {
		lines = append(lines, fmt.Sprintf("A reflection on the loss: \"%s\"", strings.TrimSpace(out.ImpactfulQuote)))
	}

	entries := make([]domain.NarrativeEntry, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.Contains(strings.ToLower(trimmed), "n/a") {
			continue
		}
		entries = append(entries, domain.NarrativeEntry{Year: year, Type: domain.NarrativeDeath, Content: trimmed})
	}
	return entries
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
