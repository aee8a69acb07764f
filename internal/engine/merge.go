package engine

import (
	"time"

	"go.uber.org/zap"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
)

// CommonerClass is the class of minted commoner death records.
const CommonerClass = "Commoner"

// MaxLivingForEmergence is the living-character count at which the model is
// told not to introduce new characters.
const MaxLivingForEmergence = 4

// RaceMergeReport counts what one race result changed and what was skipped.
type RaceMergeReport struct {
	RaceID                 domain.RaceID       `json:"raceId"`
	NotableDeaths          int                 `json:"notableDeaths"`
	CommonerDeaths         int                 `json:"commonerDeaths"`
	Emerged                *domain.CharacterID `json:"emerged,omitempty"`
	LogEntries             int                 `json:"logEntries"`
	DanglingReferences     int                 `json:"danglingReferences"`
	UnknownTiles           int                 `json:"unknownTiles"`
	EmergenceRuleViolation bool                `json:"emergenceRuleViolation"`
	AchievementsAwarded    int                 `json:"achievementsAwarded"`
	AchievementsRepeated   int                 `json:"achievementsRepeated"`
	RacePointsAwarded      int                 `json:"racePointsAwarded"`
	PopulationClamped      bool                `json:"populationClamped"`
	ExpiredBoons           []domain.BoonID     `json:"expiredBoons,omitempty"`
}

// MergeReport summarizes one application of an AdvanceOutput to a world.
type MergeReport struct {
	PreviousYear            int               `json:"previousYear"`
	NewYear                 int               `json:"newYear"`
	PopulationBefore        int               `json:"populationBefore"`
	PopulationAfter         int               `json:"populationAfter"`
	Races                   []RaceMergeReport `json:"races"`
	UnknownRaces            int               `json:"unknownRaces"`
	DanglingReferences      int               `json:"danglingReferences"`
	UnknownTiles            int               `json:"unknownTiles"`
	EmergenceRuleViolations int               `json:"emergenceRuleViolations"`
	DirectivesCleared       int               `json:"directivesCleared"`
}

// Merger folds validated advancement results into a world.
type Merger struct {
	catalog  *domain.BoonCatalog
	worldMap *domain.WorldMap
	logger   *zap.Logger
}

// NewMerger creates a Merger.
func NewMerger(catalog *domain.BoonCatalog, worldMap *domain.WorldMap, logger *zap.Logger) *Merger {
	return &Merger{
		catalog:  catalog,
		worldMap: worldMap,
		logger:   logger.Named("Merger"),
	}
}

// Apply mutates world in place. It must run exactly once per successful model
// response: re-applying the same output double-ages characters, re-awards
// points and re-appends history.
func (m *Merger) Apply(world *domain.World, years int, out schemas.AdvanceOutput) MergeReport {
	start := time.Now()
	defer func() { mergeDuration.Observe(time.Since(start).Seconds()) }()

	report := MergeReport{
		PreviousYear:     world.CurrentYear,
		NewYear:          out.NewYear,
		PopulationBefore: world.Population,
	}

	for _, result := range out.RaceResults {
		race := world.Race(result.RaceID)
		if race == nil {
			report.UnknownRaces++
			danglingReferencesTotal.WithLabelValues("race").Inc()
			continue
		}
		rr := m.applyRace(race, years, out.NewYear, result)
		report.DanglingReferences += rr.DanglingReferences
		report.UnknownTiles += rr.UnknownTiles
		if rr.EmergenceRuleViolation {
			report.EmergenceRuleViolations++
		}
		report.Races = append(report.Races, rr)

		world.NarrativeLog = append(world.NarrativeLog, domain.NarrativeEntry{
			Year:    out.NewYear,
			Type:    domain.NarrativeNarrative,
			Content: result.Narrative,
		})
	}

	expired := m.expireBoons(world)
	for i := range report.Races {
		report.Races[i].ExpiredBoons = expired[report.Races[i].RaceID]
	}
	report.DirectivesCleared = len(world.BoonDirectives)
	world.BoonDirectives = []domain.BoonDirective{}

	world.CurrentYear = out.NewYear
	world.RecomputePopulation()
	report.PopulationAfter = world.Population

	m.logger.Info("Merged advancement",
		zap.String("worldID", world.ID.String()),
		zap.Int("previousYear", report.PreviousYear),
		zap.Int("newYear", report.NewYear),
		zap.Int("populationBefore", report.PopulationBefore),
		zap.Int("populationAfter", report.PopulationAfter),
		zap.Int("danglingReferences", report.DanglingReferences),
		zap.Int("unknownTiles", report.UnknownTiles),
	)
	return report
}

func (m *Merger) applyRace(race *domain.Race, years, newYear int, r schemas.RaceResult) RaceMergeReport {
	rr := RaceMergeReport{RaceID: race.ID}
	livingBefore := race.LivingCount()

	// 1. Notable deaths.
	for _, fallen := range r.FallenNotableCharacters {
		c := race.Character(fallen.CharacterID)
		if c == nil {
			rr.DanglingReferences++
			danglingReferencesTotal.WithLabelValues("character").Inc()
			continue
		}
		details := fallen.DeathDetails
		if c.Kill(newYear, &details) {
			rr.NotableDeaths++
		}
	}

	// 2. Commoner deaths.
	for _, commoner := range r.NamedCommonerDeaths {
		details := commoner.DeathDetails
		year := newYear
		race.NotableCharacters = append(race.NotableCharacters, domain.NotableCharacter{
			ID:            domain.NewCharacterID(),
			RaceID:        race.ID,
			Name:          commoner.Name,
			Status:        domain.StatusDead,
			Age:           max(commoner.AgeAtDeath, 0),
			Title:         commoner.Title,
			Class:         CommonerClass,
			Ambition:      domain.AmbitionSurvival,
			Traits:        []string{},
			Skills:        []string{},
			SpecialTraits: []string{},
			PersonalLog:   []domain.PersonalLogEntry{},
			DeathYear:     &year,
			DeathDetails:  &details,
			NamingProfile: race.NamingProfile,
		})
		rr.CommonerDeaths++
	}

	// 3. Emergence. The Max 4 and Last Spark rules are trusted, only counted.
	if nc := r.NewCharacter; nc != nil {
		id := nc.ID
		if id == "" || race.Character(id) != nil {
			id = domain.NewCharacterID()
		}
		race.NotableCharacters = append(race.NotableCharacters, domain.NotableCharacter{
			ID:            id,
			RaceID:        race.ID,
			Name:          nc.Name,
			Status:        domain.StatusAlive,
			Age:           nc.Age,
			Title:         nc.Title,
			Class:         nc.Class,
			Ambition:      nc.Ambition,
			Traits:        nonNil(nc.Traits),
			Skills:        nonNil(nc.Skills),
			SpecialTraits: nonNil(nc.SpecialTraits),
			PersonalLog:   []domain.PersonalLogEntry{{Year: newYear, Entry: nc.FirstLogEntry}},
			NamingProfile: race.NamingProfile,
		})
		rr.Emerged = &id
	}
	if (livingBefore >= MaxLivingForEmergence && r.NewCharacter != nil) || (livingBefore == 0 && r.NewCharacter == nil) {
		rr.EmergenceRuleViolation = true
		emergenceViolationsTotal.Inc()
		m.logger.Warn("Emergence rule not followed by model",
			zap.String("raceID", race.ID.String()),
			zap.Int("livingBefore", livingBefore),
			zap.Bool("emerged", r.NewCharacter != nil),
		)
	}

	// 4. Log entries, alive characters only.
	for _, entry := range r.CharacterLogEntries {
		c := race.Character(entry.CharacterID)
		if c == nil || !c.Alive() {
			rr.DanglingReferences++
			danglingReferencesTotal.WithLabelValues("character").Inc()
			continue
		}
		c.PersonalLog = append(c.PersonalLog, domain.PersonalLogEntry{Year: newYear, Entry: entry.LogEntry})
		rr.LogEntries++
	}

	// 5. Aging.
	for i := range race.NotableCharacters {
		if race.NotableCharacters[i].Alive() {
			race.NotableCharacters[i].Age += years
		}
	}

	// 6. Population, taken from the model and floored at zero.
	race.Population = r.PopulationChange.NewPopulation
	if race.Population < 0 {
		race.Population = 0
		rr.PopulationClamped = true
	}

	// 7. Problems, replaced wholesale.
	race.Problems = copyProblems(r.UpdatedProblems)

	// 8. Culture, government and religion.
	if r.NewCulture != nil {
		race.Culture = *r.NewCulture
	}
	if r.NewCultureLogEntry != nil {
		race.CultureLog = append(race.CultureLog, domain.LogEntry{
			Year: newYear, EventName: r.NewCultureLogEntry.EventName, Summary: r.NewCultureLogEntry.Summary,
		})
	}
	if r.NewGovernment != nil {
		race.Government = *r.NewGovernment
	}
	if r.NewReligion != nil {
		race.Religion = *r.NewReligion
	}
	if r.NewPoliticLogEntry != nil {
		race.PoliticalLog = append(race.PoliticalLog, domain.LogEntry{
			Year: newYear, EventName: r.NewPoliticLogEntry.EventName, Summary: r.NewPoliticLogEntry.Summary,
		})
	}

	// 9. Achievements. Ids already granted are not awarded again.
	for _, a := range r.NewAchievements {
		if a.ID != "" {
			if containsID(race.GrantedAchievements, a.ID) {
				rr.AchievementsRepeated++
				continue
			}
			race.GrantedAchievements = append(race.GrantedAchievements, a.ID)
		}
		race.RacePoints += a.RPAward
		rr.RacePointsAwarded += a.RPAward
		rr.AchievementsAwarded++
	}

	// 10. Territory and technology.
	for _, tile := range r.UpdatedOccupiedTiles {
		if !m.worldMap.Has(tile) {
			rr.UnknownTiles++
			danglingReferencesTotal.WithLabelValues("tile").Inc()
			continue
		}
		race.OccupiedTiles = appendUnique(race.OccupiedTiles, tile)
		race.KnownTiles = appendUnique(race.KnownTiles, tile)
		for _, n := range m.worldMap.Neighbours(tile) {
			race.KnownTiles = appendUnique(race.KnownTiles, n)
		}
	}
	for _, tile := range r.UpdatedKnownTiles {
		if !m.worldMap.Has(tile) {
			rr.UnknownTiles++
			danglingReferencesTotal.WithLabelValues("tile").Inc()
			continue
		}
		race.KnownTiles = appendUnique(race.KnownTiles, tile)
	}
	for _, tech := range r.NewTechnologies {
		race.Technologies = appendUnique(race.Technologies, tech)
	}
	if r.NewSettlement != "" {
		race.Settlement = r.NewSettlement
	}

	change := r.PopulationChange
	change.NewPopulation = race.Population
	race.History = append(race.History, domain.HistoryEntry{
		Year:             newYear,
		Summary:          r.Narrative,
		PopulationChange: change,
		Events:           nonNil(r.Events),
		EmergenceReason:  r.EmergenceReason,
	})
	return rr
}

// expireBoons keeps only Permanent boons on every race. Unknown boon ids are
// dropped. It returns the expired ids per race.
func (m *Merger) expireBoons(world *domain.World) map[domain.RaceID][]domain.BoonID {
	expired := make(map[domain.RaceID][]domain.BoonID)
	for i := range world.Races {
		race := &world.Races[i]
		kept := make([]domain.BoonID, 0, len(race.ActiveBoons))
		for _, id := range race.ActiveBoons {
			if m.catalog.IsPermanent(id) {
				kept = append(kept, id)
			} else {
				expired[race.ID] = append(expired[race.ID], id)
			}
		}
		race.ActiveBoons = kept
	}
	return expired
}

func appendUnique[T comparable](list []T, v T) []T {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func containsID(list []domain.AchievementID, id domain.AchievementID) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
