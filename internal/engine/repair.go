package engine

import (
	"fmt"
	"strings"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
	"worldforge/shared/models"
)

// DefaultReasonMissing marks a race the response did not cover with a
// usable entry.
const DefaultReasonMissing = "missing"

// RaceRepair describes what repair did to one race's result.
type RaceRepair struct {
	RaceID         domain.RaceID       `json:"raceId"`
	Defaulted      bool                `json:"defaulted"`
	DefaultReason  string              `json:"defaultReason,omitempty"`
	RepairedFields []string            `json:"repairedFields,omitempty"`
	Violations     []schemas.Violation `json:"violations,omitempty"`
}

// RepairReport summarizes a repair pass over one model response.
type RepairReport struct {
	ModelYear        *int         `json:"modelYear,omitempty"`
	YearRepaired     bool         `json:"yearRepaired"`
	Races            []RaceRepair `json:"races"`
	UnknownEntries   int          `json:"unknownEntries"`
	DuplicateEntries int          `json:"duplicateEntries"`
	DiscardedEntries int          `json:"discardedEntries"`
}

// DefaultedCount returns how many races received a synthesized result.
func (r RepairReport) DefaultedCount() int {
	n := 0
	for _, rr := range r.Races {
		if rr.Defaulted {
			n++
		}
	}
	return n
}

// Repairer turns a partial model response into a complete AdvanceOutput.
type Repairer struct {
	validator *schemas.Validator
}

// NewRepairer returns a Repairer. A nil validator skips contract checks; the
// repair rules still apply.
func NewRepairer(validator *schemas.Validator) *Repairer {
	return &Repairer{validator: validator}
}

// Repair returns exactly one result per input race, in input order.
// It fails only when out is nil.
func (rp *Repairer) Repair(in schemas.AdvanceInput, out *schemas.PartialOutput) (schemas.AdvanceOutput, RepairReport, error) {
	var report RepairReport
	if out == nil {
		return schemas.AdvanceOutput{}, report, fmt.Errorf("%w: no output object", models.ErrModelUnavailable)
	}

	expectedYear := in.CurrentYear + in.Years
	if out.NewYear != nil {
		y := int(*out.NewYear)
		report.ModelYear = &y
	}
	if report.ModelYear == nil || *report.ModelYear != expectedYear {
		report.YearRepaired = true
	}

	inputRaces := make(map[domain.RaceID]bool, len(in.Races))
	for _, r := range in.Races {
		inputRaces[r.ID] = true
	}

	type candidate struct {
		partial    *schemas.PartialRaceResult
		dropped    []string
		violations []schemas.Violation
	}
	found := make(map[domain.RaceID]*candidate)

	for _, raw := range out.RaceResults {
		partial, dropped, err := schemas.DecodeRaceResult(raw)
		if err != nil {
			report.DiscardedEntries++
			continue
		}
		if !inputRaces[partial.RaceID] {
			report.UnknownEntries++
			continue
		}
		if _, dup := found[partial.RaceID]; dup {
			report.DuplicateEntries++
			continue
		}
		c := &candidate{partial: partial, dropped: dropped}
		if rp.validator != nil {
			c.violations = rp.validator.ValidateRaceResult(raw)
		}
		found[partial.RaceID] = c
	}

	result := schemas.AdvanceOutput{
		NewYear:     expectedYear,
		RaceResults: make([]schemas.RaceResult, 0, len(in.Races)),
	}
	for _, race := range in.Races {
		c, ok := found[race.ID]
		if !ok {
			result.RaceResults = append(result.RaceResults, DefaultRaceResult(race))
			report.Races = append(report.Races, RaceRepair{RaceID: race.ID, Defaulted: true, DefaultReason: DefaultReasonMissing})
			racesDefaultedTotal.WithLabelValues(DefaultReasonMissing).Inc()
			continue
		}
		repaired, fields := repairRace(race, c.partial)
		fields = append(c.dropped, fields...)
		for _, f := range fields {
			schemaDriftTotal.WithLabelValues(f).Inc()
		}
		result.RaceResults = append(result.RaceResults, repaired)
		report.Races = append(report.Races, RaceRepair{
			RaceID:         race.ID,
			RepairedFields: fields,
			Violations:     c.violations,
		})
	}
	return result, report, nil
}

// DefaultRaceResult is the uneventful result of a race the model did not address.
func DefaultRaceResult(race schemas.RaceInput) schemas.RaceResult {
	return schemas.RaceResult{
		RaceID:                  race.ID,
		Narrative:               schemas.UneventfulSummary,
		PopulationChange:        domain.PopulationChange{Born: 0, Died: 0, NewPopulation: race.Population},
		Events:                  []string{},
		UpdatedProblems:         copyProblems(race.Problems),
		CharacterLogEntries:     []schemas.CharacterLogEntry{},
		FallenNotableCharacters: []schemas.FallenCharacter{},
		NamedCommonerDeaths:     []schemas.CommonerDeath{},
		NewAchievements:         []schemas.Achievement{},
		UpdatedOccupiedTiles:    []domain.TileID{},
		UpdatedKnownTiles:       []domain.TileID{},
		NewTechnologies:         []string{},
		Defaulted:               true,
	}
}

func repairRace(race schemas.RaceInput, p *schemas.PartialRaceResult) (schemas.RaceResult, []string) {
	var repaired []string
	mark := func(field string) { repaired = append(repaired, field) }

	r := schemas.RaceResult{
		RaceID:                  race.ID,
		Events:                  nonNil(p.Events),
		CharacterLogEntries:     nonNil(p.CharacterLogEntries),
		FallenNotableCharacters: nonNil(p.FallenNotableCharacters),
		NamedCommonerDeaths:     nonNil(p.NamedCommonerDeaths),
		NewCulture:              p.NewCulture,
		NewCultureLogEntry:      p.NewCultureLogEntry,
		NewGovernment:           p.NewGovernment,
		NewReligion:             p.NewReligion,
		NewPoliticLogEntry:      p.NewPoliticLogEntry,
		NewAchievements:         nonNil(p.NewAchievements),
		UpdatedOccupiedTiles:    nonNil(p.UpdatedOccupiedTiles),
		UpdatedKnownTiles:       nonNil(p.UpdatedKnownTiles),
		NewTechnologies:         nonNil(p.NewTechnologies),
	}

	switch {
	case p.Narrative != nil && strings.TrimSpace(*p.Narrative) != "":
		r.Narrative = *p.Narrative
	case p.Summary != nil && strings.TrimSpace(*p.Summary) != "":
		r.Narrative = *p.Summary
	default:
		r.Narrative = schemas.UneventfulSummary
		mark("narrative")
	}
	if p.Events == nil {
		mark("events")
	}

	change, complete := repairPopulationChange(race.Population, p.PopulationChange)
	r.PopulationChange = change
	if !complete {
		mark("populationChange")
	}

	if problems, ok := convertProblems(p.UpdatedProblems); ok {
		r.UpdatedProblems = problems
	} else {
		r.UpdatedProblems = copyProblems(race.Problems)
		mark("updatedProblems")
	}

	if p.EmergenceReason != nil {
		r.EmergenceReason = *p.EmergenceReason
	}
	if p.NewSettlement != nil {
		r.NewSettlement = strings.TrimSpace(*p.NewSettlement)
	}

	if p.NewCharacter != nil {
		if nc, ok := repairNewCharacter(*p.NewCharacter); ok {
			r.NewCharacter = &nc
		} else {
			mark("newCharacter")
		}
	}

	if len(r.NamedCommonerDeaths) > schemas.MaxCommonerDeaths {
		r.NamedCommonerDeaths = r.NamedCommonerDeaths[:schemas.MaxCommonerDeaths]
		mark("namedCommonerDeaths")
	}

	for i := range r.NewAchievements {
		if r.NewAchievements[i].RPAward < 0 {
			r.NewAchievements[i].RPAward = 0
			mark("newAchievements")
		}
	}

	return r, repaired
}

// repairPopulationChange completes the reported change. Without a
// newPopulation the race keeps its input population and the counts are
// zeroed; missing or negative counts become zero. ok is false when anything
// was substituted.
func repairPopulationChange(current int, pc *schemas.PartialPopulationChange) (domain.PopulationChange, bool) {
	if pc == nil || pc.NewPopulation == nil {
		return domain.PopulationChange{NewPopulation: current}, false
	}
	out := domain.PopulationChange{NewPopulation: *pc.NewPopulation}
	ok := pc.Born != nil && pc.Died != nil
	if pc.Born != nil {
		out.Born = *pc.Born
	}
	if pc.Died != nil {
		out.Died = *pc.Died
	}
	if out.Born < 0 || out.Died < 0 {
		out.Born = max(out.Born, 0)
		out.Died = max(out.Died, 0)
		ok = false
	}
	return out, ok
}

// convertProblems parses the wire problems. Any out-of-range severity
// invalidates the whole list; a nil list is reported as absent.
func convertProblems(in []schemas.PartialProblem) ([]domain.Problem, bool) {
	if in == nil {
		return nil, false
	}
	out := make([]domain.Problem, 0, len(in))
	for _, p := range in {
		sev, err := domain.ParseSeverity(p.Severity)
		if err != nil {
			return nil, false
		}
		out = append(out, domain.Problem{ID: p.ID, Title: p.Title, Description: p.Description, Severity: sev})
	}
	return out, true
}

func repairNewCharacter(nc schemas.NewCharacter) (schemas.NewCharacter, bool) {
	if strings.TrimSpace(nc.Name) == "" {
		return schemas.NewCharacter{}, false
	}
	if nc.ID == "" {
		nc.ID = domain.NewCharacterID()
	}
	if !nc.Ambition.Valid() {
		nc.Ambition = domain.AmbitionSurvival
	}
	if nc.Age < 0 {
		nc.Age = 0
	}
	nc.Traits = capped(nc.Traits, domain.MaxTraits)
	nc.Skills = capped(nc.Skills, domain.MaxSkills)
	nc.SpecialTraits = capped(nc.SpecialTraits, domain.MaxSpecialTraits)
	return nc, true
}

func capped(s []string, n int) []string {
	s = nonNil(s)
	if len(s) > n {
		return s[:n]
	}
	return s
}

func copyProblems(in []domain.Problem) []domain.Problem {
	out := make([]domain.Problem, len(in))
	copy(out, in)
	return out
}
