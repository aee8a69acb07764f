package schemas

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"worldforge/internal/domain"
)

// PartialOutput is the raw model response as decoded at the boundary.
// Race results are kept undecoded so that one malformed entry cannot spoil
// the rest.
type PartialOutput struct {
	NewYear     *float64          `json:"newYear"`
	RaceResults []json.RawMessage `json:"raceResults"`
}

// PartialProblem carries the severity as free text so that an out-of-range
// value can be detected during repair instead of failing the decode.
type PartialProblem struct {
	ID          domain.ProblemID `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Severity    string           `json:"severity"`
}

// PartialPopulationChange keeps each count optional so that a missing
// newPopulation is told apart from a reported zero.
type PartialPopulationChange struct {
	Born          *int `json:"born"`
	Died          *int `json:"died"`
	NewPopulation *int `json:"newPopulation"`
}

// PartialRaceResult mirrors RaceResult with every field optional.
// Pointers and nil slices mark absence.
type PartialRaceResult struct {
	RaceID                  domain.RaceID            `json:"raceId"`
	Narrative               *string                  `json:"narrative"`
	Summary                 *string                  `json:"summary"`
	PopulationChange        *PartialPopulationChange `json:"populationChange"`
	Events                  []string                 `json:"events"`
	EmergenceReason         *string                  `json:"emergenceReason"`
	UpdatedProblems         []PartialProblem         `json:"updatedProblems"`
	NewCharacter            *NewCharacter            `json:"newCharacter"`
	CharacterLogEntries     []CharacterLogEntry      `json:"characterLogEntries"`
	FallenNotableCharacters []FallenCharacter        `json:"fallenNotableCharacters"`
	NamedCommonerDeaths     []CommonerDeath          `json:"namedCommonerDeaths"`
	NewCulture              *domain.DetailObject     `json:"newCulture"`
	NewCultureLogEntry      *SocietyLogEntry         `json:"newCultureLogEntry"`
	NewGovernment           *domain.DetailObject     `json:"newGovernment"`
	NewReligion             *domain.DetailObject     `json:"newReligion"`
	NewPoliticLogEntry      *SocietyLogEntry         `json:"newPoliticLogEntry"`
	NewAchievements         []Achievement            `json:"newAchievements"`
	UpdatedOccupiedTiles    []domain.TileID          `json:"updatedOccupiedTiles"`
	UpdatedKnownTiles       []domain.TileID          `json:"updatedKnownTiles"`
	NewTechnologies         []string                 `json:"newTechnologies"`
	NewSettlement           *string                  `json:"newSettlement"`
}

// DecodePartialOutput parses a model response. A literal null, or anything
// that is not a JSON object, yields (nil, error).
func DecodePartialOutput(data []byte) (*PartialOutput, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, fmt.Errorf("empty model output")
	}
	var out PartialOutput
	if err := json.Unmarshal(trimmed, &out); err != nil {
		// A wrong-typed newYear or raceResults must not lose the whole call;
		// fall back to a loose decode of the two top-level fields.
		loose, looseErr := decodeLoose(trimmed)
		if looseErr != nil {
			return nil, fmt.Errorf("decode model output: %w", err)
		}
		return loose, nil
	}
	return &out, nil
}

func decodeLoose(data []byte) (*PartialOutput, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	out := &PartialOutput{}
	if raw, ok := top["newYear"]; ok {
		var year float64
		if json.Unmarshal(raw, &year) == nil {
			out.NewYear = &year
		}
	}
	if raw, ok := top["raceResults"]; ok {
		var results []json.RawMessage
		if json.Unmarshal(raw, &results) == nil {
			out.RaceResults = results
		}
	}
	return out, nil
}

// DecodeRaceResult decodes a single raw race entry. Fields with the wrong
// shape are dropped one by one and reported; an entry that is not an object,
// or has no raceId, is an error.
func DecodeRaceResult(raw json.RawMessage) (*PartialRaceResult, []string, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, nil, fmt.Errorf("race result is not an object: %w", err)
	}
	if fields == nil {
		return nil, nil, fmt.Errorf("race result is null")
	}

	var r PartialRaceResult
	if err := json.Unmarshal(raw, &r); err == nil {
		if r.RaceID == "" {
			return nil, nil, fmt.Errorf("race result has no raceId")
		}
		return &r, nil, nil
	}

	r = PartialRaceResult{}
	var dropped []string
	for key, value := range fields {
		single, err := json.Marshal(map[string]json.RawMessage{key: value})
		if err != nil {
			dropped = append(dropped, key)
			continue
		}
		var probe PartialRaceResult
		if err := json.Unmarshal(single, &probe); err != nil {
			dropped = append(dropped, key)
			continue
		}
		if err := json.Unmarshal(single, &r); err != nil {
			dropped = append(dropped, key)
		}
	}
	if r.RaceID == "" {
		return nil, dropped, fmt.Errorf("race result has no usable raceId")
	}
	sort.Strings(dropped)
	return &r, dropped, nil
}
