package schemas_test

import (
	"encoding/json"
	"testing"

	"worldforge/internal/schemas"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRace = `{
	"raceId": "r1",
	"narrative": "The river people built boats.",
	"populationChange": {"born": 40, "died": 20, "newPopulation": 1020},
	"events": ["boats"],
	"updatedProblems": [{"id": "p1", "title": "Floods", "description": "Rains", "severity": "High"}]
}`

func newValidator(t *testing.T) *schemas.Validator {
	t.Helper()
	v, err := schemas.NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidator_ValidRaceResult(t *testing.T) {
	v := newValidator(t)
	assert.Empty(t, v.ValidateRaceResult(json.RawMessage(validRace)))
}

func TestValidator_ReportsViolations(t *testing.T) {
	v := newValidator(t)

	missing := v.ValidateRaceResult(json.RawMessage(`{"raceId": "r1", "narrative": "x", "events": []}`))
	assert.NotEmpty(t, missing, "populationChange and updatedProblems are mandatory")

	badSeverity := `{
		"raceId": "r1", "narrative": "x", "events": [],
		"populationChange": {"born": 0, "died": 0, "newPopulation": 5},
		"updatedProblems": [{"id": "p1", "title": "t", "description": "d", "severity": "Apocalyptic"}]
	}`
	violations := v.ValidateRaceResult(json.RawMessage(badSeverity))
	require.Len(t, violations, 1)
	assert.Equal(t, "/updatedProblems/0/severity", violations[0].Path)

	tooManyCommoners := `{
		"raceId": "r1", "narrative": "x", "events": [], "updatedProblems": [],
		"populationChange": {"born": 0, "died": 3, "newPopulation": 5},
		"namedCommonerDeaths": [
			{"name": "a", "title": "t", "ageAtDeath": 1, "deathDetails": {"reason": "r"}},
			{"name": "b", "title": "t", "ageAtDeath": 1, "deathDetails": {"reason": "r"}},
			{"name": "c", "title": "t", "ageAtDeath": 1, "deathDetails": {"reason": "r"}},
			{"name": "d", "title": "t", "ageAtDeath": 1, "deathDetails": {"reason": "r"}}
		]
	}`
	assert.NotEmpty(t, v.ValidateRaceResult(json.RawMessage(tooManyCommoners)))
}

func TestValidator_AuxSchemas(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Validate(schemas.SchemaCataclysm,
		[]byte(`{"eventDescription":"a","outcomeDescription":"b","raceSurvivalRate":0.8,"infrastructureDamage":0.1}`)))
	assert.Error(t, v.Validate(schemas.SchemaCataclysm,
		[]byte(`{"eventDescription":"a","outcomeDescription":"b","raceSurvivalRate":1.5,"infrastructureDamage":0.1}`)))
	assert.Error(t, v.Validate(schemas.SchemaCharacterName, []byte(`{"name":"","explanation":"x"}`)))
	assert.Error(t, v.Validate("nope", []byte(`{}`)))
}

func TestDecodePartialOutput(t *testing.T) {
	_, err := schemas.DecodePartialOutput([]byte("null"))
	assert.Error(t, err)
	_, err = schemas.DecodePartialOutput([]byte("  "))
	assert.Error(t, err)

	out, err := schemas.DecodePartialOutput([]byte(`{"raceResults": []}`))
	require.NoError(t, err)
	assert.Nil(t, out.NewYear)
	assert.Empty(t, out.RaceResults)

	out, err = schemas.DecodePartialOutput([]byte(`{"newYear": "soon", "raceResults": [` + validRace + `]}`))
	require.NoError(t, err, "a wrong-typed newYear must not lose the race results")
	assert.Nil(t, out.NewYear)
	assert.Len(t, out.RaceResults, 1)
}

func TestDecodeRaceResult_DropsMalformedFields(t *testing.T) {
	r, dropped, err := schemas.DecodeRaceResult(json.RawMessage(validRace))
	require.NoError(t, err)
	assert.Empty(t, dropped)
	require.NotNil(t, r.PopulationChange)
	require.NotNil(t, r.PopulationChange.NewPopulation)
	assert.Equal(t, 1020, *r.PopulationChange.NewPopulation)

	r, dropped, err = schemas.DecodeRaceResult(json.RawMessage(
		`{"raceId": "r1", "events": "not a list", "newTechnologies": ["fire"], "populationChange": 7}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"events", "populationChange"}, dropped)
	assert.Nil(t, r.Events)
	assert.Nil(t, r.PopulationChange)
	assert.Equal(t, []string{"fire"}, r.NewTechnologies)

	_, _, err = schemas.DecodeRaceResult(json.RawMessage(`["r1"]`))
	assert.Error(t, err)
	_, _, err = schemas.DecodeRaceResult(json.RawMessage(`{"narrative": "orphan"}`))
	assert.Error(t, err)
}

func TestAdvanceOutputSchema_IsSerializable(t *testing.T) {
	data, err := json.Marshal(schemas.AdvanceOutputSchema())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"namedCommonerDeaths"`)
	assert.True(t, schemas.ValidYears(1))
	assert.True(t, schemas.ValidYears(10))
	assert.False(t, schemas.ValidYears(5))
}
