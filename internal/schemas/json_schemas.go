package schemas

import "worldforge/internal/domain"

// Schema names, used both as the OpenAI response_format name and as the
// validator resource key.
const (
	SchemaAdvance       = "advance_time"
	SchemaRaceResult    = "race_result"
	SchemaCharacterName = "character_name"
	SchemaNamingProfile = "naming_profile"
	SchemaCataclysm     = "cataclysm"
	SchemaDeaths        = "death_narratives"
)

func str(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": desc}
}

func integer(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": desc}
}

func strArray(desc string) map[string]interface{} {
	return map[string]interface{}{"type": "array", "description": desc, "items": map[string]interface{}{"type": "string"}}
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func severityEnum() []interface{} {
	out := make([]interface{}, 0, len(domain.Severities))
	for _, s := range domain.Severities {
		out = append(out, string(s))
	}
	return out
}

func detailObject(desc string) map[string]interface{} {
	o := object([]string{"name", "description"}, map[string]interface{}{
		"name":        str("Name."),
		"description": str("One or two sentence description."),
	})
	o["description"] = desc
	return o
}

func logEntryObject(desc string) map[string]interface{} {
	o := object([]string{"eventName", "summary"}, map[string]interface{}{
		"eventName": str("Short name of the event."),
		"summary":   str("What happened."),
	})
	o["description"] = desc
	return o
}

func deathDetailsObject() map[string]interface{} {
	return object([]string{"reason"}, map[string]interface{}{
		"reason":         str("Cause of death."),
		"favoriteThing":  str("What the deceased loved most."),
		"happiestMemory": str("Their happiest memory."),
		"lastThought":    str("Their last thought, first person."),
	})
}

// RaceResultSchema returns the schema of a single raceResults entry.
func RaceResultSchema() map[string]interface{} {
	ambitions := []interface{}{
		string(domain.AmbitionSurvival), string(domain.AmbitionPower),
		string(domain.AmbitionKnowledge), string(domain.AmbitionCommunity),
	}
	return map[string]interface{}{
		"type":        "object",
		"description": "Outcome of the era for one race.",
		"required":    []string{"raceId", "narrative", "populationChange", "events", "updatedProblems"},
		"properties": map[string]interface{}{
			"raceId":    str("Id of the race, copied from the input."),
			"narrative": str("Narrative of the era for this race."),
			"populationChange": object([]string{"born", "died", "newPopulation"}, map[string]interface{}{
				"born":          map[string]interface{}{"type": "integer", "minimum": 0},
				"died":          map[string]interface{}{"type": "integer", "minimum": 0},
				"newPopulation": integer("Population at the end of the era."),
			}),
			"events":          strArray("Key events of the era."),
			"emergenceReason": str("Why a new notable character emerged, if one did."),
			"updatedProblems": map[string]interface{}{
				"type":        "array",
				"description": "The complete list of problems the race faces after the era.",
				"items": object([]string{"id", "title", "description", "severity"}, map[string]interface{}{
					"id":          str("Problem id. Keep ids of continuing problems."),
					"title":       str("Short title."),
					"description": str("Description."),
					"severity":    map[string]interface{}{"type": "string", "enum": severityEnum()},
				}),
			},
			"newCharacter": object(
				[]string{"id", "name", "age", "title", "class", "ambition", "traits", "skills", "specialTraits", "firstLogEntry"},
				map[string]interface{}{
					"id":            str("New unique id."),
					"name":          str("Name, distinct from existingNames."),
					"age":           map[string]interface{}{"type": "integer", "minimum": 0},
					"title":         str("Title."),
					"class":         str("Class or calling."),
					"ambition":      map[string]interface{}{"type": "string", "enum": ambitions},
					"traits":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "maxItems": domain.MaxTraits},
					"skills":        map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "maxItems": domain.MaxSkills},
					"specialTraits": map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}, "maxItems": domain.MaxSpecialTraits},
					"firstLogEntry": str("First person diary entry."),
				}),
			"characterLogEntries": map[string]interface{}{
				"type": "array",
				"items": object([]string{"characterId", "logEntry"}, map[string]interface{}{
					"characterId": str("Id of a living character."),
					"logEntry":    str("First person diary entry."),
				}),
			},
			"fallenNotableCharacters": map[string]interface{}{
				"type": "array",
				"items": object([]string{"characterId", "deathDetails"}, map[string]interface{}{
					"characterId":  str("Id of the character who died."),
					"deathDetails": deathDetailsObject(),
				}),
			},
			"namedCommonerDeaths": map[string]interface{}{
				"type":     "array",
				"maxItems": MaxCommonerDeaths,
				"items": object([]string{"name", "title", "ageAtDeath", "deathDetails"}, map[string]interface{}{
					"name":         str("Name of the commoner."),
					"title":        str("Occupation or title."),
					"ageAtDeath":   map[string]interface{}{"type": "integer", "minimum": 0},
					"deathDetails": deathDetailsObject(),
				}),
			},
			"newCulture":         detailObject("Replacement culture, only if it changed."),
			"newCultureLogEntry": logEntryObject("Log entry describing the cultural change."),
			"newGovernment":      detailObject("Replacement government, only if it changed."),
			"newReligion":        detailObject("Replacement religion, only if it changed."),
			"newPoliticLogEntry": logEntryObject("Log entry describing the political or religious change."),
			"newAchievements": map[string]interface{}{
				"type": "array",
				"items": object([]string{"title", "rpAward"}, map[string]interface{}{
					"id":      str("Stable achievement id."),
					"title":   str("Title."),
					"rpAward": map[string]interface{}{"type": "integer", "minimum": 0},
				}),
			},
			"updatedOccupiedTiles": strArray("Tiles newly occupied during the era."),
			"updatedKnownTiles":    strArray("Tiles newly discovered during the era."),
			"newTechnologies":      strArray("Technologies discovered during the era."),
			"newSettlement":        str("New name of the main settlement, if it changed."),
		},
	}
}

// AdvanceOutputSchema returns the output contract of an advancement call.
func AdvanceOutputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Result of advancing world history.",
		"required":    []string{"newYear", "raceResults"},
		"properties": map[string]interface{}{
			"newYear": integer("currentYear + years."),
			"raceResults": map[string]interface{}{
				"type":        "array",
				"description": "Exactly one entry per input race.",
				"items":       RaceResultSchema(),
			},
		},
	}
}

// CharacterNameSchema is the output contract of name generation.
func CharacterNameSchema() map[string]interface{} {
	return object([]string{"name", "explanation"}, map[string]interface{}{
		"name":        map[string]interface{}{"type": "string", "minLength": 1},
		"explanation": str("Why the name fits the naming profile."),
	})
}

// NamingProfileSchema is the output contract of naming profile generation.
func NamingProfileSchema() map[string]interface{} {
	return object([]string{"phonemes", "inspiration", "languageStructure"}, map[string]interface{}{
		"phonemes":          str("Characteristic sounds and letter clusters."),
		"inspiration":       str("Real-world linguistic inspiration."),
		"languageStructure": str("How names are built."),
	})
}

// CataclysmSchema is the output contract of a cataclysm simulation.
func CataclysmSchema() map[string]interface{} {
	return object(
		[]string{"eventDescription", "outcomeDescription", "raceSurvivalRate", "infrastructureDamage"},
		map[string]interface{}{
			"eventDescription":     str("What happened."),
			"outcomeDescription":   str("How the race fared."),
			"raceSurvivalRate":     map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
			"infrastructureDamage": map[string]interface{}{"type": "number", "minimum": 0, "maximum": 1},
		})
}

// DeathsSchema is the output contract of a death narrative simulation.
func DeathsSchema() map[string]interface{} {
	return object(
		[]string{"deathNarratives", "commonerDeathToll", "impactfulQuote"},
		map[string]interface{}{
			"deathNarratives": map[string]interface{}{
				"type": "array",
				"items": object([]string{"characterName", "narrative"}, map[string]interface{}{
					"characterName": str("Name of the character."),
					"narrative":     str("How they died."),
				}),
			},
			"commonerDeathToll": map[string]interface{}{"type": "integer", "minimum": 0},
			"impactfulQuote":    str("A quote remembered by survivors."),
		})
}

// SchemaByName returns the named schema, or nil.
func SchemaByName(name string) map[string]interface{} {
	switch name {
	case SchemaAdvance:
		return AdvanceOutputSchema()
	case SchemaRaceResult:
		return RaceResultSchema()
	case SchemaCharacterName:
		return CharacterNameSchema()
	case SchemaNamingProfile:
		return NamingProfileSchema()
	case SchemaCataclysm:
		return CataclysmSchema()
	case SchemaDeaths:
		return DeathsSchema()
	}
	return nil
}
