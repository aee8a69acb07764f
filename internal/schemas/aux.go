package schemas

import "worldforge/internal/domain"

// CataclysmType names the supported disasters.
type CataclysmType string

const (
	CataclysmFlood   CataclysmType = "flood"
	CataclysmVolcano CataclysmType = "volcano"
	CataclysmBlight  CataclysmType = "blight"
)

// Valid reports whether t is a supported cataclysm.
func (t CataclysmType) Valid() bool {
	switch t {
	case CataclysmFlood, CataclysmVolcano, CataclysmBlight:
		return true
	}
	return false
}

// Preparation level bounds.
const (
	MinPreparationLevel = 0
	MaxPreparationLevel = 10
)

// CharacterNameInput asks for one new name.
type CharacterNameInput struct {
	RaceName      string                `json:"raceName"`
	NamingProfile *domain.NamingProfile `json:"namingProfile,omitempty"`
	ExistingNames []string              `json:"existingNames"`
	Context       string                `json:"context,omitempty"`
}

// CharacterNameOutput is a generated name.
type CharacterNameOutput struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}

// NamingProfileInput asks for a naming profile.
type NamingProfileInput struct {
	RaceName string `json:"raceName"`
}

// CataclysmInput describes a disaster to simulate.
type CataclysmInput struct {
	WorldName        string        `json:"worldName"`
	RaceName         string        `json:"raceName"`
	CataclysmType    CataclysmType `json:"cataclysmType"`
	PreparationLevel int           `json:"preparationLevel"`
	Preparations     string        `json:"preparations,omitempty"`
}

// CataclysmOutput is the simulated outcome. Rates are in [0, 1].
type CataclysmOutput struct {
	EventDescription     string  `json:"eventDescription"`
	OutcomeDescription   string  `json:"outcomeDescription"`
	RaceSurvivalRate     float64 `json:"raceSurvivalRate"`
	InfrastructureDamage float64 `json:"infrastructureDamage"`
}

// DeathsInput describes notable characters whose deaths need narrating.
type DeathsInput struct {
	RaceName              string   `json:"raceName"`
	NotableCharacterNames []string `json:"notableCharacterNames"`
	ReasonForDeaths       string   `json:"reasonForDeaths"`
	CurrentYear           int      `json:"currentYear"`
}

// DeathNarrative narrates one death.
type DeathNarrative struct {
	CharacterName string `json:"characterName"`
	Narrative     string `json:"narrative"`
}

// DeathsOutput is the simulated outcome of a deaths event.
type DeathsOutput struct {
	DeathNarratives   []DeathNarrative `json:"deathNarratives"`
	CommonerDeathToll int              `json:"commonerDeathToll"`
	ImpactfulQuote    string           `json:"impactfulQuote"`
}
