package schemas

import (
	"worldforge/internal/domain"
)

// Allowed values for AdvanceInput.Years.
const (
	YearsShort = 1
	YearsLong  = 10
)

// MaxCommonerDeaths bounds namedCommonerDeaths per race.
const MaxCommonerDeaths = 3

// UneventfulSummary is the narrative of a race the model did not address.
const UneventfulSummary = "Time passed uneventfully for this race."

// ValidYears reports whether years is an allowed advancement step.
func ValidYears(years int) bool { return years == YearsShort || years == YearsLong }

// KnownTile is a known tile hydrated with map data and, when another race
// occupies it, that race's name.
type KnownTile struct {
	domain.MapTile
	Occupant string `json:"occupant,omitempty"`
}

// LivingCharacter is the character sheet sent to the model.
type LivingCharacter struct {
	ID            domain.CharacterID `json:"id"`
	Name          string             `json:"name"`
	Age           int                `json:"age"`
	Title         string             `json:"title"`
	Class         string             `json:"class"`
	Ambition      domain.Ambition    `json:"ambition"`
	Traits        []string           `json:"traits"`
	Skills        []string           `json:"skills"`
	SpecialTraits []string           `json:"specialTraits"`
}

// DirectiveInput is a pending directive as the model sees it.
type DirectiveInput struct {
	BoonID  domain.BoonID        `json:"boonId"`
	Targets []domain.CharacterID `json:"targets"`
	Content string               `json:"content"`
}

// RaceInput is the per-race part of AdvanceInput.
type RaceInput struct {
	ID                   domain.RaceID          `json:"id"`
	Name                 string                 `json:"name"`
	Traits               string                 `json:"traits"`
	Population           int                    `json:"population"`
	Settlement           string                 `json:"settlement"`
	Culture              domain.DetailObject    `json:"culture"`
	Government           domain.DetailObject    `json:"government"`
	Religion             domain.DetailObject    `json:"religion"`
	LivingCharacters     []LivingCharacter      `json:"livingCharacters"`
	LivingCharacterCount int                    `json:"livingCharacterCount"`
	Problems             []domain.Problem       `json:"problems"`
	Boons                map[domain.BoonID]bool `json:"boons"`
	ActiveBoons          []domain.BoonID        `json:"activeBoons"`
	NamingProfile        *domain.NamingProfile  `json:"namingProfile,omitempty"`
	OccupiedTiles        []domain.TileID        `json:"occupiedTiles"`
	KnownTiles           []KnownTile            `json:"knownTiles"`
	Technologies         []string               `json:"technologies"`
	ExistingNames        []string               `json:"existingNames"`
	Directives           []DirectiveInput       `json:"boonDirectives"`
}

// AdvanceInput is everything the model receives for one advancement call.
type AdvanceInput struct {
	Years          int                    `json:"years"`
	WorldName      string                 `json:"worldName"`
	Era            domain.Era             `json:"era"`
	CurrentYear    int                    `json:"currentYear"`
	Races          []RaceInput            `json:"races"`
	ChronicleEntry string                 `json:"chronicleEntry,omitempty"`
	BoonDirectives []domain.BoonDirective `json:"boonDirectives,omitempty"`
	WorldMap       []domain.MapTile       `json:"worldMap"`
}

// NewCharacter is a character that emerged during the era.
type NewCharacter struct {
	ID            domain.CharacterID `json:"id"`
	Name          string             `json:"name"`
	Age           int                `json:"age"`
	Title         string             `json:"title"`
	Class         string             `json:"class"`
	Ambition      domain.Ambition    `json:"ambition"`
	Traits        []string           `json:"traits"`
	Skills        []string           `json:"skills"`
	SpecialTraits []string           `json:"specialTraits"`
	FirstLogEntry string             `json:"firstLogEntry"`
}

// CharacterLogEntry is a new personal log line for a living character.
type CharacterLogEntry struct {
	CharacterID domain.CharacterID `json:"characterId"`
	LogEntry    string             `json:"logEntry"`
}

// FallenCharacter reports the death of an existing notable character.
type FallenCharacter struct {
	CharacterID  domain.CharacterID  `json:"characterId"`
	DeathDetails domain.DeathDetails `json:"deathDetails"`
}

// CommonerDeath gives a face to anonymous population losses.
type CommonerDeath struct {
	Name         string              `json:"name"`
	Title        string              `json:"title"`
	AgeAtDeath   int                 `json:"ageAtDeath"`
	DeathDetails domain.DeathDetails `json:"deathDetails"`
}

// SocietyLogEntry is a culture or political log entry without a year;
// the year is stamped at merge time.
type SocietyLogEntry struct {
	EventName string `json:"eventName"`
	Summary   string `json:"summary"`
}

// Achievement awards race points.
type Achievement struct {
	ID      domain.AchievementID `json:"id,omitempty"`
	Title   string               `json:"title"`
	RPAward int                  `json:"rpAward"`
}

// RaceResult is the validated, fully populated outcome for one race.
// Every slice is non-nil after repair.
type RaceResult struct {
	RaceID                  domain.RaceID           `json:"raceId"`
	Narrative               string                  `json:"narrative"`
	PopulationChange        domain.PopulationChange `json:"populationChange"`
	Events                  []string                `json:"events"`
	EmergenceReason         string                  `json:"emergenceReason,omitempty"`
	UpdatedProblems         []domain.Problem        `json:"updatedProblems"`
	NewCharacter            *NewCharacter           `json:"newCharacter,omitempty"`
	CharacterLogEntries     []CharacterLogEntry     `json:"characterLogEntries"`
	FallenNotableCharacters []FallenCharacter       `json:"fallenNotableCharacters"`
	NamedCommonerDeaths     []CommonerDeath         `json:"namedCommonerDeaths"`
	NewCulture              *domain.DetailObject    `json:"newCulture,omitempty"`
	NewCultureLogEntry      *SocietyLogEntry        `json:"newCultureLogEntry,omitempty"`
	NewGovernment           *domain.DetailObject    `json:"newGovernment,omitempty"`
	NewReligion             *domain.DetailObject    `json:"newReligion,omitempty"`
	NewPoliticLogEntry      *SocietyLogEntry        `json:"newPoliticLogEntry,omitempty"`
	NewAchievements         []Achievement           `json:"newAchievements"`
	UpdatedOccupiedTiles    []domain.TileID         `json:"updatedOccupiedTiles"`
	UpdatedKnownTiles       []domain.TileID         `json:"updatedKnownTiles"`
	NewTechnologies         []string                `json:"newTechnologies"`
	NewSettlement           string                  `json:"newSettlement,omitempty"`
	Defaulted               bool                    `json:"defaulted,omitempty"`
}

// AdvanceOutput is the validated model response.
type AdvanceOutput struct {
	NewYear     int          `json:"newYear"`
	RaceResults []RaceResult `json:"raceResults"`
}
