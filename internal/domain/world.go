package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Era is the coarse historical epoch of a world.
type Era string

const (
	EraPrimal    Era = "Primal Era"
	EraTribal    Era = "Tribal Era"
	EraClassical Era = "Classical Era"
)

// Valid reports whether e is a known era.
func (e Era) Valid() bool {
	switch e {
	case EraPrimal, EraTribal, EraClassical:
		return true
	}
	return false
}

// CharacterStatus is alive or dead. The transition to dead is one-way.
type CharacterStatus string

const (
	StatusAlive CharacterStatus = "alive"
	StatusDead  CharacterStatus = "dead"
)

// Ambition is a notable character's primary life goal.
type Ambition string

const (
	AmbitionSurvival  Ambition = "Survival"
	AmbitionPower     Ambition = "Power"
	AmbitionKnowledge Ambition = "Knowledge"
	AmbitionCommunity Ambition = "Community"
)

// Valid reports whether a is a known ambition.
func (a Ambition) Valid() bool {
	switch a {
	case AmbitionSurvival, AmbitionPower, AmbitionKnowledge, AmbitionCommunity:
		return true
	}
	return false
}

// Character sheet limits.
const (
	MaxTraits        = 3
	MaxSkills        = 3
	MaxSpecialTraits = 2
)

// NarrativeType tags entries of the world narrative log.
type NarrativeType string

const (
	NarrativeNarrative  NarrativeType = "narrative"
	NarrativePopulation NarrativeType = "population"
	NarrativeCharacter  NarrativeType = "character"
	NarrativeProblem    NarrativeType = "problem"
	NarrativeSociety    NarrativeType = "society"
	NarrativeDiscovery  NarrativeType = "discovery"
	NarrativeCataclysm  NarrativeType = "cataclysm"
	NarrativeDeath      NarrativeType = "death"
	NarrativeUser       NarrativeType = "user"
)

// NarrativeEntry is one line of the world's audit history.
type NarrativeEntry struct {
	Year    int           `json:"year"`
	Type    NarrativeType `json:"type"`
	Content string        `json:"content"`
}

// DetailObject describes a culture, government or religion.
type DetailObject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LogEntry is an entry of a race's culture or political log.
type LogEntry struct {
	Year      int    `json:"year"`
	EventName string `json:"eventName"`
	Summary   string `json:"summary"`
}

// NamingProfile holds linguistic parameters for name generation.
type NamingProfile struct {
	Phonemes          string `json:"phonemes"`
	Inspiration       string `json:"inspiration"`
	LanguageStructure string `json:"languageStructure"`
}

// PersonalLogEntry is a first-person diary line of a character.
type PersonalLogEntry struct {
	Year  int    `json:"year"`
	Entry string `json:"entry"`
}

// DeathDetails is attached to a character exactly once, when it dies.
type DeathDetails struct {
	Reason         string `json:"reason"`
	FavoriteThing  string `json:"favoriteThing"`
	HappiestMemory string `json:"happiestMemory"`
	LastThought    string `json:"lastThought"`
}

// NotableCharacter is owned by exactly one race.
type NotableCharacter struct {
	ID            CharacterID        `json:"id"`
	RaceID        RaceID             `json:"raceId"`
	Name          string             `json:"name"`
	Status        CharacterStatus    `json:"status"`
	Age           int                `json:"age"`
	Title         string             `json:"title"`
	Class         string             `json:"class"`
	Ambition      Ambition           `json:"ambition"`
	Traits        []string           `json:"traits"`
	Skills        []string           `json:"skills"`
	SpecialTraits []string           `json:"specialTraits"`
	PersonalLog   []PersonalLogEntry `json:"personalLog"`
	DeathYear     *int               `json:"deathYear,omitempty"`
	DeathDetails  *DeathDetails      `json:"deathDetails,omitempty"`
	NamingProfile *NamingProfile     `json:"namingProfile,omitempty"`
}

// Alive reports whether the character is alive.
func (c *NotableCharacter) Alive() bool { return c.Status == StatusAlive }

// Kill marks the character dead. It returns false, and changes nothing, when
// the character is already dead.
func (c *NotableCharacter) Kill(year int, details *DeathDetails) bool {
	if !c.Alive() {
		return false
	}
	c.Status = StatusDead
	c.DeathYear = &year
	c.DeathDetails = details
	return true
}

// Problem is a hazard a race faces.
type Problem struct {
	ID          ProblemID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
}

// PopulationChange is the demographic delta of one advancement.
type PopulationChange struct {
	Born          int `json:"born"`
	Died          int `json:"died"`
	NewPopulation int `json:"newPopulation"`
}

// HistoryEntry is appended once per race per advancement and never edited.
type HistoryEntry struct {
	Year             int              `json:"year"`
	Summary          string           `json:"summary"`
	PopulationChange PopulationChange `json:"populationChange"`
	Events           []string         `json:"events"`
	EmergenceReason  string           `json:"emergenceReason,omitempty"`
}

// Race is owned by a World.
type Race struct {
	ID                  RaceID             `json:"id"`
	Name                string             `json:"name"`
	Population          int                `json:"population"`
	RacePoints          int                `json:"racePoints"`
	ActiveBoons         []BoonID           `json:"activeBoons"`
	Traits              string             `json:"traits"`
	Status              string             `json:"status"`
	Problems            []Problem          `json:"problems"`
	NotableCharacters   []NotableCharacter `json:"notableCharacters"`
	History             []HistoryEntry     `json:"history"`
	Culture             DetailObject       `json:"culture"`
	Government          DetailObject       `json:"government"`
	Religion            DetailObject       `json:"religion"`
	CultureLog          []LogEntry         `json:"cultureLog"`
	PoliticalLog        []LogEntry         `json:"politicalLog"`
	OccupiedTiles       []TileID           `json:"occupiedTiles"`
	KnownTiles          []TileID           `json:"knownTiles"`
	Technologies        []string           `json:"technologies"`
	Settlement          string             `json:"settlement"`
	NamingProfile       *NamingProfile     `json:"namingProfile,omitempty"`
	GrantedAchievements []AchievementID    `json:"grantedAchievements,omitempty"`
}

// Character returns a pointer into the roster, or nil.
func (r *Race) Character(id CharacterID) *NotableCharacter {
	for i := range r.NotableCharacters {
		if r.NotableCharacters[i].ID == id {
			return &r.NotableCharacters[i]
		}
	}
	return nil
}

// LivingCharacters returns copies of the alive characters in roster order.
func (r *Race) LivingCharacters() []NotableCharacter {
	living := make([]NotableCharacter, 0, len(r.NotableCharacters))
	for _, c := range r.NotableCharacters {
		if c.Alive() {
			living = append(living, c)
		}
	}
	return living
}

// LivingCount returns the number of alive characters.
func (r *Race) LivingCount() int {
	n := 0
	for _, c := range r.NotableCharacters {
		if c.Alive() {
			n++
		}
	}
	return n
}

// CharacterNames returns every character name, alive or dead.
func (r *Race) CharacterNames() []string {
	names := make([]string, 0, len(r.NotableCharacters))
	for _, c := range r.NotableCharacters {
		names = append(names, c.Name)
	}
	return names
}

// HasBoon reports whether id is currently active.
func (r *Race) HasBoon(id BoonID) bool {
	for _, b := range r.ActiveBoons {
		if b == id {
			return true
		}
	}
	return false
}

// BoonDirective is a one-shot instruction consumed by the next advancement.
type BoonDirective struct {
	ID      DirectiveID   `json:"id"`
	BoonID  BoonID        `json:"boonId"`
	RaceID  RaceID        `json:"raceId"`
	Targets []CharacterID `json:"targets"`
	Content string        `json:"content"`
}

// World is the aggregate root.
type World struct {
	ID                    WorldID          `json:"id"`
	Name                  string           `json:"name"`
	Era                   Era              `json:"era"`
	CurrentYear           int              `json:"currentYear"`
	Races                 []Race           `json:"races"`
	Population            int              `json:"population"`
	SignificantEvents     []string         `json:"significantEvents"`
	CataclysmPreparations string           `json:"cataclysmPreparations"`
	NarrativeLog          []NarrativeEntry `json:"narrativeLog"`
	BoonDirectives        []BoonDirective  `json:"boonDirectives"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// Race returns a pointer into the race list, or nil.
func (w *World) Race(id RaceID) *Race {
	for i := range w.Races {
		if w.Races[i].ID == id {
			return &w.Races[i]
		}
	}
	return nil
}

// RecomputePopulation sets Population to the sum of race populations.
func (w *World) RecomputePopulation() {
	total := 0
	for _, r := range w.Races {
		total += r.Population
	}
	w.Population = total
}

// ChronicleEntry returns the active Creator guidance, the last significant
// event, or "" when there is none.
func (w *World) ChronicleEntry() string {
	if len(w.SignificantEvents) == 0 {
		return ""
	}
	return w.SignificantEvents[len(w.SignificantEvents)-1]
}

// DirectivesFor returns the pending directives scoped to raceID.
func (w *World) DirectivesFor(raceID RaceID) []BoonDirective {
	var out []BoonDirective
	for _, d := range w.BoonDirectives {
		if d.RaceID == raceID {
			out = append(out, d)
		}
	}
	return out
}

// Clone returns a deep copy of the world.
func (w *World) Clone() (*World, error) {
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("clone world %s: %w", w.ID, err)
	}
	var out World
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clone world %s: %w", w.ID, err)
	}
	return &out, nil
}
