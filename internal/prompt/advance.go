package prompt

import (
	"fmt"
	"strings"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
)

type advanceView struct {
	Persona     string
	WorldName   string
	Era         domain.Era
	CurrentYear int
	NewYear     int
	Years       int
	Chronicle   string
	Races       []raceView
	Tiles       []string
}

type raceView struct {
	ID            domain.RaceID
	Name          string
	Traits        string
	Settlement    string
	Population    int
	Culture       string
	Government    string
	Religion      string
	NamingProfile string
	LivingCount   int
	Characters    []string
	ExistingNames string
	Boons         string
	Problems      []string
	Technologies  string
	Occupied      string
	KnownTiles    []string
	Directives    []string
}

// BuildAdvancePrompt renders the system and user documents of an advancement call.
func BuildAdvancePrompt(in schemas.AdvanceInput) (system, user string, err error) {
	view := advanceView{
		Persona:     Persona(in.Era),
		WorldName:   in.WorldName,
		Era:         in.Era,
		CurrentYear: in.CurrentYear,
		NewYear:     in.CurrentYear + in.Years,
		Years:       in.Years,
		Chronicle:   strings.TrimSpace(in.ChronicleEntry),
		Races:       make([]raceView, 0, len(in.Races)),
		Tiles:       make([]string, 0, len(in.WorldMap)),
	}
	for _, r := range in.Races {
		view.Races = append(view.Races, newRaceView(r))
	}
	for _, t := range in.WorldMap {
		view.Tiles = append(view.Tiles, fmt.Sprintf("%s %s [%s]", t.ID, t.Biome, joinOrNone(t.Resources)))
	}
	return renderPair("advance", view)
}

func newRaceView(r schemas.RaceInput) raceView {
	v := raceView{
		ID:            r.ID,
		Name:          r.Name,
		Traits:        orNone(r.Traits),
		Settlement:    orNone(r.Settlement),
		Population:    r.Population,
		Culture:       detail(r.Culture),
		Government:    detail(r.Government),
		Religion:      detail(r.Religion),
		NamingProfile: None,
		LivingCount:   r.LivingCharacterCount,
		ExistingNames: joinOrNone(r.ExistingNames),
		Boons:         joinOrNone(r.ActiveBoons),
		Technologies:  joinOrNone(r.Technologies),
		Occupied:      joinOrNone(r.OccupiedTiles),
	}
	if p := r.NamingProfile; p != nil {
		v.NamingProfile = fmt.Sprintf("inspiration %s; phonemes %s; structure %s",
			orNone(p.Inspiration), orNone(p.Phonemes), orNone(p.LanguageStructure))
	}
	for _, c := range r.LivingCharacters {
		v.Characters = append(v.Characters, fmt.Sprintf(
			"id %s | %s, age %d | title %s | class %s | ambition %s | traits %s | skills %s | special %s",
			c.ID, c.Name, c.Age, orNone(c.Title), orNone(c.Class), orNone(string(c.Ambition)),
			joinOrNone(c.Traits), joinOrNone(c.Skills), joinOrNone(c.SpecialTraits)))
	}
	for _, p := range r.Problems {
		v.Problems = append(v.Problems, fmt.Sprintf("%s [%s] (%s): %s", p.Title, p.ID, p.Severity, orNone(p.Description)))
	}
	for _, t := range r.KnownTiles {
		v.KnownTiles = append(v.KnownTiles, fmt.Sprintf("%s %s [%s] occupied by %s",
			t.ID, t.Biome, joinOrNone(t.Resources), orNone(t.Occupant)))
	}
	for _, d := range r.Directives {
		v.Directives = append(v.Directives, fmt.Sprintf("boon %s | targets %s | content %s",
			d.BoonID, joinOrNone(d.Targets), orNone(d.Content)))
	}
	return v
}

func detail(d domain.DetailObject) string {
	if d.Name == "" {
		return orNone(d.Description)
	}
	if d.Description == "" {
		return d.Name
	}
	return d.Name + ": " + d.Description
}
