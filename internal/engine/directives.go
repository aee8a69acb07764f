package engine

import (
	"sort"
	"strings"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
)

// BuildRaceInputs projects every race of the world into the shape the model
// receives. Active boons become a flag map, pending directives are scoped to
// their race, and known tiles are hydrated with map data and the names of
// other races occupying them. Known tiles that are not on the map are left out.
func BuildRaceInputs(world *domain.World, worldMap *domain.WorldMap) []schemas.RaceInput {
	occupants := make(map[domain.TileID][]occupant)
	for _, r := range world.Races {
		for _, tile := range r.OccupiedTiles {
			occupants[tile] = append(occupants[tile], occupant{id: r.ID, name: r.Name})
		}
	}

	inputs := make([]schemas.RaceInput, 0, len(world.Races))
	for i := range world.Races {
		race := &world.Races[i]

		boons := make(map[domain.BoonID]bool, len(race.ActiveBoons))
		for _, id := range race.ActiveBoons {
			boons[id] = true
		}

		living := race.LivingCharacters()
		sheets := make([]schemas.LivingCharacter, 0, len(living))
		for _, c := range living {
			sheets = append(sheets, schemas.LivingCharacter{
				ID:            c.ID,
				Name:          c.Name,
				Age:           c.Age,
				Title:         c.Title,
				Class:         c.Class,
				Ambition:      c.Ambition,
				Traits:        nonNil(c.Traits),
				Skills:        nonNil(c.Skills),
				SpecialTraits: nonNil(c.SpecialTraits),
			})
		}

		known := make([]schemas.KnownTile, 0, len(race.KnownTiles))
		for _, id := range race.KnownTiles {
			tile, ok := worldMap.Tile(id)
			if !ok {
				continue
			}
			known = append(known, schemas.KnownTile{MapTile: tile, Occupant: otherOccupants(occupants[id], race.ID)})
		}

		directives := make([]schemas.DirectiveInput, 0)
		for _, d := range world.DirectivesFor(race.ID) {
			directives = append(directives, schemas.DirectiveInput{
				BoonID:  d.BoonID,
				Targets: nonNil(d.Targets),
				Content: d.Content,
			})
		}

		inputs = append(inputs, schemas.RaceInput{
			ID:                   race.ID,
			Name:                 race.Name,
			Traits:               race.Traits,
			Population:           race.Population,
			Settlement:           race.Settlement,
			Culture:              race.Culture,
			Government:           race.Government,
			Religion:             race.Religion,
			LivingCharacters:     sheets,
			LivingCharacterCount: len(sheets),
			Problems:             nonNil(race.Problems),
			Boons:                boons,
			ActiveBoons:          nonNil(race.ActiveBoons),
			NamingProfile:        race.NamingProfile,
			OccupiedTiles:        nonNil(race.OccupiedTiles),
			KnownTiles:           known,
			Technologies:         nonNil(race.Technologies),
			ExistingNames:        race.CharacterNames(),
			Directives:           directives,
		})
	}
	return inputs
}

// BuildAdvanceInput assembles the complete model input for advancing world by years.
func BuildAdvanceInput(world *domain.World, worldMap *domain.WorldMap, years int) schemas.AdvanceInput {
	return schemas.AdvanceInput{
		Years:          years,
		WorldName:      world.Name,
		Era:            world.Era,
		CurrentYear:    world.CurrentYear,
		Races:          BuildRaceInputs(world, worldMap),
		ChronicleEntry: world.ChronicleEntry(),
		BoonDirectives: world.BoonDirectives,
		WorldMap:       worldMap.Tiles(),
	}
}

type occupant struct {
	id   domain.RaceID
	name string
}

func otherOccupants(all []occupant, self domain.RaceID) string {
	var names []string
	for _, o := range all {
		if o.id != self {
			names = append(names, o.name)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
