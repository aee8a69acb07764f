package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MapSize is the edge length of the square world grid.
const MapSize = 20

// Biome of a map tile.
type Biome string

const (
	BiomePlains    Biome = "Plains"
	BiomeForest    Biome = "Forest"
	BiomeMountains Biome = "Mountains"
	BiomeOcean     Biome = "Ocean"
	BiomeDesert    Biome = "Desert"
	BiomeTundra    Biome = "Tundra"
)

// MapTile is one cell of the world grid. Occupancy lives on races.
type MapTile struct {
	ID        TileID   `json:"id"`
	X         int      `json:"x"`
	Y         int      `json:"y"`
	Biome     Biome    `json:"biome"`
	Resources []string `json:"resources"`
}

// WorldMap is a fixed grid of tiles addressed by TileID.
type WorldMap struct {
	size  int
	tiles []MapTile
	index map[TileID]int
}

// TileIDAt formats the id of the tile at (x, y).
func TileIDAt(x, y int) TileID {
	return TileID(fmt.Sprintf("tile-%d-%d", x, y))
}

// ParseTileID extracts coordinates from an id of the form tile-x-y.
func ParseTileID(id TileID) (x, y int, err error) {
	parts := strings.Split(string(id), "-")
	if len(parts) != 3 || parts[0] != "tile" {
		return 0, 0, fmt.Errorf("malformed tile id %q", id)
	}
	if x, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, fmt.Errorf("malformed tile id %q: %w", id, err)
	}
	if y, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, fmt.Errorf("malformed tile id %q: %w", id, err)
	}
	return x, y, nil
}

// GenerateWorldMap fills a MapSize x MapSize grid: an ocean rim three tiles
// wide, a small mountain block, forest along the southern edge, plains elsewhere.
func GenerateWorldMap() *WorldMap {
	m := &WorldMap{size: MapSize, index: make(map[TileID]int, MapSize*MapSize)}
	for y := 0; y < MapSize; y++ {
		for x := 0; x < MapSize; x++ {
			biome := BiomePlains
			switch {
			case x < 3 || x > MapSize-3 || y < 3 || y > MapSize-3:
				biome = BiomeOcean
			case x > 5 && x < 8 && y > 5 && y < 8:
				biome = BiomeMountains
			case y > 15:
				biome = BiomeForest
			}
			id := TileIDAt(x, y)
			m.index[id] = len(m.tiles)
			m.tiles = append(m.tiles, MapTile{ID: id, X: x, Y: y, Biome: biome, Resources: []string{}})
		}
	}
	return m
}

// Tiles returns the tiles in row-major order.
func (m *WorldMap) Tiles() []MapTile { return m.tiles }

// Has reports whether id resolves to a tile.
func (m *WorldMap) Has(id TileID) bool {
	_, ok := m.index[id]
	return ok
}

// Tile looks up a tile by id.
func (m *WorldMap) Tile(id TileID) (MapTile, bool) {
	i, ok := m.index[id]
	if !ok {
		return MapTile{}, false
	}
	return m.tiles[i], true
}

// Neighbours returns the in-bounds 4-directional neighbours of id
// (north, south, west, east). Unknown ids have no neighbours.
func (m *WorldMap) Neighbours(id TileID) []TileID {
	x, y, err := ParseTileID(id)
	if err != nil || !m.Has(id) {
		return nil
	}
	candidates := [][2]int{{x, y - 1}, {x, y + 1}, {x - 1, y}, {x + 1, y}}
	out := make([]TileID, 0, 4)
	for _, c := range candidates {
		if c[0] < 0 || c[1] < 0 || c[0] >= m.size || c[1] >= m.size {
			continue
		}
		out = append(out, TileIDAt(c[0], c[1]))
	}
	return out
}

// FirstLandTile returns the first non-ocean tile not present in taken,
// scanning from the map centre outwards row by row.
func (m *WorldMap) FirstLandTile(taken map[TileID]bool) (TileID, bool) {
	centre := m.size / 2
	for r := 0; r < m.size; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if abs(dx) != r && abs(dy) != r {
					continue
				}
				id := TileIDAt(centre+dx, centre+dy)
				t, ok := m.Tile(id)
				if !ok || t.Biome == BiomeOcean || taken[id] {
					continue
				}
				return id, true
			}
		}
	}
	return "", false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
