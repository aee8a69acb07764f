package repository

import (
	"encoding/json"
	"fmt"
	"time"

	"worldforge/internal/domain"
	"worldforge/shared/models"
)

// ExportVersion is the current export document version.
const ExportVersion = 1

// exportDocument wraps a world with a version header. Checksum is the
// world's fingerprint at export time; documents without one are accepted.
type exportDocument struct {
	Version    int           `json:"version"`
	ExportedAt time.Time     `json:"exportedAt"`
	Checksum   string        `json:"checksum,omitempty"`
	World      *domain.World `json:"world"`
}

// ExportWorld encodes w as an indented, versioned JSON document.
func ExportWorld(w *domain.World) ([]byte, error) {
	if w == nil {
		return nil, fmt.Errorf("export: %w: nil world", models.ErrInvalidInput)
	}
	checksum, err := w.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("export world %s: %w", w.ID, err)
	}
	data, err := json.MarshalIndent(exportDocument{
		Version:    ExportVersion,
		ExportedAt: time.Now().UTC(),
		Checksum:   checksum,
		World:      w,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export world %s: %w", w.ID, err)
	}
	return data, nil
}

// ImportWorld decodes an export document, verifies its checksum when it
// carries one, and checks the world's structural invariants. A bare world
// object, as saved by older exports, is accepted too. A stale Population is
// recomputed rather than rejected.
func ImportWorld(data []byte) (*domain.World, error) {
	var doc exportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("import: %w: %v", models.ErrInvalidInput, err)
	}
	w := doc.World
	if w == nil {
		var bare domain.World
		if err := json.Unmarshal(data, &bare); err != nil {
			return nil, fmt.Errorf("import: %w: %v", models.ErrInvalidInput, err)
		}
		w = &bare
	} else if doc.Version > ExportVersion {
		return nil, fmt.Errorf("import: %w: unsupported export version %d", models.ErrInvalidInput, doc.Version)
	} else if doc.Checksum != "" {
		sum, err := w.Fingerprint()
		if err != nil {
			return nil, fmt.Errorf("import: %w", err)
		}
		if sum != doc.Checksum {
			return nil, fmt.Errorf("import: %w: checksum mismatch, the world was changed after export", models.ErrInvalidInput)
		}
	}

	if err := validateImportedWorld(w); err != nil {
		return nil, fmt.Errorf("import: %w: %v", models.ErrInvalidInput, err)
	}
	total := 0
	for _, r := range w.Races {
		total += r.Population
	}
	if total != w.Population {
		w.RecomputePopulation()
	}
	return w, nil
}

func validateImportedWorld(w *domain.World) error {
	if w.ID == "" {
		return fmt.Errorf("world id is missing")
	}
	if w.Era != "" && !w.Era.Valid() {
		return fmt.Errorf("unknown era %q", w.Era)
	}
	if w.CurrentYear < 0 {
		return fmt.Errorf("negative current year %d", w.CurrentYear)
	}
	raceIDs := make(map[domain.RaceID]bool, len(w.Races))
	for _, r := range w.Races {
		if r.ID == "" {
			return fmt.Errorf("race %q has no id", r.Name)
		}
		if raceIDs[r.ID] {
			return fmt.Errorf("duplicate race id %s", r.ID)
		}
		raceIDs[r.ID] = true
		if r.Population < 0 {
			return fmt.Errorf("race %s has negative population", r.ID)
		}
		known := make(map[domain.TileID]bool, len(r.KnownTiles))
		for _, t := range r.KnownTiles {
			known[t] = true
		}
		for _, t := range r.OccupiedTiles {
			if !known[t] {
				return fmt.Errorf("race %s occupies unknown tile %s", r.ID, t)
			}
		}
		for _, c := range r.NotableCharacters {
			if c.ID == "" {
				return fmt.Errorf("character %q of race %s has no id", c.Name, r.ID)
			}
			if c.Status != domain.StatusAlive && c.Status != domain.StatusDead {
				return fmt.Errorf("character %s has invalid status %q", c.ID, c.Status)
			}
		}
	}
	return nil
}
