package domain

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// BoonDuration decides whether a boon survives an advancement.
type BoonDuration string

const (
	DurationPermanent   BoonDuration = "Permanent"
	DurationNextEra     BoonDuration = "Next Era"
	DurationSingleEvent BoonDuration = "Single Event"
)

// BoonCategory groups boons in the store.
type BoonCategory string

const (
	CategoryIntervention BoonCategory = "Intervention"
	CategorySurvival     BoonCategory = "Survival"
	CategorySociety      BoonCategory = "Society"
	CategoryLeadership   BoonCategory = "Leadership"
)

// BoonTarget tells what a boon needs when purchased.
type BoonTarget string

const (
	TargetSelf      BoonTarget = "Self"
	TargetOtherRace BoonTarget = "OtherRace"
	TargetCharacter BoonTarget = "Character"
)

// Boon is a static catalog entry.
type Boon struct {
	ID          BoonID       `yaml:"id" json:"id"`
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Cost        int          `yaml:"cost" json:"cost"`
	Duration    BoonDuration `yaml:"duration" json:"duration"`
	Category    BoonCategory `yaml:"category" json:"category"`
	TargetType  BoonTarget   `yaml:"targetType" json:"targetType"`
}

// Permanent reports whether the boon survives advancements.
func (b Boon) Permanent() bool { return b.Duration == DurationPermanent }

//go:embed boons.yaml
var boonsYAML []byte

// BoonCatalog is the immutable set of purchasable boons.
type BoonCatalog struct {
	order []BoonID
	byID  map[BoonID]Boon
}

// ParseBoonCatalog decodes a catalog document.
func ParseBoonCatalog(data []byte) (*BoonCatalog, error) {
	var doc struct {
		Boons []Boon `yaml:"boons"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("boons.yaml: %w", err)
	}
	c := &BoonCatalog{byID: make(map[BoonID]Boon, len(doc.Boons))}
	for _, b := range doc.Boons {
		if b.ID == "" {
			return nil, fmt.Errorf("boons.yaml: boon without id")
		}
		if _, dup := c.byID[b.ID]; dup {
			return nil, fmt.Errorf("boons.yaml: duplicate boon %q", b.ID)
		}
		switch b.Duration {
		case DurationPermanent, DurationNextEra, DurationSingleEvent:
		default:
			return nil, fmt.Errorf("boons.yaml: boon %q has unknown duration %q", b.ID, b.Duration)
		}
		if b.Cost < 0 {
			return nil, fmt.Errorf("boons.yaml: boon %q has negative cost", b.ID)
		}
		c.order = append(c.order, b.ID)
		c.byID[b.ID] = b
	}
	return c, nil
}

var (
	defaultCatalog     *BoonCatalog
	defaultCatalogOnce sync.Once
)

// DefaultBoonCatalog returns the embedded catalog. It panics if the embedded
// document is malformed, which is caught by the package tests.
func DefaultBoonCatalog() *BoonCatalog {
	defaultCatalogOnce.Do(func() {
		c, err := ParseBoonCatalog(boonsYAML)
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Get looks up a boon by id.
func (c *BoonCatalog) Get(id BoonID) (Boon, bool) {
	b, ok := c.byID[id]
	return b, ok
}

// All returns the boons in catalog order.
func (c *BoonCatalog) All() []Boon {
	out := make([]Boon, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// IsPermanent reports whether id names a Permanent boon. Unknown ids are not permanent.
func (c *BoonCatalog) IsPermanent(id BoonID) bool {
	b, ok := c.byID[id]
	return ok && b.Permanent()
}
