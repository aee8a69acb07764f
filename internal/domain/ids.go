package domain

import "github.com/google/uuid"

// Identifier types. The model joins its output back to world state by these
// ids, so they are kept distinct to avoid mixing a race id with a character id.
type (
	WorldID       string
	RaceID        string
	CharacterID   string
	ProblemID     string
	BoonID        string
	DirectiveID   string
	TileID        string
	AchievementID string
)

// NewWorldID returns a random world id.
func NewWorldID() WorldID { return WorldID(uuid.NewString()) }

// NewRaceID returns a random race id.
func NewRaceID() RaceID { return RaceID(uuid.NewString()) }

// NewCharacterID returns a random character id.
func NewCharacterID() CharacterID { return CharacterID(uuid.NewString()) }

func (id WorldID) String() string     { return string(id) }
func (id RaceID) String() string      { return string(id) }
func (id CharacterID) String() string { return string(id) }
func (id BoonID) String() string      { return string(id) }
func (id TileID) String() string      { return string(id) }
