package handler

import (
	"time"

	"worldforge/internal/domain"
	"worldforge/internal/schemas"
)

type createWorldRequest struct {
	Name                  string     `json:"name" binding:"required"`
	Era                   domain.Era `json:"era"`
	CataclysmPreparations string     `json:"cataclysmPreparations"`
}

type worldSummary struct {
	ID          domain.WorldID `json:"id"`
	Name        string         `json:"name"`
	Era         domain.Era     `json:"era"`
	CurrentYear int            `json:"currentYear"`
	Population  int            `json:"population"`
	Races       int            `json:"races"`
	UpdatedAt   string         `json:"updatedAt"`
}

func toSummary(w *domain.World) worldSummary {
	return worldSummary{
		ID:          w.ID,
		Name:        w.Name,
		Era:         w.Era,
		CurrentYear: w.CurrentYear,
		Population:  w.Population,
		Races:       len(w.Races),
		UpdatedAt:   w.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type chronicleRequest struct {
	Text string `json:"text" binding:"required"`
}

type purchaseBoonRequest struct {
	BoonID  domain.BoonID        `json:"boonId" binding:"required"`
	Targets []domain.CharacterID `json:"targets"`
	Content string               `json:"content"`
}

type toggleBoonRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type advanceRequest struct {
	Years int `json:"years"`
}

// advanceResponse is the action contract of the advance route: model
// failures come back as success=false with HTTP 200.
type advanceResponse struct {
	Success bool                   `json:"success"`
	Data    *schemas.AdvanceOutput `json:"data,omitempty"`
	World   *domain.World          `json:"world,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type nameRequest struct {
	Context string `json:"context"`
}

type cataclysmRequest struct {
	Type             schemas.CataclysmType `json:"type" binding:"required"`
	PreparationLevel int                   `json:"preparationLevel"`
}

type deathsRequest struct {
	CharacterIDs []domain.CharacterID `json:"characterIds"`
	Reason       string               `json:"reason"`
}
