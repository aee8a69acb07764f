package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"worldforge/internal/service"
	"worldforge/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *WorldHandler) createWorld(c *gin.Context) {
	var req createWorldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	w, err := h.forge.CreateWorld(c.Request.Context(), req.Name, req.Era, req.CataclysmPreparations)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WorldHandler) listWorlds(c *gin.Context) {
	worlds, err := h.worlds.ListWorlds(c.Request.Context())
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	summaries := make([]worldSummary, 0, len(worlds))
	for _, w := range worlds {
		summaries = append(summaries, toSummary(w))
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *WorldHandler) getWorld(c *gin.Context) {
	w, err := h.worlds.GetWorld(c.Request.Context(), worldIDParam(c))
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorldHandler) deleteWorld(c *gin.Context) {
	if err := h.worlds.DeleteWorld(c.Request.Context(), worldIDParam(c)); err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorldHandler) exportWorld(c *gin.Context) {
	id := worldIDParam(c)
	data, err := h.worlds.ExportWorld(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="world-%s.json"`, id))
	c.Data(http.StatusOK, "application/json", data)
}

func (h *WorldHandler) importWorld(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes))
	if err != nil {
		handleServiceError(c, fmt.Errorf("%w: read body: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	w, err := h.worlds.ImportWorld(c.Request.Context(), body)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, w)
}

func (h *WorldHandler) addRace(c *gin.Context) {
	var draft service.RaceDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	_, race, err := h.forge.AddRace(c.Request.Context(), worldIDParam(c), draft)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusCreated, race)
}

// advanceTime never answers a model failure with an error status; the
// caller receives success=false and may retry.
func (h *WorldHandler) advanceTime(c *gin.Context) {
	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	id := worldIDParam(c)
	res, err := h.advancement.AdvanceTime(c.Request.Context(), id, req.Years)
	if err != nil {
		if errors.Is(err, models.ErrModelUnavailable) {
			h.logger.Warn("Advancement produced no usable output", zap.String("worldID", id.String()), zap.Error(err))
			c.JSON(http.StatusOK, advanceResponse{Success: false, Error: modelUnavailableMessage})
			return
		}
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, advanceResponse{Success: true, Data: &res.Output, World: res.World})
}
