package handler

import (
	"fmt"
	"net/http"

	"worldforge/shared/models"

	"github.com/gin-gonic/gin"
)

func (h *WorldHandler) generateName(c *gin.Context) {
	var req nameRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
			return
		}
	}
	out, err := h.aux.NameCharacter(c.Request.Context(), worldIDParam(c), raceIDParam(c), req.Context)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *WorldHandler) simulateCataclysm(c *gin.Context) {
	var req cataclysmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	res, err := h.aux.SimulateCataclysm(c.Request.Context(), worldIDParam(c), raceIDParam(c), req.Type, req.PreparationLevel)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *WorldHandler) simulateDeaths(c *gin.Context) {
	var req deathsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
			return
		}
	}
	res, err := h.aux.SimulateDeaths(c.Request.Context(), worldIDParam(c), raceIDParam(c), req.CharacterIDs, req.Reason)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, res)
}
