package handler

import (
	"fmt"
	"net/http"

	"worldforge/internal/domain"
	"worldforge/shared/models"

	"github.com/gin-gonic/gin"
)

func (h *WorldHandler) addChronicleEntry(c *gin.Context) {
	var req chronicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	w, err := h.influence.AddChronicleEntry(c.Request.Context(), worldIDParam(c), req.Text)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, w)
}

func (h *WorldHandler) purchaseBoon(c *gin.Context) {
	var req purchaseBoonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	res, err := h.influence.PurchaseBoon(c.Request.Context(), worldIDParam(c), raceIDParam(c), req.BoonID, req.Targets, req.Content)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *WorldHandler) toggleBoon(c *gin.Context) {
	var req toggleBoonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, fmt.Errorf("%w: %v", models.ErrBadRequest, err), h.logger)
		return
	}
	w, err := h.influence.ToggleBoon(c.Request.Context(), worldIDParam(c), raceIDParam(c), domain.BoonID(c.Param("boonId")), *req.Active)
	if err != nil {
		handleServiceError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, w)
}
