package handler

import (
	"net/http"

	"worldforge/internal/domain"
	"worldforge/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxImportBytes bounds the body of an import request.
const maxImportBytes = 16 << 20

// WorldHandler serves the HTTP API.
type WorldHandler struct {
	worlds      *service.WorldService
	forge       *service.ForgeService
	influence   *service.InfluenceService
	advancement *service.AdvancementService
	aux         *service.AuxService
	worldMap    *domain.WorldMap
	logger      *zap.Logger
}

// NewWorldHandler creates a WorldHandler.
func NewWorldHandler(
	worlds *service.WorldService,
	forge *service.ForgeService,
	influence *service.InfluenceService,
	advancement *service.AdvancementService,
	aux *service.AuxService,
	worldMap *domain.WorldMap,
	logger *zap.Logger,
) *WorldHandler {
	return &WorldHandler{
		worlds:      worlds,
		forge:       forge,
		influence:   influence,
		advancement: advancement,
		aux:         aux,
		worldMap:    worldMap,
		logger:      logger.Named("WorldHandler"),
	}
}

// RegisterRoutes mounts the API on router.
func (h *WorldHandler) RegisterRoutes(router gin.IRouter) {
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.GET("/boons", h.listBoons)
		api.GET("/map", h.getMap)

		worlds := api.Group("/worlds")
		{
			worlds.POST("", h.createWorld)
			worlds.GET("", h.listWorlds)
			worlds.POST("/import", h.importWorld)
			worlds.GET("/:id", h.getWorld)
			worlds.DELETE("/:id", h.deleteWorld)
			worlds.GET("/:id/export", h.exportWorld)
			worlds.POST("/:id/advance", h.advanceTime)
			worlds.POST("/:id/chronicle", h.addChronicleEntry)
			worlds.POST("/:id/races", h.addRace)

			races := worlds.Group("/:id/races/:raceId")
			{
				races.POST("/boons", h.purchaseBoon)
				races.PUT("/boons/:boonId", h.toggleBoon)
				races.POST("/names", h.generateName)
				races.POST("/cataclysm", h.simulateCataclysm)
				races.POST("/deaths", h.simulateDeaths)
			}
		}
	}
}

func (h *WorldHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WorldHandler) listBoons(c *gin.Context) {
	c.JSON(http.StatusOK, h.influence.Boons())
}

func (h *WorldHandler) getMap(c *gin.Context) {
	c.JSON(http.StatusOK, h.worldMap.Tiles())
}

func worldIDParam(c *gin.Context) domain.WorldID {
	return domain.WorldID(c.Param("id"))
}

func raceIDParam(c *gin.Context) domain.RaceID {
	return domain.RaceID(c.Param("raceId"))
}
