// Package app wires the world history services from configuration. The HTTP
// server and the worldctl CLI share it.
package app

import (
	"context"
	"fmt"
	"time"

	"worldforge/internal/config"
	"worldforge/internal/domain"
	"worldforge/internal/engine"
	"worldforge/internal/messaging"
	"worldforge/internal/repository"
	"worldforge/internal/schemas"
	"worldforge/internal/service"

	"go.uber.org/zap"
)

const (
	rabbitMaxRetries  = 10
	connectRetryDelay = 3 * time.Second
)

// App holds every wired service and the connections backing them.
type App struct {
	Config   *config.Config
	Store    *repository.Store
	Catalog  *domain.BoonCatalog
	WorldMap *domain.WorldMap

	Worlds      *service.WorldService
	Forge       *service.ForgeService
	Influence   *service.InfluenceService
	Advancement *service.AdvancementService
	Aux         *service.AuxService

	closers []func()
}

// Build opens the store, the model client and the event publisher and wires
// the services on top of them.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Catalog:  domain.DefaultBoonCatalog(),
		WorldMap: domain.GenerateWorldMap(),
	}

	store, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open world store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	validator, err := schemas.NewValidator()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("compile output schemas: %w", err)
	}

	aiClient, err := service.NewAIClient(cfg, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create AI client: %w", err)
	}
	caller := service.NewStructuredCaller(aiClient, cfg, logger)

	var latch engine.Latch
	if cfg.UseRedisLatch && store.Redis != nil {
		latch = engine.NewRedisLatch(store.Redis, cfg.RedisKeyPrefix, cfg.LatchTTL, logger)
		logger.Info("Using Redis advancement latch", zap.Duration("ttl", cfg.LatchTTL))
	} else {
		latch = engine.NewLocalLatch()
	}

	publisher, err := a.setupPublisher(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Worlds = service.NewWorldService(store.Worlds, latch, logger)
	a.Aux = service.NewAuxService(store.Worlds, latch, caller, validator, cfg, logger)
	a.Forge = service.NewForgeService(store.Worlds, latch, a.Aux, a.WorldMap, logger)
	a.Influence = service.NewInfluenceService(store.Worlds, latch, a.Catalog, logger)
	a.Advancement = service.NewAdvancementService(store.Worlds, caller, latch, publisher, validator, a.Catalog, a.WorldMap, logger)
	return a, nil
}

func (a *App) setupPublisher(cfg *config.Config, logger *zap.Logger) (messaging.EventPublisher, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("RABBITMQ_URL not set, world events are not published")
		return messaging.NewNoopPublisher(logger), nil
	}
	conn, err := messaging.ConnectRabbitMQ(cfg.RabbitMQURL, rabbitMaxRetries, connectRetryDelay, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	publisher, err := messaging.NewRabbitMQEventPublisher(conn, cfg.WorldEventsQueue, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = publisher.Close() })
	return publisher, nil
}

// Close releases connections in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
