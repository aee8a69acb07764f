package repository

import (
	"context"
	"errors"
	"fmt"

	"worldforge/internal/domain"
	"worldforge/shared/models"

	"github.com/klauspost/compress/zstd"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ WorldRepository = (*redisWorldRepository)(nil)

// redisWorldRepository keeps each world as a zstd-compressed JSON blob at
// <prefix>:world:<id> and tracks ids in the <prefix>:worlds:index set.
type redisWorldRepository struct {
	client  redis.UniversalClient
	prefix  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	logger  *zap.Logger
}

// NewRedisWorldRepository creates a Redis-backed store.
func NewRedisWorldRepository(client redis.UniversalClient, prefix string, logger *zap.Logger) (WorldRepository, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &redisWorldRepository{
		client:  client,
		prefix:  prefix,
		encoder: encoder,
		decoder: decoder,
		logger:  logger.Named("RedisWorldRepo"),
	}, nil
}

func (r *redisWorldRepository) worldKey(id domain.WorldID) string {
	return fmt.Sprintf("%s:world:%s", r.prefix, id)
}

func (r *redisWorldRepository) indexKey() string {
	return r.prefix + ":worlds:index"
}

func (r *redisWorldRepository) decode(id string, blob []byte) (*domain.World, error) {
	data, err := r.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress world %s: %w", id, err)
	}
	return decodeWorld(data)
}

func (r *redisWorldRepository) Get(ctx context.Context, id domain.WorldID) (*domain.World, error) {
	blob, err := r.client.Get(ctx, r.worldKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("world %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error getting world", zap.String("worldID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get world %s: %w", id, err)
	}
	return r.decode(id.String(), blob)
}

func (r *redisWorldRepository) Save(ctx context.Context, world *domain.World) error {
	data, err := encodeWorld(world)
	if err != nil {
		return err
	}
	blob := r.encoder.EncodeAll(data, nil)

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.worldKey(world.ID), blob, 0)
	pipe.SAdd(ctx, r.indexKey(), world.ID.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Error saving world", zap.String("worldID", world.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to save world %s: %w", world.ID, err)
	}
	r.logger.Debug("World saved",
		zap.String("worldID", world.ID.String()),
		zap.Int("bytes", len(data)),
		zap.Int("compressedBytes", len(blob)),
	)
	return nil
}

func (r *redisWorldRepository) Delete(ctx context.Context, id domain.WorldID) error {
	pipe := r.client.TxPipeline()
	del := pipe.Del(ctx, r.worldKey(id))
	pipe.SRem(ctx, r.indexKey(), id.String())
	if _, err := pipe.Exec(ctx); err != nil {
		r.logger.Error("Error deleting world", zap.String("worldID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete world %s: %w", id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("world %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *redisWorldRepository) List(ctx context.Context) ([]*domain.World, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		r.logger.Error("Error listing world ids", zap.Error(err))
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	if len(ids) == 0 {
		return []*domain.World{}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, r.worldKey(domain.WorldID(id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		r.logger.Error("Error loading worlds", zap.Error(err))
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}

	worlds := make([]*domain.World, 0, len(ids))
	for i, cmd := range cmds {
		blob, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			r.logger.Warn("Indexed world is missing, skipping", zap.String("worldID", ids[i]))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load world %s: %w", ids[i], err)
		}
		w, err := r.decode(ids[i], blob)
		if err != nil {
			return nil, err
		}
		worlds = append(worlds, w)
	}
	sortWorlds(worlds)
	return worlds, nil
}
