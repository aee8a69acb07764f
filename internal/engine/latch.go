package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"worldforge/internal/domain"
	"worldforge/shared/models"
)

// Latch guards a world against concurrent advancements. TryAcquire never
// waits: a busy world yields models.ErrAdvanceInProgress.
type Latch interface {
	TryAcquire(ctx context.Context, worldID domain.WorldID) (release func(), err error)
}

// LocalLatch is an in-process Latch with one weighted semaphore per world.
type LocalLatch struct {
	mu    sync.Mutex
	slots map[domain.WorldID]*semaphore.Weighted
}

var _ Latch = (*LocalLatch)(nil)

// NewLocalLatch creates an empty LocalLatch.
func NewLocalLatch() *LocalLatch {
	return &LocalLatch{slots: make(map[domain.WorldID]*semaphore.Weighted)}
}

func (l *LocalLatch) slot(worldID domain.WorldID) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[worldID]
	if !ok {
		s = semaphore.NewWeighted(1)
		l.slots[worldID] = s
	}
	return s
}

// TryAcquire implements Latch.
func (l *LocalLatch) TryAcquire(_ context.Context, worldID domain.WorldID) (func(), error) {
	s := l.slot(worldID)
	if !s.TryAcquire(1) {
		return nil, fmt.Errorf("world %s: %w", worldID, models.ErrAdvanceInProgress)
	}
	var once sync.Once
	return func() { once.Do(func() { s.Release(1) }) }, nil
}

// releaseScript deletes the lock only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLatch is a Latch shared by every replica using the same Redis.
// The lock expires after ttl so that a crashed holder cannot block a world forever.
type RedisLatch struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

var _ Latch = (*RedisLatch)(nil)

// NewRedisLatch creates a RedisLatch storing locks under prefix.
func NewRedisLatch(client redis.UniversalClient, prefix string, ttl time.Duration, logger *zap.Logger) *RedisLatch {
	return &RedisLatch{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Named("RedisLatch"),
	}
}

func (l *RedisLatch) key(worldID domain.WorldID) string {
	return fmt.Sprintf("%s:advance-lock:%s", l.prefix, worldID)
}

// TryAcquire implements Latch.
func (l *RedisLatch) TryAcquire(ctx context.Context, worldID domain.WorldID) (func(), error) {
	key := l.key(worldID)
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire advance lock for world %s: %w", worldID, err)
	}
	if !ok {
		return nil, fmt.Errorf("world %s: %w", worldID, models.ErrAdvanceInProgress)
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The caller's context may already be done; release on a fresh one.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				l.logger.Error("Failed to release advance lock",
					zap.String("worldID", worldID.String()), zap.Error(err))
			}
		})
	}
	return release, nil
}
