package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/resilience"
)

const redisKeyPrefix = "ctf:leaderboard:"

// redisCommands is the subset of the go-redis client the cache needs.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	TTL            time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// RedisLeaderboardCache shares standings between API replicas. Each event has
// a generation counter; invalidation increments it, which orphans every
// previously written board so a slow loader can never resurrect stale data.
// When redis is unreachable the cache degrades to computing directly.
type RedisLeaderboardCache struct {
	client   redisCommands
	ttl      time.Duration
	flight   resilience.Group[[]leaderboard.Standing]
	breaker  *resilience.CircuitBreaker
	observer LookupObserver
	logger   *logging.Logger
}

// NewRedisClient opens a client and checks connectivity.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 32,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, crerr.Wrapf(err, "ping redis addr=%s", cfg.Addr)
	}
	return client, nil
}

func NewRedisLeaderboardCache(client redisCommands, cfg RedisConfig, observer LookupObserver, logger *logging.Logger) *RedisLeaderboardCache {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	breaker := resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker)
	breaker.OnStateChange(func(from, to resilience.CircuitState) {
		logger.Warn("redis leaderboard cache circuit changed", "from", string(from), "to", string(to))
	})

	return &RedisLeaderboardCache{
		client:   client,
		ttl:      ttl,
		breaker:  breaker,
		observer: observer,
		logger:   logger,
	}
}

func (c *RedisLeaderboardCache) GetOrLoad(
	ctx context.Context,
	eventID string,
	load func(context.Context) ([]leaderboard.Standing, error),
) ([]leaderboard.Standing, error) {
	gen, err := c.generation(ctx, eventID)
	if err != nil {
		c.logger.WarnContext(ctx, "redis leaderboard generation unavailable", "event_id", eventID, "error", err)
		return load(ctx)
	}
	boardKey := redisBoardKey(eventID, gen)

	if items, ok := c.read(ctx, boardKey); ok {
		observe(c.observer, backendRedis, true)
		return items, nil
	}
	observe(c.observer, backendRedis, false)

	items, err, _ := c.flight.Do(boardKey, func() ([]leaderboard.Standing, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.write(ctx, boardKey, loaded)
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneStandings(items), nil
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context, eventID string) error {
	return c.breaker.Execute(func() error {
		if err := c.client.Incr(ctx, redisGenerationKey(eventID)).Err(); err != nil {
			return crerr.Wrapf(err, "bump leaderboard generation event_id=%s", eventID)
		}
		return nil
	}, nil)
}

func (c *RedisLeaderboardCache) generation(ctx context.Context, eventID string) (int64, error) {
	var gen int64
	err := c.breaker.Execute(func() error {
		raw, err := c.client.Get(ctx, redisGenerationKey(eventID)).Result()
		if crerr.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		gen, err = strconv.ParseInt(raw, 10, 64)
		return err
	}, nil)
	return gen, err
}

func (c *RedisLeaderboardCache) read(ctx context.Context, key string) ([]leaderboard.Standing, bool) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var err error
		raw, err = c.client.Get(ctx, key).Bytes()
		return err
	}, func(err error) bool { return !crerr.Is(err, redis.Nil) })
	if err != nil {
		if !crerr.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "redis leaderboard read failed", "key", key, "error", err)
		}
		return nil, false
	}

	var items []leaderboard.Standing
	if err := sonic.Unmarshal(raw, &items); err != nil {
		c.logger.WarnContext(ctx, "redis leaderboard payload corrupt", "key", key, "error", err)
		return nil, false
	}
	return items, true
}

func (c *RedisLeaderboardCache) write(ctx context.Context, key string, items []leaderboard.Standing) {
	payload, err := sonic.Marshal(items)
	if err != nil {
		c.logger.WarnContext(ctx, "encode leaderboard for redis failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, payload, c.ttl).Err()
	}, nil)
	if err != nil {
		c.logger.WarnContext(ctx, "redis leaderboard write failed", "key", key, "error", err)
	}
}

func redisGenerationKey(eventID string) string {
	return redisKeyPrefix + eventID + ":gen"
}

func redisBoardKey(eventID string, gen int64) string {
	return redisKeyPrefix + eventID + ":v" + strconv.FormatInt(gen, 10)
}
