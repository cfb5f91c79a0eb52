package cache

import (
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	basecache "github.com/riskibarqy/ctf-scoreboard/internal/platform/cache"
)

const (
	backendLocal = "local"
	backendRedis = "redis"
)

// LookupObserver is told about every cache lookup.
type LookupObserver interface {
	ObserveCacheLookup(backend string, hit bool)
}

// LocalLeaderboardCache keeps computed standings in process memory.
type LocalLeaderboardCache struct {
	store    *basecache.Store[[]leaderboard.Standing]
	observer LookupObserver
}

func NewLocalLeaderboardCache(ttl time.Duration, observer LookupObserver) *LocalLeaderboardCache {
	return &LocalLeaderboardCache{
		store:    basecache.NewStore[[]leaderboard.Standing](ttl),
		observer: observer,
	}
}

func (c *LocalLeaderboardCache) GetOrLoad(
	ctx context.Context,
	eventID string,
	load func(context.Context) ([]leaderboard.Standing, error),
) ([]leaderboard.Standing, error) {
	items, hit, err := c.store.GetOrLoad(ctx, leaderboardKey(eventID), func(ctx context.Context) ([]leaderboard.Standing, error) {
		loaded, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return cloneStandings(loaded), nil
	})
	if err != nil {
		return nil, err
	}
	observe(c.observer, backendLocal, hit)

	return cloneStandings(items), nil
}

func (c *LocalLeaderboardCache) Invalidate(ctx context.Context, eventID string) error {
	c.store.Delete(ctx, leaderboardKey(eventID))
	return nil
}

func leaderboardKey(eventID string) string {
	return "leaderboard:" + eventID
}

func observe(observer LookupObserver, backend string, hit bool) {
	if observer != nil {
		observer.ObserveCacheLookup(backend, hit)
	}
}

func cloneStandings(items []leaderboard.Standing) []leaderboard.Standing {
	if items == nil {
		return nil
	}
	out := make([]leaderboard.Standing, len(items))
	for i, item := range items {
		item.CompletedBadges = slices.Clone(item.CompletedBadges)
		out[i] = item
	}
	return out
}
