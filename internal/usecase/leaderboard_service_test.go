package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	timermock "github.com/riskibarqy/ctf-scoreboard/internal/mocks/domain/timer"
	"github.com/stretchr/testify/mock"
)

type mapLeaderboardCache struct {
	mu          sync.Mutex
	items       map[string][]leaderboard.Standing
	loads       int
	invalidated []string
}

func newMapLeaderboardCache() *mapLeaderboardCache {
	return &mapLeaderboardCache{items: make(map[string][]leaderboard.Standing)}
}

func (c *mapLeaderboardCache) GetOrLoad(ctx context.Context, eventID string, load func(context.Context) ([]leaderboard.Standing, error)) ([]leaderboard.Standing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if items, ok := c.items[eventID]; ok {
		return items, nil
	}
	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.loads++
	c.items[eventID] = items
	return items, nil
}

func (c *mapLeaderboardCache) Invalidate(_ context.Context, eventID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, eventID)
	c.invalidated = append(c.invalidated, eventID)
	return nil
}

func solve(t *testing.T, st store, teamID int64, challengeID, ctfID string, start time.Time, took time.Duration, points int) {
	t.Helper()

	key := attempt.Key{TeamID: teamID, ChallengeID: challengeID, CTFID: ctfID}
	if _, _, err := st.attempts.Start(context.Background(), key, start); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := st.attempts.Submit(context.Background(), key, start.Add(took), func(attempt.Attempt) (attempt.Verdict, error) {
		return attempt.Verdict{Correct: true, Points: points}, nil
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func names(standings []leaderboard.Standing) []string {
	out := make([]string, 0, len(standings))
	for _, item := range standings {
		out = append(out, item.Name)
	}
	return out
}

func TestLeaderboardService_Compute_RanksAndExcludes(t *testing.T) {
	t.Parallel()

	st := newStore()
	a := st.mustTeam("class-a", "A", 0)
	b := st.mustTeam("class-a", "B", 0)
	c := st.mustTeam("class-a", "C", 80)
	d := st.mustTeam("class-a", "D", 0)
	st.mustTeam("class-a", "superuser", 500)
	st.mustTeam("class-b", "Other", 999)

	solve(t, st, a.ID, "cryptography-challenge", "caesar-cipher", fixedNow, 50*time.Second, 100)
	solve(t, st, b.ID, "web-basics-challenge", "cookie-clue", fixedNow, 30*time.Second, 100)
	solve(t, st, d.ID, "cryptography-challenge", "secret-number", fixedNow, 900*time.Second, 120)
	_ = c

	service := NewLeaderboardService(st.teams, st.attempts, st.timer, nil, LeaderboardConfig{Workers: 2}, nil)

	got, err := service.Compute(context.Background(), "class-a", leaderboard.DefaultExcludedNames)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if want := []string{"D", "B", "A", "C"}; !reflect.DeepEqual(names(got), want) {
		t.Fatalf("unexpected order: got=%v want=%v", names(got), want)
	}
	if got[0].TotalTime != 900 || !reflect.DeepEqual(got[0].CompletedBadges, []string{"🟡"}) {
		t.Fatalf("unexpected leader row: %+v", got[0])
	}
	if got[3].TotalTime != 0 || len(got[3].CompletedBadges) != 0 {
		t.Fatalf("expected empty row for team without solves: %+v", got[3])
	}
}

func TestLeaderboardService_Compute_EmptyEvent(t *testing.T) {
	t.Parallel()

	st := newStore()
	service := NewLeaderboardService(st.teams, st.attempts, st.timer, nil, LeaderboardConfig{}, nil)

	got, err := service.Compute(context.Background(), "class-z", nil)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}

	if _, err := service.Compute(context.Background(), " ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLeaderboardService_Board_CachedUntilScoreEvent(t *testing.T) {
	t.Parallel()

	st := newStore()
	blue := st.mustTeam("class-a", "Blue", 60)
	cache := newMapLeaderboardCache()
	board := NewLeaderboardService(st.teams, st.attempts, st.timer, cache, LeaderboardConfig{}, nil)

	scoring := NewScoringService(newStubCatalog(), st.attempts, st.hints, st.teams, nil, board)
	ctx := context.Background()

	first, err := board.Board(ctx, "class-a")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if first.Standings[0].TotalPoints != 60 || first.Timer != nil {
		t.Fatalf("unexpected first board: %+v", first)
	}

	_, err = scoring.SubmitFlag(ctx, SubmitFlagInput{
		PuzzleInput: PuzzleInput{
			Identity:    Identity{TeamID: blue.ID, EventID: "class-a"},
			ChallengeID: "web-basics-challenge",
			CTFID:       "cookie-clue",
		},
		Flag: "FLAG{cookie}",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	second, err := board.Board(ctx, "class-a")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if second.Standings[0].TotalPoints != 140 {
		t.Fatalf("expected board to reflect the solve, got %+v", second.Standings[0])
	}
	if cache.loads != 2 || !reflect.DeepEqual(cache.invalidated, []string{"class-a"}) {
		t.Fatalf("unexpected cache activity: loads=%d invalidated=%v", cache.loads, cache.invalidated)
	}
}

func TestLeaderboardService_Board_BundlesTimer(t *testing.T) {
	t.Parallel()

	st := newStore()
	st.mustTeam("class-a", "Blue", 60)
	timerRepo := timermock.NewRepository(t)
	timerRepo.
		On("Get", mock.Anything).
		Return(timer.State{StartedAt: fixedNow, DurationSeconds: 600}, true, nil).
		Once()

	service := NewLeaderboardService(st.teams, st.attempts, timerRepo, nil, LeaderboardConfig{}, nil)
	service.now = func() time.Time { return fixedNow.Add(90*time.Second + 500*time.Millisecond) }

	got, err := service.Board(context.Background(), "class-a")
	if err != nil {
		t.Fatalf("board: %v", err)
	}
	if got.Timer == nil || got.Timer.RemainingSeconds != 510 || !got.Timer.IsActive {
		t.Fatalf("unexpected timer: %+v", got.Timer)
	}
}

func TestLeaderboardService_OnScoreEvent_IgnoresWrongFlags(t *testing.T) {
	t.Parallel()

	cache := newMapLeaderboardCache()
	service := NewLeaderboardService(nil, nil, nil, cache, LeaderboardConfig{}, nil)

	service.OnScoreEvent(context.Background(), ScoreEvent{Kind: ScoreEventWrongFlag, EventID: "class-a"})
	service.OnScoreEvent(context.Background(), ScoreEvent{Kind: ScoreEventHintPurchased, EventID: "class-a"})

	if !reflect.DeepEqual(cache.invalidated, []string{"class-a"}) {
		t.Fatalf("unexpected invalidations: %v", cache.invalidated)
	}
}
