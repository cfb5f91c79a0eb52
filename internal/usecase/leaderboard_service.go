package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/leaderboard"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

const defaultLeaderboardWorkers = 8

// LeaderboardCache memoizes computed standings per event.
type LeaderboardCache interface {
	GetOrLoad(ctx context.Context, eventID string, load func(context.Context) ([]leaderboard.Standing, error)) ([]leaderboard.Standing, error)
	Invalidate(ctx context.Context, eventID string) error
}

type LeaderboardConfig struct {
	ExcludedNames []string
	Badges        *leaderboard.BadgeTable
	Workers       int
}

// Leaderboard is the board payload: ranked standings plus the shared timer.
type Leaderboard struct {
	Standings []leaderboard.Standing
	Timer     *timer.Status
}

type LeaderboardService struct {
	teamRepo    team.Repository
	attemptRepo attempt.Repository
	timerRepo   timer.Repository
	cache       LeaderboardCache
	cfg         LeaderboardConfig
	badges      leaderboard.BadgeTable
	logger      *logging.Logger
	now         func() time.Time
}

func NewLeaderboardService(
	teamRepo team.Repository,
	attemptRepo attempt.Repository,
	timerRepo timer.Repository,
	cache LeaderboardCache,
	cfg LeaderboardConfig,
	logger *logging.Logger,
) *LeaderboardService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultLeaderboardWorkers
	}
	if cfg.ExcludedNames == nil {
		cfg.ExcludedNames = leaderboard.DefaultExcludedNames
	}
	badges := leaderboard.DefaultBadges()
	if cfg.Badges != nil {
		badges = *cfg.Badges
	}

	return &LeaderboardService{
		teamRepo:    teamRepo,
		attemptRepo: attemptRepo,
		timerRepo:   timerRepo,
		cache:       cache,
		cfg:         cfg,
		badges:      badges,
		logger:      logger,
		now:         time.Now,
	}
}

// Board returns the ranked standings of an event together with the timer.
func (s *LeaderboardService) Board(ctx context.Context, eventID string) (Leaderboard, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Board")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return Leaderboard{}, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	var (
		standings []leaderboard.Standing
		err       error
	)
	if s.cache != nil {
		standings, err = s.cache.GetOrLoad(ctx, eventID, func(ctx context.Context) ([]leaderboard.Standing, error) {
			return s.Compute(ctx, eventID, s.cfg.ExcludedNames)
		})
	} else {
		standings, err = s.Compute(ctx, eventID, s.cfg.ExcludedNames)
	}
	if err != nil {
		return Leaderboard{}, err
	}

	status, err := s.timerStatus(ctx)
	if err != nil {
		return Leaderboard{}, err
	}

	return Leaderboard{Standings: standings, Timer: status}, nil
}

// Compute ranks every visible team of an event by points descending and
// total solve time ascending. Team rows are built concurrently.
func (s *LeaderboardService) Compute(ctx context.Context, eventID string, excludedNames []string) ([]leaderboard.Standing, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LeaderboardService.Compute")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		return nil, fmt.Errorf("%w: event id is required", ErrInvalidInput)
	}

	teams, err := s.teamRepo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, storageError("list teams by event", err)
	}

	visible := make([]team.Team, 0, len(teams))
	for _, item := range teams {
		if leaderboard.Visible(item, excludedNames) {
			visible = append(visible, item)
		}
	}
	if len(visible) == 0 {
		return []leaderboard.Standing{}, nil
	}

	standings, err := s.buildStandings(ctx, visible)
	if err != nil {
		return nil, err
	}
	leaderboard.Rank(standings)
	return standings, nil
}

func (s *LeaderboardService) buildStandings(ctx context.Context, teams []team.Team) ([]leaderboard.Standing, error) {
	workerCount := min(s.cfg.Workers, len(teams))
	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	standings := make([]leaderboard.Standing, len(teams))
	var (
		workers  sync.WaitGroup
		errMu    sync.Mutex
		firstErr error
	)
	for i, item := range teams {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			completed, err := s.attemptRepo.ListCompletedByTeam(ctx, item.ID)
			if err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = storageError(fmt.Sprintf("list completed attempts team=%d", item.ID), err)
				}
				errMu.Unlock()
				return
			}
			standings[i] = leaderboard.BuildStanding(item, completed, s.badges)
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return standings, nil
}

func (s *LeaderboardService) timerStatus(ctx context.Context) (*timer.Status, error) {
	if s.timerRepo == nil {
		return nil, nil
	}
	state, exists, err := s.timerRepo.Get(ctx)
	if err != nil {
		return nil, storageError("get timer", err)
	}
	if !exists {
		return nil, nil
	}
	status := state.Status(s.now().UTC())
	return &status, nil
}

// OnScoreEvent drops cached standings of the affected event.
func (s *LeaderboardService) OnScoreEvent(ctx context.Context, event ScoreEvent) {
	if s.cache == nil || event.EventID == "" {
		return
	}
	switch event.Kind {
	case ScoreEventWrongFlag, ScoreEventTimerChanged:
		return
	}
	if err := s.cache.Invalidate(ctx, event.EventID); err != nil {
		s.logger.WarnContext(ctx, "invalidate leaderboard cache failed",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
