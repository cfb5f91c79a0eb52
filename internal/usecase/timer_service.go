package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

type TimerService struct {
	timerRepo timer.Repository
	teamRepo  team.Repository
	listeners scoreListeners
	logger    *logging.Logger
	now       func() time.Time
}

func NewTimerService(timerRepo timer.Repository, teamRepo team.Repository, logger *logging.Logger, listeners ...ScoreListener) *TimerService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TimerService{
		timerRepo: timerRepo,
		teamRepo:  teamRepo,
		listeners: listeners,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TimerService) Subscribe(listener ScoreListener) {
	s.listeners = append(s.listeners, listener)
}

// Status reports the shared timer, or nil when none was ever started.
func (s *TimerService) Status(ctx context.Context) (*timer.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TimerService.Status")
	defer span.End()

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

// Start replaces any timer with a fresh countdown of the given minutes.
func (s *TimerService) Start(ctx context.Context, actor Identity, minutes float64) (timer.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TimerService.Start")
	defer span.End()

	if err := s.requireAdmin(ctx, actor); err != nil {
		return timer.Status{}, err
	}
	seconds, err := timer.MinutesToSeconds(minutes)
	if err != nil {
		return timer.Status{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	state := timer.State{StartedAt: now, DurationSeconds: seconds}
	if err := s.timerRepo.Save(ctx, state); err != nil {
		return timer.Status{}, storageError("save timer", err)
	}

	s.logger.InfoContext(ctx, "timer started",
		"team_id", actor.TeamID,
		"duration_seconds", seconds,
	)
	s.listeners.emit(ctx, s.logger, ScoreEvent{Kind: ScoreEventTimerChanged, TeamID: actor.TeamID})

	return state.Status(now), nil
}

// Extend adds minutes to a running timer. Nil minutes means the default of
// five. An expired or missing timer cannot be extended.
func (s *TimerService) Extend(ctx context.Context, actor Identity, minutes *float64) (timer.Status, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TimerService.Extend")
	defer span.End()

	if err := s.requireAdmin(ctx, actor); err != nil {
		return timer.Status{}, err
	}
	amount := timer.DefaultExtendMinutes
	if minutes != nil {
		amount = *minutes
	}
	delta, err := timer.MinutesToSeconds(amount)
	if err != nil {
		return timer.Status{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	state, err := s.timerRepo.Update(ctx, func(current timer.State, exists bool) (timer.State, error) {
		if !exists {
			return current, timer.ErrNoActiveTimer
		}
		return current.Extend(now, delta)
	})
	if err != nil {
		if errors.Is(err, timer.ErrNoActiveTimer) {
			return timer.Status{}, fmt.Errorf("%w: %v", ErrNoActiveTimer, err)
		}
		if errors.Is(err, timer.ErrDurationTooLong) {
			return timer.Status{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return timer.Status{}, storageError("extend timer", err)
	}

	s.logger.InfoContext(ctx, "timer extended",
		"team_id", actor.TeamID,
		"delta_seconds", delta,
		"duration_seconds", state.DurationSeconds,
	)
	s.listeners.emit(ctx, s.logger, ScoreEvent{Kind: ScoreEventTimerChanged, TeamID: actor.TeamID})

	return state.Status(now), nil
}

func (s *TimerService) requireAdmin(ctx context.Context, actor Identity) error {
	if err := actor.validate(); err != nil {
		return err
	}
	item, exists, err := s.teamRepo.GetByID(ctx, actor.TeamID)
	if err != nil {
		return storageError("get team", err)
	}
	if !exists {
		return fmt.Errorf("%w: team=%d no longer exists", ErrUnauthenticated, actor.TeamID)
	}
	if !item.IsAdmin() {
		return fmt.Errorf("%w: only the administrator may control the timer", ErrForbidden)
	}
	return nil
}
