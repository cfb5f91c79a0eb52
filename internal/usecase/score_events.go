package usecase

import (
	"context"

	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

type ScoreEventKind string

const (
	ScoreEventSolved        ScoreEventKind = "solved"
	ScoreEventWrongFlag     ScoreEventKind = "wrong_flag"
	ScoreEventHintPurchased ScoreEventKind = "hint_purchased"
	ScoreEventTeamJoined    ScoreEventKind = "team_joined"
	ScoreEventTeamRemoved   ScoreEventKind = "team_removed"
	ScoreEventTimerChanged  ScoreEventKind = "timer_changed"
)

// ScoreEvent is emitted after a mutation has been committed. EventID is
// empty for changes that affect every event, such as the shared timer.
type ScoreEvent struct {
	Kind             ScoreEventKind
	EventID          string
	TeamID           int64
	ChallengeID      string
	CTFID            string
	Points           int
	TimeTakenSeconds int64
}

// ScoreListener reacts to committed score changes. Listeners run
// synchronously after the commit and must not fail the request.
type ScoreListener interface {
	OnScoreEvent(ctx context.Context, event ScoreEvent)
}

type ScoreListenerFunc func(ctx context.Context, event ScoreEvent)

func (f ScoreListenerFunc) OnScoreEvent(ctx context.Context, event ScoreEvent) {
	f(ctx, event)
}

type scoreListeners []ScoreListener

func (l scoreListeners) emit(ctx context.Context, logger *logging.Logger, event ScoreEvent) {
	for _, listener := range l {
		if listener == nil {
			continue
		}
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					logger.ErrorContext(ctx, "score listener panicked",
						"kind", string(event.Kind),
						"event_id", event.EventID,
						"panic", rec,
					)
				}
			}()
			listener.OnScoreEvent(ctx, event)
		}()
	}
}
