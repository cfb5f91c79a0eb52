package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

type AttemptRepository struct {
	db *Database
}

func NewAttemptRepository(db *Database) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func (r *AttemptRepository) Get(_ context.Context, key attempt.Key) (attempt.Attempt, bool, error) {
	var (
		item   attempt.Attempt
		exists bool
	)
	r.db.read(func(t *tables) {
		item, exists = t.attempts[key]
	})
	return item, exists, nil
}

func (r *AttemptRepository) Start(ctx context.Context, key attempt.Key, now time.Time) (attempt.Attempt, bool, error) {
	var (
		out     attempt.Attempt
		created bool
	)
	err := r.db.write(ctx, func(t *tables) error {
		if existing, ok := t.attempts[key]; ok {
			out = existing
			return nil
		}
		if _, ok := t.teams[key.TeamID]; !ok {
			return team.ErrNotFound
		}
		out = t.openAttempt(key, now)
		created = true
		return nil
	})
	if err != nil {
		return attempt.Attempt{}, false, err
	}
	return out, created, nil
}

func (r *AttemptRepository) Submit(ctx context.Context, key attempt.Key, now time.Time, judge attempt.Judge) (attempt.Attempt, error) {
	var out attempt.Attempt
	err := r.db.write(ctx, func(t *tables) error {
		owner, ok := t.teams[key.TeamID]
		if !ok {
			return team.ErrNotFound
		}

		current, ok := t.attempts[key]
		if !ok {
			current = t.openAttempt(key, now)
		}
		if current.Completed {
			return attempt.ErrAlreadyCompleted
		}

		verdict, err := judge(current)
		if err != nil {
			return err
		}
		if !verdict.Correct {
			out = current
			return nil
		}

		completed, err := current.Complete(now, verdict.Points)
		if err != nil {
			return err
		}
		t.attempts[key] = completed
		owner.TotalPoints += verdict.Points
		t.teams[owner.ID] = owner
		out = completed
		return nil
	})
	if err != nil {
		return attempt.Attempt{}, err
	}
	return out, nil
}

func (r *AttemptRepository) ListByTeam(_ context.Context, teamID int64) ([]attempt.Attempt, error) {
	return r.list(teamID, false), nil
}

func (r *AttemptRepository) ListCompletedByTeam(_ context.Context, teamID int64) ([]attempt.Attempt, error) {
	return r.list(teamID, true), nil
}

func (r *AttemptRepository) list(teamID int64, completedOnly bool) []attempt.Attempt {
	out := make([]attempt.Attempt, 0)
	r.db.read(func(t *tables) {
		for key, item := range t.attempts {
			if key.TeamID != teamID || (completedOnly && !item.Completed) {
				continue
			}
			out = append(out, item)
		}
	})
	slices.SortFunc(out, func(a, b attempt.Attempt) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (t *tables) openAttempt(key attempt.Key, now time.Time) attempt.Attempt {
	item := attempt.Open(key, now)
	item.ID = t.nextAttemptID
	t.nextAttemptID++
	t.attempts[key] = item
	return item
}
