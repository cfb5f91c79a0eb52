package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

// timerRowID is the only row the timers table accepts.
const timerRowID = 1

type TimerRepository struct {
	db *sqlx.DB
}

func NewTimerRepository(db *sqlx.DB) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) Get(ctx context.Context) (timer.State, bool, error) {
	return r.get(ctx, r.db, false)
}

func (r *TimerRepository) get(ctx context.Context, q sqlx.QueryerContext, lock bool) (timer.State, bool, error) {
	builder := qb.Select("id, started_at, duration_seconds").From("timers").
		Where(qb.Eq("id", timerRowID))
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return timer.State{}, false, fmt.Errorf("build select timer query: %w", err)
	}

	var row timerTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return timer.State{}, false, nil
		}
		return timer.State{}, false, fmt.Errorf("select timer: %w", err)
	}
	return timer.State{StartedAt: row.StartedAt.UTC(), DurationSeconds: row.DurationSeconds}, true, nil
}

func (r *TimerRepository) Save(ctx context.Context, state timer.State) error {
	return upsertTimer(ctx, r.db, state)
}

func (r *TimerRepository) Update(ctx context.Context, fn func(current timer.State, exists bool) (timer.State, error)) (timer.State, error) {
	var out timer.State
	err := withTx(ctx, r.db, "update timer", func(tx *sqlx.Tx) error {
		current, exists, err := r.get(ctx, tx, true)
		if err != nil {
			return err
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		if err := upsertTimer(ctx, tx, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return timer.State{}, err
	}
	return out, nil
}

func upsertTimer(ctx context.Context, exec sqlx.ExecerContext, state timer.State) error {
	query, args, err := qb.InsertModel("timers", timerTableModel{
		ID:              timerRowID,
		StartedAt:       state.StartedAt.UTC(),
		DurationSeconds: state.DurationSeconds,
	}, "ON CONFLICT (id) DO UPDATE SET started_at = EXCLUDED.started_at, duration_seconds = EXCLUDED.duration_seconds")
	if err != nil {
		return fmt.Errorf("build upsert timer query: %w", err)
	}
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert timer: %w", err)
	}
	return nil
}
