package memory

import (
	"context"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
)

type TimerRepository struct {
	db *Database
}

func NewTimerRepository(db *Database) *TimerRepository {
	return &TimerRepository{db: db}
}

func (r *TimerRepository) Get(_ context.Context) (timer.State, bool, error) {
	var (
		state  timer.State
		exists bool
	)
	r.db.read(func(t *tables) {
		if t.timer != nil {
			state, exists = *t.timer, true
		}
	})
	return state, exists, nil
}

func (r *TimerRepository) Save(ctx context.Context, state timer.State) error {
	return r.db.write(ctx, func(t *tables) error {
		t.timer = &state
		return nil
	})
}

func (r *TimerRepository) Update(ctx context.Context, fn func(current timer.State, exists bool) (timer.State, error)) (timer.State, error) {
	var out timer.State
	err := r.db.write(ctx, func(t *tables) error {
		var (
			current timer.State
			exists  bool
		)
		if t.timer != nil {
			current, exists = *t.timer, true
		}
		next, err := fn(current, exists)
		if err != nil {
			return err
		}
		t.timer = &next
		out = next
		return nil
	})
	if err != nil {
		return timer.State{}, err
	}
	return out, nil
}
