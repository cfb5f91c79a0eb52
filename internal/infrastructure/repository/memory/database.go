package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
)

// Persister stores a full copy of the tables after every committed change.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}

type hintKey struct {
	attempt.Key
	Index int
}

type accessKey struct {
	TeamID      int64
	ChallengeID string
}

type tables struct {
	teams    map[int64]team.Team
	attempts map[attempt.Key]attempt.Attempt
	hints    map[hintKey]hint.Purchase
	access   map[accessKey]access.ChallengeAccess
	timer    *timer.State

	nextTeamID    int64
	nextAttemptID int64
	nextHintID    int64
	nextAccessID  int64
}

func newTables() tables {
	return tables{
		teams:         make(map[int64]team.Team),
		attempts:      make(map[attempt.Key]attempt.Attempt),
		hints:         make(map[hintKey]hint.Purchase),
		access:        make(map[accessKey]access.ChallengeAccess),
		nextTeamID:    1,
		nextAttemptID: 1,
		nextHintID:    1,
		nextAccessID:  1,
	}
}

func (t tables) clone() tables {
	out := t
	out.teams = maps.Clone(t.teams)
	out.attempts = maps.Clone(t.attempts)
	out.hints = maps.Clone(t.hints)
	out.access = maps.Clone(t.access)
	if t.timer != nil {
		state := *t.timer
		out.timer = &state
	}
	return out
}

// Database is the single-process store. One mutex guards every table, so
// each repository call is one atomic step across tables.
type Database struct {
	mu        sync.RWMutex
	state     tables
	persister Persister
}

func NewDatabase() *Database {
	return &Database{state: newTables()}
}

// Open builds a database backed by persister, loading its last snapshot.
func Open(ctx context.Context, persister Persister) (*Database, error) {
	db := NewDatabase()
	if persister == nil {
		return db, nil
	}

	snapshot, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	state, err := snapshot.tables()
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	db.state = state
	db.persister = persister
	return db, nil
}

func (db *Database) read(fn func(t *tables)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(&db.state)
}

// write applies fn to a copy of the tables and swaps it in only when fn and
// the persister both succeed.
func (db *Database) write(ctx context.Context, fn func(t *tables) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := db.state.clone()
	if err := fn(&next); err != nil {
		return err
	}
	if db.persister != nil {
		if err := db.persister.Save(ctx, snapshotOf(next)); err != nil {
			return fmt.Errorf("persist snapshot: %w", err)
		}
	}
	db.state = next
	return nil
}

func (t *tables) removeTeam(teamID int64) {
	delete(t.teams, teamID)
	for key := range t.attempts {
		if key.TeamID == teamID {
			delete(t.attempts, key)
		}
	}
	for key := range t.hints {
		if key.TeamID == teamID {
			delete(t.hints, key)
		}
	}
	for key := range t.access {
		if key.TeamID == teamID {
			delete(t.access, key)
		}
	}
}
