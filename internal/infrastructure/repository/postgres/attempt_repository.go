package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

type AttemptRepository struct {
	db *sqlx.DB
}

func NewAttemptRepository(db *sqlx.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

func attemptKeyConditions(key attempt.Key) []qb.Condition {
	return []qb.Condition{
		qb.Eq("team_id", key.TeamID),
		qb.Eq("challenge_id", key.ChallengeID),
		qb.Eq("ctf_id", key.CTFID),
	}
}

func (r *AttemptRepository) Get(ctx context.Context, key attempt.Key) (attempt.Attempt, bool, error) {
	return r.get(ctx, r.db, key, false)
}

func (r *AttemptRepository) get(ctx context.Context, q sqlx.QueryerContext, key attempt.Key, lock bool) (attempt.Attempt, bool, error) {
	builder := qb.Select(attemptColumns).From("attempts").Where(attemptKeyConditions(key)...)
	if lock {
		builder = builder.ForUpdate()
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return attempt.Attempt{}, false, fmt.Errorf("build select attempt query: %w", err)
	}

	var row attemptTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return attempt.Attempt{}, false, nil
		}
		return attempt.Attempt{}, false, fmt.Errorf("select attempt: %w", err)
	}
	return row.toDomain(), true, nil
}

// insertOpen creates the attempt if absent and returns whatever row holds the
// key afterwards.
func (r *AttemptRepository) insertOpen(ctx context.Context, tx *sqlx.Tx, key attempt.Key, now time.Time) (attempt.Attempt, bool, error) {
	query, args, err := qb.InsertModel("attempts", attemptInsertModel{
		TeamID:      key.TeamID,
		ChallengeID: key.ChallengeID,
		CTFID:       key.CTFID,
		StartTime:   now.UTC(),
	}, "ON CONFLICT (team_id, challenge_id, ctf_id) DO NOTHING RETURNING "+attemptColumns)
	if err != nil {
		return attempt.Attempt{}, false, fmt.Errorf("build insert attempt query: %w", err)
	}

	var row attemptTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return attempt.Attempt{}, false, team.ErrNotFound
		}
		if !isNotFound(err) {
			return attempt.Attempt{}, false, fmt.Errorf("insert attempt: %w", err)
		}
		existing, found, getErr := r.get(ctx, tx, key, true)
		if getErr != nil {
			return attempt.Attempt{}, false, getErr
		}
		if !found {
			return attempt.Attempt{}, false, fmt.Errorf("attempt vanished after conflict")
		}
		return existing, false, nil
	}
	return row.toDomain(), true, nil
}

func (r *AttemptRepository) Start(ctx context.Context, key attempt.Key, now time.Time) (attempt.Attempt, bool, error) {
	var (
		out     attempt.Attempt
		created bool
	)
	err := withTx(ctx, r.db, "start attempt", func(tx *sqlx.Tx) error {
		var err error
		out, created, err = r.insertOpen(ctx, tx, key, now)
		return err
	})
	if err != nil {
		return attempt.Attempt{}, false, err
	}
	return out, created, nil
}

func (r *AttemptRepository) Submit(ctx context.Context, key attempt.Key, now time.Time, judge attempt.Judge) (attempt.Attempt, error) {
	var out attempt.Attempt
	err := withTx(ctx, r.db, "submit flag", func(tx *sqlx.Tx) error {
		if err := lockTeam(ctx, tx, key.TeamID); err != nil {
			return err
		}

		current, _, err := r.insertOpen(ctx, tx, key, now)
		if err != nil {
			return err
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

		completed, err := current.Complete(now.UTC(), verdict.Points)
		if err != nil {
			return err
		}

		updateQuery, updateArgs, err := qb.Update("attempts").
			Set("end_time", nullTime(completed.EndTime)).
			Set("completed", true).
			Set("points_earned", completed.PointsEarned).
			Where(qb.Eq("id", completed.ID), qb.Eq("completed", false)).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build complete attempt query: %w", err)
		}
		result, err := tx.ExecContext(ctx, updateQuery, updateArgs...)
		if err != nil {
			return fmt.Errorf("complete attempt: %w", err)
		}
		if affected, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected complete attempt: %w", err)
		} else if affected == 0 {
			return attempt.ErrAlreadyCompleted
		}

		if _, err := addTeamPoints(ctx, tx, key.TeamID, verdict.Points); err != nil {
			return err
		}
		out = completed
		return nil
	})
	if err != nil {
		return attempt.Attempt{}, err
	}
	return out, nil
}

func (r *AttemptRepository) ListByTeam(ctx context.Context, teamID int64) ([]attempt.Attempt, error) {
	return r.list(ctx, teamID, false)
}

func (r *AttemptRepository) ListCompletedByTeam(ctx context.Context, teamID int64) ([]attempt.Attempt, error) {
	return r.list(ctx, teamID, true)
}

func (r *AttemptRepository) list(ctx context.Context, teamID int64, completedOnly bool) ([]attempt.Attempt, error) {
	conditions := []qb.Condition{qb.Eq("team_id", teamID)}
	if completedOnly {
		conditions = append(conditions, qb.Eq("completed", true))
	}
	query, args, err := qb.Select(attemptColumns).From("attempts").
		Where(conditions...).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select attempts by team query: %w", err)
	}

	var rows []attemptTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select attempts by team: %w", err)
	}

	out := make([]attempt.Attempt, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// lockTeam takes the team row lock that serializes every balance change.
func lockTeam(ctx context.Context, tx *sqlx.Tx, teamID int64) error {
	_, err := lockTeamBalance(ctx, tx, teamID)
	return err
}

func lockTeamBalance(ctx context.Context, tx *sqlx.Tx, teamID int64) (int, error) {
	query, args, err := qb.Select("total_points").From("teams").
		Where(qb.Eq("id", teamID)).
		ForUpdate().
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build lock team query: %w", err)
	}

	var balance int
	if err := tx.GetContext(ctx, &balance, query, args...); err != nil {
		if isNotFound(err) {
			return 0, team.ErrNotFound
		}
		return 0, fmt.Errorf("lock team: %w", err)
	}
	return balance, nil
}

func addTeamPoints(ctx context.Context, tx *sqlx.Tx, teamID int64, delta int) (int, error) {
	query, args, err := qb.Update("teams").
		SetExpr("total_points", "total_points + ?", delta).
		Where(qb.Eq("id", teamID)).
		Suffix("RETURNING total_points").
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build update team points query: %w", err)
	}

	var total int
	if err := tx.GetContext(ctx, &total, query, args...); err != nil {
		if isNotFound(err) {
			return 0, team.ErrNotFound
		}
		return 0, fmt.Errorf("update team points: %w", err)
	}
	return total, nil
}
