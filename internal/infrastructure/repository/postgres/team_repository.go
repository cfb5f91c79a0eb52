package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

type TeamRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db, now: time.Now}
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team, idempotent bool) (team.Team, bool, error) {
	var (
		out     team.Team
		created bool
	)
	err := withTx(ctx, r.db, "create team", func(tx *sqlx.Tx) error {
		if idempotent {
			existing, found, err := r.findByNameFold(ctx, tx, item.EventID, item.Name)
			if err != nil {
				return err
			}
			if found {
				out = existing
				return nil
			}
		}

		createdAt := item.CreatedAt
		if createdAt.IsZero() {
			createdAt = r.now().UTC()
		}
		query, args, err := qb.InsertModel("teams", teamTableModel{
			EventID:     item.EventID,
			Name:        item.Name,
			Role:        string(item.Role),
			TotalPoints: item.TotalPoints,
			CreatedAt:   createdAt,
		}, "RETURNING "+teamColumns)
		if err != nil {
			return fmt.Errorf("build insert team query: %w", err)
		}

		var row teamTableModel
		if err := tx.GetContext(ctx, &row, query, args...); err != nil {
			if isUniqueViolation(err) {
				return team.ErrNameTaken
			}
			return fmt.Errorf("insert team: %w", err)
		}
		out = row.toDomain()
		created = true
		return nil
	})
	if errors.Is(err, team.ErrNameTaken) && idempotent {
		// A concurrent idempotent registration won the insert.
		existing, found, findErr := r.findByNameFold(ctx, r.db, item.EventID, item.Name)
		if findErr != nil {
			return team.Team{}, false, findErr
		}
		if found {
			return existing, false, nil
		}
	}
	if err != nil {
		return team.Team{}, false, err
	}
	return out, created, nil
}

func (r *TeamRepository) findByNameFold(ctx context.Context, q sqlx.QueryerContext, eventID, name string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns).From("teams").
		Where(
			qb.Eq("event_id", eventID),
			qb.Expr("lower(name) = lower(?)", name),
		).
		OrderBy("id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by name query: %w", err)
	}

	var row teamTableModel
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by name: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID int64) (team.Team, bool, error) {
	query, args, err := qb.Select(teamColumns).From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by id query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, fmt.Errorf("select team by id: %w", err)
	}
	return row.toDomain(), true, nil
}

func (r *TeamRepository) ListByEvent(ctx context.Context, eventID string) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns).From("teams").
		Where(qb.Eq("event_id", eventID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by event query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select teams by event: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// Delete relies on ON DELETE CASCADE for attempts, hint purchases and
// challenge access.
func (r *TeamRepository) Delete(ctx context.Context, teamID int64) error {
	query, args, err := qb.DeleteFrom("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete team query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected delete team: %w", err)
	}
	if affected == 0 {
		return team.ErrNotFound
	}
	return nil
}
