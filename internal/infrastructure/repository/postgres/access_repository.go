package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

const challengeAccessColumns = "id, team_id, challenge_id, unlocked_at"

type AccessRepository struct {
	db *sqlx.DB
}

func NewAccessRepository(db *sqlx.DB) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) Grant(ctx context.Context, teamID int64, challengeID string, now time.Time) (access.ChallengeAccess, error) {
	insertQuery, insertArgs, err := qb.InsertInto("challenge_access").
		Columns("team_id", "challenge_id", "unlocked_at").
		Values(teamID, challengeID, now.UTC()).
		Suffix("ON CONFLICT (team_id, challenge_id) DO NOTHING").
		ToSQL()
	if err != nil {
		return access.ChallengeAccess{}, fmt.Errorf("build insert challenge access query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
		if isForeignKeyViolation(err) {
			return access.ChallengeAccess{}, team.ErrNotFound
		}
		return access.ChallengeAccess{}, fmt.Errorf("insert challenge access: %w", err)
	}

	selectQuery, selectArgs, err := qb.Select(challengeAccessColumns).From("challenge_access").
		Where(qb.Eq("team_id", teamID), qb.Eq("challenge_id", challengeID)).
		ToSQL()
	if err != nil {
		return access.ChallengeAccess{}, fmt.Errorf("build select challenge access query: %w", err)
	}

	var row challengeAccessTableModel
	if err := r.db.GetContext(ctx, &row, selectQuery, selectArgs...); err != nil {
		if isNotFound(err) {
			// Team deleted between the insert and this read.
			return access.ChallengeAccess{}, team.ErrNotFound
		}
		return access.ChallengeAccess{}, fmt.Errorf("select challenge access: %w", err)
	}
	return access.ChallengeAccess{
		ID:          row.ID,
		TeamID:      row.TeamID,
		ChallengeID: row.ChallengeID,
		UnlockedAt:  row.UnlockedAt.UTC(),
	}, nil
}

func (r *AccessRepository) ListChallengeIDs(ctx context.Context, teamID int64) ([]string, error) {
	query, args, err := qb.Select("challenge_id").From("challenge_access").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("challenge_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select challenge access ids query: %w", err)
	}

	out := make([]string, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select challenge access ids: %w", err)
	}
	return out, nil
}
