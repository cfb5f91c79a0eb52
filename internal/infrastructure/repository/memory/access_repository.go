package memory

import (
	"context"
	"slices"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

type AccessRepository struct {
	db *Database
}

func NewAccessRepository(db *Database) *AccessRepository {
	return &AccessRepository{db: db}
}

func (r *AccessRepository) Grant(ctx context.Context, teamID int64, challengeID string, now time.Time) (access.ChallengeAccess, error) {
	var out access.ChallengeAccess
	err := r.db.write(ctx, func(t *tables) error {
		key := accessKey{TeamID: teamID, ChallengeID: challengeID}
		if existing, ok := t.access[key]; ok {
			out = existing
			return nil
		}
		if _, ok := t.teams[teamID]; !ok {
			return team.ErrNotFound
		}

		out = access.ChallengeAccess{
			ID:          t.nextAccessID,
			TeamID:      teamID,
			ChallengeID: challengeID,
			UnlockedAt:  now,
		}
		t.nextAccessID++
		t.access[key] = out
		return nil
	})
	if err != nil {
		return access.ChallengeAccess{}, err
	}
	return out, nil
}

func (r *AccessRepository) ListChallengeIDs(_ context.Context, teamID int64) ([]string, error) {
	out := make([]string, 0)
	r.db.read(func(t *tables) {
		for key := range t.access {
			if key.TeamID == teamID {
				out = append(out, key.ChallengeID)
			}
		}
	})
	slices.Sort(out)
	return out, nil
}
