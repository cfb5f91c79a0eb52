package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

type TeamRepository struct {
	db *Database
}

func NewTeamRepository(db *Database) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(ctx context.Context, item team.Team, idempotent bool) (team.Team, bool, error) {
	var (
		out     team.Team
		created bool
	)
	err := r.db.write(ctx, func(t *tables) error {
		for _, existing := range t.teams {
			if existing.EventID != item.EventID {
				continue
			}
			if idempotent && strings.EqualFold(existing.Name, item.Name) {
				out = existing
				return nil
			}
			if existing.Name == item.Name {
				return team.ErrNameTaken
			}
		}

		item.ID = t.nextTeamID
		t.nextTeamID++
		t.teams[item.ID] = item
		out = item
		created = true
		return nil
	})
	if err != nil {
		return team.Team{}, false, err
	}
	return out, created, nil
}

func (r *TeamRepository) GetByID(_ context.Context, teamID int64) (team.Team, bool, error) {
	var (
		item   team.Team
		exists bool
	)
	r.db.read(func(t *tables) {
		item, exists = t.teams[teamID]
	})
	return item, exists, nil
}

func (r *TeamRepository) ListByEvent(_ context.Context, eventID string) ([]team.Team, error) {
	out := make([]team.Team, 0)
	r.db.read(func(t *tables) {
		for _, item := range t.teams {
			if item.EventID == eventID {
				out = append(out, item)
			}
		}
	})
	slices.SortFunc(out, func(a, b team.Team) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (r *TeamRepository) Delete(ctx context.Context, teamID int64) error {
	return r.db.write(ctx, func(t *tables) error {
		if _, exists := t.teams[teamID]; !exists {
			return team.ErrNotFound
		}
		t.removeTeam(teamID)
		return nil
	})
}
