package memory

import (
	"context"
	"slices"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

type HintRepository struct {
	db *Database
}

func NewHintRepository(db *Database) *HintRepository {
	return &HintRepository{db: db}
}

func (r *HintRepository) Purchase(ctx context.Context, item hint.Purchase) (hint.Receipt, error) {
	var receipt hint.Receipt
	err := r.db.write(ctx, func(t *tables) error {
		owner, ok := t.teams[item.TeamID]
		if !ok {
			return team.ErrNotFound
		}

		key := hintKey{
			Key:   attempt.Key{TeamID: item.TeamID, ChallengeID: item.ChallengeID, CTFID: item.CTFID},
			Index: item.HintIndex,
		}
		if existing, ok := t.hints[key]; ok {
			receipt = hint.Receipt{Cost: existing.Cost, NewTotalPoints: owner.TotalPoints, AlreadyPurchased: true}
			return nil
		}
		if owner.TotalPoints < item.Cost {
			return &hint.InsufficientPointsError{Cost: item.Cost, Balance: owner.TotalPoints}
		}

		owner.TotalPoints -= item.Cost
		t.teams[owner.ID] = owner
		item.ID = t.nextHintID
		t.nextHintID++
		t.hints[key] = item

		receipt = hint.Receipt{Cost: item.Cost, NewTotalPoints: owner.TotalPoints}
		return nil
	})
	if err != nil {
		return hint.Receipt{}, err
	}
	return receipt, nil
}

func (r *HintRepository) ListIndexes(_ context.Context, teamID int64, challengeID, ctfID string) ([]int, error) {
	out := make([]int, 0)
	r.db.read(func(t *tables) {
		for key := range t.hints {
			if key.TeamID == teamID && key.ChallengeID == challengeID && key.CTFID == ctfID {
				out = append(out, key.Index)
			}
		}
	})
	slices.Sort(out)
	return out, nil
}
