package postgres

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

type HintRepository struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewHintRepository(db *sqlx.DB) *HintRepository {
	return &HintRepository{db: db, now: time.Now}
}

func (r *HintRepository) Purchase(ctx context.Context, item hint.Purchase) (hint.Receipt, error) {
	var receipt hint.Receipt
	err := withTx(ctx, r.db, "purchase hint", func(tx *sqlx.Tx) error {
		balance, err := lockTeamBalance(ctx, tx, item.TeamID)
		if err != nil {
			return err
		}

		existingQuery, existingArgs, err := qb.Select("cost").From("hint_purchases").
			Where(
				qb.Eq("team_id", item.TeamID),
				qb.Eq("challenge_id", item.ChallengeID),
				qb.Eq("ctf_id", item.CTFID),
				qb.Eq("hint_index", item.HintIndex),
			).
			ToSQL()
		if err != nil {
			return fmt.Errorf("build select hint purchase query: %w", err)
		}
		var paid int
		switch err := tx.GetContext(ctx, &paid, existingQuery, existingArgs...); {
		case err == nil:
			receipt = hint.Receipt{Cost: paid, NewTotalPoints: balance, AlreadyPurchased: true}
			return nil
		case !isNotFound(err):
			return fmt.Errorf("select hint purchase: %w", err)
		}

		if balance < item.Cost {
			return &hint.InsufficientPointsError{Cost: item.Cost, Balance: balance}
		}

		purchasedAt := item.PurchasedAt
		if purchasedAt.IsZero() {
			purchasedAt = r.now()
		}
		insertQuery, insertArgs, err := qb.InsertModel("hint_purchases", hintPurchaseInsertModel{
			TeamID:      item.TeamID,
			ChallengeID: item.ChallengeID,
			CTFID:       item.CTFID,
			HintIndex:   item.HintIndex,
			Cost:        item.Cost,
			PurchasedAt: purchasedAt.UTC(),
		}, "")
		if err != nil {
			return fmt.Errorf("build insert hint purchase query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insertQuery, insertArgs...); err != nil {
			return fmt.Errorf("insert hint purchase: %w", err)
		}

		total, err := addTeamPoints(ctx, tx, item.TeamID, -item.Cost)
		if err != nil {
			return err
		}
		receipt = hint.Receipt{Cost: item.Cost, NewTotalPoints: total}
		return nil
	})
	if err != nil {
		return hint.Receipt{}, err
	}
	return receipt, nil
}

func (r *HintRepository) ListIndexes(ctx context.Context, teamID int64, challengeID, ctfID string) ([]int, error) {
	query, args, err := qb.Select("hint_index").From("hint_purchases").
		Where(
			qb.Eq("team_id", teamID),
			qb.Eq("challenge_id", challengeID),
			qb.Eq("ctf_id", ctfID),
		).
		OrderBy("hint_index").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select hint indexes query: %w", err)
	}

	out := make([]int, 0)
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("select hint indexes: %w", err)
	}
	slices.Sort(out)
	return out, nil
}
