package hint

import (
	"errors"
	"fmt"
	"time"
)

// CostStep is the price of the first hint; every later hint adds one step.
const CostStep = 10

var ErrInsufficientPoints = errors.New("insufficient points")

// InsufficientPointsError carries the numbers behind a rejected purchase.
type InsufficientPointsError struct {
	Cost    int
	Balance int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points: cost=%d balance=%d", e.Cost, e.Balance)
}

func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}

// Cost prices hints 1-indexed: index 0 costs 10, index 2 costs 30.
func Cost(hintIndex int) int {
	return (hintIndex + 1) * CostStep
}

func ValidateIndex(hintIndex int) error {
	if hintIndex < 0 {
		return fmt.Errorf("hint index must be >= 0")
	}
	return nil
}

// Purchase records one bought hint. It is unique per team, puzzle and index.
type Purchase struct {
	ID          int64
	TeamID      int64
	ChallengeID string
	CTFID       string
	HintIndex   int
	Cost        int
	PurchasedAt time.Time
}

// Receipt is the result of a purchase request.
type Receipt struct {
	Cost             int
	NewTotalPoints   int
	AlreadyPurchased bool
}
