package hint

import "context"

// Repository describes hint purchase persistence needs from use cases.
type Repository interface {
	// Purchase charges the team and records item in one atomic step. A hint
	// bought earlier returns AlreadyPurchased without charging again. A short
	// balance fails with *InsufficientPointsError.
	Purchase(ctx context.Context, item Purchase) (Receipt, error)
	ListIndexes(ctx context.Context, teamID int64, challengeID, ctfID string) ([]int, error)
}
