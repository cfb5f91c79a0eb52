package team

import "context"

// Repository describes team persistence needs from use cases.
//
// Create must check name uniqueness and insert in one atomic step. When
// idempotent is true and a team with the same name already exists in the
// event, the existing team is returned with created=false instead of
// ErrNameTaken.
type Repository interface {
	Create(ctx context.Context, item Team, idempotent bool) (Team, bool, error)
	GetByID(ctx context.Context, teamID int64) (Team, bool, error)
	ListByEvent(ctx context.Context, eventID string) ([]Team, error)
	// Delete removes the team together with its attempts, hint purchases
	// and challenge access records.
	Delete(ctx context.Context, teamID int64) error
}
