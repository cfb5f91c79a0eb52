package attempt

import (
	"context"
	"time"
)

// Repository describes attempt persistence needs from use cases.
type Repository interface {
	Get(ctx context.Context, key Key) (Attempt, bool, error)
	// Start returns the attempt for key, creating it with start time now
	// when absent. created reports whether a new record was written.
	Start(ctx context.Context, key Key, now time.Time) (item Attempt, created bool, err error)
	// Submit resolves or creates the attempt, rejects completed attempts with
	// ErrAlreadyCompleted, runs judge and, on a correct verdict, completes the
	// attempt and credits the points to the team. All of it is one atomic step.
	Submit(ctx context.Context, key Key, now time.Time, judge Judge) (Attempt, error)
	ListByTeam(ctx context.Context, teamID int64) ([]Attempt, error)
	ListCompletedByTeam(ctx context.Context, teamID int64) ([]Attempt, error)
}
