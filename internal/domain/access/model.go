package access

import (
	"context"
	"time"
)

// ChallengeAccess records that a team unlocked a challenge.
type ChallengeAccess struct {
	ID          int64
	TeamID      int64
	ChallengeID string
	UnlockedAt  time.Time
}

// Repository describes challenge access persistence needs from use cases.
type Repository interface {
	// Grant is idempotent: an existing record is returned unchanged.
	Grant(ctx context.Context, teamID int64, challengeID string, now time.Time) (ChallengeAccess, error)
	ListChallengeIDs(ctx context.Context, teamID int64) ([]string, error)
}
