package catalog

import (
	"context"
	"strings"
)

// Challenge is a themed group of puzzles.
type Challenge struct {
	ID             string
	Name           string
	Description    string
	UnlockPassword string
}

// CTF is one flag capture puzzle inside a challenge.
type CTF struct {
	ID          string
	ChallengeID string
	Title       string
	Description string
	Points      int
	Photo       string
	Links       []string
	Hints       []string
	Flag        string
}

// MatchesFlag compares a submission with the stored flag after trimming
// surrounding whitespace on both sides. The comparison is case-sensitive.
func (c CTF) MatchesFlag(submitted string) bool {
	want := strings.TrimSpace(c.Flag)
	if want == "" {
		return false
	}
	return strings.TrimSpace(submitted) == want
}

// HasHint reports whether index addresses one of the configured hints.
func (c CTF) HasHint(index int) bool {
	return index >= 0 && index < len(c.Hints)
}

// Catalog resolves static puzzle content.
type Catalog interface {
	ResolveChallenge(ctx context.Context, challengeID string) (Challenge, bool, error)
	ResolveCTF(ctx context.Context, challengeID, ctfID string) (CTF, bool, error)
	ListChallenges(ctx context.Context) ([]Challenge, error)
	ListCTFs(ctx context.Context, challengeID string) ([]CTF, error)
}
