package leaderboard

import (
	"cmp"
	"slices"
	"strings"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

// Standing is one ranked row of the leaderboard.
type Standing struct {
	TeamID          int64
	Name            string
	TotalPoints     int
	TotalTime       int64
	CompletedBadges []string
}

// DefaultExcludedNames are hidden from rankings, compared case-insensitively.
var DefaultExcludedNames = []string{team.AdminName}

// BuildStanding derives a team's row from its completed attempts.
func BuildStanding(item team.Team, completed []attempt.Attempt, badges BadgeTable) Standing {
	solved := make([]attempt.Attempt, 0, len(completed))
	var totalTime int64
	for _, a := range completed {
		if !a.Completed || a.EndTime == nil {
			continue
		}
		totalTime += a.ElapsedSeconds()
		solved = append(solved, a)
	}

	slices.SortStableFunc(solved, func(a, b attempt.Attempt) int {
		return a.EndTime.Compare(*b.EndTime)
	})

	seen := make(map[string]struct{}, len(solved))
	earned := make([]string, 0, len(solved))
	for _, a := range solved {
		key := a.Key().PuzzleKey()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if badge, ok := badges.Lookup(key); ok {
			earned = append(earned, badge)
		}
	}

	return Standing{
		TeamID:          item.ID,
		Name:            item.Name,
		TotalPoints:     item.TotalPoints,
		TotalTime:       totalTime,
		CompletedBadges: earned,
	}
}

// Rank orders standings by points descending, then total time ascending.
func Rank(standings []Standing) {
	slices.SortStableFunc(standings, func(a, b Standing) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		return cmp.Compare(a.TotalTime, b.TotalTime)
	})
}

// Visible reports whether item should appear in the ranking.
func Visible(item team.Team, excludedNames []string) bool {
	if item.IsAdmin() {
		return false
	}
	name := strings.TrimSpace(item.Name)
	for _, excluded := range excludedNames {
		if strings.EqualFold(name, strings.TrimSpace(excluded)) {
			return false
		}
	}
	return true
}
