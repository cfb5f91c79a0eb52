package leaderboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func solved(challengeID, ctfID string, startOffset, endOffset time.Duration) attempt.Attempt {
	end := base.Add(endOffset)
	return attempt.Attempt{
		TeamID:      1,
		ChallengeID: challengeID,
		CTFID:       ctfID,
		StartTime:   base.Add(startOffset),
		EndTime:     &end,
		Completed:   true,
	}
}

func TestRank_PointsThenTime(t *testing.T) {
	standings := []Standing{
		{TeamID: 1, Name: "A", TotalPoints: 100, TotalTime: 50},
		{TeamID: 2, Name: "B", TotalPoints: 100, TotalTime: 30},
		{TeamID: 3, Name: "C", TotalPoints: 80, TotalTime: 1},
		{TeamID: 4, Name: "D", TotalPoints: 120, TotalTime: 900},
	}

	Rank(standings)

	got := make([]string, 0, len(standings))
	for _, s := range standings {
		got = append(got, s.Name)
	}
	want := []string{"D", "B", "A", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected order: got=%v want=%v", got, want)
	}
}

func TestBuildStanding_TotalTimeAndBadges(t *testing.T) {
	item := team.Team{ID: 1, Name: "blue", TotalPoints: 150, Role: team.RoleStandard}
	completed := []attempt.Attempt{
		solved("web-basics-challenge", "cookie-clue", 0, 90*time.Second+900*time.Millisecond),
		solved("cryptography-challenge", "caesar-cipher", 0, 30*time.Second),
		solved("unmapped", "puzzle", 0, 10*time.Second),
		solved("cryptography-challenge", "caesar-cipher", time.Minute, 2*time.Minute),
	}
	open := attempt.Attempt{TeamID: 1, ChallengeID: "web-basics-challenge", CTFID: "robot-rules", StartTime: base}
	completed = append(completed, open)

	got := BuildStanding(item, completed, DefaultBadges())

	if got.TotalTime != 90+30+10+60 {
		t.Fatalf("unexpected total time: %d", got.TotalTime)
	}
	wantBadges := []string{"🔴", "🟢"}
	if !reflect.DeepEqual(got.CompletedBadges, wantBadges) {
		t.Fatalf("unexpected badges: got=%v want=%v", got.CompletedBadges, wantBadges)
	}
	if got.TotalPoints != 150 || got.Name != "blue" {
		t.Fatalf("unexpected standing: %+v", got)
	}
}

func TestVisible(t *testing.T) {
	excluded := DefaultExcludedNames
	if Visible(team.Team{Name: "SuperUser", Role: team.RoleStandard}, excluded) {
		t.Fatalf("expected excluded name to be hidden")
	}
	if Visible(team.Team{Name: "instructor", Role: team.RoleAdmin}, excluded) {
		t.Fatalf("expected admin role to be hidden")
	}
	if !Visible(team.Team{Name: "test", Role: team.RoleSeed}, excluded) {
		t.Fatalf("expected seed team to be visible")
	}
}

func TestNewBadgeTable_SkipsDuplicatesAndBlanks(t *testing.T) {
	table := NewBadgeTable([]BadgeEntry{
		{Key: "a/b", Badge: "x"},
		{Key: "a/b", Badge: "y"},
		{Key: "", Badge: "z"},
		{Key: "c/d", Badge: ""},
	})

	if badge, ok := table.Lookup("a/b"); !ok || badge != "x" {
		t.Fatalf("unexpected lookup: %q %v", badge, ok)
	}
	for _, key := range []string{"", "c/d"} {
		if badge, ok := table.Lookup(key); ok {
			t.Fatalf("expected no badge for %q, got %q", key, badge)
		}
	}
}
