package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
)

func TestJSONFilePersister_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	persister, err := NewJSONFilePersister(dir)
	if err != nil {
		t.Fatalf("new persister: %v", err)
	}
	db, err := Open(ctx, persister)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	teams := NewTeamRepository(db)
	owner := createTeam(t, teams, "class-a", "Blue", 60)
	key := attempt.Key{TeamID: owner.ID, ChallengeID: "web-basics-challenge", CTFID: "cookie-clue"}
	if _, err := NewAttemptRepository(db).Submit(ctx, key, testNow, correctJudge(30)); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := NewTimerRepository(db).Save(ctx, timer.State{StartedAt: testNow, DurationSeconds: 900}); err != nil {
		t.Fatalf("save timer: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, attemptsFile))
	if err != nil {
		t.Fatalf("read attempts file: %v", err)
	}
	if !strings.Contains(string(raw), `"completed": 1`) {
		t.Fatalf("expected indented flat attempt rows, got %s", raw)
	}

	reopenedPersister, err := NewJSONFilePersister(dir)
	if err != nil {
		t.Fatalf("new persister: %v", err)
	}
	reopened, err := Open(ctx, reopenedPersister)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}

	got, exists, _ := NewTeamRepository(reopened).GetByID(ctx, owner.ID)
	if !exists || got.TotalPoints != 90 || got.Role != team.RoleStandard {
		t.Fatalf("unexpected team after reopen: %+v exists=%v", got, exists)
	}
	item, exists, _ := NewAttemptRepository(reopened).Get(ctx, key)
	if !exists || !item.Completed || item.PointsEarned != 30 {
		t.Fatalf("unexpected attempt after reopen: %+v", item)
	}
	state, exists, _ := NewTimerRepository(reopened).Get(ctx)
	if !exists || state.DurationSeconds != 900 || !state.StartedAt.Equal(testNow) {
		t.Fatalf("unexpected timer after reopen: %+v", state)
	}

	next := createTeam(t, NewTeamRepository(reopened), "class-a", "Green", 60)
	if next.ID != owner.ID+1 {
		t.Fatalf("expected id sequence to continue, got %d", next.ID)
	}
}

func TestJSONFilePersister_LoadsLegacyRowsWithoutRole(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	legacy := `[
  {"id": 4, "name": "superuser", "total_points": 60, "event_id": "class-a", "created_at": "2026-03-01T09:00:00Z"},
  {"id": 7, "name": "Blue", "total_points": 80, "event_id": "class-a", "created_at": "2026-03-01T09:05:00Z"}
]`
	if err := os.WriteFile(filepath.Join(dir, teamsFile), []byte(legacy), 0o644); err != nil {
		t.Fatalf("write legacy file: %v", err)
	}

	persister, err := NewJSONFilePersister(dir)
	if err != nil {
		t.Fatalf("new persister: %v", err)
	}
	db, err := Open(context.Background(), persister)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	repo := NewTeamRepository(db)
	admin, _, _ := repo.GetByID(context.Background(), 4)
	if admin.Role != team.RoleAdmin {
		t.Fatalf("expected role derived from reserved name, got %q", admin.Role)
	}
	created := createTeam(t, repo, "class-a", "Green", 60)
	if created.ID != 8 {
		t.Fatalf("expected max+1 id, got %d", created.ID)
	}
}
