package postgres

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
)

func TestPgErrorClassification(t *testing.T) {
	t.Run("unique violation", func(t *testing.T) {
		err := fmt.Errorf("insert team: %w", &pq.Error{Code: "23505"})
		if !isUniqueViolation(err) {
			t.Fatalf("expected wrapped 23505 to be a unique violation")
		}
		if isForeignKeyViolation(err) {
			t.Fatalf("unique violation must not match foreign key violation")
		}
	})

	t.Run("foreign key violation", func(t *testing.T) {
		if !isForeignKeyViolation(&pq.Error{Code: "23503"}) {
			t.Fatalf("expected 23503 to be a foreign key violation")
		}
	})

	t.Run("ignores non pq errors", func(t *testing.T) {
		if got := pgCode(fmt.Errorf("pq: relation teams does not exist")); got != "" {
			t.Fatalf("expected empty code, got %q", got)
		}
	})
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(fmt.Errorf("select team: %w", sql.ErrNoRows)) {
		t.Fatalf("expected wrapped sql.ErrNoRows to be not found")
	}
	if isNotFound(sql.ErrConnDone) {
		t.Fatalf("expected ErrConnDone not to be not found")
	}
}

func TestNullTimeRoundTrip(t *testing.T) {
	if got := nullTime(nil); got.Valid {
		t.Fatalf("expected invalid NullTime for nil pointer")
	}
	if got := timePtr(sql.NullTime{}); got != nil {
		t.Fatalf("expected nil pointer for invalid NullTime, got %v", got)
	}

	loc := time.FixedZone("WIB", 7*3600)
	end := time.Date(2026, 3, 1, 16, 0, 0, 0, loc)
	got := timePtr(nullTime(&end))
	if got == nil || !got.Equal(end) || got.Location() != time.UTC {
		t.Fatalf("unexpected round trip: %v", got)
	}
}

func TestTeamTableModelToDomain(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	got := teamTableModel{
		ID:          4,
		EventID:     "class-a",
		Name:        "alpha",
		Role:        "admin",
		TotalPoints: 60,
		CreatedAt:   created,
	}.toDomain()

	if got.ID != 4 || got.EventID != "class-a" || got.Name != "alpha" || got.TotalPoints != 60 {
		t.Fatalf("unexpected team: %+v", got)
	}
	if got.Role != team.RoleAdmin {
		t.Fatalf("unexpected role: %q", got.Role)
	}
	if got.CreatedAt.Location() != time.UTC || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected created_at: %v", got.CreatedAt)
	}
}

func TestAttemptTableModelToDomain(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	open := attemptTableModel{ID: 1, TeamID: 2, ChallengeID: "web", CTFID: "sqli", StartTime: start}.toDomain()
	if open.EndTime != nil || open.Completed {
		t.Fatalf("unexpected open attempt: %+v", open)
	}

	done := attemptTableModel{
		ID:           1,
		TeamID:       2,
		ChallengeID:  "web",
		CTFID:        "sqli",
		StartTime:    start,
		EndTime:      sql.NullTime{Time: start.Add(95 * time.Second), Valid: true},
		Completed:    true,
		PointsEarned: 100,
	}.toDomain()
	if got := done.ElapsedSeconds(); got != 95 {
		t.Fatalf("unexpected elapsed seconds: %d", got)
	}
}
