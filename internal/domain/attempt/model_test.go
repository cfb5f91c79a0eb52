package attempt

import (
	"errors"
	"testing"
	"time"
)

func TestElapsedSeconds_FloorsToWholeSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		end  time.Time
		want int64
	}{
		{end: start.Add(1999 * time.Millisecond), want: 1},
		{end: start.Add(59 * time.Second), want: 59},
		{end: start.Add(999 * time.Millisecond), want: 0},
		{end: start.Add(-3 * time.Second), want: 0},
	}

	for _, tt := range tests {
		if got := ElapsedSeconds(start, tt.end); got != tt.want {
			t.Fatalf("ElapsedSeconds(%s)=%d want=%d", tt.end.Sub(start), got, tt.want)
		}
	}
}

func TestAttemptComplete(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	open := Open(Key{TeamID: 1, ChallengeID: "crypto", CTFID: "caesar"}, now)

	done, err := open.Complete(now.Add(42*time.Second), 25)
	if err != nil {
		t.Fatalf("complete attempt: %v", err)
	}
	if !done.Completed || done.PointsEarned != 25 || done.EndTime == nil {
		t.Fatalf("unexpected completed attempt: %+v", done)
	}
	if got := done.ElapsedSeconds(); got != 42 {
		t.Fatalf("unexpected elapsed seconds: %d", got)
	}

	if _, err := done.Complete(now.Add(time.Minute), 25); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestKeyValidate(t *testing.T) {
	if err := (Key{TeamID: 1, ChallengeID: "c", CTFID: "f"}).Validate(); err != nil {
		t.Fatalf("expected valid key, got %v", err)
	}
	invalid := []Key{
		{ChallengeID: "c", CTFID: "f"},
		{TeamID: 1, CTFID: "f"},
		{TeamID: 1, ChallengeID: "c", CTFID: " "},
	}
	for _, key := range invalid {
		if err := key.Validate(); err == nil {
			t.Fatalf("expected invalid key %+v", key)
		}
	}
}
