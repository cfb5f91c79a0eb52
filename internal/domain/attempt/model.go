package attempt

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrAlreadyCompleted = errors.New("ctf already completed")

// Key identifies the single attempt a team may hold against one puzzle.
type Key struct {
	TeamID      int64
	ChallengeID string
	CTFID       string
}

func (k Key) Validate() error {
	if k.TeamID <= 0 {
		return fmt.Errorf("team id must be > 0")
	}
	if strings.TrimSpace(k.ChallengeID) == "" {
		return fmt.Errorf("challenge id is required")
	}
	if strings.TrimSpace(k.CTFID) == "" {
		return fmt.Errorf("ctf id is required")
	}

	return nil
}

// PuzzleKey is the "challenge/ctf" form used by badge lookups.
func (k Key) PuzzleKey() string {
	return PuzzleKey(k.ChallengeID, k.CTFID)
}

func PuzzleKey(challengeID, ctfID string) string {
	return challengeID + "/" + ctfID
}

// Attempt is a team's open or completed run at one puzzle.
type Attempt struct {
	ID           int64
	TeamID       int64
	ChallengeID  string
	CTFID        string
	StartTime    time.Time
	EndTime      *time.Time
	Completed    bool
	PointsEarned int
}

func (a Attempt) Key() Key {
	return Key{TeamID: a.TeamID, ChallengeID: a.ChallengeID, CTFID: a.CTFID}
}

// ElapsedSeconds is the whole seconds between start and end of a completed
// attempt. Open attempts and clock skew report zero.
func (a Attempt) ElapsedSeconds() int64 {
	if !a.Completed || a.EndTime == nil {
		return 0
	}
	return ElapsedSeconds(a.StartTime, *a.EndTime)
}

func ElapsedSeconds(start, end time.Time) int64 {
	elapsed := end.Sub(start)
	if elapsed <= 0 {
		return 0
	}
	return int64(elapsed / time.Second)
}

// Open builds a fresh attempt for key started at now.
func Open(key Key, now time.Time) Attempt {
	return Attempt{
		TeamID:      key.TeamID,
		ChallengeID: key.ChallengeID,
		CTFID:       key.CTFID,
		StartTime:   now,
	}
}

// Verdict is the outcome of judging a submission against an open attempt.
type Verdict struct {
	Correct bool
	Points  int
}

// Judge inspects the open attempt and decides the verdict. It must not
// block or touch storage; it runs inside the store's atomic step.
type Judge func(current Attempt) (Verdict, error)

// Complete applies a correct verdict to a.
func (a Attempt) Complete(now time.Time, points int) (Attempt, error) {
	if a.Completed {
		return a, ErrAlreadyCompleted
	}
	end := now
	a.EndTime = &end
	a.Completed = true
	a.PointsEarned = points
	return a, nil
}
