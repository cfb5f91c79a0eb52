package memory

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
)

// Snapshot is the flat table form of the database, one slice per file.
type Snapshot struct {
	Teams           []TeamRow
	Attempts        []AttemptRow
	HintPurchases   []HintPurchaseRow
	ChallengeAccess []ChallengeAccessRow
	Timer           *TimerRow
}

type TeamRow struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	TotalPoints int       `json:"total_points"`
	EventID     string    `json:"event_id"`
	Role        string    `json:"role,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type AttemptRow struct {
	ID           int64      `json:"id"`
	TeamID       int64      `json:"team_id"`
	CTFID        string     `json:"ctf_id"`
	ChallengeID  string     `json:"challenge_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time"`
	Completed    int        `json:"completed"`
	PointsEarned int        `json:"points_earned"`
}

type HintPurchaseRow struct {
	ID          int64     `json:"id"`
	TeamID      int64     `json:"team_id"`
	CTFID       string    `json:"ctf_id"`
	ChallengeID string    `json:"challenge_id"`
	HintIndex   int       `json:"hint_index"`
	Cost        int       `json:"cost"`
	PurchasedAt time.Time `json:"purchased_at"`
}

type ChallengeAccessRow struct {
	ID          int64     `json:"id"`
	TeamID      int64     `json:"team_id"`
	ChallengeID string    `json:"challenge_id"`
	UnlockedAt  time.Time `json:"unlocked_at"`
}

type TimerRow struct {
	StartedAt       time.Time `json:"started_at"`
	DurationSeconds int64     `json:"duration_seconds"`
}

func snapshotOf(t tables) Snapshot {
	out := Snapshot{
		Teams:           make([]TeamRow, 0, len(t.teams)),
		Attempts:        make([]AttemptRow, 0, len(t.attempts)),
		HintPurchases:   make([]HintPurchaseRow, 0, len(t.hints)),
		ChallengeAccess: make([]ChallengeAccessRow, 0, len(t.access)),
	}

	for _, item := range t.teams {
		out.Teams = append(out.Teams, TeamRow{
			ID:          item.ID,
			Name:        item.Name,
			TotalPoints: item.TotalPoints,
			EventID:     item.EventID,
			Role:        string(item.Role),
			CreatedAt:   item.CreatedAt,
		})
	}
	for _, item := range t.attempts {
		row := AttemptRow{
			ID:           item.ID,
			TeamID:       item.TeamID,
			CTFID:        item.CTFID,
			ChallengeID:  item.ChallengeID,
			StartTime:    item.StartTime,
			EndTime:      item.EndTime,
			PointsEarned: item.PointsEarned,
		}
		if item.Completed {
			row.Completed = 1
		}
		out.Attempts = append(out.Attempts, row)
	}
	for _, item := range t.hints {
		out.HintPurchases = append(out.HintPurchases, HintPurchaseRow{
			ID:          item.ID,
			TeamID:      item.TeamID,
			CTFID:       item.CTFID,
			ChallengeID: item.ChallengeID,
			HintIndex:   item.HintIndex,
			Cost:        item.Cost,
			PurchasedAt: item.PurchasedAt,
		})
	}
	for _, item := range t.access {
		out.ChallengeAccess = append(out.ChallengeAccess, ChallengeAccessRow{
			ID:          item.ID,
			TeamID:      item.TeamID,
			ChallengeID: item.ChallengeID,
			UnlockedAt:  item.UnlockedAt,
		})
	}
	if t.timer != nil {
		out.Timer = &TimerRow{StartedAt: t.timer.StartedAt, DurationSeconds: t.timer.DurationSeconds}
	}

	slices.SortFunc(out.Teams, func(a, b TeamRow) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.Attempts, func(a, b AttemptRow) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.HintPurchases, func(a, b HintPurchaseRow) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(out.ChallengeAccess, func(a, b ChallengeAccessRow) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// tables rebuilds the in-memory indexes. Rows whose team no longer exists
// are kept; duplicate keys are rejected.
func (s Snapshot) tables() (tables, error) {
	t := newTables()

	for _, row := range s.Teams {
		if _, exists := t.teams[row.ID]; exists {
			return tables{}, fmt.Errorf("duplicate team id %d", row.ID)
		}
		role := team.Role(row.Role)
		if role == "" {
			role = team.RoleForName(row.Name)
		}
		t.teams[row.ID] = team.Team{
			ID:          row.ID,
			Name:        row.Name,
			TotalPoints: row.TotalPoints,
			EventID:     row.EventID,
			Role:        role,
			CreatedAt:   row.CreatedAt,
		}
		t.nextTeamID = max(t.nextTeamID, row.ID+1)
	}

	for _, row := range s.Attempts {
		key := attempt.Key{TeamID: row.TeamID, ChallengeID: row.ChallengeID, CTFID: row.CTFID}
		if _, exists := t.attempts[key]; exists {
			return tables{}, fmt.Errorf("duplicate attempt for team=%d puzzle=%s", row.TeamID, key.PuzzleKey())
		}
		t.attempts[key] = attempt.Attempt{
			ID:           row.ID,
			TeamID:       row.TeamID,
			ChallengeID:  row.ChallengeID,
			CTFID:        row.CTFID,
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
			Completed:    row.Completed == 1,
			PointsEarned: row.PointsEarned,
		}
		t.nextAttemptID = max(t.nextAttemptID, row.ID+1)
	}

	for _, row := range s.HintPurchases {
		key := hintKey{
			Key:   attempt.Key{TeamID: row.TeamID, ChallengeID: row.ChallengeID, CTFID: row.CTFID},
			Index: row.HintIndex,
		}
		if _, exists := t.hints[key]; exists {
			return tables{}, fmt.Errorf("duplicate hint purchase for team=%d puzzle=%s index=%d", row.TeamID, key.PuzzleKey(), row.HintIndex)
		}
		t.hints[key] = hint.Purchase{
			ID:          row.ID,
			TeamID:      row.TeamID,
			ChallengeID: row.ChallengeID,
			CTFID:       row.CTFID,
			HintIndex:   row.HintIndex,
			Cost:        row.Cost,
			PurchasedAt: row.PurchasedAt,
		}
		t.nextHintID = max(t.nextHintID, row.ID+1)
	}

	for _, row := range s.ChallengeAccess {
		key := accessKey{TeamID: row.TeamID, ChallengeID: row.ChallengeID}
		if _, exists := t.access[key]; exists {
			continue
		}
		t.access[key] = access.ChallengeAccess{
			ID:          row.ID,
			TeamID:      row.TeamID,
			ChallengeID: row.ChallengeID,
			UnlockedAt:  row.UnlockedAt,
		}
		t.nextAccessID = max(t.nextAccessID, row.ID+1)
	}

	if s.Timer != nil {
		t.timer = &timer.State{StartedAt: s.Timer.StartedAt, DurationSeconds: s.Timer.DurationSeconds}
	}
	return t, nil
}
