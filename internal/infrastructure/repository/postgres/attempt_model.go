package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
)

const attemptColumns = "id, team_id, challenge_id, ctf_id, start_time, end_time, completed, points_earned"

type attemptTableModel struct {
	ID           int64        `db:"id"`
	TeamID       int64        `db:"team_id"`
	ChallengeID  string       `db:"challenge_id"`
	CTFID        string       `db:"ctf_id"`
	StartTime    time.Time    `db:"start_time"`
	EndTime      sql.NullTime `db:"end_time"`
	Completed    bool         `db:"completed"`
	PointsEarned int          `db:"points_earned"`
}

type attemptInsertModel struct {
	TeamID      int64     `db:"team_id"`
	ChallengeID string    `db:"challenge_id"`
	CTFID       string    `db:"ctf_id"`
	StartTime   time.Time `db:"start_time"`
}

func (m attemptTableModel) toDomain() attempt.Attempt {
	return attempt.Attempt{
		ID:           m.ID,
		TeamID:       m.TeamID,
		ChallengeID:  m.ChallengeID,
		CTFID:        m.CTFID,
		StartTime:    m.StartTime.UTC(),
		EndTime:      timePtr(m.EndTime),
		Completed:    m.Completed,
		PointsEarned: m.PointsEarned,
	}
}
