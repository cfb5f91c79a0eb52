package postgres

import "time"

type hintPurchaseInsertModel struct {
	TeamID      int64     `db:"team_id"`
	ChallengeID string    `db:"challenge_id"`
	CTFID       string    `db:"ctf_id"`
	HintIndex   int       `db:"hint_index"`
	Cost        int       `db:"cost"`
	PurchasedAt time.Time `db:"purchased_at"`
}

type challengeAccessTableModel struct {
	ID          int64     `db:"id"`
	TeamID      int64     `db:"team_id"`
	ChallengeID string    `db:"challenge_id"`
	UnlockedAt  time.Time `db:"unlocked_at"`
}

type timerTableModel struct {
	ID              int       `db:"id"`
	StartedAt       time.Time `db:"started_at"`
	DurationSeconds int64     `db:"duration_seconds"`
}
