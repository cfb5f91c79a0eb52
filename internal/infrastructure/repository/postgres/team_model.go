package postgres

import (
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	qb "github.com/riskibarqy/ctf-scoreboard/internal/platform/querybuilder"
)

var teamColumns = qb.Columns(teamTableModel{})

type teamTableModel struct {
	ID          int64     `db:"id,auto"`
	EventID     string    `db:"event_id"`
	Name        string    `db:"name"`
	Role        string    `db:"role"`
	TotalPoints int       `db:"total_points"`
	CreatedAt   time.Time `db:"created_at"`
}

func (m teamTableModel) toDomain() team.Team {
	return team.Team{
		ID:          m.ID,
		Name:        m.Name,
		TotalPoints: m.TotalPoints,
		EventID:     m.EventID,
		Role:        team.Role(m.Role),
		CreatedAt:   m.CreatedAt.UTC(),
	}
}
