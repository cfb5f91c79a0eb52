package querybuilder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "name").
		From("teams").
		Where(Eq("event_id", "class-a"), Expr("lower(name) = lower(?)", "Alpha")).
		OrderBy("id").
		Limit(1).
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, name FROM teams WHERE event_id = $1 AND lower(name) = lower($2) ORDER BY id LIMIT 1", query)
	assert.Equal(t, []any{"class-a", "Alpha"}, args)
}

func TestSelectBuilder_ForUpdate(t *testing.T) {
	query, args, err := Select("*").
		From("attempts").
		Where(Eq("team_id", int64(4)), Eq("challenge_id", "web"), Eq("ctf_id", "sqli")).
		ForUpdate().
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM attempts WHERE team_id = $1 AND challenge_id = $2 AND ctf_id = $3 FOR UPDATE", query)
	assert.Len(t, args, 3)
}

func TestInsertBuilder(t *testing.T) {
	query, args, err := InsertInto("challenge_access").
		Columns("team_id", "challenge_id").
		Values(int64(3), "web").
		Suffix("ON CONFLICT (team_id, challenge_id) DO NOTHING RETURNING id").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO challenge_access (team_id, challenge_id) VALUES ($1, $2) ON CONFLICT (team_id, challenge_id) DO NOTHING RETURNING id", query)
	assert.Equal(t, []any{int64(3), "web"}, args)
}

func TestInsertBuilder_RowWidthMismatch(t *testing.T) {
	_, _, err := InsertInto("teams").Columns("name", "event_id").Values("alpha").ToSQL()
	require.Error(t, err)
}

func TestInsertModel(t *testing.T) {
	type row struct {
		Name      string    `db:"name"`
		EventID   string    `db:"event_id"`
		CreatedAt time.Time `db:"created_at"`
		Ignored   string    `db:"-"`
		internal  string
	}

	created := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("teams", row{Name: "alpha", EventID: "class-a", CreatedAt: created}, "RETURNING id")
	require.NoError(t, err)

	assert.Equal(t, "INSERT INTO teams (name, event_id, created_at) VALUES ($1, $2, $3) RETURNING id", query)
	assert.Equal(t, []any{"alpha", "class-a", created}, args)
}

func TestInsertModel_SkipsAutoColumns(t *testing.T) {
	type row struct {
		ID     int64  `db:"id,auto"`
		TeamID int64  `db:"team_id"`
		Index  int    `db:"hint_index"`
		Note   string `db:"-"`
	}

	query, args, err := InsertModel("hint_purchases", &row{ID: 99, TeamID: 4, Index: 2}, "")
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO hint_purchases (team_id, hint_index) VALUES ($1, $2)", query)
	assert.Equal(t, []any{int64(4), 2}, args)
	assert.Equal(t, "id, team_id, hint_index", Columns(row{}))

	_, _, err = InsertModel("t", struct {
		ID int64 `db:"id,auto"`
	}{}, "")
	require.Error(t, err)
	_, _, err = InsertModel("t", (*row)(nil), "")
	require.Error(t, err)
	assert.Empty(t, Columns(42))
}

func TestUpdateBuilder(t *testing.T) {
	query, args, err := Update("teams").
		SetExpr("total_points", "total_points + ?", 150).
		Where(Eq("id", int64(9))).
		Suffix("RETURNING total_points").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "UPDATE teams SET total_points = total_points + $1 WHERE id = $2 RETURNING total_points", query)
	assert.Equal(t, []any{150, int64(9)}, args)
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("teams").
		Where(Eq("id", int64(5))).
		Suffix("RETURNING id").
		ToSQL()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM teams WHERE id = $1 RETURNING id", query)
	assert.Equal(t, []any{int64(5)}, args)

	_, _, err = DeleteFrom("teams").ToSQL()
	require.Error(t, err)
}
