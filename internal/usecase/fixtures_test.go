package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/catalog"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/infrastructure/repository/memory"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type stubCatalog struct {
	challenges []catalog.Challenge
	ctfs       []catalog.CTF
	err        error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{
		challenges: []catalog.Challenge{
			{ID: "cryptography-challenge", Name: "Cryptography", UnlockPassword: "enigma"},
			{ID: "web-basics-challenge", Name: "Web Basics"},
		},
		ctfs: []catalog.CTF{
			{
				ID:          "caesar-cipher",
				ChallengeID: "cryptography-challenge",
				Title:       "Caesar Cipher",
				Points:      100,
				Hints:       []string{"shift", "by three", "ROT3"},
				Flag:        "FLAG{veni_vidi}",
			},
			{
				ID:          "secret-number",
				ChallengeID: "cryptography-challenge",
				Title:       "Secret Number",
				Points:      50,
				Flag:        "42",
			},
			{
				ID:          "cookie-clue",
				ChallengeID: "web-basics-challenge",
				Title:       "Cookie Clue",
				Points:      80,
				Hints:       []string{"devtools"},
				Flag:        "FLAG{cookie}",
			},
		},
	}
}

func (c *stubCatalog) ResolveChallenge(_ context.Context, challengeID string) (catalog.Challenge, bool, error) {
	if c.err != nil {
		return catalog.Challenge{}, false, c.err
	}
	for _, item := range c.challenges {
		if item.ID == challengeID {
			return item, true, nil
		}
	}
	return catalog.Challenge{}, false, nil
}

func (c *stubCatalog) ResolveCTF(_ context.Context, challengeID, ctfID string) (catalog.CTF, bool, error) {
	if c.err != nil {
		return catalog.CTF{}, false, c.err
	}
	for _, item := range c.ctfs {
		if item.ChallengeID == challengeID && item.ID == ctfID {
			return item, true, nil
		}
	}
	return catalog.CTF{}, false, nil
}

func (c *stubCatalog) ListChallenges(context.Context) ([]catalog.Challenge, error) {
	return append([]catalog.Challenge(nil), c.challenges...), c.err
}

func (c *stubCatalog) ListCTFs(_ context.Context, challengeID string) ([]catalog.CTF, error) {
	out := make([]catalog.CTF, 0)
	for _, item := range c.ctfs {
		if item.ChallengeID == challengeID {
			out = append(out, item)
		}
	}
	return out, c.err
}

type store struct {
	db       *memory.Database
	teams    *memory.TeamRepository
	attempts *memory.AttemptRepository
	hints    *memory.HintRepository
	access   *memory.AccessRepository
	timer    *memory.TimerRepository
}

func newStore() store {
	db := memory.NewDatabase()
	return store{
		db:       db,
		teams:    memory.NewTeamRepository(db),
		attempts: memory.NewAttemptRepository(db),
		hints:    memory.NewHintRepository(db),
		access:   memory.NewAccessRepository(db),
		timer:    memory.NewTimerRepository(db),
	}
}

func (s store) mustTeam(eventID, name string, points int) team.Team {
	item, _, err := s.teams.Create(context.Background(), team.Team{
		Name:        name,
		TotalPoints: points,
		EventID:     eventID,
		Role:        team.RoleForName(name),
		CreatedAt:   fixedNow,
	}, false)
	if err != nil {
		panic(err)
	}
	return item
}

type recordedEvents struct {
	items []ScoreEvent
}

func (r *recordedEvents) OnScoreEvent(_ context.Context, event ScoreEvent) {
	r.items = append(r.items, event)
}

func (r *recordedEvents) kinds() []ScoreEventKind {
	out := make([]ScoreEventKind, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item.Kind)
	}
	return out
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
