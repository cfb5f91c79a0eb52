package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/id"
)

const (
	CookieName = "ctf_session"
	issuer     = "ctf-scoreboard"
	minSecret  = 16
)

var ErrInvalidToken = errors.New("invalid session token")

// Principal is what a session token proves: the event a browser joined and,
// once registered, its team.
type Principal struct {
	EventID string
	TeamID  int64
	TokenID string
}

func (p Principal) HasTeam() bool {
	return p.TeamID > 0
}

type claims struct {
	EventID string `json:"event_id"`
	TeamID  int64  `json:"team_id,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 session tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	ids    id.Generator
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if len(secret) < minSecret {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecret)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be > 0")
	}
	return &Manager{secret: []byte(secret), ttl: ttl, ids: id.NewUUIDGenerator(), now: time.Now}, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) Issue(p Principal) (string, time.Time, error) {
	if strings.TrimSpace(p.EventID) == "" {
		return "", time.Time{}, fmt.Errorf("event id is required")
	}

	tokenID, err := m.ids.NewID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("session token id: %w", err)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		EventID: p.EventID,
		TeamID:  p.TeamID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

func (m *Manager) Verify(raw string) (Principal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Principal{}, fmt.Errorf("%w: empty token", ErrInvalidToken)
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(parsed.EventID) == "" {
		return Principal{}, fmt.Errorf("%w: event id claim is missing", ErrInvalidToken)
	}

	return Principal{
		EventID: parsed.EventID,
		TeamID:  parsed.TeamID,
		TokenID: parsed.ID,
	}, nil
}
