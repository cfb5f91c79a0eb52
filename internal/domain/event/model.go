package event

import (
	"context"
	"crypto/subtle"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Event is a password gated session of the exercise, such as one class.
type Event struct {
	ID           string
	Name         string
	Date         string
	Location     string
	Password     string
	PasswordHash string
	Description  string
}

// CheckPassword prefers the bcrypt hash and falls back to the plaintext
// password for hand written events files.
func (e Event) CheckPassword(candidate string) bool {
	if candidate == "" {
		return false
	}
	if hash := strings.TrimSpace(e.PasswordHash); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
	}
	if e.Password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(e.Password), []byte(candidate)) == 1
}

// Public strips secrets before the event leaves the service.
func (e Event) Public() Event {
	e.Password = ""
	e.PasswordHash = ""
	return e
}

type Repository interface {
	GetByID(ctx context.Context, eventID string) (Event, bool, error)
	FindByPassword(ctx context.Context, password string) (Event, bool, error)
}
