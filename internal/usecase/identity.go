package usecase

import (
	"fmt"
	"strings"
)

// Identity is the authenticated team and event a request acts for.
type Identity struct {
	TeamID  int64
	EventID string
}

func (i Identity) validate() error {
	if i.TeamID <= 0 {
		return fmt.Errorf("%w: team session is required", ErrUnauthenticated)
	}
	if strings.TrimSpace(i.EventID) == "" {
		return fmt.Errorf("%w: event session is required", ErrUnauthenticated)
	}
	return nil
}

func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
