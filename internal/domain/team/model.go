package team

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// StartingPoints is the balance every new team receives.
const StartingPoints = 60

const (
	AdminName = "superuser"
	SeedName  = "test"
)

var (
	ErrNameTaken = errors.New("team name already taken in this event")
	ErrNotFound  = errors.New("team not found")
)

// Role decides what a team is allowed to do. It is fixed at creation.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
	RoleSeed     Role = "seed"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStandard, RoleAdmin, RoleSeed:
		return true
	default:
		return false
	}
}

// RoleForName maps the reserved registration names onto roles.
func RoleForName(name string) Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case AdminName:
		return RoleAdmin
	case SeedName:
		return RoleSeed
	default:
		return RoleStandard
	}
}

// Team is a group of students registered under one event.
type Team struct {
	ID          int64
	Name        string
	TotalPoints int
	EventID     string
	Role        Role
	CreatedAt   time.Time
}

func (t Team) IsAdmin() bool {
	return t.Role == RoleAdmin
}

func (t Team) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if strings.TrimSpace(t.EventID) == "" {
		return fmt.Errorf("team event id is required")
	}
	if !t.Role.Valid() {
		return fmt.Errorf("team role %q is invalid", t.Role)
	}

	return nil
}
