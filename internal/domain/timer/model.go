package timer

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultExtendMinutes is used when an extend request names no amount.
const DefaultExtendMinutes = 5.0

// MaxDurationSeconds caps a countdown, including every extension, at one year.
const MaxDurationSeconds int64 = 365 * 24 * 60 * 60

var (
	ErrNoActiveTimer   = errors.New("no active timer to extend")
	ErrDurationTooLong = fmt.Errorf("timer duration cannot exceed %d seconds", MaxDurationSeconds)
)

// State is the single shared countdown record. Remaining time is never
// stored; it is derived from the wall clock on every read.
type State struct {
	StartedAt       time.Time
	DurationSeconds int64
}

type Status struct {
	StartedAt        time.Time
	DurationSeconds  int64
	RemainingSeconds int64
	IsActive         bool
}

func (s State) Status(now time.Time) Status {
	remaining := s.RemainingSeconds(now)
	return Status{
		StartedAt:        s.StartedAt,
		DurationSeconds:  s.DurationSeconds,
		RemainingSeconds: remaining,
		IsActive:         remaining > 0,
	}
}

func (s State) RemainingSeconds(now time.Time) int64 {
	elapsed := now.Sub(s.StartedAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := s.DurationSeconds - int64(elapsed/time.Second)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Extend adds deltaSeconds to a running timer without moving its start.
func (s State) Extend(now time.Time, deltaSeconds int64) (State, error) {
	if s.RemainingSeconds(now) == 0 {
		return s, ErrNoActiveTimer
	}
	if deltaSeconds > MaxDurationSeconds-s.DurationSeconds {
		return s, ErrDurationTooLong
	}
	s.DurationSeconds += deltaSeconds
	return s, nil
}

// MinutesToSeconds converts a user supplied minute amount, rounding to the
// nearest second.
func MinutesToSeconds(minutes float64) (int64, error) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return 0, fmt.Errorf("minutes must be a positive number")
	}
	seconds := math.Round(minutes * 60)
	if seconds > float64(MaxDurationSeconds) {
		return 0, ErrDurationTooLong
	}
	return int64(seconds), nil
}
