package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthenticated       = errors.New("not authenticated")
	ErrForbidden             = errors.New("forbidden")
	ErrAlreadyCompleted      = errors.New("ctf already completed")
	ErrInsufficientPoints    = errors.New("insufficient points")
	ErrNoActiveTimer         = errors.New("no active timer")
	ErrStorage               = errors.New("storage failure")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
