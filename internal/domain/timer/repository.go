package timer

import "context"

// Repository stores the one well-known timer record.
type Repository interface {
	Get(ctx context.Context) (State, bool, error)
	// Save overwrites any previous record.
	Save(ctx context.Context, state State) error
	// Update reads the record, applies fn and writes the result atomically.
	// An error from fn leaves the record untouched and is returned as is.
	Update(ctx context.Context, fn func(current State, exists bool) (State, error)) (State, error)
}
