package hint

import (
	"errors"
	"fmt"
	"testing"
)

func TestCost(t *testing.T) {
	tests := map[int]int{0: 10, 1: 20, 2: 30, 9: 100}
	for index, want := range tests {
		if got := Cost(index); got != want {
			t.Fatalf("Cost(%d)=%d want=%d", index, got, want)
		}
	}
}

func TestValidateIndex(t *testing.T) {
	if err := ValidateIndex(0); err != nil {
		t.Fatalf("expected index 0 to be valid, got %v", err)
	}
	if err := ValidateIndex(-1); err == nil {
		t.Fatalf("expected negative index to be rejected")
	}
}

func TestInsufficientPointsError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("purchase: %w", &InsufficientPointsError{Cost: 30, Balance: 20})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected errors.Is to match ErrInsufficientPoints")
	}

	var detail *InsufficientPointsError
	if !errors.As(err, &detail) || detail.Cost != 30 || detail.Balance != 20 {
		t.Fatalf("unexpected detail: %+v", detail)
	}
}
