package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/event"
	"golang.org/x/crypto/bcrypt"
)

func eventWithHash(id, hash string) event.Event {
	return event.Event{ID: id, Name: "Class C", PasswordHash: hash}
}

func TestEventService_Verify(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("charlie"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	events := testEvents()
	events["class-c"] = eventWithHash("class-c", string(hash))

	service := NewEventService(events, nil)
	ctx := context.Background()

	got, err := service.Verify(ctx, " alpha ")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != "class-a" || got.Password != "" || got.PasswordHash != "" {
		t.Fatalf("expected public event, got %+v", got)
	}

	hashed, err := service.Verify(ctx, "charlie")
	if err != nil || hashed.ID != "class-c" {
		t.Fatalf("expected hashed password to verify, got %+v err=%v", hashed, err)
	}

	if _, err := service.Verify(ctx, "wrong"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, err := service.Verify(ctx, ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestEventService_Current(t *testing.T) {
	t.Parallel()

	service := NewEventService(testEvents(), nil)

	got, err := service.Current(context.Background(), "class-b")
	if err != nil || got.Name != "Class B" || got.Password != "" {
		t.Fatalf("unexpected event: %+v err=%v", got, err)
	}
	if _, err := service.Current(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.Current(context.Background(), ""); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}
