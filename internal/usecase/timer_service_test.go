package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/timer"
)

func newTimerFixture(t *testing.T) (*TimerService, *clock, Identity, Identity, *recordedEvents) {
	t.Helper()

	st := newStore()
	admin := st.mustTeam("class-a", "SuperUser", 60)
	student := st.mustTeam("class-a", "Blue", 60)
	if admin.Role != team.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}

	clk := &clock{now: fixedNow}
	events := &recordedEvents{}
	service := NewTimerService(st.timer, st.teams, nil, events)
	service.now = clk.Now

	return service, clk,
		Identity{TeamID: admin.ID, EventID: "class-a"},
		Identity{TeamID: student.ID, EventID: "class-a"},
		events
}

func TestTimerService_StartAndExtend(t *testing.T) {
	t.Parallel()

	service, clk, admin, _, events := newTimerFixture(t)
	ctx := context.Background()

	status, err := service.Status(ctx)
	if err != nil || status != nil {
		t.Fatalf("expected no timer, got %+v err=%v", status, err)
	}

	started, err := service.Start(ctx, admin, 10)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.DurationSeconds != 600 || started.RemainingSeconds != 600 || !started.IsActive {
		t.Fatalf("unexpected started timer: %+v", started)
	}

	clk.Advance(4 * time.Minute)
	extended, err := service.Extend(ctx, admin, nil)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if extended.DurationSeconds != 900 || extended.RemainingSeconds != 660 || !extended.StartedAt.Equal(fixedNow) {
		t.Fatalf("unexpected extended timer: %+v", extended)
	}

	half := 0.5
	extended, err = service.Extend(ctx, admin, &half)
	if err != nil {
		t.Fatalf("extend by half a minute: %v", err)
	}
	if extended.DurationSeconds != 930 {
		t.Fatalf("expected 930 seconds, got %d", extended.DurationSeconds)
	}
	if len(events.items) != 3 {
		t.Fatalf("expected three timer events, got %v", events.kinds())
	}
}

func TestTimerService_ExtendExpiredTimer(t *testing.T) {
	t.Parallel()

	service, clk, admin, _, _ := newTimerFixture(t)
	ctx := context.Background()

	if _, err := service.Extend(ctx, admin, nil); !errors.Is(err, ErrNoActiveTimer) {
		t.Fatalf("expected ErrNoActiveTimer without timer, got %v", err)
	}

	if _, err := service.Start(ctx, admin, 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	clk.Advance(61 * time.Second)

	status, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.RemainingSeconds != 0 || status.IsActive {
		t.Fatalf("expected expired timer, got %+v", status)
	}
	if _, err := service.Extend(ctx, admin, nil); !errors.Is(err, ErrNoActiveTimer) {
		t.Fatalf("expected ErrNoActiveTimer after expiry, got %v", err)
	}

	restarted, err := service.Start(ctx, admin, 2)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if restarted.RemainingSeconds != 120 {
		t.Fatalf("expected fresh countdown, got %+v", restarted)
	}
}

func TestTimerService_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	service, _, admin, student, _ := newTimerFixture(t)
	ctx := context.Background()

	if _, err := service.Start(ctx, student, 10); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for standard team, got %v", err)
	}
	if _, err := service.Extend(ctx, student, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for standard team, got %v", err)
	}
	if _, err := service.Start(ctx, Identity{}, 10); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}

	for _, minutes := range []float64{0, -3, math.NaN(), math.Inf(1)} {
		if _, err := service.Start(ctx, admin, minutes); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("minutes=%v: expected ErrInvalidInput, got %v", minutes, err)
		}
	}
}

func TestTimerService_RejectsDurationsPastCap(t *testing.T) {
	t.Parallel()

	service, _, admin, _, events := newTimerFixture(t)
	ctx := context.Background()

	if _, err := service.Start(ctx, admin, 1e18); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for huge start, got %v", err)
	}
	status, err := service.Status(ctx)
	if err != nil || status != nil {
		t.Fatalf("expected no timer after rejected start, got %+v err=%v", status, err)
	}

	if _, err := service.Start(ctx, admin, 10); err != nil {
		t.Fatalf("start: %v", err)
	}
	huge := float64(timer.MaxDurationSeconds) / 60
	if _, err := service.Extend(ctx, admin, &huge); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for extend past cap, got %v", err)
	}
	status, err = service.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.DurationSeconds != 600 || !status.IsActive {
		t.Fatalf("rejected extend changed the timer: %+v", status)
	}
	if len(events.items) != 1 {
		t.Fatalf("expected only the start event, got %v", events.kinds())
	}
}
