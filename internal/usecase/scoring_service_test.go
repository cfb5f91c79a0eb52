package usecase

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
)

func newScoringFixture(t *testing.T, points int) (*ScoringService, store, *clock, *recordedEvents, PuzzleInput) {
	t.Helper()

	st := newStore()
	owner := st.mustTeam("class-a", "Blue", points)
	clk := &clock{now: fixedNow}
	events := &recordedEvents{}

	service := NewScoringService(newStubCatalog(), st.attempts, st.hints, st.teams, nil, events)
	service.now = clk.Now

	input := PuzzleInput{
		Identity:    Identity{TeamID: owner.ID, EventID: "class-a"},
		ChallengeID: "cryptography-challenge",
		CTFID:       "caesar-cipher",
	}
	return service, st, clk, events, input
}

func TestScoringService_SubmitFlag_CorrectAfterStart(t *testing.T) {
	t.Parallel()

	service, st, clk, events, input := newScoringFixture(t, 60)
	ctx := context.Background()

	if _, err := service.StartAttempt(ctx, input); err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	clk.Advance(95*time.Second + 900*time.Millisecond)

	result, err := service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "  FLAG{veni_vidi}\n"})
	if err != nil {
		t.Fatalf("submit flag: %v", err)
	}
	if !result.Correct || result.Points != 100 || result.TimeTakenSeconds != 95 {
		t.Fatalf("unexpected result: %+v", result)
	}

	owner, _, _ := st.teams.GetByID(ctx, input.TeamID)
	if owner.TotalPoints != 160 {
		t.Fatalf("expected 160 points, got %d", owner.TotalPoints)
	}
	if got := events.kinds(); !reflect.DeepEqual(got, []ScoreEventKind{ScoreEventSolved}) {
		t.Fatalf("unexpected events: %v", got)
	}
	if events.items[0].EventID != "class-a" || events.items[0].Points != 100 {
		t.Fatalf("unexpected solved event: %+v", events.items[0])
	}
}

func TestScoringService_SubmitFlag_WrongThenAlreadyCompleted(t *testing.T) {
	t.Parallel()

	service, st, clk, _, input := newScoringFixture(t, 60)
	ctx := context.Background()

	result, err := service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "flag{veni_vidi}"})
	if err != nil {
		t.Fatalf("wrong submit: %v", err)
	}
	if result.Correct {
		t.Fatalf("expected case-sensitive mismatch")
	}

	status, err := service.AttemptStatus(ctx, input)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Started || status.Completed || !status.StartTime.Equal(fixedNow) {
		t.Fatalf("expected open attempt created by wrong submit, got %+v", status)
	}

	clk.Advance(30 * time.Second)
	result, err = service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "FLAG{veni_vidi}"})
	if err != nil {
		t.Fatalf("correct submit: %v", err)
	}
	if result.TimeTakenSeconds != 30 {
		t.Fatalf("expected time measured from first submit, got %d", result.TimeTakenSeconds)
	}

	_, err = service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "FLAG{veni_vidi}"})
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}

	owner, _, _ := st.teams.GetByID(ctx, input.TeamID)
	if owner.TotalPoints != 160 {
		t.Fatalf("expected points credited once, got %d", owner.TotalPoints)
	}
}

func TestScoringService_StartAttempt_AfterSolve(t *testing.T) {
	t.Parallel()

	service, _, clk, _, input := newScoringFixture(t, 60)
	ctx := context.Background()

	first, err := service.StartAttempt(ctx, input)
	if err != nil {
		t.Fatalf("start attempt: %v", err)
	}
	clk.Advance(10 * time.Second)
	again, err := service.StartAttempt(ctx, input)
	if err != nil {
		t.Fatalf("restart open attempt: %v", err)
	}
	if !again.StartTime.Equal(first.StartTime) {
		t.Fatalf("expected original start time %v, got %v", first.StartTime, again.StartTime)
	}

	if _, err := service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "FLAG{veni_vidi}"}); err != nil {
		t.Fatalf("correct submit: %v", err)
	}
	if _, err := service.StartAttempt(ctx, input); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted, got %v", err)
	}
}

func TestScoringService_SubmitFlag_Validation(t *testing.T) {
	t.Parallel()

	service, _, _, _, input := newScoringFixture(t, 60)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SubmitFlagInput
		want  error
	}{
		{
			name:  "missing session",
			input: SubmitFlagInput{PuzzleInput: PuzzleInput{ChallengeID: "cryptography-challenge", CTFID: "caesar-cipher"}, Flag: "x"},
			want:  ErrUnauthenticated,
		},
		{
			name:  "empty flag",
			input: SubmitFlagInput{PuzzleInput: input, Flag: "   "},
			want:  ErrInvalidInput,
		},
		{
			name: "unknown ctf",
			input: SubmitFlagInput{
				PuzzleInput: PuzzleInput{Identity: input.Identity, ChallengeID: "cryptography-challenge", CTFID: "missing"},
				Flag:        "x",
			},
			want: ErrNotFound,
		},
	}

	for _, tt := range tests {
		if _, err := service.SubmitFlag(ctx, tt.input); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}
}

func TestScoringService_ConcurrentCorrectSubmitsCreditOnce(t *testing.T) {
	t.Parallel()

	service, st, _, _, input := newScoringFixture(t, 60)
	ctx := context.Background()

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		completed int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			result, err := service.SubmitFlag(ctx, SubmitFlagInput{PuzzleInput: input, Flag: "FLAG{veni_vidi}"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && result.Correct:
				successes++
			case errors.Is(err, ErrAlreadyCompleted):
				completed++
			}
		}()
	}
	close(start)
	wg.Wait()

	if successes != 1 || completed != workers-1 {
		t.Fatalf("expected one success, got successes=%d completed=%d", successes, completed)
	}
	owner, _, _ := st.teams.GetByID(ctx, input.TeamID)
	if owner.TotalPoints != 160 {
		t.Fatalf("expected 160 points, got %d", owner.TotalPoints)
	}
}

func TestScoringService_PurchaseHint(t *testing.T) {
	t.Parallel()

	service, st, _, events, input := newScoringFixture(t, 60)
	ctx := context.Background()
	index := func(i int) *int { return &i }

	first, err := service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input, HintIndex: index(2)})
	if err != nil {
		t.Fatalf("purchase hint: %v", err)
	}
	if first.Cost != 30 || first.NewTotalPoints != 30 || first.AlreadyPurchased || first.Hint != "ROT3" {
		t.Fatalf("unexpected receipt: %+v", first)
	}

	again, err := service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input, HintIndex: index(2)})
	if err != nil {
		t.Fatalf("repurchase hint: %v", err)
	}
	if !again.AlreadyPurchased || again.NewTotalPoints != 30 {
		t.Fatalf("expected idempotent repurchase, got %+v", again)
	}

	_, err = service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input, HintIndex: index(1)})
	if !errors.Is(err, ErrInsufficientPoints) {
		t.Fatalf("expected ErrInsufficientPoints, got %v", err)
	}
	var short *hint.InsufficientPointsError
	if !errors.As(err, &short) || short.Cost != 20 || short.Balance != 30 {
		t.Fatalf("expected cost and balance in error, got %v", err)
	}

	if _, err := service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing index to be invalid, got %v", err)
	}
	if _, err := service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input, HintIndex: index(-1)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected negative index to be invalid, got %v", err)
	}
	if _, err := service.PurchaseHint(ctx, PurchaseHintInput{PuzzleInput: input, HintIndex: index(3)}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected out of range index to be invalid, got %v", err)
	}

	owner, _, _ := st.teams.GetByID(ctx, input.TeamID)
	if owner.TotalPoints != 30 {
		t.Fatalf("expected balance 30, got %d", owner.TotalPoints)
	}
	if got := events.kinds(); !reflect.DeepEqual(got, []ScoreEventKind{ScoreEventHintPurchased}) {
		t.Fatalf("unexpected events: %v", got)
	}

	indexes, err := service.PurchasedHints(ctx, input)
	if err != nil || !reflect.DeepEqual(indexes, []int{2}) {
		t.Fatalf("unexpected purchased hints: %v err=%v", indexes, err)
	}
	revealed, err := service.RevealHints(ctx, input)
	if err != nil || !reflect.DeepEqual(revealed, []RevealedHint{{Index: 2, Text: "ROT3"}}) {
		t.Fatalf("unexpected revealed hints: %+v err=%v", revealed, err)
	}
}

func TestScoringService_AttemptStatus_NotStarted(t *testing.T) {
	t.Parallel()

	service, _, _, _, input := newScoringFixture(t, 60)
	status, err := service.AttemptStatus(context.Background(), input)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Started || status.StartTime != nil {
		t.Fatalf("expected empty status, got %+v", status)
	}
}

func TestScoringService_ListenerPanicDoesNotFailSubmit(t *testing.T) {
	t.Parallel()

	service, _, _, _, input := newScoringFixture(t, 60)
	service.Subscribe(ScoreListenerFunc(func(context.Context, ScoreEvent) {
		panic("listener bug")
	}))

	result, err := service.SubmitFlag(context.Background(), SubmitFlagInput{PuzzleInput: input, Flag: "FLAG{veni_vidi}"})
	if err != nil || !result.Correct {
		t.Fatalf("expected submit to succeed, got result=%+v err=%v", result, err)
	}
}
