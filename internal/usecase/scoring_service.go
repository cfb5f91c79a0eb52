package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/catalog"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

type PuzzleInput struct {
	Identity
	ChallengeID string
	CTFID       string
}

func (i PuzzleInput) key() (attempt.Key, error) {
	if err := i.Identity.validate(); err != nil {
		return attempt.Key{}, err
	}
	key := attempt.Key{
		TeamID:      i.TeamID,
		ChallengeID: strings.TrimSpace(i.ChallengeID),
		CTFID:       strings.TrimSpace(i.CTFID),
	}
	if err := key.Validate(); err != nil {
		return attempt.Key{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return key, nil
}

type SubmitFlagInput struct {
	PuzzleInput
	Flag string
}

type SubmitFlagResult struct {
	Correct          bool
	Points           int
	TimeTakenSeconds int64
}

type PurchaseHintInput struct {
	PuzzleInput
	HintIndex *int
}

type PurchaseHintResult struct {
	HintIndex        int
	Cost             int
	NewTotalPoints   int
	AlreadyPurchased bool
	Hint             string
}

type AttemptStatus struct {
	Started      bool
	Completed    bool
	StartTime    *time.Time
	EndTime      *time.Time
	PointsEarned int
}

// RevealedHint is a purchased hint with its text.
type RevealedHint struct {
	Index int
	Text  string
}

type ScoringService struct {
	catalog     catalog.Catalog
	attemptRepo attempt.Repository
	hintRepo    hint.Repository
	teamRepo    team.Repository
	listeners   scoreListeners
	logger      *logging.Logger
	now         func() time.Time
}

func NewScoringService(
	puzzles catalog.Catalog,
	attemptRepo attempt.Repository,
	hintRepo hint.Repository,
	teamRepo team.Repository,
	logger *logging.Logger,
	listeners ...ScoreListener,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}

	return &ScoringService{
		catalog:     puzzles,
		attemptRepo: attemptRepo,
		hintRepo:    hintRepo,
		teamRepo:    teamRepo,
		listeners:   listeners,
		logger:      logger,
		now:         time.Now,
	}
}

// Subscribe adds a listener for committed score changes. It is meant for
// wiring at startup, before the service handles requests.
func (s *ScoringService) Subscribe(listener ScoreListener) {
	s.listeners = append(s.listeners, listener)
}

// StartAttempt opens the team's attempt at a puzzle. Repeated calls keep the
// original start time; a solved puzzle cannot be started again.
func (s *ScoringService) StartAttempt(ctx context.Context, input PuzzleInput) (attempt.Attempt, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.StartAttempt")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return attempt.Attempt{}, err
	}
	if _, err := s.resolveCTF(ctx, key); err != nil {
		return attempt.Attempt{}, err
	}

	item, created, err := s.attemptRepo.Start(ctx, key, s.now().UTC())
	if err != nil {
		return attempt.Attempt{}, s.translateRepoError("start attempt", err)
	}
	if item.Completed {
		return attempt.Attempt{}, fmt.Errorf("%w: ctf=%s", ErrAlreadyCompleted, key.PuzzleKey())
	}
	if created {
		s.logger.DebugContext(ctx, "attempt started",
			"team_id", key.TeamID,
			"challenge_id", key.ChallengeID,
			"ctf_id", key.CTFID,
		)
	}

	return item, nil
}

// SubmitFlag judges a flag. A correct flag completes the attempt and credits
// the puzzle points in the same atomic step; a wrong flag changes nothing
// except creating the attempt when it did not exist yet.
func (s *ScoringService) SubmitFlag(ctx context.Context, input SubmitFlagInput) (SubmitFlagResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.SubmitFlag")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return SubmitFlagResult{}, err
	}
	if strings.TrimSpace(input.Flag) == "" {
		return SubmitFlagResult{}, fmt.Errorf("%w: flag is required", ErrInvalidInput)
	}

	ctf, err := s.resolveCTF(ctx, key)
	if err != nil {
		return SubmitFlagResult{}, err
	}

	item, err := s.attemptRepo.Submit(ctx, key, s.now().UTC(), func(attempt.Attempt) (attempt.Verdict, error) {
		return attempt.Verdict{
			Correct: ctf.MatchesFlag(input.Flag),
			Points:  ctf.Points,
		}, nil
	})
	if err != nil {
		return SubmitFlagResult{}, s.translateRepoError("submit flag", err)
	}

	event := ScoreEvent{
		EventID:     input.EventID,
		TeamID:      key.TeamID,
		ChallengeID: key.ChallengeID,
		CTFID:       key.CTFID,
	}
	if !item.Completed {
		event.Kind = ScoreEventWrongFlag
		s.listeners.emit(ctx, s.logger, event)
		return SubmitFlagResult{Correct: false}, nil
	}

	result := SubmitFlagResult{
		Correct:          true,
		Points:           item.PointsEarned,
		TimeTakenSeconds: item.ElapsedSeconds(),
	}
	event.Kind = ScoreEventSolved
	event.Points = result.Points
	event.TimeTakenSeconds = result.TimeTakenSeconds
	s.listeners.emit(ctx, s.logger, event)

	s.logger.InfoContext(ctx, "ctf solved",
		"event_id", input.EventID,
		"team_id", key.TeamID,
		"challenge_id", key.ChallengeID,
		"ctf_id", key.CTFID,
		"points", result.Points,
		"time_taken_seconds", result.TimeTakenSeconds,
	)

	return result, nil
}

// PurchaseHint charges (index+1)*10 points for a hint. Buying the same hint
// again is a no-op that reports AlreadyPurchased.
func (s *ScoringService) PurchaseHint(ctx context.Context, input PurchaseHintInput) (PurchaseHintResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.PurchaseHint")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return PurchaseHintResult{}, err
	}
	if input.HintIndex == nil {
		return PurchaseHintResult{}, fmt.Errorf("%w: hint index is required", ErrInvalidInput)
	}
	index := *input.HintIndex
	if err := hint.ValidateIndex(index); err != nil {
		return PurchaseHintResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctf, err := s.resolveCTF(ctx, key)
	if err != nil {
		return PurchaseHintResult{}, err
	}
	if !ctf.HasHint(index) {
		return PurchaseHintResult{}, fmt.Errorf("%w: hint index %d out of range, ctf has %d hints", ErrInvalidInput, index, len(ctf.Hints))
	}

	cost := hint.Cost(index)
	receipt, err := s.hintRepo.Purchase(ctx, hint.Purchase{
		TeamID:      key.TeamID,
		ChallengeID: key.ChallengeID,
		CTFID:       key.CTFID,
		HintIndex:   index,
		Cost:        cost,
		PurchasedAt: s.now().UTC(),
	})
	if err != nil {
		return PurchaseHintResult{}, s.translateRepoError("purchase hint", err)
	}

	result := PurchaseHintResult{
		HintIndex:        index,
		Cost:             receipt.Cost,
		NewTotalPoints:   receipt.NewTotalPoints,
		AlreadyPurchased: receipt.AlreadyPurchased,
		Hint:             ctf.Hints[index],
	}
	if !receipt.AlreadyPurchased {
		s.listeners.emit(ctx, s.logger, ScoreEvent{
			Kind:        ScoreEventHintPurchased,
			EventID:     input.EventID,
			TeamID:      key.TeamID,
			ChallengeID: key.ChallengeID,
			CTFID:       key.CTFID,
			Points:      -receipt.Cost,
		})
	}

	return result, nil
}

func (s *ScoringService) AttemptStatus(ctx context.Context, input PuzzleInput) (AttemptStatus, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.AttemptStatus")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return AttemptStatus{}, err
	}

	item, exists, err := s.attemptRepo.Get(ctx, key)
	if err != nil {
		return AttemptStatus{}, storageError("get attempt", err)
	}
	if !exists {
		return AttemptStatus{}, nil
	}

	start := item.StartTime
	return AttemptStatus{
		Started:      true,
		Completed:    item.Completed,
		StartTime:    &start,
		EndTime:      item.EndTime,
		PointsEarned: item.PointsEarned,
	}, nil
}

// PurchasedHints lists the hint indexes the team owns for a puzzle, ascending.
func (s *ScoringService) PurchasedHints(ctx context.Context, input PuzzleInput) ([]int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.PurchasedHints")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return nil, err
	}

	indexes, err := s.hintRepo.ListIndexes(ctx, key.TeamID, key.ChallengeID, key.CTFID)
	if err != nil {
		return nil, storageError("list purchased hints", err)
	}
	return indexes, nil
}

// RevealHints returns the text of every purchased hint of a puzzle.
func (s *ScoringService) RevealHints(ctx context.Context, input PuzzleInput) ([]RevealedHint, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.RevealHints")
	defer span.End()

	key, err := input.key()
	if err != nil {
		return nil, err
	}
	ctf, err := s.resolveCTF(ctx, key)
	if err != nil {
		return nil, err
	}

	indexes, err := s.hintRepo.ListIndexes(ctx, key.TeamID, key.ChallengeID, key.CTFID)
	if err != nil {
		return nil, storageError("list purchased hints", err)
	}

	out := make([]RevealedHint, 0, len(indexes))
	for _, index := range indexes {
		if !ctf.HasHint(index) {
			continue
		}
		out = append(out, RevealedHint{Index: index, Text: ctf.Hints[index]})
	}
	return out, nil
}

func (s *ScoringService) resolveCTF(ctx context.Context, key attempt.Key) (catalog.CTF, error) {
	ctf, exists, err := s.catalog.ResolveCTF(ctx, key.ChallengeID, key.CTFID)
	if err != nil {
		return catalog.CTF{}, fmt.Errorf("resolve ctf: %w", err)
	}
	if !exists {
		return catalog.CTF{}, fmt.Errorf("%w: ctf=%s", ErrNotFound, key.PuzzleKey())
	}
	return ctf, nil
}

func (s *ScoringService) translateRepoError(op string, err error) error {
	var short *hint.InsufficientPointsError
	switch {
	case errors.As(err, &short):
		return fmt.Errorf("%w: %w", ErrInsufficientPoints, short)
	case errors.Is(err, hint.ErrInsufficientPoints):
		return fmt.Errorf("%w: %v", ErrInsufficientPoints, err)
	case errors.Is(err, attempt.ErrAlreadyCompleted):
		return fmt.Errorf("%w: %v", ErrAlreadyCompleted, err)
	case errors.Is(err, team.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	default:
		return storageError(op, err)
	}
}
