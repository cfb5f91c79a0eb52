package usecase

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/access"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/attempt"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/catalog"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/hint"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

// ChallengeView is a challenge without its unlock password.
type ChallengeView struct {
	ID                string
	Name              string
	Description       string
	PasswordProtected bool
	Unlocked          bool
}

// CTFView is a puzzle as a team sees it: no flag, no hint text, plus the
// team's own progress.
type CTFView struct {
	ID           string
	ChallengeID  string
	Title        string
	Description  string
	Points       int
	Photo        string
	Links        []string
	HintCosts    []int
	Started      bool
	Completed    bool
	PointsEarned int
}

type ChallengeService struct {
	catalog     catalog.Catalog
	accessRepo  access.Repository
	attemptRepo attempt.Repository
	logger      *logging.Logger
	now         func() time.Time
}

func NewChallengeService(
	puzzles catalog.Catalog,
	accessRepo access.Repository,
	attemptRepo attempt.Repository,
	logger *logging.Logger,
) *ChallengeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ChallengeService{
		catalog:     puzzles,
		accessRepo:  accessRepo,
		attemptRepo: attemptRepo,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ChallengeService) ListChallenges(ctx context.Context, identity Identity) ([]ChallengeView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.ListChallenges")
	defer span.End()

	if err := identity.validate(); err != nil {
		return nil, err
	}

	items, err := s.catalog.ListChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list challenges: %w", err)
	}
	unlockedIDs, err := s.accessRepo.ListChallengeIDs(ctx, identity.TeamID)
	if err != nil {
		return nil, storageError("list challenge access", err)
	}
	unlocked := make(map[string]struct{}, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlocked[id] = struct{}{}
	}

	out := make([]ChallengeView, 0, len(items))
	for _, item := range items {
		protected := item.UnlockPassword != ""
		_, granted := unlocked[item.ID]
		out = append(out, ChallengeView{
			ID:                item.ID,
			Name:              item.Name,
			Description:       item.Description,
			PasswordProtected: protected,
			Unlocked:          granted || !protected,
		})
	}
	return out, nil
}

// Unlock records access to a challenge when the password matches. Unlocking
// again is harmless.
func (s *ChallengeService) Unlock(ctx context.Context, identity Identity, challengeID, password string) (access.ChallengeAccess, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.Unlock")
	defer span.End()

	if err := identity.validate(); err != nil {
		return access.ChallengeAccess{}, err
	}
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return access.ChallengeAccess{}, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	item, exists, err := s.catalog.ResolveChallenge(ctx, challengeID)
	if err != nil {
		return access.ChallengeAccess{}, fmt.Errorf("resolve challenge: %w", err)
	}
	if !exists {
		return access.ChallengeAccess{}, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}
	if item.UnlockPassword != "" &&
		subtle.ConstantTimeCompare([]byte(item.UnlockPassword), []byte(strings.TrimSpace(password))) != 1 {
		s.logger.WarnContext(ctx, "challenge password rejected",
			"team_id", identity.TeamID,
			"challenge_id", challengeID,
		)
		return access.ChallengeAccess{}, fmt.Errorf("%w: invalid challenge password", ErrUnauthenticated)
	}

	granted, err := s.accessRepo.Grant(ctx, identity.TeamID, challengeID, s.now().UTC())
	if err != nil {
		return access.ChallengeAccess{}, storageError("grant challenge access", err)
	}
	return granted, nil
}

// ListCTFs lists the puzzles of a challenge merged with the team's attempts.
func (s *ChallengeService) ListCTFs(ctx context.Context, identity Identity, challengeID string) ([]CTFView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChallengeService.ListCTFs")
	defer span.End()

	if err := identity.validate(); err != nil {
		return nil, err
	}
	challengeID = strings.TrimSpace(challengeID)
	if challengeID == "" {
		return nil, fmt.Errorf("%w: challenge id is required", ErrInvalidInput)
	}

	if _, exists, err := s.catalog.ResolveChallenge(ctx, challengeID); err != nil {
		return nil, fmt.Errorf("resolve challenge: %w", err)
	} else if !exists {
		return nil, fmt.Errorf("%w: challenge=%s", ErrNotFound, challengeID)
	}

	ctfs, err := s.catalog.ListCTFs(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list ctfs: %w", err)
	}
	attempts, err := s.attemptRepo.ListByTeam(ctx, identity.TeamID)
	if err != nil {
		return nil, storageError("list attempts", err)
	}
	byCTF := make(map[string]attempt.Attempt, len(attempts))
	for _, item := range attempts {
		if item.ChallengeID == challengeID {
			byCTF[item.CTFID] = item
		}
	}

	out := make([]CTFView, 0, len(ctfs))
	for _, ctf := range ctfs {
		costs := make([]int, len(ctf.Hints))
		for i := range ctf.Hints {
			costs[i] = hint.Cost(i)
		}
		view := CTFView{
			ID:          ctf.ID,
			ChallengeID: challengeID,
			Title:       ctf.Title,
			Description: ctf.Description,
			Points:      ctf.Points,
			Photo:       ctf.Photo,
			Links:       append([]string(nil), ctf.Links...),
			HintCosts:   costs,
		}
		if item, ok := byCTF[ctf.ID]; ok {
			view.Started = true
			view.Completed = item.Completed
			view.PointsEarned = item.PointsEarned
		}
		out = append(out, view)
	}
	return out, nil
}
