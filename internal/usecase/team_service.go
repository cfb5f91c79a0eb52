package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/riskibarqy/ctf-scoreboard/internal/domain/event"
	"github.com/riskibarqy/ctf-scoreboard/internal/domain/team"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

const maxTeamNameLength = 64

type TeamService struct {
	teamRepo  team.Repository
	eventRepo event.Repository
	listeners scoreListeners
	logger    *logging.Logger
	now       func() time.Time
}

func NewTeamService(teamRepo team.Repository, eventRepo event.Repository, logger *logging.Logger, listeners ...ScoreListener) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamService{
		teamRepo:  teamRepo,
		eventRepo: eventRepo,
		listeners: listeners,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TeamService) Subscribe(listener ScoreListener) {
	s.listeners = append(s.listeners, listener)
}

// Register creates a team in an event with the starting balance. The seed
// name returns the existing seed team instead of failing on a duplicate.
func (s *TeamService) Register(ctx context.Context, eventID, name string) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Register")
	defer span.End()

	eventID = strings.TrimSpace(eventID)
	name = strings.TrimSpace(name)
	if eventID == "" {
		return team.Team{}, fmt.Errorf("%w: event session is required", ErrUnauthenticated)
	}
	if name == "" {
		return team.Team{}, fmt.Errorf("%w: team name is required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxTeamNameLength {
		return team.Team{}, fmt.Errorf("%w: team name must be at most %d characters", ErrInvalidInput, maxTeamNameLength)
	}

	if _, exists, err := s.eventRepo.GetByID(ctx, eventID); err != nil {
		return team.Team{}, fmt.Errorf("get event: %w", err)
	} else if !exists {
		return team.Team{}, fmt.Errorf("%w: event=%s", ErrNotFound, eventID)
	}

	role := team.RoleForName(name)
	item := team.Team{
		Name:        name,
		TotalPoints: team.StartingPoints,
		EventID:     eventID,
		Role:        role,
		CreatedAt:   s.now().UTC(),
	}
	if err := item.Validate(); err != nil {
		return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	created, isNew, err := s.teamRepo.Create(ctx, item, role == team.RoleSeed)
	if err != nil {
		if errors.Is(err, team.ErrNameTaken) {
			return team.Team{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return team.Team{}, storageError("create team", err)
	}

	if isNew {
		s.logger.InfoContext(ctx, "team registered",
			"event_id", eventID,
			"team_id", created.ID,
			"role", string(created.Role),
		)
		s.listeners.emit(ctx, s.logger, ScoreEvent{
			Kind:    ScoreEventTeamJoined,
			EventID: eventID,
			TeamID:  created.ID,
		})
	}

	return created, nil
}

func (s *TeamService) Me(ctx context.Context, identity Identity) (team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Me")
	defer span.End()

	if err := identity.validate(); err != nil {
		return team.Team{}, err
	}
	item, exists, err := s.teamRepo.GetByID(ctx, identity.TeamID)
	if err != nil {
		return team.Team{}, storageError("get team", err)
	}
	if !exists || item.EventID != identity.EventID {
		return team.Team{}, fmt.Errorf("%w: team=%d", ErrNotFound, identity.TeamID)
	}
	return item, nil
}

// Remove deletes a team of the caller's event together with its attempts,
// hint purchases and challenge access. Only the administrator may do it.
func (s *TeamService) Remove(ctx context.Context, actor Identity, teamID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Remove")
	defer span.End()

	caller, err := s.Me(ctx, actor)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
		}
		return err
	}
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: only the administrator may remove teams", ErrForbidden)
	}
	if teamID <= 0 {
		return fmt.Errorf("%w: team id must be > 0", ErrInvalidInput)
	}
	if teamID == caller.ID {
		return fmt.Errorf("%w: the administrator team cannot remove itself", ErrInvalidInput)
	}

	target, exists, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return storageError("get team", err)
	}
	if !exists || target.EventID != caller.EventID {
		return fmt.Errorf("%w: team=%d", ErrNotFound, teamID)
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, team.ErrNotFound) {
			return fmt.Errorf("%w: team=%d", ErrNotFound, teamID)
		}
		return storageError("delete team", err)
	}

	s.logger.InfoContext(ctx, "team removed",
		"event_id", caller.EventID,
		"team_id", teamID,
		"removed_by", caller.ID,
	)
	s.listeners.emit(ctx, s.logger, ScoreEvent{
		Kind:    ScoreEventTeamRemoved,
		EventID: caller.EventID,
		TeamID:  teamID,
	})
	return nil
}
