package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
	"github.com/riskibarqy/ctf-scoreboard/internal/platform/session"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

// SessionIssuer signs session tokens handed out after event verification and
// team registration.
type SessionIssuer interface {
	Issue(p session.Principal) (string, time.Time, error)
}

// LeaderboardStreamer upgrades a request into a live leaderboard feed.
type LeaderboardStreamer interface {
	ServeEvent(w http.ResponseWriter, r *http.Request, eventID string)
}

var errStreamingDisabled = fmt.Errorf("%w: leaderboard streaming is disabled", usecase.ErrDependencyUnavailable)

type Handler struct {
	eventService       *usecase.EventService
	teamService        *usecase.TeamService
	challengeService   *usecase.ChallengeService
	scoringService     *usecase.ScoringService
	leaderboardService *usecase.LeaderboardService
	timerService       *usecase.TimerService
	sessions           SessionIssuer
	streamer           LeaderboardStreamer
	cookieSecure       bool
	logger             *logging.Logger
	validator          *validator.Validate
}

func NewHandler(
	eventService *usecase.EventService,
	teamService *usecase.TeamService,
	challengeService *usecase.ChallengeService,
	scoringService *usecase.ScoringService,
	leaderboardService *usecase.LeaderboardService,
	timerService *usecase.TimerService,
	sessions SessionIssuer,
	streamer LeaderboardStreamer,
	cookieSecure bool,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		eventService:       eventService,
		teamService:        teamService,
		challengeService:   challengeService,
		scoringService:     scoringService,
		leaderboardService: leaderboardService,
		timerService:       timerService,
		sessions:           sessions,
		streamer:           streamer,
		cookieSecure:       cookieSecure,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, dst)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) requirePrincipal(ctx context.Context, w http.ResponseWriter) (session.Principal, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: session is missing from request context", usecase.ErrUnauthenticated))
		return session.Principal{}, false
	}
	return principal, true
}
