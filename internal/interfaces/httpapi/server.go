package httpapi

import (
	"net/http"

	"github.com/riskibarqy/ctf-scoreboard/internal/platform/logging"
)

type RouterOptions struct {
	SwaggerEnabled     bool
	CORSAllowedOrigins []string
	// Metrics is served at /metrics when set.
	Metrics  http.Handler
	Observer RequestObserver
}

func NewRouter(
	handler *Handler,
	verifier SessionVerifier,
	logger *logging.Logger,
	opts RouterOptions,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	routes := routeRegistrar{mux: mux, observer: opts.Observer}
	registerSystemRoutes(routes, handler, opts.SwaggerEnabled, opts.Metrics)
	registerEventRoutes(routes, handler, verifier)
	registerTeamRoutes(routes, handler, verifier)
	registerChallengeRoutes(routes, handler, verifier)
	registerLeaderboardRoutes(routes, handler, verifier)

	return RequestTracing(RequestLogging(logger, CORS(opts.CORSAllowedOrigins, recoverPanic(logger, mux))))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := startSpan(r.Context(), "httpapi.recoverPanic")
		defer span.End()

		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
