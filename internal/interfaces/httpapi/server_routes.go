package httpapi

import "net/http"

type routeRegistrar struct {
	mux      *http.ServeMux
	observer RequestObserver
}

func (r routeRegistrar) handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, ObserveRoute(r.observer, pattern, handler))
}

// handleStream skips observation so the writer stays hijackable.
func (r routeRegistrar) handleStream(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

func registerSystemRoutes(routes routeRegistrar, handler *Handler, swaggerEnabled bool, metrics http.Handler) {
	routes.mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		routes.mux.Handle("GET /metrics", metrics)
	}
	if !swaggerEnabled {
		return
	}

	routes.mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	routes.mux.HandleFunc("GET /docs", handler.SwaggerUI)
	routes.mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerEventRoutes(routes routeRegistrar, handler *Handler, verifier SessionVerifier) {
	routes.handle("POST /v1/events/verify", http.HandlerFunc(handler.VerifyEvent))
	routes.handle("GET /v1/events/current", RequireSession(verifier, EventScope, http.HandlerFunc(handler.CurrentEvent)))
}

func registerTeamRoutes(routes routeRegistrar, handler *Handler, verifier SessionVerifier) {
	routes.handle("POST /v1/teams/register", RequireSession(verifier, EventScope, http.HandlerFunc(handler.RegisterTeam)))
	routes.handle("GET /v1/teams/me", RequireSession(verifier, TeamScope, http.HandlerFunc(handler.GetMe)))
	routes.handle("POST /v1/teams/signout", http.HandlerFunc(handler.SignOut))
	routes.handle("DELETE /v1/teams/{teamID}", RequireSession(verifier, TeamScope, http.HandlerFunc(handler.RemoveTeam)))
}

func registerChallengeRoutes(routes routeRegistrar, handler *Handler, verifier SessionVerifier) {
	team := func(h http.HandlerFunc) http.Handler {
		return RequireSession(verifier, TeamScope, h)
	}

	routes.handle("GET /v1/challenges", team(handler.ListChallenges))
	routes.handle("POST /v1/challenges/{challengeID}/unlock", team(handler.UnlockChallenge))
	routes.handle("GET /v1/challenges/{challengeID}/ctfs", team(handler.ListCTFs))
	routes.handle("POST /v1/challenges/{challengeID}/ctfs/{ctfID}/start", team(handler.StartAttempt))
	routes.handle("POST /v1/challenges/{challengeID}/ctfs/{ctfID}/submit", team(handler.SubmitFlag))
	routes.handle("GET /v1/challenges/{challengeID}/ctfs/{ctfID}/status", team(handler.GetAttemptStatus))
	routes.handle("GET /v1/challenges/{challengeID}/ctfs/{ctfID}/hints", team(handler.ListPurchasedHints))
	routes.handle("POST /v1/challenges/{challengeID}/ctfs/{ctfID}/hints/purchase", team(handler.PurchaseHint))
}

func registerLeaderboardRoutes(routes routeRegistrar, handler *Handler, verifier SessionVerifier) {
	routes.handle("GET /v1/leaderboard", RequireSession(verifier, EventScope, http.HandlerFunc(handler.GetLeaderboard)))
	routes.handleStream("GET /v1/leaderboard/ws", RequireSession(verifier, EventScope, http.HandlerFunc(handler.StreamLeaderboard)))
	routes.handle("GET /v1/leaderboard/timer", http.HandlerFunc(handler.GetTimer))
	routes.handle("POST /v1/leaderboard/timer", RequireSession(verifier, TeamScope, http.HandlerFunc(handler.StartTimer)))
	routes.handle("PATCH /v1/leaderboard/timer", RequireSession(verifier, TeamScope, http.HandlerFunc(handler.ExtendTimer)))
}
