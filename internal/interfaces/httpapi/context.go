package httpapi

import (
	"context"

	"github.com/riskibarqy/ctf-scoreboard/internal/platform/session"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

type contextKey string

const principalContextKey contextKey = "session_principal"

func withPrincipal(ctx context.Context, p session.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (session.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(session.Principal)
	return p, ok
}

func identityOf(p session.Principal) usecase.Identity {
	return usecase.Identity{TeamID: p.TeamID, EventID: p.EventID}
}
