package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/riskibarqy/ctf-scoreboard/internal/platform/session"
	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

func (h *Handler) issueSession(ctx context.Context, w http.ResponseWriter, principal session.Principal) (sessionDTO, error) {
	token, expiresAt, err := h.sessions.Issue(principal)
	if err != nil {
		h.logger.ErrorContext(ctx, "issue session token failed", "event_id", principal.EventID, "error", err)
		return sessionDTO{}, fmt.Errorf("%w: issue session", usecase.ErrDependencyUnavailable)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionDTO{Token: token, ExpiresAt: expiresAt}, nil
}

func (h *Handler) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) VerifyEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyEvent")
	defer span.End()

	var req verifyEventRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.eventService.Verify(ctx, req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	issued, err := h.issueSession(ctx, w, session.Principal{EventID: item.ID})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, verifyEventResponse{
		Event:   toEventDTO(item),
		Session: issued,
	})
}

func (h *Handler) CurrentEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CurrentEvent")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	item, err := h.eventService.Current(ctx, principal.EventID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toEventDTO(item))
}

func (h *Handler) SignOut(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SignOut")
	defer span.End()

	h.clearSession(w)
	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"signedOut": true})
}
