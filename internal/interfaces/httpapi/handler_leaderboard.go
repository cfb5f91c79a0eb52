package httpapi

import (
	"net/http"
)

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	board, err := h.leaderboardService.Board(ctx, principal.EventID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardResponse{
		Teams: toStandingDTOs(board.Standings),
		Timer: toTimerDTO(board.Timer),
	})
}

// StreamLeaderboard hands the connection to the realtime hub, which pushes
// a fresh board after every score change in the caller's event.
func (h *Handler) StreamLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StreamLeaderboard")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}
	if h.streamer == nil {
		writeError(ctx, w, errStreamingDisabled)
		return
	}

	h.streamer.ServeEvent(w, r.WithContext(ctx), principal.EventID)
}

func (h *Handler) GetTimer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTimer")
	defer span.End()

	status, err := h.timerService.Status(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, timerResponse{Timer: toTimerDTO(status)})
}

func (h *Handler) StartTimer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartTimer")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req startTimerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	status, err := h.timerService.Start(ctx, identityOf(principal), req.Minutes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, timerResponse{Timer: toTimerDTO(&status)})
}

func (h *Handler) ExtendTimer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ExtendTimer")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req extendTimerRequest
	if r.ContentLength != 0 {
		if err := h.decodeRequest(ctx, r, &req); err != nil {
			writeError(ctx, w, err)
			return
		}
	}

	status, err := h.timerService.Extend(ctx, identityOf(principal), req.Minutes)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, timerResponse{Timer: toTimerDTO(&status)})
}
