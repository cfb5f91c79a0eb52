package httpapi

import (
	"net/http"

	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChallenges")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	items, err := h.challengeService.ListChallenges(ctx, identityOf(principal))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toChallengeDTOs(items))
}

func (h *Handler) UnlockChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UnlockChallenge")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req unlockChallengeRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	granted, err := h.challengeService.Unlock(ctx, identityOf(principal), r.PathValue("challengeID"), req.Password)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, unlockChallengeResponse{
		ChallengeID: granted.ChallengeID,
		UnlockedAt:  granted.UnlockedAt,
	})
}

func (h *Handler) ListCTFs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCTFs")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	items, err := h.challengeService.ListCTFs(ctx, identityOf(principal), r.PathValue("challengeID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toCTFDTOs(items))
}

func puzzleFromRequest(r *http.Request, identity usecase.Identity) usecase.PuzzleInput {
	return usecase.PuzzleInput{
		Identity:    identity,
		ChallengeID: r.PathValue("challengeID"),
		CTFID:       r.PathValue("ctfID"),
	}
}
