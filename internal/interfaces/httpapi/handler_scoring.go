package httpapi

import (
	"net/http"

	"github.com/riskibarqy/ctf-scoreboard/internal/usecase"
)

func (h *Handler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartAttempt")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	item, err := h.scoringService.StartAttempt(ctx, puzzleFromRequest(r, identityOf(principal)))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, startAttemptResponse{StartTime: item.StartTime})
}

func (h *Handler) SubmitFlag(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitFlag")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req submitFlagRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoringService.SubmitFlag(ctx, usecase.SubmitFlagInput{
		PuzzleInput: puzzleFromRequest(r, identityOf(principal)),
		Flag:        req.Flag,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, toSubmitFlagResponse(result))
}

func (h *Handler) GetAttemptStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAttemptStatus")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	status, err := h.scoringService.AttemptStatus(ctx, puzzleFromRequest(r, identityOf(principal)))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, attemptStatusResponse{
		Started:      status.Started,
		Completed:    status.Completed,
		StartTime:    status.StartTime,
		EndTime:      status.EndTime,
		PointsEarned: status.PointsEarned,
	})
}

func (h *Handler) ListPurchasedHints(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPurchasedHints")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	revealed, err := h.scoringService.RevealHints(ctx, puzzleFromRequest(r, identityOf(principal)))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	resp := purchasedHintsResponse{
		PurchasedHints: make([]int, 0, len(revealed)),
		Hints:          make([]hintDTO, 0, len(revealed)),
	}
	for _, item := range revealed {
		resp.PurchasedHints = append(resp.PurchasedHints, item.Index)
		resp.Hints = append(resp.Hints, hintDTO{Index: item.Index, Text: item.Text})
	}

	writeSuccess(ctx, w, http.StatusOK, resp)
}

func (h *Handler) PurchaseHint(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PurchaseHint")
	defer span.End()

	principal, ok := h.requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req purchaseHintRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.scoringService.PurchaseHint(ctx, usecase.PurchaseHintInput{
		PuzzleInput: puzzleFromRequest(r, identityOf(principal)),
		HintIndex:   req.HintIndex,
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, purchaseHintResponse{
		HintIndex:        result.HintIndex,
		Hint:             result.Hint,
		Cost:             result.Cost,
		NewTotalPoints:   result.NewTotalPoints,
		AlreadyPurchased: result.AlreadyPurchased,
	})
}
