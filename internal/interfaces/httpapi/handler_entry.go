package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/creator-league/internal/domain/challenge"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

func (h *Handler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSubmissions")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	ch, err := h.contests.GetChallenge(ctx, challengeID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if ch.Status == challenge.StatusLocked && !sessionIsAdmin(session) {
		writeError(ctx, w, fmt.Errorf("%w: challenge %s is locked", usecase.ErrForbidden, ch.ID))
		return
	}

	items, err := h.contests.ListSubmissionsByChallenge(ctx, ch.ID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list submissions failed", "challenge_id", ch.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, submissionsToDTO(items))
}

func (h *Handler) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitEntry")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	challengeID, err := pathID(r, "challengeID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req submitEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := session.SubmitEntry(ctx, challengeID, req.Link, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "submit entry failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, submissionToDTO(created))
}

func (h *Handler) RateSubmission(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RateSubmission")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req rateSubmissionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	stored, err := session.RateSubmission(ctx, submissionID, *req.Score)
	if err != nil {
		h.logger.WarnContext(ctx, "rate submission failed", "submission_id", submissionID, "score", *req.Score, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, ratingToDTO(stored))
}

func (h *Handler) RequestFeedback(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RequestFeedback")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	submissionID, err := pathID(r, "submissionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	feedback, err := session.RequestFeedback(ctx, submissionID)
	if err != nil {
		h.logger.WarnContext(ctx, "request feedback failed", "submission_id", submissionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, feedbackDTO{
		SubmissionID: feedback.SubmissionID,
		Text:         feedback.Text,
		Fallback:     feedback.Fallback,
	})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	standings, err := h.leaderboard.Standings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, standingsToDTO(standings))
}
