package httpapi

import (
	"net/http"

	"github.com/riskibarqy/creator-league/internal/usecase"
)

func (h *Handler) ListCompetitions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCompetitions")
	defer span.End()

	items, err := h.contests.ListCompetitions(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list competitions failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionsToDTO(items))
}

func (h *Handler) CreateCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCompetition")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}
	candidate, err := req.toDomain()
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := session.CreateCompetition(ctx, candidate)
	if err != nil {
		h.logger.WarnContext(ctx, "create competition failed", "title", req.Title, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, competitionToDTO(created))
}

func (h *Handler) EditCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditCompetition")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	competitionID, err := pathID(r, "competitionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := session.RequireAdmin("edit competition"); err != nil {
		writeError(ctx, w, err)
		return
	}

	var req editCompetitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.contests.GetCompetition(ctx, competitionID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	next, err := req.apply(current)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := session.EditCompetition(ctx, next)
	if err != nil {
		h.logger.WarnContext(ctx, "edit competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, competitionToDTO(updated))
}

func (h *Handler) DeleteCompetition(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteCompetition")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	competitionID, err := pathID(r, "competitionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := session.DeleteCompetition(ctx, competitionID, confirmFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "delete competition failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stateToDTO(state))
}

func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListChallenges")
	defer span.End()

	competitionID, err := pathID(r, "competitionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	items, err := h.contests.ListChallenges(ctx, competitionID)
	if err != nil {
		h.logger.WarnContext(ctx, "list challenges failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengesToDTO(items))
}

func (h *Handler) CreateChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateChallenge")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	competitionID, err := pathID(r, "competitionID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := session.CreateChallenge(ctx, req.toDomain(competitionID))
	if err != nil {
		h.logger.WarnContext(ctx, "create challenge failed", "competition_id", competitionID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, challengeToDTO(created))
}

func (h *Handler) EditChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditChallenge")
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

	if err := session.RequireAdmin("edit challenge"); err != nil {
		writeError(ctx, w, err)
		return
	}

	var req editChallengeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	current, err := h.contests.GetChallenge(ctx, challengeID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := session.EditChallenge(ctx, req.apply(current))
	if err != nil {
		h.logger.WarnContext(ctx, "edit challenge failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, challengeToDTO(updated))
}

func (h *Handler) DeleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteChallenge")
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

	state, err := session.DeleteChallenge(ctx, challengeID, confirmFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "delete challenge failed", "challenge_id", challengeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stateToDTO(state))
}

// sessionIsAdmin reports whether the signed-in user may see admin-only listings.
func sessionIsAdmin(session *usecase.Session) bool {
	state := session.State()
	return state.CurrentUser != nil && state.CurrentUser.Role.IsAdmin()
}
