package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/creator-league/internal/usecase"
)

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUsers")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if !sessionIsAdmin(session) {
		writeError(ctx, w, fmt.Errorf("%w: user management requires a leader", usecase.ErrForbidden))
		return
	}

	items, err := h.contests.ListUsers(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, usersToDTO(items))
}

func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateUser")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := session.CreateUser(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "create user failed", "username", req.Username, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, userToDTO(created))
}

func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EditUser")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req editUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := session.EditUser(ctx, userID, req.Username)
	if err != nil {
		h.logger.WarnContext(ctx, "edit user failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeleteUser")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := session.DeleteUser(ctx, userID, confirmFromQuery(r))
	if err != nil {
		h.logger.WarnContext(ctx, "delete user failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stateToDTO(state))
}

func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.UpdateAvatar")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req updateAvatarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	updated, err := session.UpdateAvatar(ctx, req.Avatar)
	if err != nil {
		h.logger.WarnContext(ctx, "update avatar failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, userToDTO(updated))
}

func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetPlayerStats")
	defer span.End()

	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	stats, err := h.leaderboard.PlayerStats(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "player stats failed", "user_id", userID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statsToDTO(stats))
}
