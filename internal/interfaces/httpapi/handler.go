package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/creator-league/internal/platform/logging"
	"github.com/riskibarqy/creator-league/internal/usecase"
)

// AvatarCatalog lists the avatars a user may pick from.
type AvatarCatalog interface {
	Options() []string
}

type Handler struct {
	sessions    *usecase.SessionManager
	contests    *usecase.ContestService
	leaderboard *usecase.LeaderboardService
	views       *usecase.ViewRouter
	avatars     AvatarCatalog
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	sessions *usecase.SessionManager,
	contests *usecase.ContestService,
	leaderboard *usecase.LeaderboardService,
	views *usecase.ViewRouter,
	avatars AvatarCatalog,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessions:    sessions,
		contests:    contests,
		leaderboard: leaderboard,
		views:       views,
		avatars:     avatars,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Login")
	defer span.End()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	origin := originOf(r)
	token, state, err := h.sessions.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"username", req.Username,
			"client_ip", origin.IP,
			"country", origin.Country,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"user_id", state.CurrentUser.ID,
		"client_ip", origin.IP,
		"country", origin.Country,
	)
	writeSuccess(ctx, w, http.StatusOK, loginDTO{
		Token:   token,
		User:    userToDTO(*state.CurrentUser),
		Session: stateToDTO(state),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Logout")
	defer span.End()

	h.sessions.Logout(ctx, tokenFromContext(ctx))
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stateToDTO(session.State()))
}

func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Navigate")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := session.Navigate(ctx, usecase.NavigateInput{
		View:          usecase.View(req.View),
		CompetitionID: req.CompetitionID,
		ChallengeID:   req.ChallengeID,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "navigate rejected", "view", req.View, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, stateToDTO(state))
}

func (h *Handler) RenderView(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RenderView")
	defer span.End()

	session, err := h.requireSession(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	projection, err := h.views.Render(ctx, session.State())
	if err != nil {
		h.logger.ErrorContext(ctx, "render view failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, projectionToDTO(projection))
}

func (h *Handler) ListAvatarOptions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListAvatarOptions")
	defer span.End()

	options := []string{}
	if h.avatars != nil {
		options = append(options, h.avatars.Options()...)
	}
	writeSuccess(ctx, w, http.StatusOK, options)
}

func (h *Handler) requireSession(ctx context.Context) (*usecase.Session, error) {
	session, ok := sessionFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: sign in required", usecase.ErrUnauthorized)
	}
	return session, nil
}
