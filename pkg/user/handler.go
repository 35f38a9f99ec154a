package user

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/httpserver"
)

// Handler serves the registration/login/logout/me HTTP surface (§6).
type Handler struct {
	service     *Service
	sessionMgr  *auth.SessionManager
	tokenMaxAge time.Duration
	logger      *slog.Logger
}

// NewHandler creates a user Handler.
func NewHandler(service *Service, sessionMgr *auth.SessionManager, tokenMaxAge time.Duration, logger *slog.Logger) *Handler {
	return &Handler{service: service, sessionMgr: sessionMgr, tokenMaxAge: tokenMaxAge, logger: logger}
}

// Routes mounts the auth endpoints. authMiddleware is applied so /auth/me
// can read the caller's identity; RequireAuth gates it individually.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/logout", h.handleLogout)
		r.With(auth.RequireAuth).Get("/me", h.handleMe)
	})

	return r
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	u, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	httpserver.Respond(w, http.StatusOK, RegisterResponse{ID: u.ID})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	u, masterKey, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	token, err := h.sessionMgr.IssueToken(auth.SessionClaims{
		Email:   u.Email,
		UserID:  u.ID.String(),
		IsAdmin: u.IsAdmin,
	})
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.Wrap(apperr.KindInternal, "issuing session token", err))
		return
	}

	auth.SetSessionCookies(w, token, masterKey, h.tokenMaxAge)
	httpserver.Respond(w, http.StatusOK, u.ToInfo())
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookies(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.FromContext(r.Context())
	u, err := h.service.Get(r.Context(), id.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, u.ToInfo())
}
