package job

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/httpserver"
)

// Handler serves the deploy/destroy intent and job-status HTTP surface
// (§6): POST /ranges/deploy, DELETE /ranges/{id}, GET /jobs/{job_id}.
type Handler struct {
	coordinator *Coordinator
	logger      *slog.Logger
}

// NewHandler creates a job Handler.
func NewHandler(coordinator *Coordinator, logger *slog.Logger) *Handler {
	return &Handler{coordinator: coordinator, logger: logger}
}

// MountRangeRoutes registers the deploy/destroy intent routes directly
// onto r, for callers (app wiring) that combine this handler's routes
// with deployedrange.Handler's read routes under a single "/ranges"
// router.
func (h *Handler) MountRangeRoutes(r chi.Router) {
	r.Post("/deploy", h.handleDeploy)
	r.Delete("/{id}", h.handleDestroy)
}

// JobRoutes mounts GET /jobs/{job_id}.
func (h *Handler) JobRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	r.Get("/{id}", h.handleStatus)
	return r
}

func (h *Handler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	var req DeployRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	identity := auth.FromContext(r.Context())
	masterKey, err := auth.MasterKeyFromRequest(r)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	resp, err := h.coordinator.Deploy(r.Context(), identity, masterKey, req)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusAccepted, resp)
}

func (h *Handler) handleDestroy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "invalid range id"))
		return
	}

	identity := auth.FromContext(r.Context())
	masterKey, err := auth.MasterKeyFromRequest(r)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	resp, err := h.coordinator.Destroy(r.Context(), identity, masterKey, id)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusAccepted, resp)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	resp, err := h.coordinator.Status(r.Context(), id)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, resp)
}
