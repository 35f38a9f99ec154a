package blueprint

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/httpserver"
)

// Handler serves GET/POST /blueprints/ranges|vpcs|subnets|hosts (§6),
// scoping list/get/delete to the caller's own rows unless they're admin.
type Handler struct {
	store  *Store
	logger *slog.Logger
}

// NewHandler creates a blueprint Handler.
func NewHandler(store *Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Routes mounts the four blueprint sub-resources under their own prefix.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)

	r.Route("/ranges", func(r chi.Router) {
		r.Get("/", h.handleListRanges)
		r.Post("/", h.handleCreateRange)
		r.Get("/{id}", h.handleGetRange)
		r.Delete("/{id}", h.handleDeleteRange)
	})
	r.Route("/vpcs", func(r chi.Router) {
		r.Get("/", h.handleListVPCs)
		r.Post("/", h.handleCreateVPC)
	})
	r.Route("/subnets", func(r chi.Router) {
		r.Get("/", h.handleListSubnets)
		r.Post("/", h.handleCreateSubnet)
	})
	r.Route("/hosts", func(r chi.Router) {
		r.Get("/", h.handleListHosts)
		r.Post("/", h.handleCreateHost)
	})

	return r
}

func ownerFilter(r *http.Request) *uuid.UUID {
	identity := auth.FromContext(r.Context())
	if identity.IsAdmin {
		return nil
	}
	return &identity.UserID
}

func standaloneOnly(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("standalone_only"))
	return v
}

func (h *Handler) handleListRanges(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	ranges, err := h.store.ListRangeHeaders(r.Context(), ownerFilter(r), identity.IsAdmin && r.URL.Query().Get("all") == "true")
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	headers := make([]RangeHeader, 0, len(ranges))
	for i := range ranges {
		headers = append(headers, ranges[i].ToHeader())
	}
	httpserver.Respond(w, http.StatusOK, headers)
}

func (h *Handler) handleCreateRange(w http.ResponseWriter, r *http.Request) {
	var req RangeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	model := req.toModel()
	if err := ValidateRangeGraph(model); err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	identity := auth.FromContext(r.Context())
	created, err := h.store.CreateRange(r.Context(), model, identity.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, created.ToHeader())
}

func (h *Handler) handleGetRange(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "invalid range id"))
		return
	}
	rng, err := h.store.GetRange(r.Context(), id, ownerFilter(r))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindNotFound, "range not found"))
		return
	}
	httpserver.Respond(w, http.StatusOK, rng)
}

func (h *Handler) handleDeleteRange(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "invalid range id"))
		return
	}
	deleted, err := h.store.DeleteRange(r.Context(), id, ownerFilter(r))
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	if !deleted {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindNotFound, "range not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListVPCs(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	vpcs, err := h.store.ListVPCHeaders(r.Context(), ownerFilter(r), identity.IsAdmin && r.URL.Query().Get("all") == "true", standaloneOnly(r))
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, vpcs)
}

func (h *Handler) handleCreateVPC(w http.ResponseWriter, r *http.Request) {
	var req VPCRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	model := req.toModel()
	if err := ValidateVPC(model); err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	identity := auth.FromContext(r.Context())
	created, err := h.store.CreateStandaloneVPC(r.Context(), model, identity.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, created)
}

func (h *Handler) handleListSubnets(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	subnets, err := h.store.ListSubnetHeaders(r.Context(), ownerFilter(r), identity.IsAdmin && r.URL.Query().Get("all") == "true", standaloneOnly(r))
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, subnets)
}

func (h *Handler) handleCreateSubnet(w http.ResponseWriter, r *http.Request) {
	var req SubnetRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	model := req.toModel()
	if err := ValidateSubnet(model); err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	identity := auth.FromContext(r.Context())
	created, err := h.store.CreateStandaloneSubnet(r.Context(), model, identity.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, created)
}

func (h *Handler) handleListHosts(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	hosts, err := h.store.ListHostHeaders(r.Context(), ownerFilter(r), identity.IsAdmin && r.URL.Query().Get("all") == "true", standaloneOnly(r))
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusOK, hosts)
}

func (h *Handler) handleCreateHost(w http.ResponseWriter, r *http.Request) {
	var req HostRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}
	model := req.toModel()
	if err := ValidateHost(model); err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	identity := auth.FromContext(r.Context())
	created, err := h.store.CreateStandaloneHost(r.Context(), model, identity.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	httpserver.Respond(w, http.StatusCreated, created)
}
