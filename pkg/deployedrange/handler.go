package deployedrange

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/httpserver"
	"github.com/openlabshq/rangeapi/pkg/secretvault"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// Handler serves the read-only deployed-range HTTP surface (§6): listing,
// single-range detail, and the jumpbox SSH private key. Deploy/destroy
// intents live in pkg/job's handler since they go through admission and
// the queue rather than touching this store directly.
type Handler struct {
	store       *Store
	userService *user.Service
	logger      *slog.Logger
}

// NewHandler creates a deployedrange Handler.
func NewHandler(store *Store, userService *user.Service, logger *slog.Logger) *Handler {
	return &Handler{store: store, userService: userService, logger: logger}
}

// Routes mounts GET /ranges, GET /ranges/{id}, GET /ranges/{id}/key. All
// require authentication; ownership is enforced per-handler since admins
// may read any range.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	h.Mount(r)
	return r
}

// Mount registers the read-only range routes directly onto r, for callers
// (app wiring) that combine this handler's routes with job.Handler's
// deploy/destroy routes under a single "/ranges" router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/key", h.handleKey)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	owner := &identity.UserID
	includeAll := identity.IsAdmin

	ranges, err := h.store.ListHeaders(r.Context(), owner, includeAll)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	if len(ranges) == 0 {
		// §8 scenario 1: an empty result set answers 404, not an empty
		// 200 list, matching the original API's "no deployed ranges"
		// behavior.
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindNotFound, "no deployed ranges"))
		return
	}

	headers := make([]Header, 0, len(ranges))
	for i := range ranges {
		headers = append(headers, ranges[i].ToHeader())
	}
	httpserver.Respond(w, http.StatusOK, headers)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "invalid range id"))
		return
	}

	owner := &identity.UserID
	if identity.IsAdmin {
		owner = nil
	}

	rng, err := h.store.Get(r.Context(), id, owner)
	if err != nil {
		httpserver.RespondErr(w, h.logger, translateNotFound(err))
		return
	}
	httpserver.Respond(w, http.StatusOK, rng.ToDetail())
}

// keyResponse is the JSON body for GET /ranges/{id}/key.
type keyResponse struct {
	PrivateKeyPEM string `json:"private_key_pem"`
}

func (h *Handler) handleKey(w http.ResponseWriter, r *http.Request) {
	identity := auth.FromContext(r.Context())
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "invalid range id"))
		return
	}

	owner := &identity.UserID
	if identity.IsAdmin {
		owner = nil
	}

	rng, err := h.store.Get(r.Context(), id, owner)
	if err != nil {
		httpserver.RespondErr(w, h.logger, translateNotFound(err))
		return
	}
	if len(rng.EncryptedPrivateSSHKey) == 0 {
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindNotFound, "range has no jumpbox key"))
		return
	}

	masterKey, err := auth.MasterKeyFromRequest(r)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	owningUser, err := h.userService.Get(r.Context(), rng.OwnerID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	privPEM, err := secretvault.DecryptPrivateKey(owningUser.EncryptedPrivateKey, masterKey)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	jumpboxKeyPEM, err := secretvault.DecryptForUser(privPEM, rng.EncryptedPrivateSSHKey)
	if err != nil {
		httpserver.RespondErr(w, h.logger, apperr.Wrap(apperr.KindInternal, "decrypting jumpbox key", err))
		return
	}

	httpserver.Respond(w, http.StatusOK, keyResponse{PrivateKeyPEM: string(jumpboxKeyPEM)})
}

func translateNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, "deployed range not found")
	}
	return err
}
