package secretvault

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/openlabshq/rangeapi/internal/apperr"
	"github.com/openlabshq/rangeapi/internal/auth"
	"github.com/openlabshq/rangeapi/internal/httpserver"
	"github.com/openlabshq/rangeapi/pkg/user"
)

// Handler serves the secret-upload HTTP surface (§4.1 supplement): writes
// never require the master key, only the caller's RSA public key.
type Handler struct {
	service     *Service
	userService *user.Service
	logger      *slog.Logger
}

// NewHandler creates a secretvault Handler.
func NewHandler(service *Service, userService *user.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, userService: userService, logger: logger}
}

// Routes mounts POST /users/me/secrets/{provider}.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAuth)
	r.Post("/{provider}", h.handleUpload)
	return r
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	providerName := strings.ToLower(chi.URLParam(r, "provider"))

	identity := auth.FromContext(r.Context())
	u, err := h.userService.Get(r.Context(), identity.UserID)
	if err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}

	var credential any
	switch providerName {
	case ProviderAWS:
		var cred AWSCredential
		if !httpserver.DecodeAndValidate(w, r, &cred) {
			return
		}
		credential = cred
	case ProviderAzure:
		var cred AzureCredential
		if !httpserver.DecodeAndValidate(w, r, &cred) {
			return
		}
		credential = cred
	default:
		httpserver.RespondErr(w, h.logger, apperr.New(apperr.KindValidationFailed, "unsupported provider"))
		return
	}

	if err := h.service.UploadSecret(r.Context(), identity.UserID, u.PublicKey, providerName, credential); err != nil {
		httpserver.RespondErr(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
