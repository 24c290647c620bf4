package provisionhandler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ofsadmin/internal/domain/audit"
	"ofsadmin/internal/domain/auth"
	"ofsadmin/internal/domain/provision"
	"ofsadmin/internal/platform/requestctx"
	"ofsadmin/internal/transport/http/api"
	"ofsadmin/internal/transport/http/middleware"
)

type Handler struct {
	Service *provision.Service
	Audit   *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *provision.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermProvisionRun, h.Perms)).Post("/provision/import", h.handleImport)
}

// handleImport accepts a multipart CSV under the "file" field. The batch
// runs in dry-run mode unless apply=true is passed explicitly.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	file, _, err := r.FormFile("file")
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "missing_file", "multipart field 'file' is required", requestID)
		return
	}
	defer file.Close()

	rows, err := provision.ParseCSV(file)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_csv", err.Error(), requestID)
		return
	}
	if len(rows) == 0 {
		api.Fail(w, http.StatusBadRequest, "empty_csv", "no rows to provision", requestID)
		return
	}

	apply := r.URL.Query().Get("apply") == "true"
	results := h.Service.Run(r.Context(), rows, apply)

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:      requestctx.GetActor(r.Context()),
		Module:     "provision",
		Action:     "import",
		EntityType: "ofs_resources",
		Summary:    fmt.Sprintf("%d rows, apply=%t", len(rows), apply),
		RequestID:  requestID,
		IP:         r.RemoteAddr,
		After:      results,
	}); err != nil {
		slog.Warn("provision audit record failed", "err", err)
	}

	api.Success(w, map[string]any{
		"applied": apply,
		"rows":    len(rows),
		"results": results,
	}, requestID)
}
