package usertypehandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ofsadmin/internal/domain/audit"
	"ofsadmin/internal/domain/auth"
	"ofsadmin/internal/domain/usertype"
	"ofsadmin/internal/platform/requestctx"
	"ofsadmin/internal/transport/http/api"
	"ofsadmin/internal/transport/http/middleware"
)

type Handler struct {
	Store   *usertype.Store
	Service *usertype.Service
	Audit   *audit.Service
	Perms   middleware.PermissionStore
}

func NewHandler(store *usertype.Store, service *usertype.Service, auditSvc *audit.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Store: store, Service: service, Audit: auditSvc, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/usertypes", h.handleList)
	r.With(middleware.RequirePermission(auth.PermUsersWrite, h.Perms)).Post("/users/usertype", h.handleUpdate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	types, err := h.Store.List(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "usertypes_failed", "failed to list user types", requestID)
		return
	}
	api.Success(w, types, requestID)
}

type updateRequest struct {
	ResourceIDs []string `json:"resourceIds"`
	UserType    string   `json:"userType"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if len(payload.ResourceIDs) == 0 || payload.UserType == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "resourceIds and userType are required", requestID)
		return
	}

	known, err := h.Store.Exists(r.Context(), payload.UserType)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "usertypes_failed", "failed to validate user type", requestID)
		return
	}
	if !known {
		api.Fail(w, http.StatusBadRequest, "unknown_user_type", "user type is not in the catalog", requestID)
		return
	}

	results := h.Service.UpdateBulk(r.Context(), payload.ResourceIDs, payload.UserType)

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:      requestctx.GetActor(r.Context()),
		Module:     "usertype",
		Action:     "update",
		EntityType: "ofs_users",
		Summary:    payload.UserType,
		RequestID:  requestID,
		IP:         r.RemoteAddr,
		After:      results,
	}); err != nil {
		slog.Warn("usertype audit record failed", "err", err)
	}

	api.Success(w, results, requestID)
}
