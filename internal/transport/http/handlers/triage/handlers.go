package triagehandler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ofsadmin/internal/domain/auth"
	"ofsadmin/internal/domain/triage"
	"ofsadmin/internal/ofs"
	"ofsadmin/internal/platform/requestctx"
	"ofsadmin/internal/transport/http/api"
	"ofsadmin/internal/transport/http/middleware"
	"ofsadmin/internal/transport/http/shared"
)

type Handler struct {
	Service *triage.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *triage.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/activities", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTriageRead, h.Perms)).Get("/notdone", h.handleListNotDone)
		r.With(middleware.RequirePermission(auth.PermTriageWrite, h.Perms)).Put("/notdone/{apptNumber}", h.handleUpdateTriage)
	})
}

func (h *Handler) handleListNotDone(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	query := ofs.NotDoneQuery{
		DateFrom:  r.URL.Query().Get("dateFrom"),
		DateTo:    r.URL.Query().Get("dateTo"),
		Resources: r.URL.Query().Get("resources"),
		Limit:     shared.ParseIntQuery(r, "limit", 1000),
	}
	if query.DateFrom == "" || query.DateTo == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_query", "dateFrom and dateTo are required", requestID)
		return
	}

	items, err := h.Service.ListNotDone(r.Context(), query)
	if err != nil {
		api.Fail(w, http.StatusBadGateway, "notdone_failed", err.Error(), requestID)
		return
	}
	api.Success(w, items, requestID)
}

type triageRequest struct {
	Status       string `json:"status"`
	Note         string `json:"note"`
	ResourceID   string `json:"resourceId"`
	City         string `json:"city"`
	CustomerName string `json:"customerName"`
	ActivityDate string `json:"activityDate"`
}

func (h *Handler) handleUpdateTriage(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload triageRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}

	entry := triage.Entry{
		ApptNumber:   chi.URLParam(r, "apptNumber"),
		ResourceID:   payload.ResourceID,
		City:         payload.City,
		CustomerName: payload.CustomerName,
		ActivityDate: triage.ParseActivityDate(payload.ActivityDate),
		Status:       payload.Status,
		Note:         payload.Note,
		UpdatedBy:    requestctx.GetActor(r.Context()),
	}
	if err := h.Service.Update(r.Context(), entry); err != nil {
		api.Fail(w, http.StatusBadRequest, "triage_failed", err.Error(), requestID)
		return
	}
	api.Success(w, entry, requestID)
}
