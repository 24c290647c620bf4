package cleanuphandler

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf"

	"ofsadmin/internal/domain/audit"
	"ofsadmin/internal/domain/auth"
	"ofsadmin/internal/ofs"
	"ofsadmin/internal/platform/metrics"
	"ofsadmin/internal/platform/requestctx"
	"ofsadmin/internal/transport/http/api"
	"ofsadmin/internal/transport/http/middleware"
	"ofsadmin/internal/transport/http/shared"
)

type Handler struct {
	Client            *ofs.Client
	Audit             *audit.Service
	Metrics           *metrics.Collector
	Perms             middleware.PermissionStore
	DefaultCutoffDays int
}

func NewHandler(client *ofs.Client, auditSvc *audit.Service, collector *metrics.Collector, perms middleware.PermissionStore, defaultCutoffDays int) *Handler {
	return &Handler{Client: client, Audit: auditSvc, Metrics: collector, Perms: perms, DefaultCutoffDays: defaultCutoffDays}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/cleanup", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermCleanupRun, h.Perms)).Get("/scan", h.handleScan)
		r.With(middleware.RequirePermission(auth.PermCleanupApply, h.Perms)).Post("/execute", h.handleExecute)
		r.With(middleware.RequirePermission(auth.PermCleanupRun, h.Perms)).Get("/export/csv", h.handleExportCSV)
		r.With(middleware.RequirePermission(auth.PermCleanupRun, h.Perms)).Get("/export/pdf", h.handleExportPDF)
	})
}

type scanResponse struct {
	Candidates []ofs.StaleCandidate `json:"candidates"`
	Meta       ofs.RunMeta          `json:"meta"`
	CutoffDays int                  `json:"cutoffDays"`
}

func (h *Handler) scan(r *http.Request) scanResponse {
	cutoffDays := shared.ParseIntQuery(r, "cutoffDays", h.DefaultCutoffDays)
	onlyActive := r.URL.Query().Get("onlyActive") == "true"

	candidates, meta := h.Client.FindStaleUsers(r.Context(), cutoffDays, onlyActive)
	h.Metrics.RecordScan(meta.OK)
	return scanResponse{Candidates: candidates, Meta: meta, CutoffDays: cutoffDays}
}

func (h *Handler) handleScan(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	result := h.scan(r)
	if !result.Meta.OK {
		api.Fail(w, http.StatusBadGateway, "scan_failed", result.Meta.Error, requestID)
		return
	}
	api.Success(w, result, requestID)
}

type executeRequest struct {
	CutoffDays   int  `json:"cutoffDays"`
	OnlyActive   bool `json:"onlyActive"`
	ApplyChanges bool `json:"applyChanges"`
}

type executeResponse struct {
	Applied    bool                `json:"applied"`
	CutoffDays int                 `json:"cutoffDays"`
	Meta       ofs.RunMeta         `json:"meta"`
	Results    []ofs.CleanupResult `json:"results"`
}

// handleExecute rescans and remediates in one pass so the candidate set is
// never older than the moment the button was pressed.
func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload executeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	if payload.CutoffDays <= 0 {
		payload.CutoffDays = h.DefaultCutoffDays
	}

	candidates, meta := h.Client.FindStaleUsers(r.Context(), payload.CutoffDays, payload.OnlyActive)
	h.Metrics.RecordScan(meta.OK)
	if !meta.OK {
		api.Fail(w, http.StatusBadGateway, "scan_failed", meta.Error, requestID)
		return
	}

	results := h.Client.ExecuteCleanup(r.Context(), candidates, payload.ApplyChanges)

	deleted := 0
	for _, result := range results {
		if result.DeleteUser == "200" || result.DeleteUser == "204" {
			deleted++
		}
	}
	h.Metrics.RecordCleanup(payload.ApplyChanges, deleted)

	if err := h.Audit.Record(r.Context(), audit.Entry{
		Actor:      requestctx.GetActor(r.Context()),
		Module:     "cleanup",
		Action:     "execute",
		EntityType: "ofs_users",
		Summary:    fmt.Sprintf("cutoff %d days, %d candidates, apply=%t", payload.CutoffDays, len(candidates), payload.ApplyChanges),
		RequestID:  requestID,
		IP:         r.RemoteAddr,
		After:      map[string]any{"meta": meta, "resultCount": len(results)},
	}); err != nil {
		slog.Warn("cleanup audit record failed", "err", err)
	}

	api.Success(w, executeResponse{
		Applied:    payload.ApplyChanges,
		CutoffDays: payload.CutoffDays,
		Meta:       meta,
		Results:    results,
	}, requestID)
}

var exportColumns = []string{"login", "status", "lastLoginTime", "userType", "mainResourceId"}

func (h *Handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	result := h.scan(r)
	if !result.Meta.OK {
		api.Fail(w, http.StatusBadGateway, "scan_failed", result.Meta.Error, requestID)
		return
	}

	body, err := candidatesCSV(result.Candidates)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "csv generation failed", requestID)
		return
	}
	api.Attachment(w, "text/csv", fmt.Sprintf("stale-users-%dd.csv", result.CutoffDays), body)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	result := h.scan(r)
	if !result.Meta.OK {
		api.Fail(w, http.StatusBadGateway, "scan_failed", result.Meta.Error, requestID)
		return
	}

	body, err := candidatesPDF(result.Candidates, result.CutoffDays)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "export_failed", "pdf generation failed", requestID)
		return
	}
	api.Attachment(w, "application/pdf", fmt.Sprintf("stale-users-%dd.pdf", result.CutoffDays), body)
}

func candidatesCSV(candidates []ofs.StaleCandidate) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(exportColumns); err != nil {
		return nil, err
	}
	for _, cand := range candidates {
		if err := writer.Write([]string{cand.Login, cand.Status, cand.LastLoginTime, cand.UserType, cand.MainResourceID}); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func candidatesPDF(candidates []ofs.StaleCandidate, cutoffDays int) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 10, fmt.Sprintf("Stale technician accounts (cutoff %d days)", cutoffDays))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 9)
	widths := []float64{60, 25, 55, 50, 60}
	for i, col := range exportColumns {
		pdf.CellFormat(widths[i], 7, col, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, cand := range candidates {
		row := []string{cand.Login, cand.Status, cand.LastLoginTime, cand.UserType, cand.MainResourceID}
		for i, value := range row {
			pdf.CellFormat(widths[i], 6, value, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
