package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/expedium/mesa-partes/internal/catalog"
	"github.com/expedium/mesa-partes/internal/config"
	"github.com/expedium/mesa-partes/internal/core/docstore"
	"github.com/expedium/mesa-partes/internal/core/domain"
	"github.com/expedium/mesa-partes/internal/core/ports"
	"github.com/expedium/mesa-partes/internal/infrastructure/export"
	"github.com/expedium/mesa-partes/internal/observability/metrics"
)

const (
	serviceName = "mesa-partes-api"

	// maxAnalyzeBytes bounds the multipart analyze request body.
	maxAnalyzeBytes = 26 << 20

	adminRoleHeader = "X-User-Role"
)

type Router struct {
	cfg     config.Config
	intake  ports.DocumentIntake
	store   *docstore.Store
	roster  *catalog.Catalog
	metrics *metrics.APIMetrics
}

func NewRouter(
	cfg config.Config,
	intake ports.DocumentIntake,
	store *docstore.Store,
	roster *catalog.Catalog,
	m *metrics.APIMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		intake:  intake,
		store:   store,
		roster:  roster,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.Handle("/metrics", rt.metrics.Handler())
	mux.HandleFunc("/v1/intake/analyze", rt.analyzeUpload)
	mux.HandleFunc("/v1/documents", rt.documentsCollection)
	mux.HandleFunc("/v1/documents/", rt.documentsItem)
	mux.HandleFunc("/v1/summary", rt.summary)
	mux.HandleFunc("/v1/assignees", rt.assignees)

	var handler http.Handler = mux
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConns, 100*time.Millisecond)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return rt.metrics.Middleware(serviceName, handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) analyzeUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBytes)
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	draft, err := rt.intake.Analyze(r.Context(), fileHeader.Filename, file)
	rt.metrics.RecordIntake(serviceName, "analyze", err)
	if err != nil {
		writeError(w, err)
		return
	}

	destination := "remote"
	if strings.HasPrefix(draft.FileURL, "mem://") {
		destination = "fallback"
	}
	rt.metrics.RecordUpload(serviceName, destination)

	writeJSON(w, http.StatusOK, draft)
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.registerDocument(w, r)
	case http.MethodGet:
		rt.searchDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) registerDocument(w http.ResponseWriter, r *http.Request) {
	var in domain.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	rec, err := rt.intake.Register(r.Context(), in)
	rt.metrics.RecordIntake(serviceName, "register", err)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (rt *Router) searchDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var typeFilter domain.DocumentType
	if raw := q.Get("type"); raw != "" {
		typeFilter = domain.DocumentType(raw)
		if !typeFilter.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown document type %q", raw)})
			return
		}
	}
	var statusFilter domain.Status
	if raw := q.Get("status"); raw != "" {
		statusFilter = domain.Status(raw)
		if !statusFilter.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown status %q", raw)})
			return
		}
	}

	results := rt.store.Search(q.Get("q"), typeFilter, statusFilter)
	writeJSON(w, http.StatusOK, map[string]any{"documents": results})
}

func (rt *Router) documentsItem(w http.ResponseWriter, r *http.Request) {
	tail := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if tail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "document id is required"})
		return
	}

	switch tail {
	case "inbox":
		rt.inbox(w, r)
		return
	case "export":
		rt.exportWorkbook(w, r)
		return
	}

	id, action, _ := strings.Cut(tail, "/")
	switch action {
	case "":
		rt.documentByID(w, r, id)
	case "status":
		rt.updateStatus(w, r, id)
	case "reassign":
		rt.reassign(w, r, id)
	case "title":
		rt.rename(w, r, id)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	}
}

func (rt *Router) inbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var typeFilter domain.DocumentType
	if raw := r.URL.Query().Get("type"); raw != "" {
		typeFilter = domain.DocumentType(raw)
		if !typeFilter.Valid() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown document type %q", raw)})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": rt.store.Inbox(typeFilter)})
}

func (rt *Router) exportWorkbook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	raw, err := export.Workbook(rt.store.Snapshot())
	if err != nil {
		writeError(w, err)
		return
	}

	filename := fmt.Sprintf("expedientes_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		rec, err := rt.store.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case http.MethodDelete:
		if !strings.EqualFold(r.Header.Get(adminRoleHeader), "admin") {
			writeError(w, domain.WrapError(domain.ErrUnauthorized, "delete document", fmt.Errorf("admin role required")))
			return
		}
		outcome, err := rt.store.Delete(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		rt.metrics.RecordReconciliation(serviceName, "delete", string(outcome))
		writeJSON(w, http.StatusOK, map[string]string{"reconciliation": string(outcome)})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (rt *Router) updateStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	next := domain.Status(req.Status)
	if !next.Valid() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown status %q", req.Status)})
		return
	}

	outcome, err := rt.store.UpdateStatus(r.Context(), id, next)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordReconciliation(serviceName, "status", string(outcome))

	rec, err := rt.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": rec, "reconciliation": outcome})
}

func (rt *Router) reassign(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		AssigneeID string `json:"assignee_id"`
		Assignee   string `json:"assignee"`
		Area       string `json:"area"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	assignee, area := req.Assignee, req.Area
	if req.AssigneeID != "" {
		entry, ok := rt.roster.Lookup(req.AssigneeID)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown assignee %q", req.AssigneeID)})
			return
		}
		assignee, area = entry.Name, entry.Area
	}
	if strings.TrimSpace(assignee) == "" || strings.TrimSpace(area) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "assignee_id or assignee and area are required"})
		return
	}

	outcome, err := rt.store.Reassign(r.Context(), id, assignee, area)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordReconciliation(serviceName, "reassign", string(outcome))

	rec, err := rt.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": rec, "reconciliation": outcome})
}

func (rt *Router) rename(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	outcome, err := rt.store.Rename(r.Context(), id, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}
	rt.metrics.RecordReconciliation(serviceName, "rename", string(outcome))

	rec, err := rt.store.Get(id)
	if err != nil {
		// A rolled back rename reloads the set; the record may be gone.
		writeJSON(w, http.StatusOK, map[string]any{"reconciliation": outcome})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"document": rec, "reconciliation": outcome})
}

func (rt *Router) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, rt.store.Summarize())
}

func (rt *Router) assignees(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assignees": rt.roster.All()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
