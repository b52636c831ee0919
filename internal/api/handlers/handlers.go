package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/property-registry/internal/api/middleware"
	"github.com/dvloznov/property-registry/internal/domain"
	"github.com/dvloznov/property-registry/internal/gcsio"
	"github.com/dvloznov/property-registry/internal/jobs"
	"github.com/dvloznov/property-registry/internal/pipeline"
	"github.com/dvloznov/property-registry/internal/registry"
)

// maxUploadBytes caps the size of an uploaded CSV export.
const maxUploadBytes = 32 << 20

// statusForError maps registry errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, registry.ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, registry.ErrDuplicateNIC):
		return http.StatusConflict
	case errors.Is(err, registry.ErrBadCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, registry.ErrAccountDisabled):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// OwnersHandler handles owner account and session endpoints.
type OwnersHandler struct {
	reg *registry.Registry
	log zerolog.Logger
}

// NewOwnersHandler creates a new owners handler.
func NewOwnersHandler(reg *registry.Registry, log zerolog.Logger) *OwnersHandler {
	return &OwnersHandler{reg: reg, log: log}
}

// ListOwners handles GET /api/owners
func (h *OwnersHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners := h.reg.Owners()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"owners": owners,
		"count":  len(owners),
	})
}

// RegisterOwner handles POST /api/owners
func (h *OwnersHandler) RegisterOwner(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NIC    string `json:"nic"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
		Email  string `json:"email"`
		Secret string `json:"secret"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.NIC == "" || req.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "nic and name are required")
		return
	}

	owner, err := h.reg.RegisterOwner(r.Context(), req.NIC, req.Name, req.Phone, req.Email, req.Secret)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to register owner")
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, owner)
}

// UpdateProfile handles PUT /api/owners/{id}
func (h *OwnersHandler) UpdateProfile(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Email string `json:"email"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.reg.UpdateOwnerProfile(r.Context(), ownerID, req.Name, req.Phone, req.Email); err != nil {
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SetStatus handles PUT /api/owners/{id}/status
func (h *OwnersHandler) SetStatus(w http.ResponseWriter, r *http.Request, ownerID string) {
	var req struct {
		Status string `json:"status"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var status domain.Status
	switch req.Status {
	case string(domain.StatusActive):
		status = domain.StatusActive
	case string(domain.StatusDisabled):
		status = domain.StatusDisabled
	default:
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", req.Status))
		return
	}

	if err := h.reg.SetOwnerStatus(r.Context(), ownerID, status); err != nil {
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// Login handles POST /api/login
func (h *OwnersHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NIC    string `json:"nic"`
		Secret string `json:"secret"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	owner, err := h.reg.Login(r.Context(), req.NIC, req.Secret)
	if err != nil {
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, owner)
}

// Logout handles POST /api/logout
func (h *OwnersHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.reg.Logout(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// CurrentSession handles GET /api/session
func (h *OwnersHandler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.reg.CurrentOwner()
	if !ok {
		middleware.WriteError(w, http.StatusNotFound, "No active session")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, owner)
}

// FilesHandler handles property file endpoints.
type FilesHandler struct {
	reg *registry.Registry
	log zerolog.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(reg *registry.Registry, log zerolog.Logger) *FilesHandler {
	return &FilesHandler{reg: reg, log: log}
}

// ListFiles handles GET /api/files. An optional owner query parameter
// filters by the owner's normalized identity number.
func (h *FilesHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	var files []domain.PropertyFile
	if nicKey := r.URL.Query().Get("owner"); nicKey != "" {
		files = h.reg.FilesByOwner(domain.NormalizeNIC(nicKey))
	} else {
		files = h.reg.Files()
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// NoticesHandler handles notice-board endpoints.
type NoticesHandler struct {
	reg *registry.Registry
	log zerolog.Logger
}

// NewNoticesHandler creates a new notices handler.
func NewNoticesHandler(reg *registry.Registry, log zerolog.Logger) *NoticesHandler {
	return &NoticesHandler{reg: reg, log: log}
}

// ListNotices handles GET /api/notices
func (h *NoticesHandler) ListNotices(w http.ResponseWriter, r *http.Request) {
	notices := h.reg.Notices()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"notices": notices,
		"count":   len(notices),
	})
}

// CreateNotice handles POST /api/notices
func (h *NoticesHandler) CreateNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Title == "" {
		middleware.WriteError(w, http.StatusBadRequest, "title is required")
		return
	}

	notice, err := h.reg.AddNotice(r.Context(), req.Title, req.Body)
	if err != nil {
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, notice)
}

// MessagesHandler handles owner-to-owner message endpoints.
type MessagesHandler struct {
	reg *registry.Registry
	log zerolog.Logger
}

// NewMessagesHandler creates a new messages handler.
func NewMessagesHandler(reg *registry.Registry, log zerolog.Logger) *MessagesHandler {
	return &MessagesHandler{reg: reg, log: log}
}

// ListMessages handles GET /api/messages
func (h *MessagesHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages := h.reg.Messages()
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"count":    len(messages),
	})
}

// SendMessage handles POST /api/messages
func (h *MessagesHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		From string `json:"from"`
		To   string `json:"to"`
		Body string `json:"body"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.From == "" || req.To == "" || req.Body == "" {
		middleware.WriteError(w, http.StatusBadRequest, "from, to and body are required")
		return
	}

	message, err := h.reg.SendMessage(r.Context(), req.From, req.To, req.Body)
	if err != nil {
		middleware.WriteError(w, statusForError(err), err.Error())
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, message)
}

// ImportsHandler handles CSV import endpoints.
type ImportsHandler struct {
	reg       *registry.Registry
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewImportsHandler creates a new imports handler. bucket may be empty,
// in which case raw uploads are not archived.
func NewImportsHandler(reg *registry.Registry, publisher jobs.Publisher, bucket string, log zerolog.Logger) *ImportsHandler {
	return &ImportsHandler{reg: reg, publisher: publisher, bucket: bucket, log: log}
}

// CreateImport handles POST /api/imports. The request is a multipart
// form with a "file" part holding the CSV export and an optional "mode"
// field ("incremental" or "destructive", default incremental).
//
// The payload is validated up front so that a malformed export fails
// the request immediately with a 400; the import itself runs on the
// job worker.
func (h *ImportsHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read uploaded file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}

	mode := registry.ParseMode(r.FormValue("mode"))

	if _, err := pipeline.Normalize(string(data), time.Now()); err != nil {
		if errors.Is(err, pipeline.ErrBadFormat) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("Failed to validate uploaded file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to validate uploaded file")
		return
	}

	source := header.Filename
	if h.bucket != "" {
		uri, err := gcsio.Archive(ctx, h.bucket, header.Filename, data)
		if err != nil {
			h.log.Warn().Err(err).Str("bucket", h.bucket).Msg("Failed to archive raw import")
		} else {
			source = uri
		}
	}

	job := &jobs.IngestJob{
		Source: source,
		Mode:   string(mode),
		Raw:    string(data),
	}

	if err := h.publisher.PublishIngest(ctx, job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue ingest job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue ingest job")
		return
	}

	h.log.Info().
		Str("job_id", job.JobID).
		Str("source", job.Source).
		Str("mode", job.Mode).
		Msg("Ingest job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"source": job.Source,
		"mode":   job.Mode,
		"status": string(job.Status),
	})
}

// FactoryReset handles POST /api/reset
func (h *ImportsHandler) FactoryReset(w http.ResponseWriter, r *http.Request) {
	h.reg.FactoryReset(r.Context())
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if n, err := strconv.Atoi(limitStr); err == nil && n > 0 {
			limit = n
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}
