package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"p9e.in/eicr/models"
	"p9e.in/eicr/pkg/circuitstore"
	"p9e.in/eicr/pkg/schedule"
)

// bulkActions maps the header action path segment to the field it fills.
var bulkActions = map[string]models.Field{
	"rcd-test-button": models.FieldRCDTestButton,
	"afdd-test":       models.FieldAFDDTest,
	"rcd-bs-standard": models.FieldRCDBSStandard,
	"rcd-type":        models.FieldRCDType,
	"rcd-rating":      models.FieldRCDRating,
	"rcd-rating-a":    models.FieldRCDRatingA,
}

// ScheduleHandler serves the circuit schedule API.
type ScheduleHandler struct {
	store   *circuitstore.Store
	queue   *schedule.Queue
	presets []models.RCDPreset
	exports ExportStorage
	logger  *zap.Logger

	// SingleField hides the store's batch capabilities so that bulk actions
	// go through the queue.
	SingleField bool
	// Now is used for export timestamps.
	Now func() time.Time
}

// NewScheduleHandler creates a handler over store. queue drains bulk actions
// when SingleField is set.
func NewScheduleHandler(store *circuitstore.Store, queue *schedule.Queue, presets []models.RCDPreset, exports ExportStorage, logger *zap.Logger) *ScheduleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(presets) == 0 {
		presets = models.DefaultRCDPresets
	}
	return &ScheduleHandler{
		store:   store,
		queue:   queue,
		presets: presets,
		exports: exports,
		logger:  logger,
		Now:     time.Now,
	}
}

type circuitView struct {
	models.CircuitTestResult
	BorderCue schedule.BorderCue `json:"borderCue"`
}

type scheduleView struct {
	models.Schedule
	Circuits []circuitView `json:"circuits"`
}

func newCircuitView(c models.CircuitTestResult) circuitView {
	return circuitView{CircuitTestResult: c, BorderCue: schedule.CueFor(c)}
}

// table binds the schedule orchestration to one schedule for one request.
// Notifications raised during the request are collected in rec.
func (h *ScheduleHandler) table(ctx context.Context, scheduleID string, rec *schedule.Recorder) (*schedule.Table, error) {
	ok, err := h.store.HasSchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", circuitstore.ErrScheduleNotFound, scheduleID)
	}

	var store schedule.Store = h.store.ForSchedule(scheduleID)
	if h.SingleField {
		store = schedule.SingleFieldOnly(store)
	}
	notifier := schedule.Notifiers{rec, schedule.LogNotifier{Logger: h.logger.With(zap.String("schedule_id", scheduleID))}}
	return schedule.NewTable(store, h.queue, notifier, h.logger), nil
}

// GetOptions returns the option vocabularies for every select column
// GET /api/v1/options
func (h *ScheduleHandler) GetOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.DefaultOptions())
}

// GetPresets returns the RCD preset catalog
// GET /api/v1/presets
func (h *ScheduleHandler) GetPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"presets": h.presets,
	})
}

// ListSchedules returns every schedule without circuits
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.store.ListSchedules(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// CreateSchedule creates an empty schedule
// POST /api/v1/schedules
func (h *ScheduleHandler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string `json:"name"`
		BoardReference string `json:"boardReference"`
		Location       string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	sched := models.Schedule{Name: req.Name, BoardReference: req.BoardReference, Location: req.Location}
	if err := h.store.CreateSchedule(r.Context(), &sched); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("schedule created", zap.String("schedule_id", sched.ID), zap.String("name", sched.Name))
	writeJSON(w, http.StatusCreated, sched)
}

// GetSchedule returns a schedule with its circuits in render order
// GET /api/v1/schedules/{id}
func (h *ScheduleHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	sched, err := h.store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	view := scheduleView{Schedule: sched, Circuits: make([]circuitView, len(sched.Circuits))}
	for i, c := range sched.Circuits {
		view.Circuits[i] = newCircuitView(c)
	}
	writeJSON(w, http.StatusOK, view)
}

// AddCircuit appends a circuit to the schedule
// POST /api/v1/schedules/{id}/circuits
func (h *ScheduleHandler) AddCircuit(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var rec models.CircuitTestResult
	updates := make(models.FieldUpdates, len(req))
	for k, v := range req {
		updates[models.Field(k)] = v
	}
	if err := rec.Apply(updates); err != nil {
		h.writeError(w, err)
		return
	}

	created, err := h.store.AddCircuit(r.Context(), mux.Vars(r)["id"], rec)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCircuitView(created))
}

// UpdateCircuit edits one field of a circuit, auto-filling max Zs when a
// device field changes
// PATCH /api/v1/schedules/{id}/circuits/{circuitId}
func (h *ScheduleHandler) UpdateCircuit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	field, err := models.ParseField(req.Field)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var notes schedule.Recorder
	table, err := h.table(r.Context(), vars["id"], &notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	current, err := table.Row(r.Context(), vars["circuitId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	emitted, err := table.Editor().Edit(r.Context(), current, field, req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}
	updated, err := table.Row(r.Context(), current.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"circuit":       newCircuitView(updated),
		"updates":       emitted,
		"notifications": notes.Notifications(),
	})
}

// DeleteCircuit removes a circuit
// DELETE /api/v1/schedules/{id}/circuits/{circuitId}
func (h *ScheduleHandler) DeleteCircuit(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var notes schedule.Recorder
	table, err := h.table(r.Context(), vars["id"], &notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := table.OnRemove(r.Context(), vars["circuitId"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CalculateRingContinuity derives R1+R2 from the ring readings
// POST /api/v1/schedules/{id}/circuits/{circuitId}/ring-continuity
func (h *ScheduleHandler) CalculateRingContinuity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var notes schedule.Recorder
	table, err := h.table(r.Context(), vars["id"], &notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	current, err := table.Row(r.Context(), vars["circuitId"])
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := table.Editor().CalculateRingContinuity(r.Context(), current)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":        result,
		"notifications": notes.Notifications(),
	})
}

// BulkFill applies a header action to every circuit
// POST /api/v1/schedules/{id}/bulk/{action}
func (h *ScheduleHandler) BulkFill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	field, ok := bulkActions[vars["action"]]
	if !ok {
		http.Error(w, "unknown bulk action", http.StatusNotFound)
		return
	}

	var req struct {
		Value string `json:"value"`
	}
	// Pass-mark fills take no value, so an empty body is allowed.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var notes schedule.Recorder
	table, err := h.table(r.Context(), vars["id"], &notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	batch, err := table.Header().Fill(r.Context(), field, req.Value)
	if err != nil {
		h.writeError(w, err)
		return
	}

	value := req.Value
	if field == models.FieldRCDTestButton || field == models.FieldAFDDTest {
		value = models.PassMark
	}
	record := func(ctx context.Context, res schedule.BatchResult) {
		h.audit(ctx, vars["id"], models.AuditActionBulkField, string(field), value, "", res.CircuitIDs, models.FieldUpdates{field: value}, res)
	}

	res, err := batch.Wait(r.Context())
	if err != nil {
		h.auditWhenDone(r.Context(), batch, record)
		return
	}
	record(r.Context(), res)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":        res,
		"notifications": notes.Notifications(),
	})
}

// ApplyPreset applies an RCD preset to the selected circuits
// POST /api/v1/schedules/{id}/presets/apply
func (h *ScheduleHandler) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var req struct {
		CircuitIDs  []string          `json:"circuitIds"`
		Preset      *models.RCDPreset `json:"preset"`
		PresetLabel string            `json:"presetLabel"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var preset models.RCDPreset
	switch {
	case req.Preset != nil:
		preset = *req.Preset
		if err := preset.Validate(); err != nil {
			h.writeError(w, err)
			return
		}
	case req.PresetLabel != "":
		p, ok := models.FindPreset(h.presets, req.PresetLabel)
		if !ok {
			http.Error(w, "preset not found", http.StatusNotFound)
			return
		}
		preset = p
	default:
		http.Error(w, "preset or presetLabel is required", http.StatusBadRequest)
		return
	}

	var notes schedule.Recorder
	table, err := h.table(r.Context(), vars["id"], &notes)
	if err != nil {
		h.writeError(w, err)
		return
	}
	batch, err := table.ApplyRCDPreset(r.Context(), req.CircuitIDs, preset)
	if err != nil {
		h.writeError(w, err)
		return
	}

	record := func(ctx context.Context, res schedule.BatchResult) {
		h.audit(ctx, vars["id"], models.AuditActionPreset, "", "", preset.Label, req.CircuitIDs, preset.Updates(), res)
	}

	res, err := batch.Wait(r.Context())
	if err != nil {
		h.auditWhenDone(r.Context(), batch, record)
		return
	}
	record(r.Context(), res)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result":        res,
		"notifications": notes.Notifications(),
	})
}

// GetAudits lists the bulk actions recorded against a schedule
// GET /api/v1/schedules/{id}/audits
func (h *ScheduleHandler) GetAudits(w http.ResponseWriter, r *http.Request) {
	audits, err := h.store.Audits(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"audits": audits,
		"count":  len(audits),
	})
}

// ExportXLSX downloads the schedule as a workbook
// GET /api/v1/schedules/{id}/export.xlsx
func (h *ScheduleHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	sched, err := h.store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := h.workbookBytes(sched)
	if err != nil {
		h.logger.Error("failed to generate workbook", zap.String("schedule_id", sched.ID), zap.Error(err))
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}
	writeDownload(w, xlsxContentType, exportFilename(sched, "xlsx", h.Now()), data)
}

// ExportCSV downloads the schedule as CSV
// GET /api/v1/schedules/{id}/export.csv
func (h *ScheduleHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	sched, err := h.store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := BuildScheduleCSV(sched)
	if err != nil {
		http.Error(w, "Failed to generate CSV file", http.StatusInternalServerError)
		return
	}
	writeDownload(w, csvContentType, exportFilename(sched, "csv", h.Now()), data)
}

// StoreExport renders the workbook and hands it to export storage
// POST /api/v1/schedules/{id}/exports
func (h *ScheduleHandler) StoreExport(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		http.Error(w, "export storage is not configured", http.StatusServiceUnavailable)
		return
	}
	sched, err := h.store.GetSchedule(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	data, err := h.workbookBytes(sched)
	if err != nil {
		http.Error(w, "Failed to generate Excel file", http.StatusInternalServerError)
		return
	}

	filename := exportFilename(sched, "xlsx", h.Now())
	url, err := h.exports.Save(r.Context(), filename, xlsxContentType, data)
	if err != nil {
		h.logger.Error("failed to store export", zap.String("schedule_id", sched.ID), zap.Error(err))
		http.Error(w, "failed to store export", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"url":      url,
		"filename": filename,
	})
}

func (h *ScheduleHandler) workbookBytes(sched models.Schedule) ([]byte, error) {
	f, err := BuildScheduleWorkbook(sched, h.Now())
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// audit failures are logged by the store and do not fail the request.
// auditWhenDone records the audit once batch drains. Queued updates keep
// running after the client has gone.
func (h *ScheduleHandler) auditWhenDone(ctx context.Context, batch *schedule.Batch, record func(context.Context, schedule.BatchResult)) {
	ctx = context.WithoutCancel(ctx)
	h.logger.Info("client left before bulk action finished, auditing on completion",
		zap.String("path", string(batch.Path())))
	go func() {
		<-batch.Done()
		record(ctx, batch.Result())
	}()
}

func (h *ScheduleHandler) audit(ctx context.Context, scheduleID string, action models.AuditAction, field, value, label string, ids []string, updates models.FieldUpdates, res schedule.BatchResult) {
	_ = h.store.RecordAudit(ctx, scheduleID, action, field, value, label, ids, updates, res)
}

func (h *ScheduleHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound), errors.Is(err, circuitstore.ErrScheduleNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrUnknownField),
		errors.Is(err, models.ErrImmutableField),
		errors.Is(err, models.ErrInvalidValue):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("request failed", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDownload(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
