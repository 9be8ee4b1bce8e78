// Package handler exposes the full detection pipeline over HTTP.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/billwatch/billwatch/internal/domain/common"
	ingesthandler "github.com/billwatch/billwatch/internal/domain/ingest/handler"
	"github.com/billwatch/billwatch/internal/domain/ingest/service"
	"github.com/billwatch/billwatch/internal/domain/recurring"
	"github.com/billwatch/billwatch/pkg/observability"
)

// RecurringHandler serves the recurring-detection endpoint.
type RecurringHandler struct {
	parseSvc       *service.ParseService
	logger         *slog.Logger
	maxUploadBytes int64
	defaults       recurring.Options
}

// NewRecurringHandler constructs a new handler.
func NewRecurringHandler(parseSvc *service.ParseService, logger *slog.Logger, maxUploadBytes int64, defaults recurring.Options) *RecurringHandler {
	return &RecurringHandler{
		parseSvc:       parseSvc,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		defaults:       defaults,
	}
}

// DetectResponse is the outcome of one pipeline run.
type DetectResponse struct {
	RunID       uuid.UUID                         `json:"run_id"`
	Groups      []recurring.Group                 `json:"groups"`
	RowsTotal   int                               `json:"rows_total"`
	RowsDropped int                               `json:"rows_dropped"`
	AssumedSign string                            `json:"assumed_sign"`
	FileErrors  []ingesthandler.FileErrorResponse `json:"file_errors,omitempty"`
}

// Detect handles POST /v1/recurring/detect: multipart files plus optional
// sign, min_count, max_groups, and mapping form values, straight through
// sniff, guess, parse, and detect.
func (h *RecurringHandler) Detect(w http.ResponseWriter, r *http.Request) {
	files, fileErrors, ok := ingesthandler.ReadUploads(w, r, h.maxUploadBytes, h.logger)
	if !ok {
		return
	}

	mapping, ok, errMsg := ingesthandler.ResolveMapping(r, files)
	if !ok {
		h.writeError(w, http.StatusUnprocessableEntity, errMsg)
		return
	}

	result, err := h.parseSvc.Parse(r.Context(), files, mapping, common.ExpenseSign(r.FormValue("sign")))
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "parse failed")
		return
	}

	opts := h.defaults
	if v, err := strconv.Atoi(r.FormValue("min_count")); err == nil && v >= 1 {
		opts.MinCount = v
	}
	if v, err := strconv.Atoi(r.FormValue("max_groups")); err == nil && v >= 1 {
		opts.MaxGroups = v
	}

	start := time.Now()
	groups := recurring.Detect(result.Transactions, opts)
	observability.DetectRuns.Inc()
	observability.DetectDuration.Observe(time.Since(start).Seconds())

	resp := DetectResponse{
		RunID:       uuid.New(),
		Groups:      groups,
		RowsTotal:   result.RowsTotal,
		RowsDropped: result.RowsDropped,
		AssumedSign: string(result.AssumedSign),
		FileErrors:  fileErrors,
	}
	for _, fe := range result.FileErrors {
		resp.FileErrors = append(resp.FileErrors, ingesthandler.FileErrorResponse{File: fe.File, Error: fe.Err.Error()})
	}

	h.logger.Info("detection run complete",
		"run_id", resp.RunID,
		"transactions", len(result.Transactions),
		"groups", len(groups),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *RecurringHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func (h *RecurringHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
