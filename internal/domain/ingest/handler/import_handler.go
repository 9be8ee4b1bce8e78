// Package handler exposes file analysis and batch parsing over HTTP.
package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/billwatch/billwatch/internal/domain/common"
	"github.com/billwatch/billwatch/internal/domain/ingest/colmap"
	"github.com/billwatch/billwatch/internal/domain/ingest/service"
	"github.com/billwatch/billwatch/internal/domain/ingest/sniffer"
)

// ImportHandler serves the import endpoints.
type ImportHandler struct {
	parseSvc       *service.ParseService
	logger         *slog.Logger
	maxUploadBytes int64
}

// NewImportHandler constructs a new handler.
func NewImportHandler(parseSvc *service.ParseService, logger *slog.Logger, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		parseSvc:       parseSvc,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// AnalyzeResponse describes one uploaded file's detected layout plus the
// column-map guess. Guess is null when any role failed to resolve; that is
// a normal outcome, not an error, and the caller must map manually.
type AnalyzeResponse struct {
	Delimiter   string            `json:"delimiter"`
	SkipLines   int               `json:"skip_lines"`
	Headers     []string          `json:"headers"`
	Fingerprint string            `json:"fingerprint"`
	SampleRows  [][]string        `json:"sample_rows"`
	Guess       *common.ColumnMap `json:"guess"`
}

// Analyze handles POST /v1/import/analyze with a raw export as the body.
func (h *ImportHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadBytes))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "could not read request body")
		return
	}

	config, err := sniffer.DetectConfig(data)
	if err != nil {
		writeError(w, h.logger, http.StatusUnprocessableEntity, err.Error())
		return
	}

	resp := AnalyzeResponse{
		Delimiter:   string(config.Delimiter),
		SkipLines:   config.SkipLines,
		Headers:     config.Headers,
		Fingerprint: config.Fingerprint,
		SampleRows:  config.SampleRows,
	}
	if mapping, ok := colmap.Guess(config.Headers); ok {
		resp.Guess = &mapping
	}

	writeJSON(w, h.logger, http.StatusOK, resp)
}

// ParseResponse is the outcome of POST /v1/import/parse.
type ParseResponse struct {
	Transactions []common.Transaction `json:"transactions"`
	RowsTotal    int                  `json:"rows_total"`
	RowsDropped  int                  `json:"rows_dropped"`
	AssumedSign  string               `json:"assumed_sign"`
	FileErrors   []FileErrorResponse  `json:"file_errors,omitempty"`
}

// FileErrorResponse reports one rejected file.
type FileErrorResponse struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// Parse handles POST /v1/import/parse with multipart files plus optional
// mapping and sign form values.
func (h *ImportHandler) Parse(w http.ResponseWriter, r *http.Request) {
	files, fileErrors, ok := ReadUploads(w, r, h.maxUploadBytes, h.logger)
	if !ok {
		return
	}

	mapping, ok, errMsg := ResolveMapping(r, files)
	if !ok {
		writeError(w, h.logger, http.StatusUnprocessableEntity, errMsg)
		return
	}

	result, err := h.parseSvc.Parse(r.Context(), files, mapping, common.ExpenseSign(r.FormValue("sign")))
	if err != nil {
		writeError(w, h.logger, http.StatusInternalServerError, "parse failed")
		return
	}

	resp := ParseResponse{
		Transactions: result.Transactions,
		RowsTotal:    result.RowsTotal,
		RowsDropped:  result.RowsDropped,
		AssumedSign:  string(result.AssumedSign),
		FileErrors:   fileErrors,
	}
	for _, fe := range result.FileErrors {
		resp.FileErrors = append(resp.FileErrors, FileErrorResponse{File: fe.File, Error: fe.Err.Error()})
	}
	writeJSON(w, h.logger, http.StatusOK, resp)
}

// ReadUploads tabularizes every multipart "files" part. A file that cannot
// be tabularized is reported per file and does not block its siblings.
// Returns ok=false only when the request itself is unusable (a response
// has already been written in that case).
func ReadUploads(w http.ResponseWriter, r *http.Request, maxBytes int64, logger *slog.Logger) ([]common.File, []FileErrorResponse, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeError(w, logger, http.StatusBadRequest, "expected multipart form upload")
		return nil, nil, false
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) == 0 {
		writeError(w, logger, http.StatusBadRequest, "no files uploaded")
		return nil, nil, false
	}

	var files []common.File
	var fileErrors []FileErrorResponse
	for _, part := range parts {
		file, err := readUpload(part)
		if err != nil {
			fileErrors = append(fileErrors, FileErrorResponse{File: part.Filename, Error: err.Error()})
			continue
		}
		files = append(files, *file)
	}
	return files, fileErrors, true
}

func readUpload(part *multipart.FileHeader) (*common.File, error) {
	f, err := part.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return sniffer.Tabularize(part.Filename, data)
}

// ResolveMapping takes an explicit mapping from form values, or guesses one
// from the first file's headers.
func ResolveMapping(r *http.Request, files []common.File) (common.ColumnMap, bool, string) {
	mapping := common.ColumnMap{
		Date:        r.FormValue("date_col"),
		Description: r.FormValue("desc_col"),
		Amount:      r.FormValue("amount_col"),
	}
	if mapping.Date != "" && mapping.Description != "" && mapping.Amount != "" {
		return mapping, true, ""
	}

	if len(files) == 0 {
		return common.ColumnMap{}, false, "no parseable files to guess a mapping from"
	}
	guessed, ok := colmap.Guess(files[0].Headers)
	if !ok {
		return common.ColumnMap{}, false, common.ErrNoMapping.Error()
	}
	return guessed, true, ""
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, map[string]string{"error": msg})
}
