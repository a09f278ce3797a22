package web

import (
	"context"
	"errors"
	"io"
	"net/http"

	"extractdb/internal/core"
	"extractdb/internal/logging"
	"github.com/go-chi/chi/v5"
)

// schemaInfo describes one registered schema for clients.
type schemaInfo struct {
	Name     string   `json:"name"`
	Required []string `json:"requiredColumns"`
	Columns  []string `json:"columns"`
}

// ingestResponse is the JSON rendering of a core.IngestionResult.
type ingestResponse struct {
	IngestionID string       `json:"ingestionId"`
	Source      string       `json:"source"`
	Schema      string       `json:"schema,omitempty"`
	TotalRows   int          `json:"totalRows"`
	Inserted    int          `json:"inserted"`
	FieldErrors []fieldError `json:"fieldErrors,omitempty"`
	DurationMs  int64        `json:"durationMs"`
	Error       string       `json:"error,omitempty"`
}

type fieldError struct {
	Kind   string `json:"kind"`
	Column string `json:"column"`
	Line   int    `json:"line"`
	Input  string `json:"input"`
}

// handleHealth reports liveness and store reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var one int
	if err := s.store.QueryRow(r.Context(), "SELECT 1").Scan(&one); err != nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSchemas returns every registered schema.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas := core.All()
	infos := make([]schemaInfo, len(schemas))
	for i, sc := range schemas {
		infos[i] = schemaInfo{
			Name:     sc.Name,
			Required: sc.Required,
			Columns:  sc.Columns(),
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleIngest accepts one CSV file as multipart form data, runs it through
// the pipeline synchronously, and returns the per-file result. The record
// type is never named by the client; classification decides it.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "failed to read file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Ingest.Timeout)
	defer cancel()

	result := s.pipeline.Ingest(ctx, core.BytesSource{FileName: header.Filename, Data: data})

	logger := logging.FromContext(r.Context())
	if result.Failed() {
		logger.Warn("ingestion rejected", "source", result.Source, "error", result.Err)
	} else {
		logger.Info("ingestion complete",
			"source", result.Source,
			"schema", result.Schema,
			"rows", result.Inserted,
			"field_errors", len(result.FieldErrors),
		)
	}

	writeJSON(w, ingestStatus(result), toIngestResponse(result))
}

// handleRows returns rows for one schema, optionally filtered by ?q=.
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	schemaName := chi.URLParam(r, "schema")
	if schemaName == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "missing schema name")
		return
	}
	if _, ok := core.Get(schemaName); !ok {
		writeError(r.Context(), w, http.StatusNotFound, "unknown schema: "+schemaName)
		return
	}

	rows, err := core.FetchRows(r.Context(), s.store, schemaName, r.URL.Query().Get("q"))
	if err != nil {
		logging.FromContext(r.Context()).Error("fetch rows", "schema", schemaName, "error", err)
		writeError(r.Context(), w, http.StatusInternalServerError, "query failed")
		return
	}

	type rowJSON struct {
		ID     int64          `json:"id"`
		Values map[string]any `json:"values"`
	}
	out := make([]rowJSON, len(rows))
	for i, row := range rows {
		out[i] = rowJSON{ID: row.ID, Values: row.Values}
	}
	writeJSON(w, http.StatusOK, out)
}

// ingestStatus maps a result to an HTTP status: rejected files are
// unprocessable, storage trouble is a server error, everything else is OK.
func ingestStatus(result core.IngestionResult) int {
	if !result.Failed() {
		return http.StatusOK
	}

	var storageErr *core.StorageError
	var sourceErr *core.SourceError
	switch {
	case errors.As(result.Err, &storageErr):
		return http.StatusInternalServerError
	case errors.As(result.Err, &sourceErr):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func toIngestResponse(result core.IngestionResult) ingestResponse {
	resp := ingestResponse{
		IngestionID: result.IngestionID,
		Source:      result.Source,
		Schema:      result.Schema,
		TotalRows:   result.TotalRows,
		Inserted:    result.Inserted,
		DurationMs:  result.Duration.Milliseconds(),
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	for _, fe := range result.FieldErrors {
		resp.FieldErrors = append(resp.FieldErrors, fieldError{
			Kind:   string(fe.Kind),
			Column: fe.Column,
			Line:   fe.Line,
			Input:  fe.Input,
		})
	}
	return resp
}
