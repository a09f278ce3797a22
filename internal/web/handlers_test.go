package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"extractdb/internal/config"
	"extractdb/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubStore satisfies core.Store for handler tests. Reads are stubbed out;
// inserts inside a transaction are recorded so ingest tests can observe them.
type stubStore struct {
	healthErr error
	queryErr  error
	inserts   []string
}

func (s *stubStore) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("EXEC"), nil
}

func (s *stubStore) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return nil, errors.New("not implemented")
}

func (s *stubStore) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return stubRow{err: s.healthErr}
}

func (s *stubStore) Begin(context.Context) (core.Tx, error) {
	return &stubTx{store: s}, nil
}

type stubRow struct {
	err error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if p, ok := dest[0].(*int); ok {
			*p = 1
		}
	}
	return nil
}

type stubTx struct {
	store *stubStore
}

func (t *stubTx) Exec(_ context.Context, sql string, _ ...interface{}) (pgconn.CommandTag, error) {
	t.store.inserts = append(t.store.inserts, sql)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (t *stubTx) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (t *stubTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	return stubRow{}
}

func (t *stubTx) Commit(context.Context) error { return nil }

func (t *stubTx) Rollback(context.Context) error { return nil }

func newTestServer(t *testing.T, store *stubStore) *Server {
	t.Helper()

	core.Clear()
	t.Cleanup(core.Clear)
	core.Register(core.Schema{
		Name:     "Calls",
		IDColumn: "call_id",
		Required: []string{"call_type", "time", "from_to", "duration_sec", "location"},
		Fields: []core.Field{
			{Column: "call_type", Kind: core.KindText},
			{Column: "time", Kind: core.KindDatetime},
			{Column: "from_to", Kind: core.KindText},
			{Column: "duration_sec", Kind: core.KindDuration},
			{Column: "location", Kind: core.KindText},
		},
		OrderBy: `"time" DESC`,
	})

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute
	cfg.Ingest.MaxFileSize = 1 << 20
	cfg.Ingest.Timeout = time.Minute

	pipeline := core.NewPipeline(store, core.Normalizer{ReferenceYear: 2024})
	return NewServer(store, pipeline, cfg)
}

func multipartUpload(t *testing.T, filename, contents string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write([]byte(contents)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHandleIngest(t *testing.T) {
	t.Run("accepted file", func(t *testing.T) {
		store := &stubStore{}
		server := newTestServer(t, store)

		req := multipartUpload(t, "calls.csv",
			"call_type,time,from_to,duration_sec,location\n"+
				`Incoming,"Jan 1, 10:00 AM",+15551234,5 Min & 30 Sec,NY`+"\n")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var resp ingestResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Schema != "Calls" || resp.Inserted != 1 {
			t.Errorf("response = %+v", resp)
		}
		if resp.IngestionID == "" {
			t.Error("response missing ingestion id")
		}
		if len(store.inserts) != 1 {
			t.Errorf("inserts = %d, want 1", len(store.inserts))
		}
	})

	t.Run("unclassified file is unprocessable", func(t *testing.T) {
		store := &stubStore{}
		server := newTestServer(t, store)

		req := multipartUpload(t, "mystery.csv", "foo,bar\n1,2\n")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}

		var resp ingestResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Error == "" {
			t.Error("response missing error message")
		}
	})

	t.Run("missing file field", func(t *testing.T) {
		server := newTestServer(t, &stubStore{})

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		_ = writer.WriteField("note", "no file here")
		_ = writer.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/ingest", &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleListSchemas(t *testing.T) {
	server := newTestServer(t, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/schemas", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var infos []schemaInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &infos); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(infos) != 1 || infos[0].Name != "Calls" {
		t.Errorf("schemas = %+v", infos)
	}
	if len(infos[0].Required) != 5 {
		t.Errorf("required columns = %v", infos[0].Required)
	}
}

func TestHandleRows(t *testing.T) {
	t.Run("unknown schema", func(t *testing.T) {
		server := newTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodGet, "/api/rows/Nope", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("query failure", func(t *testing.T) {
		store := &stubStore{queryErr: errors.New("connection refused")}
		server := newTestServer(t, store)

		req := httptest.NewRequest(http.MethodGet, "/api/rows/Calls", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		server := newTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("database down", func(t *testing.T) {
		store := &stubStore{healthErr: errors.New("dial timeout")}
		server := newTestServer(t, store)

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}
