package core

// ingest.go drives one file through the pipeline: parse, classify, validate,
// normalize row by row, then write the whole batch in a single transaction.
// Either every row of the file is durably appended or none are. Row-level
// normalization failures do not abort the transaction; the offending field
// is inserted as NULL and recorded on the result.

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// DefaultMaxFileSize is the maximum accepted file size (100MB) unless
// SetMaxFileSize overrides it.
const DefaultMaxFileSize int64 = 100 * 1024 * 1024

// Pipeline ingests classified files into the store. The store handle is
// passed in explicitly; the pipeline acquires a transaction per file and
// never holds one across files.
type Pipeline struct {
	store       Store
	norm        Normalizer
	maxFileSize int64
}

// NewPipeline creates a pipeline writing through store, normalizing
// year-less timestamps against norm.ReferenceYear.
func NewPipeline(store Store, norm Normalizer) *Pipeline {
	return &Pipeline{store: store, norm: norm, maxFileSize: DefaultMaxFileSize}
}

// SetMaxFileSize overrides the per-file size limit.
func (p *Pipeline) SetMaxFileSize(limit int64) {
	if limit > 0 {
		p.maxFileSize = limit
	}
}

// Ingest classifies, validates, normalizes, and inserts one file.
// All failure modes are reported on the IngestionResult; Ingest never
// panics past its boundary and never writes partial files.
func (p *Pipeline) Ingest(ctx context.Context, src Source) IngestionResult {
	start := time.Now()
	result := IngestionResult{
		IngestionID: uuid.New().String(),
		Source:      src.Name(),
	}

	data, err := readSource(src, p.maxFileSize)
	if err != nil {
		result.Err = &SourceError{Name: src.Name(), Err: err}
		result.Duration = time.Since(start)
		return result
	}

	records, err := parseCSV(sanitizeUTF8(data))
	if err != nil {
		result.Err = &SourceError{Name: src.Name(), Err: fmt.Errorf("parse csv: %w", err)}
		result.Duration = time.Since(start)
		return result
	}
	if len(records) == 0 {
		result.Err = &SourceError{Name: src.Name(), Err: fmt.Errorf("empty file")}
		result.Duration = time.Since(start)
		return result
	}

	header := records[0]
	headerCols := make([]string, len(header))
	for i, h := range header {
		headerCols[i] = CleanCell(h)
	}

	schema, err := Match(headerCols)
	if err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}
	result.Schema = schema.Name

	idx := MakeHeaderIndex(header)
	if err := ValidateColumns(schema, idx); err != nil {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	// Normalize every row before touching the store so a normalization pass
	// can never leave a transaction half-written.
	var batch [][]any
	for i, row := range records[1:] {
		if isEmptyRow(row) {
			continue
		}
		line := i + 2 // 1-indexed, after header
		values, fieldErrs := p.normalizeRow(schema, idx, row, line)
		batch = append(batch, values)
		result.FieldErrors = append(result.FieldErrors, fieldErrs...)
	}
	result.TotalRows = len(batch)

	if len(batch) == 0 {
		result.Err = ErrNoDataRows
		result.Duration = time.Since(start)
		return result
	}

	if err := p.insertBatch(ctx, schema, batch); err != nil {
		result.Err = &StorageError{Schema: schema.Name, Err: err}
		result.Duration = time.Since(start)
		return result
	}

	result.Inserted = len(batch)
	result.Duration = time.Since(start)
	return result
}

// normalizeRow builds the insertion values for one row in schema field
// order. A cell that fails normalization becomes NULL and is reported; the
// row itself survives.
func (p *Pipeline) normalizeRow(schema Schema, idx HeaderIndex, row []string, line int) ([]any, []FieldError) {
	values := make([]any, len(schema.Fields))
	var errs []FieldError

	for i, field := range schema.Fields {
		raw := cellAt(row, idx, field.Column)

		switch field.Kind {
		case KindDatetime:
			ts, ok := p.norm.Time(raw)
			if !ok {
				errs = append(errs, FieldError{
					Kind:   TimeParseFailure,
					Column: field.Column,
					Line:   line,
					Input:  raw,
				})
			}
			values[i] = ts
		case KindDuration:
			secs, ok := p.norm.Duration(raw)
			if !ok {
				errs = append(errs, FieldError{
					Kind:   DurationParseFailure,
					Column: field.Column,
					Line:   line,
					Input:  raw,
				})
			}
			values[i] = secs
		case KindPassthrough:
			values[i] = raw
		default:
			values[i] = Text(raw)
		}
	}

	return values, errs
}

// insertBatch appends the file's rows in one transaction.
func (p *Pipeline) insertBatch(ctx context.Context, schema Schema, batch [][]any) error {
	tx, err := p.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := insertStatement(schema)
	for _, values := range batch {
		if _, err := tx.Exec(ctx, stmt, values...); err != nil {
			return fmt.Errorf("insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// insertStatement builds the parameterized INSERT for a schema.
func insertStatement(schema Schema) string {
	cols := make([]string, len(schema.Fields))
	params := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		cols[i] = quoteIdentifier(f.Column)
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(schema.Name),
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
	)
}

// quoteIdentifier quotes a SQL identifier for PostgreSQL.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// cellAt retrieves a cleaned cell from a row by header name.
func cellAt(row []string, idx HeaderIndex, name string) string {
	pos, ok := idx[strings.ToLower(name)]
	if !ok || pos >= len(row) {
		return ""
	}
	return CleanCell(row[pos])
}

func parseCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
