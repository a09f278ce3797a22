// Package core implements the classification-and-normalization ingestion
// pipeline for device-extract exports: a registry of known record schemas,
// column-set classification, time/duration normalization, and transactional
// batch insertion. This package has no HTTP or UI dependencies.
package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the interface for database operations.
// Satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Tx is a database transaction. pgx.Tx satisfies it.
type Tx interface {
	DBTX
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the write-side database handle the pipeline acquires per file.
// Acquisition is scoped: Begin, write the batch, commit or roll back, release.
// No component holds a transaction across files.
type Store interface {
	DBTX
	Begin(ctx context.Context) (Tx, error)
}

// FieldKind determines how a raw cell is normalized before insertion.
type FieldKind int

const (
	// KindText inserts the cleaned cell as-is, NULL when blank.
	KindText FieldKind = iota
	// KindDatetime runs the cell through the time normalizer.
	KindDatetime
	// KindDuration runs the cell through the duration normalizer.
	KindDuration
	// KindPassthrough inserts the raw cell without cleanup.
	KindPassthrough
)

// Field is one column of a schema: its CSV header name (which doubles as the
// database column name) and how its values are normalized.
type Field struct {
	Column string
	Kind   FieldKind
}

// Schema describes one record category: which columns a file must carry to
// classify as this schema, the full insertion column order, and how the
// presentation layer orders rows by default.
type Schema struct {
	Name     string   // registry key and database table name, e.g. "Calls"
	IDColumn string   // identity primary key column, e.g. "call_id"
	Required []string // columns that must appear in the file header
	Fields   []Field  // insertion order; Required must be a subset
	OrderBy  string   // default ORDER BY clause for FetchRows
}

// Columns returns the schema's field column names in insertion order.
func (s Schema) Columns() []string {
	cols := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		cols[i] = f.Column
	}
	return cols
}

// RequiredSet returns the required columns as a set.
func (s Schema) RequiredSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Required))
	for _, c := range s.Required {
		set[c] = struct{}{}
	}
	return set
}

// HeaderIndex maps column names (lowercase) to their position in a CSV row.
type HeaderIndex map[string]int

// IngestionResult is the per-file outcome of one pipeline run.
// Err carries the file-level failure, if any; FieldErrors carries the
// row-level normalization failures for rows that were still inserted.
type IngestionResult struct {
	IngestionID string
	Source      string
	Schema      string // empty when classification failed
	TotalRows   int
	Inserted    int
	FieldErrors []FieldError
	Duration    time.Duration
	Err         error
}

// Failed reports whether the file as a whole was rejected.
func (r IngestionResult) Failed() bool { return r.Err != nil }
