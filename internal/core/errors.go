package core

// errors.go defines the pipeline failure taxonomy.
//
// File-level failures (UnclassifiedError, MissingColumnsError, StorageError,
// SourceError) reject the whole file and roll back any pending writes.
// Row-level failures (FieldError) never escalate: the offending field is
// inserted as NULL and the error is recorded on the IngestionResult for audit.
// Nothing in this package notifies a user directly; all failures surface as
// values for the caller to render.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoDataRows rejects files that classify on the header but carry no rows.
var ErrNoDataRows = errors.New("no data rows after header")

// UnclassifiedError indicates that no registered schema's required columns
// are a subset of the file's columns.
type UnclassifiedError struct {
	Columns []string
}

func (e *UnclassifiedError) Error() string {
	return fmt.Sprintf("no schema matches columns [%s]", strings.Join(e.Columns, ", "))
}

// AmbiguousMatchError indicates that two schemas with equally specific
// required-column sets both match the file's columns.
type AmbiguousMatchError struct {
	Schemas []string
}

func (e *AmbiguousMatchError) Error() string {
	return fmt.Sprintf("ambiguous classification: %s", strings.Join(e.Schemas, ", "))
}

// MissingColumnsError indicates that a classified file does not satisfy its
// schema's required columns. The file is rejected before any row is read.
type MissingColumnsError struct {
	Schema  string
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Schema, strings.Join(e.Missing, ", "))
}

// StorageError indicates the atomic write of a file's batch failed.
// The transaction is rolled back in full; zero rows from the file persist.
type StorageError struct {
	Schema string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure for %s: %v", e.Schema, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// SourceError indicates the referenced file source could not be read at all.
// Distinct from UnclassifiedError; it does not stop batch continuation.
type SourceError struct {
	Name string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source unavailable: %s: %v", e.Name, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// FieldErrorKind labels the normalizer that rejected a value.
type FieldErrorKind string

const (
	TimeParseFailure     FieldErrorKind = "time_parse_failure"
	DurationParseFailure FieldErrorKind = "duration_parse_failure"
)

// FieldError records a row-level normalization failure. The row is still
// inserted with the field NULL.
type FieldError struct {
	Kind   FieldErrorKind
	Column string
	Line   int // 1-indexed source line, header included
	Input  string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("line %d: %s for %q: %q", e.Line, e.Kind, e.Column, e.Input)
}
