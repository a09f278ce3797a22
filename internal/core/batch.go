package core

// batch.go runs the pipeline over an ordered sequence of file sources with
// failure isolation at file granularity: a rejected file is recorded and the
// runner continues to the next one. No retries are performed; a rejected
// file is reported back to the caller, who may resubmit it.

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Source is one ingestable file. Open is called once per ingestion attempt.
type Source interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a file from disk by path.
type FileSource string

func (f FileSource) Name() string { return filepath.Base(string(f)) }

func (f FileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// BytesSource wraps an already-read upload body.
type BytesSource struct {
	FileName string
	Data     []byte
}

func (b BytesSource) Name() string { return b.FileName }

func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Runner drives the pipeline over file sequences.
type Runner struct {
	pipeline *Pipeline
}

// NewRunner creates a batch runner over pipeline.
func NewRunner(pipeline *Pipeline) *Runner {
	return &Runner{pipeline: pipeline}
}

// IngestAll processes sources sequentially, one file fully classified,
// validated, and ingested before the next begins. It always returns exactly
// one result per source and never raises past its own boundary. All outcomes
// are reported as values; logging is the caller's concern.
func (r *Runner) IngestAll(ctx context.Context, sources []Source) []IngestionResult {
	results := make([]IngestionResult, 0, len(sources))
	for _, src := range sources {
		results = append(results, r.pipeline.Ingest(ctx, src))
	}
	return results
}

// readSource reads a source fully, enforcing the size limit.
func readSource(src Source, limit int64) ([]byte, error) {
	rc, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %dMB limit", limit/(1024*1024))
	}
	return data, nil
}
