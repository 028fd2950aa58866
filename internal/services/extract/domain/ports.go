package domain

import (
	"context"

	"dumpsift/internal/adapters/ingest/ndzst"
	"dumpsift/internal/core/project"
)

// RunnerPort is what the cmd wiring calls
type RunnerPort interface {
	Run(ctx context.Context, jobs []Job) (RunSummary, error)
}

// ProgressPort exposes the live view served by the status routes
type ProgressPort interface {
	Snapshot() Snapshot
}

// LineSource is an opened input dump
type LineSource interface {
	Lines() *ndzst.LineReader
	Size() int64
	Close() error
}

// SourceOpener opens an input dump for streaming
type SourceOpener func(path string) (LineSource, error)

// SinkOpener creates the output for one file, writing header first when non nil
type SinkOpener func(path string, header []string) (project.Sink, error)
