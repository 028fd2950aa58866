// Package domain holds the state and counters of an extraction run
package domain

import (
	"sync"
	"time"

	"dumpsift/internal/adapters/ingest/ndzst"
)

// Job is one input dump and the output base path it writes to
type Job = ndzst.Job

// FileState is where a file is in its lifecycle
type FileState string

const (
	StateOpen      FileState = "open"
	StateStreaming FileState = "streaming"
	StateFinalized FileState = "finalized"
	StateFailed    FileState = "failed"
)

// FileStats are the counters of one file; reset per file
type FileStats struct {
	Input  string    `json:"input"`
	Output string    `json:"output"`
	State  FileState `json:"state"`

	Total   int64 `json:"total"`
	Matched int64 `json:"matched"`
	Bad     int64 `json:"bad"`

	// Bytes is compressed input consumed, Size the compressed file size
	Bytes int64 `json:"bytes"`
	Size  int64 `json:"size"`

	// LastCreated is the created_utc of the most recent readable record
	LastCreated int64 `json:"last_created,omitempty"`
	// Discarded counts bytes of a trailing fragment with no newline
	Discarded int `json:"discarded,omitempty"`

	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
	Err      string    `json:"error,omitempty"`
}

// Percent of the compressed file consumed, 0 when the size is unknown
func (s FileStats) Percent() float64 {
	if s.Size <= 0 {
		return 0
	}
	return float64(s.Bytes) / float64(s.Size) * 100
}

// RunSummary is the outcome of a multi file run
type RunSummary struct {
	Files  []FileStats `json:"files"`
	OK     int         `json:"ok"`
	Failed int         `json:"failed"`
}

// Snapshot is a point in time view of a run for the status endpoint
type Snapshot struct {
	RunID     string      `json:"run_id,omitempty"`
	Started   time.Time   `json:"started"`
	FilesDone int         `json:"files_done"`
	FilesAll  int         `json:"files_all"`
	Current   *FileStats  `json:"current,omitempty"`
	Percent   float64     `json:"percent"`
	Done      []FileStats `json:"done"`
}

// Tracker publishes progress from the run loop to concurrent readers
// The zero value is ready to use
type Tracker struct {
	mu      sync.RWMutex
	runID   string
	started time.Time
	total   int
	current *FileStats
	done    []FileStats
}

// NewTracker returns a tracker labelled with runID
func NewTracker(runID string) *Tracker { return &Tracker{runID: runID} }

// Begin records the start of a run over n files
func (t *Tracker) Begin(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.started = time.Now()
	t.total = n
	t.current = nil
	t.done = t.done[:0]
}

// Update replaces the view of the file being processed
func (t *Tracker) Update(s FileStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &s
}

// Finish moves s to the done list
func (t *Tracker) Finish(s FileStats) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = nil
	t.done = append(t.done, s)
}

// Snapshot copies the current state
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := Snapshot{
		RunID:     t.runID,
		Started:   t.started,
		FilesDone: len(t.done),
		FilesAll:  t.total,
		Done:      append([]FileStats(nil), t.done...),
	}
	if t.current != nil {
		cur := *t.current
		snap.Current = &cur
		snap.Percent = cur.Percent()
	}
	return snap
}
