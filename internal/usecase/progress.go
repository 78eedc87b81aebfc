package usecase

import (
	"sync"

	"drivesync/internal/domain"
)

// Stats is a point-in-time copy of the progress counters.
type Stats struct {
	TotalFiles       int
	TotalFolders     int
	SuccessfulCopies int
	FailedCopies     int
	SkippedCopies    int
	CreatedFolders   int
	SkippedFolders   int
}

// ProcessedFiles is the number of files with a decided outcome.
func (s Stats) ProcessedFiles() int {
	return s.SuccessfulCopies + s.FailedCopies + s.SkippedCopies
}

// Tracker accumulates progress counters and forwards every notification to
// an optional rendering sink. All mutation goes through Update / SetTotals.
type Tracker struct {
	mu    sync.Mutex
	stats Stats
	sink  domain.ProgressSink
}

// NewTracker returns a tracker forwarding to sink. sink may be nil.
func NewTracker(sink domain.ProgressSink) *Tracker {
	return &Tracker{sink: sink}
}

// SetTotals records the totals known after source enumeration.
func (t *Tracker) SetTotals(files, folders int) {
	t.mu.Lock()
	t.stats.TotalFiles = files
	t.stats.TotalFolders = folders
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.SetTotals(files, folders)
	}
}

// Update is the single entry point for counter mutation.
func (t *Tracker) Update(op domain.ProgressOp, path string) {
	t.mu.Lock()
	switch op {
	case domain.OpCopySucceeded:
		t.stats.SuccessfulCopies++
	case domain.OpCopyFailed:
		t.stats.FailedCopies++
	case domain.OpCopySkipped:
		t.stats.SkippedCopies++
	case domain.OpFolderCreated:
		t.stats.CreatedFolders++
	case domain.OpFolderSkipped:
		t.stats.SkippedFolders++
	}
	t.mu.Unlock()

	if t.sink != nil {
		t.sink.Update(op, path)
	}
}

// Enumerating forwards enumeration progress to the sink.
func (t *Tracker) Enumerating(side string, processed, total int) {
	if t.sink != nil {
		t.sink.Enumerating(side, processed, total)
	}
}

// Snapshot returns a copy of the current counters.
func (t *Tracker) Snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}
