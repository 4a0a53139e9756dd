package scan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// ErrMissingCredential signals that a scanner cannot run because its API
// credential is absent or rejected. The orchestrator logs a skip and does
// not count it against the run.
var ErrMissingCredential = errors.New("missing or invalid credential")

// ScanError attributes a failure to the scanner that produced it.
type ScanError struct {
	Scanner string
	Err     error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scanner %s: %v", e.Scanner, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// RawCandidate is a discovered opportunity before scoring and persistence.
// Same shape as models.Opportunity minus id, score and status.
type RawCandidate struct {
	Source           string
	Type             string
	Title            string
	Description      string
	URL              string
	PotentialRevenue float64
	CompetitionLevel string
	Keywords         []string
	Metadata         map[string]interface{}
}

// Scanner fetches raw candidates from one external source.
//
// Scan may return both candidates and an error: affiliate scanners fall
// back to an embedded sample set (flagged metadata.fallback=true) when the
// live call fails, and the error is still recorded against the source.
// A scanner must never panic the run; credential problems are reported as
// ErrMissingCredential.
type Scanner interface {
	Name() string
	Scan(ctx context.Context) ([]RawCandidate, error)
}

// Store is the dedup/persistence contract the orchestrator drives.
// (source, title) is unique across all persisted opportunities;
// re-discovery is a no-op.
type Store interface {
	Exists(ctx context.Context, source, title string) (bool, error)
	SaveOpportunity(ctx context.Context, opp *models.Opportunity) error
}

// SourceStats counts per-source outcomes within one run.
type SourceStats struct {
	Found  int `json:"found"`
	New    int `json:"new"`
	Errors int `json:"errors"`
}

// ScanErrorEntry is one failed scanner in the run summary.
type ScanErrorEntry struct {
	Scanner string `json:"scanner"`
	Error   string `json:"error"`
}

// ScanBatchResult is the summary of one orchestrator run. It always comes
// back to the caller, even under partial failure.
type ScanBatchResult struct {
	StartedAt   time.Time               `json:"started_at"`
	CompletedAt time.Time               `json:"completed_at"`
	TotalFound  int                     `json:"total_found"`
	TotalNew    int                     `json:"total_new"`
	Sources     map[string]*SourceStats `json:"sources"`
	Errors      []ScanErrorEntry        `json:"errors"`
}

func newScanBatchResult() *ScanBatchResult {
	return &ScanBatchResult{
		StartedAt: time.Now().UTC(),
		Sources:   make(map[string]*SourceStats),
	}
}

func (r *ScanBatchResult) sourceStats(name string) *SourceStats {
	s, ok := r.Sources[name]
	if !ok {
		s = &SourceStats{}
		r.Sources[name] = s
	}
	return s
}
