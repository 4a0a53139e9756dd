package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// memStore is the in-memory Store used by orchestrator tests. Keyed by
// (source, title) like the production unique index.
type memStore struct {
	mu      sync.Mutex
	saved   map[string]*models.Opportunity
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]*models.Opportunity)}
}

func (m *memStore) key(source, title string) string { return source + "|" + title }

func (m *memStore) Exists(ctx context.Context, source, title string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[m.key(source, title)]
	return ok, nil
}

func (m *memStore) SaveOpportunity(ctx context.Context, opp *models.Opportunity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved[m.key(opp.Source, opp.Title)] = opp
	return nil
}

// stubScanner returns canned candidates and/or an error.
type stubScanner struct {
	id         string
	candidates []RawCandidate
	err        error
	delay      time.Duration
	calls      int
	mu         sync.Mutex
}

func (s *stubScanner) Name() string { return s.id }

func (s *stubScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.candidates, s.err
}

func stubCandidate(source, title string) RawCandidate {
	return RawCandidate{
		Source:           source,
		Type:             models.TypeAffiliate,
		Title:            title,
		Description:      "A perfectly ordinary product.",
		CompetitionLevel: models.CompetitionLow,
	}
}

func newTestOrchestrator(store Store, scanners ...Scanner) *Orchestrator {
	return &Orchestrator{
		Store:          store,
		Limiter:        NewLimiter(),
		Cache:          NewCache(time.Minute),
		MaxParallel:    3,
		ScannerTimeout: 2 * time.Second,
		scanners:       scanners,
		sanitizer:      bluemonday.StrictPolicy(),
	}
}

func TestQuickScan_RunsOnlyFirstTwoScanners(t *testing.T) {
	first := &stubScanner{id: "a", candidates: []RawCandidate{stubCandidate("a", "one")}}
	second := &stubScanner{id: "b", candidates: []RawCandidate{stubCandidate("b", "two")}}
	third := &stubScanner{id: "c", candidates: []RawCandidate{stubCandidate("c", "three")}}

	o := newTestOrchestrator(newMemStore(), first, second, third)
	result, err := o.QuickScan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if third.calls != 0 {
		t.Fatal("quick scan must not run the third scanner")
	}
	if result.TotalFound != 2 || result.TotalNew != 2 {
		t.Fatalf("expected 2 found / 2 new, got %d / %d", result.TotalFound, result.TotalNew)
	}
}

func TestScanAll_IsolatesScannerFailures(t *testing.T) {
	healthy := &stubScanner{id: "seasonal", candidates: []RawCandidate{stubCandidate("seasonal", "Spring Gardening")}}
	broken := &stubScanner{id: "clickbank", err: errors.New("connection reset")}

	store := newMemStore()
	o := newTestOrchestrator(store, broken, healthy)

	result, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("a failing scanner must not fail the run: %v", err)
	}

	if len(result.Errors) != 1 || result.Errors[0].Scanner != "clickbank" {
		t.Fatalf("expected one clickbank error entry, got %+v", result.Errors)
	}
	if result.Sources["clickbank"].Errors != 1 {
		t.Fatalf("expected clickbank error counted, got %+v", result.Sources["clickbank"])
	}
	if result.TotalNew != 1 {
		t.Fatalf("healthy scanner's candidate should persist, got %d new", result.TotalNew)
	}
	if _, ok := store.saved["seasonal|Spring Gardening"]; !ok {
		t.Fatal("expected the healthy candidate in the store")
	}
}

func TestScanAll_MissingCredentialIsSilentSkip(t *testing.T) {
	skipped := &stubScanner{id: "digistore24", err: ErrMissingCredential}
	o := newTestOrchestrator(newMemStore(), skipped)

	result, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("missing credentials are a skip, not an error: %+v", result.Errors)
	}
}

func TestScanAll_FallbackCandidatesPersistDespiteError(t *testing.T) {
	// Affiliate scanners return their sample set together with a ScanError;
	// both must land in the result.
	flagged := stubCandidate("clickbank", "Ted's Woodworking Plans")
	flagged.Metadata = map[string]interface{}{"fallback": true}

	s := &stubScanner{
		id:         "clickbank",
		candidates: []RawCandidate{flagged},
		err:        &ScanError{Scanner: "clickbank", Err: errors.New("upstream 502")},
	}
	store := newMemStore()
	o := newTestOrchestrator(store, s)

	result, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalNew != 1 {
		t.Fatalf("fallback candidate should persist, got %d new", result.TotalNew)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("the upstream error must still be recorded, got %+v", result.Errors)
	}
	saved := store.saved["clickbank|Ted's Woodworking Plans"]
	if saved == nil {
		t.Fatal("expected the fallback candidate in the store")
	}
	if flaggedMeta, _ := saved.Metadata["fallback"].(bool); !flaggedMeta {
		t.Fatal("persisted record must keep the fallback flag")
	}
}

func TestScanAll_DeduplicatesAcrossRuns(t *testing.T) {
	s := &stubScanner{id: "a", candidates: []RawCandidate{stubCandidate("a", "repeat")}}
	store := newMemStore()
	o := newTestOrchestrator(store, s)

	first, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if first.TotalNew != 1 {
		t.Fatalf("expected 1 new on the first run, got %d", first.TotalNew)
	}

	second, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if second.TotalFound != 1 || second.TotalNew != 0 {
		t.Fatalf("rediscovery must be a no-op: found=%d new=%d", second.TotalFound, second.TotalNew)
	}
}

func TestScanAll_PerScannerTimeout(t *testing.T) {
	slow := &stubScanner{id: "slow", delay: 500 * time.Millisecond, candidates: []RawCandidate{stubCandidate("slow", "late")}}
	fast := &stubScanner{id: "fast", candidates: []RawCandidate{stubCandidate("fast", "early")}}

	o := newTestOrchestrator(newMemStore(), slow, fast)
	o.ScannerTimeout = 50 * time.Millisecond

	result, err := o.ScanAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalNew != 1 {
		t.Fatalf("only the fast scanner should contribute, got %d new", result.TotalNew)
	}
	if len(result.Errors) != 1 || result.Errors[0].Scanner != "slow" {
		t.Fatalf("expected the slow scanner's timeout recorded, got %+v", result.Errors)
	}
}

func TestToOpportunity_SanitizesAndScores(t *testing.T) {
	o := newTestOrchestrator(newMemStore())

	c := RawCandidate{
		Source:           "clickbank",
		Type:             models.TypeAffiliate,
		Title:            "  Keto Meal Plans  ",
		Description:      `Lose weight <script>alert("x")</script>fast`,
		PotentialRevenue: -50,
		CompetitionLevel: "extreme",
	}
	opp := o.toOpportunity(c)

	if opp.Title != "Keto Meal Plans" {
		t.Fatalf("expected trimmed title, got %q", opp.Title)
	}
	if opp.Description != "Lose weight fast" {
		t.Fatalf("expected script tags stripped, got %q", opp.Description)
	}
	if opp.PotentialRevenue != 0 {
		t.Fatalf("negative revenue must clamp to zero, got %v", opp.PotentialRevenue)
	}
	if opp.CompetitionLevel != models.CompetitionUnknown {
		t.Fatalf("unknown competition values must normalize, got %q", opp.CompetitionLevel)
	}
	if opp.Status != models.StatusNew {
		t.Fatalf("expected status new, got %q", opp.Status)
	}
	if opp.Score != ScoreCandidate(c) {
		t.Fatalf("score must come from the scoring engine, got %d", opp.Score)
	}
}

func TestScanAll_BoundedParallelism(t *testing.T) {
	var mu sync.Mutex
	running, peak := 0, 0

	mkScanner := func(id string) Scanner {
		return scannerFunc{id: id, fn: func(ctx context.Context) ([]RawCandidate, error) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()

			time.Sleep(30 * time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil, nil
		}}
	}

	o := newTestOrchestrator(newMemStore(),
		mkScanner("a"), mkScanner("b"), mkScanner("c"), mkScanner("d"), mkScanner("e"))
	o.MaxParallel = 2

	if _, err := o.ScanAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > 2 {
		t.Fatalf("parallelism exceeded the bound: peak %d", peak)
	}
}

type scannerFunc struct {
	id string
	fn func(ctx context.Context) ([]RawCandidate, error)
}

func (s scannerFunc) Name() string                                  { return s.id }
func (s scannerFunc) Scan(ctx context.Context) ([]RawCandidate, error) { return s.fn(ctx) }
