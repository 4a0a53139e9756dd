package scan

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// quickScanCount is how many of the loaded scanners a quick scan runs.
const quickScanCount = 2

// Orchestrator coordinates one scan run: fan out to scanners with bounded
// parallelism, score the surviving candidates, and drive dedup/persistence.
// Stateless between runs except for the shared rate limiter and cache.
type Orchestrator struct {
	Store          Store
	Limiter        *Limiter
	Cache          *Cache
	MaxParallel    int
	ScannerTimeout time.Duration

	scanners  []Scanner
	sanitizer *bluemonday.Policy
}

// NewOrchestrator builds the shared limiter/cache and loads every scanner
// whose credentials/configuration are present. Absent credentials are a
// logged skip, never an error.
func NewOrchestrator(store Store, reg *Registry) *Orchestrator {
	o := &Orchestrator{
		Store:          store,
		Limiter:        NewLimiter(),
		Cache:          NewCache(reg.Tunables.cacheTTL()),
		MaxParallel:    reg.Tunables.maxParallel(),
		ScannerTimeout: reg.Tunables.scannerTimeout(),
		sanitizer:      bluemonday.StrictPolicy(),
	}
	o.loadScanners(reg)
	return o
}

func (o *Orchestrator) loadScanners(reg *Registry) {
	for _, cfg := range reg.Scanners {
		if cfg.MaxRequestsPerHour > 0 {
			o.Limiter.SetLimit(cfg.ID, cfg.MaxRequestsPerHour)
		}

		switch cfg.Kind {
		case "affiliate":
			if cfg.APIKey == "" {
				log.Printf("[Orchestrator] Skipping %s: no API key configured", cfg.ID)
				continue
			}
			switch cfg.ID {
			case "clickbank":
				o.scanners = append(o.scanners, NewClickBankScanner(cfg.APIKey, o.Limiter, o.Cache))
			case "digistore24":
				o.scanners = append(o.scanners, NewDigistore24Scanner(cfg.APIKey, o.Limiter, o.Cache))
			default:
				log.Printf("[Orchestrator] Unknown affiliate scanner %q, skipping", cfg.ID)
			}
		case "affiliate_html":
			if cfg.SeedURL == "" {
				log.Printf("[Orchestrator] Skipping %s: no seed URL configured", cfg.ID)
				continue
			}
			o.scanners = append(o.scanners, NewMarketplaceHTMLScanner(cfg.SeedURL, o.Limiter, o.Cache))
		case "social":
			s := NewSocialTrendScanner(cfg.YouTubeAPIKey, cfg.RedditUserAgent, reg.Tunables.Keywords, reg.Tunables, o.Limiter, o.Cache)
			if !s.HasPlatforms() {
				log.Printf("[Orchestrator] Skipping %s: no platform credentials configured", cfg.ID)
				continue
			}
			o.scanners = append(o.scanners, s)
		case "seasonal":
			o.scanners = append(o.scanners, NewSeasonalScanner(reg.Tunables))
		case "timing":
			o.scanners = append(o.scanners, NewTimingScanner())
		default:
			log.Printf("[Orchestrator] Unknown scanner kind %q for %s, skipping", cfg.Kind, cfg.ID)
		}
	}
	log.Printf("[Orchestrator] Loaded %d scanners", len(o.scanners))
}

// Scanners returns the loaded scanner names, in configured order.
func (o *Orchestrator) Scanners() []string {
	names := make([]string, len(o.scanners))
	for i, s := range o.scanners {
		names[i] = s.Name()
	}
	return names
}

// QuickScan runs only the first configured scanners for fast feedback.
func (o *Orchestrator) QuickScan(ctx context.Context) (*ScanBatchResult, error) {
	n := quickScanCount
	if n > len(o.scanners) {
		n = len(o.scanners)
	}
	return o.run(ctx, o.scanners[:n])
}

// ScanAll runs every loaded scanner.
func (o *Orchestrator) ScanAll(ctx context.Context) (*ScanBatchResult, error) {
	return o.run(ctx, o.scanners)
}

type scanOutcome struct {
	scanner    string
	candidates []RawCandidate
	err        error
}

func (o *Orchestrator) run(ctx context.Context, scanners []Scanner) (*ScanBatchResult, error) {
	result := newScanBatchResult()

	outcomes := make(chan scanOutcome, len(scanners))
	sem := make(chan struct{}, o.MaxParallel)
	var wg sync.WaitGroup

	for _, s := range scanners {
		wg.Add(1)
		go func(s Scanner) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				outcomes <- scanOutcome{scanner: s.Name(), err: ctx.Err()}
				return
			}

			scanCtx, cancel := context.WithTimeout(ctx, o.ScannerTimeout)
			defer cancel()

			start := time.Now()
			candidates, err := s.Scan(scanCtx)
			log.Printf("[Orchestrator] %s finished in %s: %d candidates, err=%v",
				s.Name(), time.Since(start).Round(time.Millisecond), len(candidates), err)
			outcomes <- scanOutcome{scanner: s.Name(), candidates: candidates, err: err}
		}(s)
	}

	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		if outcome.err != nil {
			if errors.Is(outcome.err, ErrMissingCredential) {
				// Not a failure: the source simply cannot run.
				log.Printf("[Orchestrator] %s skipped: credential missing or rejected", outcome.scanner)
			} else {
				result.Errors = append(result.Errors, ScanErrorEntry{
					Scanner: outcome.scanner,
					Error:   outcome.err.Error(),
				})
				result.sourceStats(outcome.scanner).Errors++
			}
		}
		o.persist(ctx, outcome, result)
	}

	result.CompletedAt = time.Now().UTC()
	log.Printf("[Orchestrator] Run complete: %d found, %d new, %d errors",
		result.TotalFound, result.TotalNew, len(result.Errors))
	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, outcome scanOutcome, result *ScanBatchResult) {
	for _, candidate := range outcome.candidates {
		stats := result.sourceStats(candidate.Source)
		stats.Found++
		result.TotalFound++

		exists, err := o.Store.Exists(ctx, candidate.Source, candidate.Title)
		if err != nil {
			log.Printf("[Orchestrator] Existence check failed for %q: %v", candidate.Title, err)
			stats.Errors++
			result.Errors = append(result.Errors, ScanErrorEntry{Scanner: candidate.Source, Error: err.Error()})
			continue
		}
		if exists {
			continue
		}

		opp := o.toOpportunity(candidate)
		if err := o.Store.SaveOpportunity(ctx, opp); err != nil {
			log.Printf("[Orchestrator] Failed to save %q: %v", opp.Title, err)
			stats.Errors++
			result.Errors = append(result.Errors, ScanErrorEntry{Scanner: candidate.Source, Error: err.Error()})
			continue
		}
		stats.New++
		result.TotalNew++
	}
}

func (o *Orchestrator) toOpportunity(c RawCandidate) *models.Opportunity {
	return &models.Opportunity{
		Source:           c.Source,
		Type:             c.Type,
		Title:            sanitizeUTF8(strings.TrimSpace(c.Title)),
		Description:      o.sanitizer.Sanitize(sanitizeUTF8(c.Description)),
		URL:              c.URL,
		PotentialRevenue: nonNegative(c.PotentialRevenue),
		CompetitionLevel: normalizeCompetition(c.CompetitionLevel),
		Keywords:         c.Keywords,
		Metadata:         c.Metadata,
		Score:            ScoreCandidate(c),
		Status:           models.StatusNew,
	}
}

func normalizeCompetition(level string) string {
	switch level {
	case models.CompetitionLow, models.CompetitionMedium, models.CompetitionHigh:
		return level
	}
	return models.CompetitionUnknown
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// sanitizeUTF8 removes invalid UTF-8 byte sequences that break Postgres.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
