package scan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAffiliateProduct_PotentialRevenue(t *testing.T) {
	oneOff := AffiliateProduct{Gravity: 100, Commission: 50}
	if got := oneOff.PotentialRevenue(); got != 50000 {
		t.Fatalf("expected 50000, got %v", got)
	}

	recurring := AffiliateProduct{Gravity: 100, Commission: 50, Recurring: true}
	if got := recurring.PotentialRevenue(); got != 75000 {
		t.Fatalf("expected recurring multiplier 1.5, got %v", got)
	}
}

func newTestClickBank(baseURL string) *ClickBankScanner {
	s := NewClickBankScanner("test-key", NewLimiter(), NewCache(time.Minute))
	s.BaseURL = baseURL
	return s
}

func TestClickBankScan_NoKeyIsMissingCredential(t *testing.T) {
	s := NewClickBankScanner("", NewLimiter(), NewCache(time.Minute))

	_, err := s.Scan(context.Background())
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestClickBankScan_RejectedKeyIsMissingCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := newTestClickBank(srv.URL)
	_, err := s.Scan(context.Background())
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected rejected key to map to ErrMissingCredential, got %v", err)
	}
}

func TestClickBankScan_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := newTestClickBank(srv.URL)
	candidates, err := s.Scan(context.Background())

	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("expected *ScanError alongside fallback data, got %v", err)
	}
	if scanErr.Scanner != "clickbank" {
		t.Fatalf("expected error attributed to clickbank, got %q", scanErr.Scanner)
	}
	if len(candidates) == 0 {
		t.Fatal("expected the fallback sample set")
	}
	for _, c := range candidates {
		if flagged, _ := c.Metadata["fallback"].(bool); !flagged {
			t.Fatalf("fallback candidate %q must carry metadata.fallback=true", c.Title)
		}
	}
}

func TestClickBankScan_SuccessIsCached(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"products":[{"title":"Keto Meal Plans","gravity":150.2,"commission":65,"recurring":true},{"title":"","gravity":1}]}`))
	}))
	defer srv.Close()

	s := newTestClickBank(srv.URL)
	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected the untitled product to be dropped, got %d candidates", len(candidates))
	}

	c := candidates[0]
	if c.Source != "clickbank" || c.Title != "Keto Meal Plans" {
		t.Fatalf("unexpected candidate %+v", c)
	}
	if _, flagged := c.Metadata["fallback"]; flagged {
		t.Fatal("live result must not carry the fallback flag")
	}
	if recurring, _ := c.Metadata["recurring"].(bool); !recurring {
		t.Fatal("expected recurring flag to survive mapping")
	}

	if _, err := s.Scan(context.Background()); err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected second scan to be served from cache, got %d API calls", calls)
	}
}

func TestDigistore24Scan_FallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewDigistore24Scanner("test-key", NewLimiter(), NewCache(time.Minute))
	s.BaseURL = srv.URL

	candidates, err := s.Scan(context.Background())
	var scanErr *ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("expected *ScanError, got %v", err)
	}
	if len(candidates) == 0 {
		t.Fatal("expected the fallback sample set")
	}
}

func TestDigistore24Scan_APIErrorResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":"error","message":"quota exceeded"}`))
	}))
	defer srv.Close()

	s := NewDigistore24Scanner("test-key", NewLimiter(), NewCache(time.Minute))
	s.BaseURL = srv.URL

	candidates, err := s.Scan(context.Background())
	if err == nil {
		t.Fatal("expected an error for a failed API result")
	}
	if len(candidates) == 0 {
		t.Fatal("a soft API error should still fall back to samples")
	}
}

func TestFallbackDatasets_ProduceValidCandidates(t *testing.T) {
	for _, tc := range []struct {
		source   string
		products []AffiliateProduct
	}{
		{source: "clickbank", products: ClickBankSamples()},
		{source: "digistore24", products: Digistore24Samples()},
	} {
		if len(tc.products) == 0 {
			t.Fatalf("%s sample set is empty", tc.source)
		}
		for _, p := range tc.products {
			if p.Title == "" {
				t.Fatalf("%s sample with empty title", tc.source)
			}
			c := p.toCandidate(tc.source, true)
			score := ScoreCandidate(c)
			if score < 0 || score > 100 {
				t.Fatalf("%s sample %q scored out of range: %d", tc.source, p.Title, score)
			}
		}
	}
}
