package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// AffiliateProduct is the normalized marketplace product shape shared by
// the affiliate scanners and their fallback datasets.
type AffiliateProduct struct {
	Title       string
	Description string
	URL         string
	Vendor      string
	Category    string
	Gravity     float64
	Commission  float64
	Recurring   bool
}

// FallbackProvider supplies the static sample set an affiliate scanner
// returns when the live marketplace call fails. Injected so tests can
// force the fallback path deterministically.
type FallbackProvider func() []AffiliateProduct

// PotentialRevenue estimates monthly revenue for an affiliate product.
// The commission x gravity x recurring x 10 formula is a legacy heuristic
// kept for compatibility; do not extend it.
func (p AffiliateProduct) PotentialRevenue() float64 {
	mult := 1.0
	if p.Recurring {
		mult = 1.5
	}
	return p.Commission * p.Gravity * mult * 10
}

func (p AffiliateProduct) toCandidate(source string, fallback bool) RawCandidate {
	meta := map[string]interface{}{
		"gravity":         p.Gravity,
		"commission_rate": p.Commission,
		"recurring":       p.Recurring,
		"vendor":          p.Vendor,
	}
	if fallback {
		meta["fallback"] = true
	}
	keywords := []string{"affiliate"}
	if p.Category != "" {
		keywords = append(keywords, p.Category)
	}
	return RawCandidate{
		Source:           source,
		Type:             models.TypeAffiliate,
		Title:            p.Title,
		Description:      p.Description,
		URL:              p.URL,
		PotentialRevenue: p.PotentialRevenue(),
		CompetitionLevel: models.CompetitionUnknown,
		Keywords:         keywords,
		Metadata:         meta,
	}
}

// ClickBankScanner fetches top marketplace products from the ClickBank API.
type ClickBankScanner struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Limiter  *Limiter
	Cache    *Cache
	Fallback FallbackProvider
}

func NewClickBankScanner(apiKey string, limiter *Limiter, cache *Cache) *ClickBankScanner {
	return &ClickBankScanner{
		APIKey:   apiKey,
		BaseURL:  "https://api.clickbank.com/rest/1.3/products/list",
		Client:   &http.Client{Timeout: 30 * time.Second},
		Limiter:  limiter,
		Cache:    cache,
		Fallback: ClickBankSamples,
	}
}

func (s *ClickBankScanner) Name() string { return "clickbank" }

type clickBankProduct struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	HopLink        string  `json:"hopLink"`
	Vendor         string  `json:"vendor"`
	Category       string  `json:"category"`
	Gravity        float64 `json:"gravity"`
	Commission     float64 `json:"commission"`
	Recurring      bool    `json:"recurring"`
	AvgRebillTotal float64 `json:"averageRebillTotal"`
}

type clickBankResponse struct {
	Products []clickBankProduct `json:"products"`
}

func (s *ClickBankScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if s.APIKey == "" {
		return nil, ErrMissingCredential
	}

	if cached, ok := s.Cache.Get(s.Name(), "top_products"); ok {
		if candidates, ok := cached.([]RawCandidate); ok {
			log.Printf("[ClickBank] Cache hit, %d candidates", len(candidates))
			return candidates, nil
		}
	}

	if err := s.Limiter.Wait(ctx, s.Name()); err != nil {
		return nil, err
	}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		if err == ErrMissingCredential {
			return nil, err
		}
		// Transient failure: serve the flagged sample set so a demo run
		// never comes back empty, but still surface the error.
		log.Printf("[ClickBank] Live fetch failed, using fallback dataset: %v", err)
		candidates := productsToCandidates(s.Name(), s.Fallback(), true)
		return candidates, &ScanError{Scanner: s.Name(), Err: err}
	}

	candidates := productsToCandidates(s.Name(), products, false)
	s.Cache.Set(s.Name(), "top_products", candidates)
	log.Printf("[ClickBank] Got %d products", len(candidates))
	return candidates, nil
}

func (s *ClickBankScanner) fetchProducts(ctx context.Context) ([]AffiliateProduct, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.BaseURL+"?sortField=gravity&resultsPerPage=25", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", s.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrMissingCredential
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp clickBankResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	products := make([]AffiliateProduct, 0, len(apiResp.Products))
	for _, rec := range apiResp.Products {
		if rec.Title == "" {
			continue
		}
		products = append(products, AffiliateProduct{
			Title:       rec.Title,
			Description: rec.Description,
			URL:         rec.HopLink,
			Vendor:      rec.Vendor,
			Category:    rec.Category,
			Gravity:     rec.Gravity,
			Commission:  rec.Commission,
			Recurring:   rec.Recurring,
		})
	}
	return products, nil
}

// Digistore24Scanner fetches top products from the Digistore24 API.
type Digistore24Scanner struct {
	APIKey   string
	BaseURL  string
	Client   *http.Client
	Limiter  *Limiter
	Cache    *Cache
	Fallback FallbackProvider
}

func NewDigistore24Scanner(apiKey string, limiter *Limiter, cache *Cache) *Digistore24Scanner {
	return &Digistore24Scanner{
		APIKey:   apiKey,
		BaseURL:  "https://www.digistore24.com/api/call/listProducts",
		Client:   &http.Client{Timeout: 30 * time.Second},
		Limiter:  limiter,
		Cache:    cache,
		Fallback: Digistore24Samples,
	}
}

func (s *Digistore24Scanner) Name() string { return "digistore24" }

type digistoreProduct struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	SalesPageURL      string  `json:"salespage_url"`
	VendorID          string  `json:"vendor_id"`
	Category          string  `json:"category"`
	SalesRank         float64 `json:"sales_rank"`
	CommissionPercent float64 `json:"commission_percent"`
	IsSubscription    bool    `json:"is_subscription"`
}

type digistoreResponse struct {
	Result string `json:"result"`
	Data   struct {
		Products []digistoreProduct `json:"products"`
	} `json:"data"`
	Message string `json:"message"`
}

func (s *Digistore24Scanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if s.APIKey == "" {
		return nil, ErrMissingCredential
	}

	if cached, ok := s.Cache.Get(s.Name(), "top_products"); ok {
		if candidates, ok := cached.([]RawCandidate); ok {
			log.Printf("[Digistore24] Cache hit, %d candidates", len(candidates))
			return candidates, nil
		}
	}

	if err := s.Limiter.Wait(ctx, s.Name()); err != nil {
		return nil, err
	}

	products, err := s.fetchProducts(ctx)
	if err != nil {
		if err == ErrMissingCredential {
			return nil, err
		}
		log.Printf("[Digistore24] Live fetch failed, using fallback dataset: %v", err)
		candidates := productsToCandidates(s.Name(), s.Fallback(), true)
		return candidates, &ScanError{Scanner: s.Name(), Err: err}
	}

	candidates := productsToCandidates(s.Name(), products, false)
	s.Cache.Set(s.Name(), "top_products", candidates)
	log.Printf("[Digistore24] Got %d products", len(candidates))
	return candidates, nil
}

func (s *Digistore24Scanner) fetchProducts(ctx context.Context) ([]AffiliateProduct, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", s.BaseURL+"?sort_by=sales_rank&page_size=25", nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-DS-API-KEY", s.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrMissingCredential
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp digistoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if apiResp.Result != "" && apiResp.Result != "success" {
		return nil, fmt.Errorf("API error: %s", apiResp.Message)
	}

	products := make([]AffiliateProduct, 0, len(apiResp.Data.Products))
	for _, rec := range apiResp.Data.Products {
		if rec.Name == "" {
			continue
		}
		products = append(products, AffiliateProduct{
			Title:       rec.Name,
			Description: rec.Description,
			URL:         rec.SalesPageURL,
			Vendor:      rec.VendorID,
			Category:    rec.Category,
			Gravity:     rec.SalesRank,
			Commission:  rec.CommissionPercent,
			Recurring:   rec.IsSubscription,
		})
	}
	return products, nil
}

func productsToCandidates(source string, products []AffiliateProduct, fallback bool) []RawCandidate {
	candidates := make([]RawCandidate, 0, len(products))
	for _, p := range products {
		candidates = append(candidates, p.toCandidate(source, fallback))
	}
	return candidates
}
