package scan

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// MarketplaceHTMLScanner scrapes a public bestseller listing page for
// affiliate products that have no API. Configured with a seed URL; absence
// of the URL disables the scanner.
type MarketplaceHTMLScanner struct {
	SeedURL string
	Limiter *Limiter
	Cache   *Cache
	Timeout time.Duration
}

func NewMarketplaceHTMLScanner(seedURL string, limiter *Limiter, cache *Cache) *MarketplaceHTMLScanner {
	return &MarketplaceHTMLScanner{
		SeedURL: seedURL,
		Limiter: limiter,
		Cache:   cache,
		Timeout: 30 * time.Second,
	}
}

func (s *MarketplaceHTMLScanner) Name() string { return "marketplace_html" }

func (s *MarketplaceHTMLScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if s.SeedURL == "" {
		return nil, ErrMissingCredential
	}

	if cached, ok := s.Cache.Get(s.Name(), s.SeedURL); ok {
		if candidates, ok := cached.([]RawCandidate); ok {
			log.Printf("[MarketplaceHTML] Cache hit, %d candidates", len(candidates))
			return candidates, nil
		}
	}

	if err := s.Limiter.Wait(ctx, s.Name()); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		colly.MaxDepth(1),
	)
	c.SetRequestTimeout(s.Timeout)

	var candidates []RawCandidate
	var scrapeErr error

	c.OnHTML("div.product-card, li.marketplace-item, tr.product-row", func(e *colly.HTMLElement) {
		candidate, ok := extractProductCard(e.DOM, e.Request.AbsoluteURL)
		if !ok {
			return
		}
		candidate.Source = s.Name()
		candidates = append(candidates, candidate)
	})

	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = fmt.Errorf("fetching %s: %w", r.Request.URL, err)
	})

	if err := c.Visit(s.SeedURL); err != nil {
		scrapeErr = err
	}
	c.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scrapeErr != nil {
		return nil, &ScanError{Scanner: s.Name(), Err: scrapeErr}
	}

	s.Cache.Set(s.Name(), s.SeedURL, candidates)
	log.Printf("[MarketplaceHTML] Extracted %d products from %s", len(candidates), s.SeedURL)
	return candidates, nil
}

// extractProductCard pulls one product out of a listing card. The resolve
// callback turns relative hrefs into absolute URLs.
func extractProductCard(sel *goquery.Selection, resolve func(string) string) (RawCandidate, bool) {
	title := strings.TrimSpace(sel.Find(".product-title, h3, h2").First().Text())
	if title == "" {
		return RawCandidate{}, false
	}

	href, _ := sel.Find("a").First().Attr("href")
	description := strings.TrimSpace(sel.Find(".product-description, p").First().Text())

	meta := map[string]interface{}{}
	if gravity, ok := parseCardNumber(sel.Find(".gravity, .popularity").First().Text()); ok {
		meta["gravity"] = gravity
	}
	if commission, ok := parseCardNumber(sel.Find(".commission, .commission-rate").First().Text()); ok {
		meta["commission_rate"] = commission
	}

	revenue := 0.0
	gravity, hasGravity := metaFloat(meta, "gravity")
	commission, hasCommission := metaFloat(meta, "commission_rate")
	if hasGravity && hasCommission {
		revenue = AffiliateProduct{Gravity: gravity, Commission: commission}.PotentialRevenue()
	}

	return RawCandidate{
		Type:             models.TypeAffiliate,
		Title:            title,
		Description:      description,
		URL:              resolve(href),
		PotentialRevenue: revenue,
		CompetitionLevel: models.CompetitionUnknown,
		Keywords:         []string{"affiliate"},
		Metadata:         meta,
	}, true
}

// parseCardNumber reads the first numeric token out of listing text like
// "Gravity: 120.5" or "75% commission".
func parseCardNumber(text string) (float64, bool) {
	for _, field := range strings.Fields(text) {
		cleaned := strings.TrimFunc(field, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.'
		})
		if cleaned == "" {
			continue
		}
		if v, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
