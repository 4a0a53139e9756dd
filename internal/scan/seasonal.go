package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

const seasonalStepDays = 7

// SeasonalScanner walks a lookahead window over the static calendar and
// emits a candidate per pattern-month and per upcoming holiday. Purely
// local: no network, no credentials, no rate limiting.
type SeasonalScanner struct {
	LookAheadDays int
	Patterns      []SeasonalPattern
	Holidays      []HolidayEvent

	// now is overridable in tests; defaults to time.Now.
	now func() time.Time
}

func NewSeasonalScanner(tun Tunables) *SeasonalScanner {
	return &SeasonalScanner{
		LookAheadDays: tun.lookAheadDays(),
		Patterns:      seasonalPatterns,
		Holidays:      holidayEvents,
		now:           time.Now,
	}
}

func (s *SeasonalScanner) Name() string { return "seasonal" }

func (s *SeasonalScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	horizon := now.AddDate(0, 0, s.LookAheadDays)

	var candidates []RawCandidate
	seen := make(map[string]bool)

	for step := now; step.Before(horizon); step = step.AddDate(0, 0, seasonalStepDays) {
		month := step.Month()
		monthStart := time.Date(step.Year(), month, 1, 0, 0, 0, 0, time.UTC)

		for _, p := range s.Patterns {
			if !p.ActiveIn(month) {
				continue
			}
			key := dedupeKey(p.Name, monthStart)
			if seen[key] {
				continue
			}
			seen[key] = true
			candidates = append(candidates, patternCandidate(s.Name(), p, monthStart))
		}
	}

	for _, h := range s.Holidays {
		date := h.DateIn(now.Year())
		if date.Before(now) {
			date = h.DateIn(now.Year() + 1)
		}
		if date.After(horizon) {
			continue
		}
		prepStart := date.AddDate(0, 0, -h.LeadDays)
		key := dedupeKey(h.Name, prepStart)
		if seen[key] {
			continue
		}
		seen[key] = true
		candidates = append(candidates, holidayCandidate(s.Name(), h, date, now))
	}

	log.Printf("[Seasonal] %d calendar candidates within %d days", len(candidates), s.LookAheadDays)
	return candidates, nil
}

func dedupeKey(title string, startDate time.Time) string {
	return title + "|" + startDate.Format("2006-01-02")
}

func patternCandidate(source string, p SeasonalPattern, monthStart time.Time) RawCandidate {
	return RawCandidate{
		Source: source,
		Type:   models.TypeSeasonalPattern,
		Title:  fmt.Sprintf("%s (%s)", p.Name, monthStart.Format("January 2006")),
		Description: fmt.Sprintf("%s demand pattern is active in %s. Historically converts %.0f%% of years.",
			p.Name, monthStart.Format("January"), p.HistoricalPerformance*100),
		PotentialRevenue: p.EstimatedRevenue,
		CompetitionLevel: p.CompetitionLevel,
		Keywords:         p.Keywords,
		Metadata: map[string]interface{}{
			"seasonality":            "monthly_pattern",
			"category":               p.Category,
			"base_score":             p.BaseScore,
			"historical_performance": p.HistoricalPerformance,
			"peak_month":             p.IsPeak(monthStart.Month()),
			"start_date":             monthStart.Format("2006-01-02"),
		},
	}
}

func holidayCandidate(source string, h HolidayEvent, date, now time.Time) RawCandidate {
	daysUntil := int(date.Sub(now).Hours() / 24)
	return RawCandidate{
		Source: source,
		Type:   models.TypeHolidaySeasonal,
		Title:  fmt.Sprintf("%s %d", h.Name, date.Year()),
		Description: fmt.Sprintf("%s lands on %s (%d days out). Preparation window opens %d days ahead.",
			h.Name, date.Format("January 2"), daysUntil, h.LeadDays),
		PotentialRevenue: h.EstimatedRevenue,
		CompetitionLevel: h.CompetitionLevel,
		Keywords:         h.Keywords,
		Metadata: map[string]interface{}{
			"seasonality":            "holiday",
			"category":               h.Category,
			"base_score":             h.BaseScore,
			"historical_performance": h.HistoricalPerformance,
			"peak_month":             daysUntil <= h.LeadDays,
			"start_date":             date.AddDate(0, 0, -h.LeadDays).Format("2006-01-02"),
			"event_date":             date.Format("2006-01-02"),
			"days_until":             daysUntil,
		},
	}
}
