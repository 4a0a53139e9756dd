package scan

import (
	"math"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// ScoreCandidate maps a raw candidate's attributes to a 0-100 priority
// score. Pure and deterministic: the same input always yields the same
// score. Computed exactly once, at ingestion time; never mutated after.
func ScoreCandidate(c RawCandidate) int {
	switch c.Type {
	case models.TypeSeasonalPattern, models.TypeHolidaySeasonal:
		return scoreSeasonal(c)
	case models.TypeMarketTiming:
		return scoreTiming(c)
	case models.TypeTrendingTopic:
		return scoreTrend(c)
	default:
		return scoreAffiliate(c)
	}
}

// scoreAffiliate is the canonical marketplace formula. Values and
// thresholds are load-bearing; downstream dashboards rank by them.
func scoreAffiliate(c RawCandidate) int {
	score := 50

	score += revenueBonus(c.PotentialRevenue)
	score += competitionAdjustment(c.CompetitionLevel)

	if gravity, ok := metaFloat(c.Metadata, "gravity"); ok {
		switch {
		case gravity > 200:
			score += 20
		case gravity > 100:
			score += 15
		case gravity > 50:
			score += 10
		}
	}

	if commission, ok := metaFloat(c.Metadata, "commission_rate"); ok {
		switch {
		case commission > 60:
			score += 15
		case commission > 40:
			score += 10
		case commission > 20:
			score += 5
		}
	}

	if recurring, ok := c.Metadata["recurring"].(bool); ok && recurring {
		score += 15
	}

	return clampScore(score)
}

func scoreSeasonal(c RawCandidate) int {
	score := 50
	if base, ok := metaFloat(c.Metadata, "base_score"); ok {
		score = int(base)
	}

	if historical, ok := metaFloat(c.Metadata, "historical_performance"); ok {
		score += int(math.Round(historical * 20))
	}
	score += competitionAdjustment(c.CompetitionLevel)

	if peak, ok := c.Metadata["peak_month"].(bool); ok && peak {
		score += 20
	}

	return clampScore(score)
}

func scoreTrend(c RawCandidate) int {
	score := 50

	score += revenueBonus(c.PotentialRevenue)
	score += competitionAdjustment(c.CompetitionLevel)

	if velocity, ok := metaFloat(c.Metadata, "trend_velocity"); ok {
		switch {
		case velocity > 1:
			score += 20
		case velocity > 0.5:
			score += 15
		case velocity >= 0.2:
			score += 10
		}
	}

	return clampScore(score)
}

func scoreTiming(c RawCandidate) int {
	// Market-activity windows score off the composite activity figure;
	// dated events score off impact x timing bonus.
	if activity, ok := metaFloat(c.Metadata, "activity"); ok {
		return clampScore(int(math.Round(activity * 100)))
	}

	impact, _ := metaFloat(c.Metadata, "impact")
	bonus, ok := metaFloat(c.Metadata, "timing_bonus")
	if !ok {
		bonus = 1
	}
	return clampScore(int(math.Round(impact * bonus)))
}

func revenueBonus(revenue float64) int {
	switch {
	case revenue > 10000:
		return 30
	case revenue > 5000:
		return 20
	case revenue > 1000:
		return 10
	}
	return 0
}

func competitionAdjustment(level string) int {
	switch level {
	case models.CompetitionLow:
		return 20
	case models.CompetitionMedium:
		return 10
	case models.CompetitionHigh:
		return 5
	}
	return 0
}

func clampScore(score int) int {
	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// metaFloat reads a numeric metadata value. Values round-tripped through
// JSON arrive as float64, values set in code may be int.
func metaFloat(meta map[string]interface{}, key string) (float64, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
