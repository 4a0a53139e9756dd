package models

import (
	"time"

	"github.com/google/uuid"
)

// Opportunity status lifecycle. The core always writes "new"; the dashboard
// is the only thing that moves a record to reviewed/archived.
const (
	StatusNew      = "new"
	StatusReviewed = "reviewed"
	StatusArchived = "archived"
)

// Competition levels, ordered from easiest to hardest to enter.
const (
	CompetitionLow     = "low"
	CompetitionMedium  = "medium"
	CompetitionHigh    = "high"
	CompetitionUnknown = "unknown"
)

// Opportunity types emitted by the scanners.
const (
	TypeAffiliate       = "affiliate"
	TypeTrendingTopic   = "trending_topic"
	TypeSeasonalPattern = "seasonal_pattern"
	TypeHolidaySeasonal = "holiday_seasonal"
	TypeMarketTiming    = "market_timing"
)

type Opportunity struct {
	ID               uuid.UUID              `json:"id"`
	Source           string                 `json:"source"`
	Type             string                 `json:"type"`
	Title            string                 `json:"title"`
	Description      string                 `json:"description"`
	URL              string                 `json:"url"`
	PotentialRevenue float64                `json:"potential_revenue"`
	CompetitionLevel string                 `json:"competition_level"`
	Keywords         []string               `json:"keywords"`
	Metadata         map[string]interface{} `json:"metadata"`
	Score            int                    `json:"score"`
	Status           string                 `json:"status"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusReviewed, StatusArchived:
		return true
	}
	return false
}
