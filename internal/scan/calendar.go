package scan

import (
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

// Static, code-configured calendar reference data. Read-only at runtime.

// SeasonalPattern is a recurring demand pattern spanning one or more months.
type SeasonalPattern struct {
	Name                  string
	Category              string
	Months                []time.Month
	PeakMonths            []time.Month
	BaseScore             int
	HistoricalPerformance float64 // 0..1, share of years the pattern converted
	CompetitionLevel      string
	EstimatedRevenue      float64
	Keywords              []string
}

func (p SeasonalPattern) ActiveIn(m time.Month) bool {
	for _, month := range p.Months {
		if month == m {
			return true
		}
	}
	return false
}

func (p SeasonalPattern) IsPeak(m time.Month) bool {
	for _, month := range p.PeakMonths {
		if month == m {
			return true
		}
	}
	return false
}

// HolidayEvent is a single calendar date with a preparation lead window.
type HolidayEvent struct {
	Name                  string
	Category              string
	BaseScore             int
	HistoricalPerformance float64
	CompetitionLevel      string
	EstimatedRevenue      float64
	Keywords              []string
	LeadDays              int
	date                  func(year int) time.Time
}

// DateIn resolves the holiday's date for a given year.
func (e HolidayEvent) DateIn(year int) time.Time {
	return e.date(year)
}

// MarketEvent is a dated high-impact event the timing optimizer watches.
type MarketEvent struct {
	Name   string
	Kind   string // "economic", "earnings", "shopping", "marketing"
	Impact int    // 0..100
	date   func(year int) time.Time
}

func (e MarketEvent) DateIn(year int) time.Time {
	return e.date(year)
}

func fixedDate(month time.Month, day int) func(int) time.Time {
	return func(year int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}
}

// nthWeekdayOf returns the nth given weekday of a month (n starts at 1).
func nthWeekdayOf(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(t.Weekday()) + 7) % 7
	return t.AddDate(0, 0, offset+(n-1)*7)
}

var seasonalPatterns = []SeasonalPattern{
	{
		Name:                  "New Year Fitness Resolutions",
		Category:              "health",
		Months:                []time.Month{time.January, time.February},
		PeakMonths:            []time.Month{time.January},
		BaseScore:             55,
		HistoricalPerformance: 0.85,
		CompetitionLevel:      models.CompetitionHigh,
		EstimatedRevenue:      8500,
		Keywords:              []string{"fitness", "weight loss", "home workout"},
	},
	{
		Name:                  "Tax Season Software",
		Category:              "finance",
		Months:                []time.Month{time.January, time.February, time.March, time.April},
		PeakMonths:            []time.Month{time.March, time.April},
		BaseScore:             50,
		HistoricalPerformance: 0.9,
		CompetitionLevel:      models.CompetitionMedium,
		EstimatedRevenue:      12000,
		Keywords:              []string{"tax software", "tax filing", "deductions"},
	},
	{
		Name:                  "Spring Gardening",
		Category:              "home-garden",
		Months:                []time.Month{time.March, time.April, time.May},
		PeakMonths:            []time.Month{time.April},
		BaseScore:             45,
		HistoricalPerformance: 0.7,
		CompetitionLevel:      models.CompetitionLow,
		EstimatedRevenue:      4200,
		Keywords:              []string{"gardening", "raised beds", "seeds"},
	},
	{
		Name:                  "Summer Travel Gear",
		Category:              "travel",
		Months:                []time.Month{time.May, time.June, time.July, time.August},
		PeakMonths:            []time.Month{time.June, time.July},
		BaseScore:             50,
		HistoricalPerformance: 0.75,
		CompetitionLevel:      models.CompetitionMedium,
		EstimatedRevenue:      7800,
		Keywords:              []string{"travel gear", "luggage", "vacation"},
	},
	{
		Name:                  "Back to School Supplies",
		Category:              "education",
		Months:                []time.Month{time.July, time.August, time.September},
		PeakMonths:            []time.Month{time.August},
		BaseScore:             55,
		HistoricalPerformance: 0.88,
		CompetitionLevel:      models.CompetitionHigh,
		EstimatedRevenue:      9600,
		Keywords:              []string{"school supplies", "laptops", "backpacks"},
	},
	{
		Name:                  "Holiday Shopping Season",
		Category:              "ecommerce",
		Months:                []time.Month{time.October, time.November, time.December},
		PeakMonths:            []time.Month{time.November, time.December},
		BaseScore:             60,
		HistoricalPerformance: 0.95,
		CompetitionLevel:      models.CompetitionHigh,
		EstimatedRevenue:      22000,
		Keywords:              []string{"gift guide", "holiday deals", "christmas shopping"},
	},
}

var holidayEvents = []HolidayEvent{
	{
		Name:                  "Valentine's Day",
		Category:              "gifts",
		BaseScore:             50,
		HistoricalPerformance: 0.8,
		CompetitionLevel:      models.CompetitionMedium,
		EstimatedRevenue:      5400,
		Keywords:              []string{"valentines gifts", "jewelry", "flowers"},
		LeadDays:              21,
		date:                  fixedDate(time.February, 14),
	},
	{
		Name:                  "Mother's Day",
		Category:              "gifts",
		BaseScore:             55,
		HistoricalPerformance: 0.85,
		CompetitionLevel:      models.CompetitionMedium,
		EstimatedRevenue:      6800,
		Keywords:              []string{"mothers day gifts", "personalized gifts"},
		LeadDays:              28,
		date: func(year int) time.Time {
			return nthWeekdayOf(year, time.May, time.Sunday, 2)
		},
	},
	{
		Name:                  "Halloween",
		Category:              "seasonal",
		BaseScore:             45,
		HistoricalPerformance: 0.7,
		CompetitionLevel:      models.CompetitionLow,
		EstimatedRevenue:      3900,
		Keywords:              []string{"costumes", "halloween decor"},
		LeadDays:              35,
		date:                  fixedDate(time.October, 31),
	},
	{
		Name:                  "Black Friday",
		Category:              "ecommerce",
		BaseScore:             65,
		HistoricalPerformance: 0.97,
		CompetitionLevel:      models.CompetitionHigh,
		EstimatedRevenue:      18500,
		Keywords:              []string{"black friday deals", "doorbusters"},
		LeadDays:              42,
		date: func(year int) time.Time {
			// Day after the fourth Thursday of November
			return nthWeekdayOf(year, time.November, time.Thursday, 4).AddDate(0, 0, 1)
		},
	},
	{
		Name:                  "Christmas",
		Category:              "gifts",
		BaseScore:             60,
		HistoricalPerformance: 0.95,
		CompetitionLevel:      models.CompetitionHigh,
		EstimatedRevenue:      21000,
		Keywords:              []string{"christmas gifts", "stocking stuffers"},
		LeadDays:              49,
		date:                  fixedDate(time.December, 25),
	},
}

var marketEvents = []MarketEvent{
	{Name: "Q1 earnings season opens", Kind: "earnings", Impact: 70, date: fixedDate(time.January, 15)},
	{Name: "Q2 earnings season opens", Kind: "earnings", Impact: 70, date: fixedDate(time.April, 15)},
	{Name: "Q3 earnings season opens", Kind: "earnings", Impact: 70, date: fixedDate(time.July, 15)},
	{Name: "Q4 earnings season opens", Kind: "earnings", Impact: 75, date: fixedDate(time.October, 15)},
	{Name: "US tax filing deadline", Kind: "economic", Impact: 65, date: fixedDate(time.April, 15)},
	{Name: "Amazon Prime Day", Kind: "shopping", Impact: 85, date: fixedDate(time.July, 16)},
	{Name: "Singles' Day", Kind: "shopping", Impact: 80, date: fixedDate(time.November, 11)},
	{
		Name: "Black Friday weekend", Kind: "shopping", Impact: 95,
		date: func(year int) time.Time {
			return nthWeekdayOf(year, time.November, time.Thursday, 4).AddDate(0, 0, 1)
		},
	},
	{
		Name: "Cyber Monday", Kind: "shopping", Impact: 90,
		date: func(year int) time.Time {
			return nthWeekdayOf(year, time.November, time.Thursday, 4).AddDate(0, 0, 4)
		},
	},
	{Name: "New Year campaign window", Kind: "marketing", Impact: 60, date: fixedDate(time.January, 1)},
	{Name: "Back to school campaign window", Kind: "marketing", Impact: 55, date: fixedDate(time.August, 1)},
}
