package scan

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

const (
	weekendDampening = 0.3
	holidayDampening = 0.2
	eventHorizonDays = 30
)

// marketZone is one regional trading/business window sampled for the
// global activity composite.
type marketZone struct {
	Location  string
	OpenHour  int // local, inclusive
	CloseHour int // local, exclusive
	Weight    float64
}

var defaultMarketZones = []marketZone{
	{Location: "America/New_York", OpenHour: 9, CloseHour: 17, Weight: 0.3},
	{Location: "Europe/London", OpenHour: 8, CloseHour: 16, Weight: 0.25},
	{Location: "Europe/Berlin", OpenHour: 9, CloseHour: 17, Weight: 0.15},
	{Location: "Asia/Tokyo", OpenHour: 9, CloseHour: 15, Weight: 0.2},
	{Location: "Australia/Sydney", OpenHour: 10, CloseHour: 16, Weight: 0.1},
}

// TimingScanner rates the current launch window from cross-timezone market
// activity and enumerates upcoming high-impact calendar events.
type TimingScanner struct {
	Zones  []marketZone
	Events []MarketEvent

	now func() time.Time
}

func NewTimingScanner() *TimingScanner {
	return &TimingScanner{
		Zones:  defaultMarketZones,
		Events: marketEvents,
		now:    time.Now,
	}
}

func (s *TimingScanner) Name() string { return "timing" }

func (s *TimingScanner) Scan(ctx context.Context) ([]RawCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	activity := s.globalActivity(now)

	candidates := []RawCandidate{s.activityCandidate(now, activity)}

	for _, e := range s.Events {
		date := e.DateIn(now.Year())
		if date.Before(now) {
			date = e.DateIn(now.Year() + 1)
		}
		daysUntil := int(date.Sub(now).Hours() / 24)
		if daysUntil > eventHorizonDays {
			continue
		}
		candidates = append(candidates, eventCandidate(s.Name(), e, date, daysUntil))
	}

	log.Printf("[Timing] Market activity %.2f, %d candidates", activity, len(candidates))
	return candidates, nil
}

// globalActivity is the weighted share of configured market zones whose
// business hours contain the given instant, dampened on weekends and
// holidays.
func (s *TimingScanner) globalActivity(now time.Time) float64 {
	var open, total float64
	for _, zone := range s.Zones {
		total += zone.Weight
		loc, err := time.LoadLocation(zone.Location)
		if err != nil {
			continue
		}
		local := now.In(loc)
		if local.Hour() >= zone.OpenHour && local.Hour() < zone.CloseHour {
			open += zone.Weight
		}
	}
	if total == 0 {
		return 0
	}

	activity := open / total
	if isWeekend(now) {
		activity *= weekendDampening
	}
	if isCalendarHoliday(now) {
		activity *= holidayDampening
	}
	return activity
}

func isWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func isCalendarHoliday(t time.Time) bool {
	for _, h := range holidayEvents {
		d := h.DateIn(t.Year())
		if d.Month() == t.Month() && d.Day() == t.Day() {
			return true
		}
	}
	return false
}

// timingBonus peaks when an event is 7-21 days away: close enough to
// matter, far enough to prepare for.
func timingBonus(daysUntil int) float64 {
	switch {
	case daysUntil < 0:
		return 0
	case daysUntil >= 7 && daysUntil <= 21:
		return 1.0
	case daysUntil > 21:
		return 0.8
	default:
		return 0.6
	}
}

func (s *TimingScanner) activityCandidate(now time.Time, activity float64) RawCandidate {
	level := "quiet"
	switch {
	case activity >= 0.7:
		level = "peak"
	case activity >= 0.4:
		level = "active"
	}

	return RawCandidate{
		Source: s.Name(),
		Type:   models.TypeMarketTiming,
		Title:  fmt.Sprintf("Global market window %s", now.Format("2006-01-02")),
		Description: fmt.Sprintf("Cross-timezone market activity is %s (%.0f%%) right now. Weekend and holiday dampening applied where relevant.",
			level, activity*100),
		CompetitionLevel: models.CompetitionUnknown,
		Keywords:         []string{"market timing", "launch window"},
		Metadata: map[string]interface{}{
			"activity": activity,
			"weekend":  isWeekend(now),
			"holiday":  isCalendarHoliday(now),
		},
	}
}

func eventCandidate(source string, e MarketEvent, date time.Time, daysUntil int) RawCandidate {
	bonus := timingBonus(daysUntil)
	return RawCandidate{
		Source: source,
		Type:   models.TypeMarketTiming,
		Title:  fmt.Sprintf("%s (%s)", e.Name, date.Format("2006-01-02")),
		Description: fmt.Sprintf("%s event in %d days. Launch campaigns targeting it should already be in flight when it lands.",
			e.Kind, daysUntil),
		CompetitionLevel: models.CompetitionUnknown,
		Keywords:         []string{e.Kind, "market timing"},
		Metadata: map[string]interface{}{
			"impact":       e.Impact,
			"event_kind":   e.Kind,
			"event_date":   date.Format("2006-01-02"),
			"days_until":   daysUntil,
			"timing_bonus": bonus,
		},
	}
}
