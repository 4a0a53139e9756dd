package scan

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestTimingBonus(t *testing.T) {
	tests := []struct {
		daysUntil int
		want      float64
	}{
		{daysUntil: -1, want: 0},
		{daysUntil: 0, want: 0.6},
		{daysUntil: 6, want: 0.6},
		{daysUntil: 7, want: 1.0},
		{daysUntil: 14, want: 1.0},
		{daysUntil: 21, want: 1.0},
		{daysUntil: 22, want: 0.8},
		{daysUntil: 60, want: 0.8},
	}

	for _, tc := range tests {
		if got := timingBonus(tc.daysUntil); got != tc.want {
			t.Fatalf("daysUntil %d: expected %v, got %v", tc.daysUntil, tc.want, got)
		}
	}
}

func newTestTimingScanner(now time.Time) *TimingScanner {
	s := NewTimingScanner()
	s.now = func() time.Time { return now }
	return s
}

func utcZone(weight float64) marketZone {
	return marketZone{Location: "UTC", OpenHour: 0, CloseHour: 24, Weight: weight}
}

func TestGlobalActivity_WeekendDampening(t *testing.T) {
	s := NewTimingScanner()
	s.Zones = []marketZone{utcZone(1)}

	// Wed Mar 11 2026 vs Sat Mar 14 2026, same time of day.
	weekday := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	saturday := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	if got := s.globalActivity(weekday); got != 1.0 {
		t.Fatalf("expected full activity on a weekday, got %v", got)
	}
	if got := s.globalActivity(saturday); got != 0.3 {
		t.Fatalf("expected weekend dampening to 0.3, got %v", got)
	}
}

func TestGlobalActivity_HolidayDampening(t *testing.T) {
	s := NewTimingScanner()
	s.Zones = []marketZone{utcZone(1)}

	// Christmas 2026 falls on a Friday, so only the holiday factor applies.
	christmas := time.Date(2026, 12, 25, 12, 0, 0, 0, time.UTC)
	if got := s.globalActivity(christmas); got != 0.2 {
		t.Fatalf("expected holiday dampening to 0.2, got %v", got)
	}
}

func TestGlobalActivity_ClosedZonesReduceShare(t *testing.T) {
	s := NewTimingScanner()
	s.Zones = []marketZone{
		{Location: "UTC", OpenHour: 0, CloseHour: 12, Weight: 0.5},
		{Location: "UTC", OpenHour: 12, CloseHour: 24, Weight: 0.5},
	}

	morning := time.Date(2026, 3, 11, 6, 0, 0, 0, time.UTC)
	if got := s.globalActivity(morning); got != 0.5 {
		t.Fatalf("expected half the weighted zones open, got %v", got)
	}
}

func TestTimingScan_EmitsActivityAndNearbyEvents(t *testing.T) {
	// Nov 1 2026: Singles' Day (Nov 11), Black Friday weekend (Nov 27) and
	// Cyber Monday (Nov 30) are all inside the 30-day horizon.
	now := time.Date(2026, 11, 2, 12, 0, 0, 0, time.UTC)
	s := newTestTimingScanner(now)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	activity := findCandidate(t, candidates, "Global market window 2026-11-02")
	if _, ok := metaFloat(activity.Metadata, "activity"); !ok {
		t.Fatal("activity candidate must carry the composite figure")
	}

	singles := findCandidate(t, candidates, "Singles' Day (2026-11-11)")
	if bonus, _ := metaFloat(singles.Metadata, "timing_bonus"); bonus != 1.0 {
		t.Fatalf("8 days out should be the peak window, got bonus %v", bonus)
	}

	blackFriday := findCandidate(t, candidates, "Black Friday weekend (2026-11-27)")
	if bonus, _ := metaFloat(blackFriday.Metadata, "timing_bonus"); bonus != 0.8 {
		t.Fatalf("24 days out should carry the early bonus, got %v", bonus)
	}

	for _, c := range candidates {
		if strings.HasPrefix(c.Title, "Amazon Prime Day") {
			t.Fatal("Prime Day is eight months out and must be excluded")
		}
	}
}

func TestTimingScan_PastEventsRollToNextYear(t *testing.T) {
	// Dec 20 2026: the New Year campaign window (Jan 1) already passed this
	// year, so the 2027 date is 12 days out and inside the horizon.
	now := time.Date(2026, 12, 20, 12, 0, 0, 0, time.UTC)
	s := newTestTimingScanner(now)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newYear := findCandidate(t, candidates, "New Year campaign window (2027-01-01)")
	if days, _ := metaFloat(newYear.Metadata, "days_until"); days < 0 || days > 30 {
		t.Fatalf("expected the rolled-over event inside the horizon, got days_until=%v", days)
	}
}

func TestTimingScan_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewTimingScanner()
	if _, err := s.Scan(ctx); err == nil {
		t.Fatal("expected cancelled context to abort the scan")
	}
}
