package scan

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oppradar/opportunity-radar/internal/models"
)

func newTestSeasonalScanner(now time.Time, lookAheadDays int) *SeasonalScanner {
	s := NewSeasonalScanner(Tunables{LookAheadDays: lookAheadDays})
	s.now = func() time.Time { return now }
	return s
}

func findCandidate(t *testing.T, candidates []RawCandidate, title string) RawCandidate {
	t.Helper()
	for _, c := range candidates {
		if c.Title == title {
			return c
		}
	}
	t.Fatalf("candidate %q not found in %d candidates", title, len(candidates))
	return RawCandidate{}
}

func TestSeasonalScan_JanuaryWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	s := newTestSeasonalScanner(now, 90)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fitness := findCandidate(t, candidates, "New Year Fitness Resolutions (January 2026)")
	if fitness.Type != models.TypeSeasonalPattern {
		t.Fatalf("expected seasonal_pattern type, got %q", fitness.Type)
	}
	if peak, _ := fitness.Metadata["peak_month"].(bool); !peak {
		t.Fatal("January is a peak month for fitness resolutions")
	}

	february := findCandidate(t, candidates, "New Year Fitness Resolutions (February 2026)")
	if peak, _ := february.Metadata["peak_month"].(bool); peak {
		t.Fatal("February is active but not peak for fitness resolutions")
	}

	// Valentine's Day (Feb 14) is well inside a 90-day horizon from Jan 10.
	valentine := findCandidate(t, candidates, "Valentine's Day 2026")
	if valentine.Type != models.TypeHolidaySeasonal {
		t.Fatalf("expected holiday_seasonal type, got %q", valentine.Type)
	}
	if peak, _ := valentine.Metadata["peak_month"].(bool); peak {
		t.Fatal("Jan 10 is 35 days out, before Valentine's 21-day prep window opens")
	}
}

func TestSeasonalScan_HolidayPrepWindowFlagsPeak(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSeasonalScanner(now, 90)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valentine := findCandidate(t, candidates, "Valentine's Day 2026")
	if peak, _ := valentine.Metadata["peak_month"].(bool); !peak {
		t.Fatal("13 days out is inside Valentine's 21-day prep window")
	}
}

func TestSeasonalScan_NoDuplicatesAcrossSteps(t *testing.T) {
	// The 7-day walk crosses the same month several times; each pattern
	// must still come out once per month.
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newTestSeasonalScanner(now, 90)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[string]int)
	for _, c := range candidates {
		seen[c.Title]++
	}
	for title, n := range seen {
		if n > 1 {
			t.Fatalf("candidate %q emitted %d times", title, n)
		}
	}
}

func TestSeasonalScan_HorizonExcludesFarEvents(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	s := newTestSeasonalScanner(now, 30)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, c := range candidates {
		if strings.HasPrefix(c.Title, "Halloween") {
			t.Fatal("Halloween is far outside a 30-day horizon from January")
		}
	}
}

func TestSeasonalScan_HolidayRollsToNextYear(t *testing.T) {
	// Scanning mid-December: Valentine's 2026 already passed, so the 2027
	// date must be picked up by a horizon long enough to reach it.
	now := time.Date(2026, 12, 10, 0, 0, 0, 0, time.UTC)
	s := newTestSeasonalScanner(now, 90)

	candidates, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	valentine := findCandidate(t, candidates, "Valentine's Day 2027")
	if got, _ := valentine.Metadata["event_date"].(string); got != "2027-02-14" {
		t.Fatalf("expected event_date 2027-02-14, got %q", got)
	}
}

func TestHolidayDates_FloatingRules(t *testing.T) {
	tests := []struct {
		name string
		got  time.Time
		want time.Time
	}{
		{
			name: "Mother's Day 2026 is the second Sunday of May",
			got:  nthWeekdayOf(2026, time.May, time.Sunday, 2),
			want: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Black Friday 2026 follows the fourth Thursday of November",
			got:  nthWeekdayOf(2026, time.November, time.Thursday, 4).AddDate(0, 0, 1),
			want: time.Date(2026, 11, 27, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "Black Friday 2025",
			got:  nthWeekdayOf(2025, time.November, time.Thursday, 4).AddDate(0, 0, 1),
			want: time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !tc.got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want.Format("2006-01-02"), tc.got.Format("2006-01-02"))
			}
		})
	}
}

func TestSeasonalScan_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestSeasonalScanner(time.Now(), 90)
	if _, err := s.Scan(ctx); err == nil {
		t.Fatal("expected cancelled context to abort the scan")
	}
}
