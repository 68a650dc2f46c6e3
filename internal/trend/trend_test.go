package trend_test

import (
	"testing"
	"time"

	"github.com/moodmirror/backend/internal/trend"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestBuildWeekShape(t *testing.T) {
	t.Parallel()
	today := day(2024, time.January, 7, 15)
	buckets := trend.BuildWeek(nil, today, time.UTC)

	if len(buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(buckets))
	}
	for i, b := range buckets {
		want := time.Date(2024, time.January, 1+i, 0, 0, 0, 0, time.UTC)
		if !b.Date.Equal(want) {
			t.Errorf("bucket %d date = %v, want %v", i, b.Date, want)
		}
		if b.Label != want.Format("Mon") {
			t.Errorf("bucket %d label = %q, want %q", i, b.Label, want.Format("Mon"))
		}
		if b.Score != 0 {
			t.Errorf("bucket %d score = %d, want 0", i, b.Score)
		}
	}
	if last := buckets[6].Date; last.Day() != 7 {
		t.Errorf("last bucket should be today, got %v", last)
	}
}

func TestBuildWeekPlacesEntriesAndIgnoresOutOfWindow(t *testing.T) {
	t.Parallel()
	today := day(2024, time.January, 7, 12)
	entries := []trend.Entry{
		{Score: 4, CreatedAt: day(2024, time.January, 7, 9)},
		{Score: 2, CreatedAt: day(2024, time.January, 4, 20)},
		{Score: 5, CreatedAt: day(2023, time.December, 31, 23)}, // outside window
		{Score: 1, CreatedAt: day(2024, time.January, 8, 1)},    // future, outside window
	}

	buckets := trend.BuildWeek(entries, today, time.UTC)

	wantScores := []int{0, 0, 0, 2, 0, 0, 4}
	for i, want := range wantScores {
		if buckets[i].Score != want {
			t.Errorf("bucket %d (%s) score = %d, want %d", i, buckets[i].Date.Format("2006-01-02"), buckets[i].Score, want)
		}
	}
	if got := trend.WeeklyAverage(buckets); got != 3 {
		t.Errorf("weekly average = %d, want 3", got)
	}
}

func TestBuildWeekDuplicateDayMostRecentWins(t *testing.T) {
	t.Parallel()
	today := day(2024, time.March, 10, 18)
	morning := trend.Entry{Score: 2, CreatedAt: day(2024, time.March, 10, 8)}
	evening := trend.Entry{Score: 5, CreatedAt: day(2024, time.March, 10, 21)}

	// Same winner regardless of input order.
	for _, entries := range [][]trend.Entry{
		{morning, evening},
		{evening, morning},
	} {
		buckets := trend.BuildWeek(entries, today, time.UTC)
		if buckets[6].Score != 5 {
			t.Errorf("entries %v: today's score = %d, want 5 (most recent created_at)", entries, buckets[6].Score)
		}
	}
}

func TestBuildWeekTimezoneBoundary(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+13", 13*60*60)

	// 2024-06-02 00:30 local is 2024-06-01 11:30 UTC: just after midnight the
	// local date and the UTC date disagree, which is exactly the edge that was
	// ambiguous when truncation and labeling used different zones.
	today := time.Date(2024, time.June, 2, 23, 0, 0, 0, loc)
	entries := []trend.Entry{
		{Score: 4, CreatedAt: time.Date(2024, time.June, 2, 0, 30, 0, 0, loc)},
	}

	buckets := trend.BuildWeek(entries, today, loc)
	if buckets[6].Score != 4 {
		t.Fatalf("entry logged just after local midnight must land on the local date; today's score = %d", buckets[6].Score)
	}

	// The same instant aggregated in UTC belongs to the previous day.
	utcBuckets := trend.BuildWeek(entries, today, time.UTC)
	if utcBuckets[6].Score == 4 {
		t.Fatalf("in UTC the entry should not land on the local 'today' bucket")
	}
}

func TestWeeklyAverageRounding(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name   string
		scores []int
		want   int
	}{
		{"no data", []int{0, 0, 0, 0, 0, 0, 0}, 0},
		{"single", []int{0, 0, 3, 0, 0, 0, 0}, 3},
		{"half rounds up", []int{0, 0, 0, 2, 0, 0, 5}, 4},
		{"rounds down", []int{1, 2, 4, 0, 0, 0, 0}, 2},
		{"full week", []int{1, 2, 3, 4, 5, 4, 3}, 3},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			buckets := make([]trend.DayBucket, len(c.scores))
			for i, s := range c.scores {
				buckets[i].Score = s
			}
			if got := trend.WeeklyAverage(buckets); got != c.want {
				t.Errorf("WeeklyAverage(%v) = %d, want %d", c.scores, got, c.want)
			}
		})
	}
}

func TestRenderScenario(t *testing.T) {
	t.Parallel()
	today := day(2024, time.January, 7, 12)
	entries := []trend.Entry{
		{Score: 4, CreatedAt: day(2024, time.January, 7, 10)},
		{Score: 2, CreatedAt: day(2024, time.January, 4, 10)},
	}

	report := trend.Render(entries, today, time.UTC)

	if len(report.Bars) != 7 {
		t.Fatalf("expected 7 bars, got %d", len(report.Bars))
	}
	if report.Bars[0].Date != "2024-01-01" || report.Bars[6].Date != "2024-01-07" {
		t.Errorf("bar dates = %s..%s, want 2024-01-01..2024-01-07", report.Bars[0].Date, report.Bars[6].Date)
	}
	if report.Bars[3].Score != 2 || report.Bars[6].Score != 4 {
		t.Errorf("scores: 01-04 = %d (want 2), 01-07 = %d (want 4)", report.Bars[3].Score, report.Bars[6].Score)
	}
	if report.Bars[6].HeightFrac != 0.8 {
		t.Errorf("height fraction for score 4 = %v, want 0.8", report.Bars[6].HeightFrac)
	}
	if report.Bars[6].Emoji != "😊" || report.Bars[6].Color != "#22C55E" {
		t.Errorf("bar styling for score 4 = %q/%q", report.Bars[6].Emoji, report.Bars[6].Color)
	}
	for _, i := range []int{0, 1, 2, 4, 5} {
		b := report.Bars[i]
		if !b.NoData || b.Score != 0 || b.HeightFrac != 0 || b.Color != "#E5E7EB" || b.Emoji != "" {
			t.Errorf("bar %d should be the no-data state, got %+v", i, b)
		}
	}

	sum := report.Summary
	if sum.AverageScore != 3 || sum.AverageEmoji != "😐" || sum.AverageDisplay != "3/5" {
		t.Errorf("summary = %+v, want average 3 / 😐 / 3/5", sum)
	}
	if sum.EntryCount != 2 {
		t.Errorf("entry count = %d, want 2", sum.EntryCount)
	}
}

func TestRenderEmptyWindow(t *testing.T) {
	t.Parallel()
	report := trend.Render(nil, day(2024, time.May, 1, 0), time.UTC)

	if report.Summary.AverageScore != 0 {
		t.Errorf("average score = %d, want 0", report.Summary.AverageScore)
	}
	if report.Summary.AverageDisplay != "No data" {
		t.Errorf("average display = %q, want %q", report.Summary.AverageDisplay, "No data")
	}
	if report.Summary.AverageEmoji != "" {
		t.Errorf("average emoji = %q, want empty", report.Summary.AverageEmoji)
	}
	if report.Summary.EntryCount != 0 {
		t.Errorf("entry count = %d, want 0", report.Summary.EntryCount)
	}
}

func TestRenderCountsDuplicateEntries(t *testing.T) {
	t.Parallel()
	today := day(2024, time.July, 4, 12)
	entries := []trend.Entry{
		{Score: 3, CreatedAt: day(2024, time.July, 4, 8)},
		{Score: 4, CreatedAt: day(2024, time.July, 4, 12)},
		{Score: 2, CreatedAt: day(2024, time.July, 3, 9)},
	}

	report := trend.Render(entries, today, time.UTC)

	// Count reflects the input, not the buckets.
	if report.Summary.EntryCount != 3 {
		t.Errorf("entry count = %d, want 3", report.Summary.EntryCount)
	}
	if report.Bars[6].Score != 4 {
		t.Errorf("today's bucket = %d, want the most recent entry's 4", report.Bars[6].Score)
	}
}
