// Package trend builds the 7-day mood trend: it buckets timestamped entries
// into a fixed calendar week ending "today" and derives the weekly summary
// served to the chart.
package trend

import (
	"math"
	"strconv"
	"time"

	"github.com/moodmirror/backend/internal/mood"
)

// Entry is the minimal projection of a mood entry the aggregator needs.
type Entry struct {
	Score     int
	CreatedAt time.Time
}

// DayBucket is one calendar day inside the trend window. Score 0 means no
// entry was logged that day.
type DayBucket struct {
	Date  time.Time // midnight in the aggregation location
	Label string    // short weekday name, e.g. "Mon"
	Score int
}

// dateKey truncates t to calendar-date granularity in loc. One location is
// used for every truncation and label in a given aggregation, so an entry can
// never land on one day and be labeled with another.
func dateKey(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// BuildWeek returns exactly 7 buckets covering [today-6 .. today] ascending.
// Entries outside the window are ignored; no entry ever creates a bucket.
// When several entries share a calendar date, the one with the greatest
// CreatedAt wins regardless of input order.
func BuildWeek(entries []Entry, today time.Time, loc *time.Location) []DayBucket {
	if loc == nil {
		loc = time.UTC
	}
	end := dateKey(today, loc)

	buckets := make([]DayBucket, 7)
	index := make(map[time.Time]int, 7)
	for i := 0; i < 7; i++ {
		date := end.AddDate(0, 0, i-6)
		buckets[i] = DayBucket{Date: date, Label: date.Format("Mon")}
		index[date] = i
	}

	// Track the winning entry per bucket so duplicates on one date resolve
	// to the most recent CreatedAt, not to iteration order.
	winners := make(map[int]time.Time, 7)
	for _, e := range entries {
		i, ok := index[dateKey(e.CreatedAt, loc)]
		if !ok {
			continue
		}
		if prev, seen := winners[i]; seen && !e.CreatedAt.After(prev) {
			continue
		}
		winners[i] = e.CreatedAt
		buckets[i].Score = e.Score
	}

	return buckets
}

// WeeklyAverage is round(mean(scores of buckets with score > 0)), or 0 when
// no bucket holds an entry. Days without entries never pull the average
// toward a fabricated neutral score.
func WeeklyAverage(buckets []DayBucket) int {
	sum, n := 0, 0
	for _, b := range buckets {
		if b.Score > 0 {
			sum += b.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

// Bar is one rendered chart column.
type Bar struct {
	Date       string  `json:"date"`
	Label      string  `json:"label"`
	Score      int     `json:"score"`
	Emoji      string  `json:"emoji,omitempty"`
	Color      string  `json:"color"`
	HeightFrac float64 `json:"height_frac"`
	NoData     bool    `json:"no_data"`
}

// Summary is the weekly rollup shown under the chart.
type Summary struct {
	AverageScore   int    `json:"average_score"`
	AverageEmoji   string `json:"average_emoji,omitempty"`
	AverageDisplay string `json:"average_display"` // "<score>/5" or "No data"
	EntryCount     int    `json:"entry_count"`
}

// Report is the full trend payload served to the client.
type Report struct {
	Bars    []Bar   `json:"bars"`
	Summary Summary `json:"summary"`
}

// Render aggregates entries into the week ending today and produces the bar
// chart payload. EntryCount is the number of input entries, not the bucket
// count, so duplicate-per-day entries are counted faithfully.
func Render(entries []Entry, today time.Time, loc *time.Location) Report {
	buckets := BuildWeek(entries, today, loc)

	bars := make([]Bar, len(buckets))
	for i, b := range buckets {
		bar := Bar{
			Date:   b.Date.Format("2006-01-02"),
			Label:  b.Label,
			Score:  b.Score,
			NoData: b.Score == 0,
		}
		if b.Score > 0 {
			bar.Emoji = mood.EmojiFor(b.Score)
			bar.Color = mood.ColorFor(b.Score)
			bar.HeightFrac = float64(b.Score) / float64(mood.MaxScore)
		} else {
			bar.Color = mood.DefaultColor
		}
		bars[i] = bar
	}

	avg := WeeklyAverage(buckets)
	summary := Summary{
		AverageScore:   avg,
		AverageDisplay: "No data",
		EntryCount:     len(entries),
	}
	if avg > 0 {
		summary.AverageEmoji = mood.EmojiFor(avg)
		summary.AverageDisplay = strconv.Itoa(avg) + "/5"
	}

	return Report{Bars: bars, Summary: summary}
}
