package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyflow/internal/models"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func completed(id int, at time.Time) models.Task {
	created := at.Add(-3 * time.Hour)
	return models.Task{ID: id, Title: "t", Done: true, CreatedAt: created, CompletedAt: &at}
}

func TestWeeklyHistogramEmpty(t *testing.T) {
	h := WeeklyHistogram(nil, now)

	require.Len(t, h, Days)
	assert.Equal(t, "2025-01-09", h[0].Date)
	assert.Equal(t, "2025-01-15", h[6].Date)
	for _, b := range h {
		assert.Zero(t, b.Count)
	}
}

func TestWeeklyHistogramCounts(t *testing.T) {
	notDone := completed(9, now.Add(-time.Hour))
	notDone.Done = false

	tasks := []models.Task{
		completed(1, now.Add(-time.Hour)),
		completed(2, now.Add(-2*time.Hour)),
		completed(3, now.AddDate(0, 0, -3)),
		completed(4, now.AddDate(0, 0, -8)),
		completed(5, now.Add(time.Hour)),
		notDone,
		{ID: 10, Title: "active"},
	}

	h := WeeklyHistogram(tasks, now)
	require.Len(t, h, Days)
	counts := map[string]int{}
	for _, b := range h {
		counts[b.Date] = b.Count
	}
	assert.Equal(t, 2, counts["2025-01-15"])
	assert.Equal(t, 1, counts["2025-01-12"])
	total := 0
	for _, b := range h {
		total += b.Count
	}
	assert.Equal(t, 3, total)
}

// Seven days back to the minute is inside the window, but its date is not
// one of the seven buckets.
func TestWeeklyHistogramDropsWindowEdge(t *testing.T) {
	edge := completed(1, now.Add(-Window))
	h := WeeklyHistogram([]models.Task{edge}, now)
	for _, b := range h {
		assert.Zero(t, b.Count)
	}
	assert.Len(t, CompletedLastWeek([]models.Task{edge}, now), 1)
}

func TestWeeklyHistogramAlwaysSevenBuckets(t *testing.T) {
	var tasks []models.Task
	for i := 0; i < 500; i++ {
		tasks = append(tasks, completed(i, now.Add(-time.Duration(i)*time.Hour)))
	}
	h := WeeklyHistogram(tasks, now)
	assert.Len(t, h, Days)
	for i := 1; i < len(h); i++ {
		assert.Less(t, h[i-1].Date, h[i].Date)
	}
}

func TestSummarize(t *testing.T) {
	t.Run("nothing completed", func(t *testing.T) {
		s := Summarize([]models.Task{{ID: 1, Title: "open"}}, now)
		assert.Equal(t, 0, s.CompletedLastWeek)
		assert.Equal(t, "0", s.DailyAverageText)
		assert.Zero(t, s.DailyAverage)
		assert.Equal(t, 0, s.BestDay)
	})
	t.Run("three completed", func(t *testing.T) {
		tasks := []models.Task{
			completed(1, now.Add(-time.Hour)),
			completed(2, now.Add(-2*time.Hour)),
			completed(3, now.AddDate(0, 0, -2)),
		}
		s := Summarize(tasks, now)
		assert.Equal(t, 3, s.CompletedLastWeek)
		assert.Equal(t, "0.4", s.DailyAverageText)
		assert.InDelta(t, 0.4, s.DailyAverage, 1e-9)
		assert.Equal(t, 2, s.BestDay)
	})
	t.Run("seven completed", func(t *testing.T) {
		var tasks []models.Task
		for i := 0; i < 7; i++ {
			tasks = append(tasks, completed(i, now.AddDate(0, 0, -i).Add(-time.Minute)))
		}
		s := Summarize(tasks, now)
		assert.Equal(t, "1.0", s.DailyAverageText)
		assert.Equal(t, 1, s.BestDay)
	})
}

func TestDurationLabel(t *testing.T) {
	at := func(s string) *time.Time {
		v, err := time.Parse(time.RFC3339, s)
		require.NoError(t, err)
		return &v
	}
	created := at("2025-01-01T00:00:00Z")

	tests := []struct {
		completed *time.Time
		want      string
	}{
		{at("2025-01-03T05:00:00Z"), "2 дн. 5 ч."},
		{at("2025-01-02T00:30:00Z"), "1 дн. 0 ч."},
		{at("2025-01-01T07:59:00Z"), "7 ч."},
		{at("2025-01-01T00:42:10Z"), "42 мин."},
		{at("2025-01-01T00:00:00Z"), "0 мин."},
		{at("2024-12-31T00:00:00Z"), "0 мин."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DurationLabel(created, tt.completed))
	}

	assert.Equal(t, UnknownDuration, DurationLabel(nil, created))
	assert.Equal(t, UnknownDuration, DurationLabel(created, nil))
}

func TestBuildReport(t *testing.T) {
	active := []models.Task{
		completed(1, now.Add(-26*time.Hour)),
		{ID: 2, Title: "open", CreatedAt: now},
	}
	r := BuildReport(active, nil, now)

	assert.Len(t, r.Histogram, Days)
	assert.Equal(t, 1, r.Summary.CompletedLastWeek)
	require.Len(t, r.Completed, 1)
	assert.Equal(t, 1, r.Completed[0].ID)
	assert.Equal(t, "3 ч.", r.Completed[0].Duration)
	assert.NotNil(t, r.Archived)
}
