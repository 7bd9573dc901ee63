// Package stats turns a task collection into the weekly statistics view.
//
// Every function is pure and deterministic for a given "now". Timestamps are
// bucketed by their UTC calendar date.
package stats

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"studyflow/internal/models"
)

const (
	// Days is the number of buckets in the weekly histogram.
	Days = 7
	// Window is how far back a completion still counts as "last week".
	Window = Days * 24 * time.Hour

	UnknownDuration = "Не определено"
)

// DayCount is one histogram bucket.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type Summary struct {
	CompletedLastWeek int     `json:"completedLastWeek"`
	DailyAverage      float64 `json:"dailyAverage"`
	DailyAverageText  string  `json:"dailyAverageText"`
	BestDay           int     `json:"bestDay"`
}

// CompletedTask is a completed task with its elapsed-time label.
type CompletedTask struct {
	models.Task
	Duration string `json:"duration"`
}

// Report is everything the statistics page renders.
type Report struct {
	Histogram []DayCount      `json:"histogram"`
	Summary   Summary         `json:"summary"`
	Completed []CompletedTask `json:"completed"`
	Archived  []models.Task   `json:"archived"`
}

func inWindow(t models.Task, now time.Time) bool {
	if !t.Done || t.CompletedAt == nil {
		return false
	}
	c := *t.CompletedAt
	return !c.Before(now.Add(-Window)) && !c.After(now)
}

// CompletedLastWeek returns the tasks completed within the last seven days,
// in input order.
func CompletedLastWeek(tasks []models.Task, now time.Time) []models.Task {
	out := make([]models.Task, 0)
	for _, t := range tasks {
		if inWindow(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// WeeklyHistogram returns exactly seven buckets, oldest first, ending with
// now's date. Completions that fall in the window but not on one of the seven
// dates are dropped.
func WeeklyHistogram(tasks []models.Task, now time.Time) []DayCount {
	now = now.UTC()
	buckets := make([]DayCount, Days)
	index := make(map[string]int, Days)
	for i := 0; i < Days; i++ {
		key := now.AddDate(0, 0, i-(Days-1)).Format(models.DateLayout)
		buckets[i] = DayCount{Date: key}
		index[key] = i
	}

	for _, t := range tasks {
		if !inWindow(t, now) {
			continue
		}
		key := t.CompletedAt.UTC().Format(models.DateLayout)
		if i, ok := index[key]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}

// Summarize computes the summary cards. The average is rounded to one
// decimal and rendered as "0" when nothing was completed.
func Summarize(tasks []models.Task, now time.Time) Summary {
	completed := len(CompletedLastWeek(tasks, now))
	s := Summary{CompletedLastWeek: completed, DailyAverageText: "0"}
	if completed > 0 {
		avg := float64(completed) / Days
		s.DailyAverage = math.Round(avg*10) / 10
		s.DailyAverageText = strconv.FormatFloat(avg, 'f', 1, 64)
	}
	for _, b := range WeeklyHistogram(tasks, now) {
		if b.Count > s.BestDay {
			s.BestDay = b.Count
		}
	}
	return s
}

// DurationLabel renders the time between creation and completion using the
// coarsest non-zero unit: days and hours, hours, or minutes.
func DurationLabel(createdAt, completedAt *time.Time) string {
	if createdAt == nil || completedAt == nil {
		return UnknownDuration
	}
	diff := completedAt.Sub(*createdAt)
	if diff < 0 {
		diff = 0
	}
	days := int(diff / (24 * time.Hour))
	hours := int(diff % (24 * time.Hour) / time.Hour)
	switch {
	case days > 0:
		return fmt.Sprintf("%d дн. %d ч.", days, hours)
	case hours > 0:
		return fmt.Sprintf("%d ч.", hours)
	default:
		minutes := int(diff % time.Hour / time.Minute)
		return fmt.Sprintf("%d мин.", minutes)
	}
}

// BuildReport assembles the statistics page from the active and archived
// collections of one owner.
func BuildReport(active, archived []models.Task, now time.Time) Report {
	completed := CompletedLastWeek(active, now)
	entries := make([]CompletedTask, 0, len(completed))
	for _, t := range completed {
		created := t.CreatedAt
		entries = append(entries, CompletedTask{
			Task:     t,
			Duration: DurationLabel(&created, t.CompletedAt),
		})
	}
	if archived == nil {
		archived = []models.Task{}
	}
	return Report{
		Histogram: WeeklyHistogram(active, now),
		Summary:   Summarize(active, now),
		Completed: entries,
		Archived:  archived,
	}
}
