// Package patterns mines the full event history for recurring structural
// patterns: time-of-day peaks, trigger dominance, streak and relapse
// structure, social and environmental dominance, and week-over-week
// regression. Analysis is a pure function of the log plus profile; it does
// no I/O of its own.
package patterns

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/gmsas95/quitcoach/internal/store"
)

// Fixed tag vocabularies for the social and environmental analyses.
var (
	socialContextTags = map[string]bool{
		"social":     true,
		"friends":    true,
		"party":      true,
		"bar":        true,
		"restaurant": true,
		"work-break": true,
		"meeting":    true,
	}

	locationTags = map[string]bool{
		"home":    true,
		"car":     true,
		"office":  true,
		"balcony": true,
		"outside": true,
		"kitchen": true,
		"garage":  true,
	}
)

// Analyzer detects recurring behavioral patterns in the event log.
type Analyzer struct{}

// NewAnalyzer returns a pattern analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze runs every sub-analysis over the event log, merges the results,
// keeps the top insights by confidence, and returns them sorted by risk
// descending. Absence of data is never an error: thin history simply yields
// fewer insights.
func (a *Analyzer) Analyze(events []store.SmokingEvent, profile *store.UserProfile, now time.Time) []Insight {
	var insights []Insight

	insights = append(insights, a.timeOfDayPattern(events, now)...)
	insights = append(insights, a.weekendPattern(events, now)...)
	insights = append(insights, a.triggerPattern(events, now)...)
	insights = append(insights, a.streakRelapsePattern(events, now)...)
	insights = append(insights, a.socialContextPattern(events, now)...)
	insights = append(insights, a.environmentalPattern(events, now)...)
	insights = append(insights, a.regressionPattern(events, profile, now)...)

	// Retention: advisory data, so only the most confident few survive.
	if len(insights) > MaxRetained {
		sort.SliceStable(insights, func(i, j int) bool {
			return insights[i].Confidence > insights[j].Confidence
		})
		insights = insights[:MaxRetained]
	}

	sort.SliceStable(insights, func(i, j int) bool {
		return insights[i].Risk > insights[j].Risk
	})

	return insights
}

// timeOfDayPattern buckets events by hour and reports the top peak hour when
// its share exceeds a uniform seventh of the total.
func (a *Analyzer) timeOfDayPattern(events []store.SmokingEvent, now time.Time) []Insight {
	if len(events) == 0 {
		return nil
	}

	loc := now.Location()
	hours := make(map[int]int)
	for _, e := range events {
		hours[e.SmokedAt.In(loc).Hour()]++
	}

	peakHour, peakCount := 0, 0
	for hour, count := range hours {
		if count > peakCount {
			peakHour, peakCount = hour, count
		}
	}

	share := float64(peakCount) / float64(len(events))
	if share <= 1.0/7.0 {
		return nil
	}

	pct := share * 100
	return []Insight{{
		Category:   CategoryTimeOfDay,
		Title:      fmt.Sprintf("Peak smoking hour %02d:00", peakHour),
		Detail:     fmt.Sprintf("%.0f%% of your cigarettes happen around %02d:00", pct, peakHour),
		Confidence: math.Min(0.95, pct/50),
		Risk:       math.Min(0.9, pct/40),
		Stats: map[string]float64{
			"peak_hour":       float64(peakHour),
			"peak_count":      float64(peakCount),
			"peak_percentage": pct,
		},
		DetectedAt: now,
	}}
}

// weekendPattern compares per-day weekend and weekday averages, normalized
// by how many of each day type the history actually spans.
func (a *Analyzer) weekendPattern(events []store.SmokingEvent, now time.Time) []Insight {
	if len(events) == 0 {
		return nil
	}

	loc := now.Location()
	earliest := events[0].SmokedAt
	for _, e := range events {
		if e.SmokedAt.Before(earliest) {
			earliest = e.SmokedAt
		}
	}

	weekendDays, weekdayDays := 0, 0
	day := time.Date(earliest.In(loc).Year(), earliest.In(loc).Month(), earliest.In(loc).Day(), 0, 0, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	for !day.After(end) {
		if isWeekend(day.Weekday()) {
			weekendDays++
		} else {
			weekdayDays++
		}
		day = day.AddDate(0, 0, 1)
	}
	if weekendDays == 0 || weekdayDays == 0 {
		return nil
	}

	weekendEvents, weekdayEvents := 0, 0
	for _, e := range events {
		if isWeekend(e.SmokedAt.In(loc).Weekday()) {
			weekendEvents++
		} else {
			weekdayEvents++
		}
	}

	weekendAvg := float64(weekendEvents) / float64(weekendDays)
	weekdayAvg := float64(weekdayEvents) / float64(weekdayDays)
	diff := weekendAvg - weekdayAvg
	if diff <= 2 {
		return nil
	}

	return []Insight{{
		Category:   CategorySocialInfluence,
		Title:      "Weekend spike",
		Detail:     fmt.Sprintf("You average %.1f cigarettes per weekend day versus %.1f on weekdays", weekendAvg, weekdayAvg),
		Confidence: math.Min(0.9, diff/5),
		Risk:       math.Min(0.8, 0.3+diff/10),
		Stats: map[string]float64{
			"weekend_avg": weekendAvg,
			"weekday_avg": weekdayAvg,
			"difference":  diff,
		},
		DetectedAt: now,
	}}
}

// triggerPattern groups tagged events by tag name and emits the dominant
// triggers, up to three.
func (a *Analyzer) triggerPattern(events []store.SmokingEvent, now time.Time) []Insight {
	tagCounts := make(map[string]int)
	tagged := 0
	for _, e := range events {
		if !e.HasTags() {
			continue
		}
		tagged++
		seen := make(map[string]bool)
		for _, tag := range e.Tags {
			name := strings.ToLower(tag.Name)
			if !seen[name] {
				seen[name] = true
				tagCounts[name]++
			}
		}
	}
	if tagged == 0 {
		return nil
	}

	type dominant struct {
		name  string
		count int
		share float64
	}
	var dominants []dominant
	for name, count := range tagCounts {
		share := float64(count) / float64(tagged)
		if share > 1.0/5.0 {
			dominants = append(dominants, dominant{name, count, share})
		}
	}

	sort.Slice(dominants, func(i, j int) bool {
		return dominants[i].count > dominants[j].count
	})
	if len(dominants) > 3 {
		dominants = dominants[:3]
	}

	var insights []Insight
	for _, d := range dominants {
		insights = append(insights, Insight{
			Category:   CategoryTrigger,
			Title:      fmt.Sprintf("Trigger: %s", d.name),
			Detail:     fmt.Sprintf("%.0f%% of your tagged cigarettes mention %q", d.share*100, d.name),
			Confidence: math.Min(0.9, d.share*1.8),
			Risk:       math.Min(0.85, d.share*1.5),
			Stats: map[string]float64{
				"count": float64(d.count),
				"share": d.share,
			},
			DetectedAt: now,
		})
	}
	return insights
}

// streakRelapsePattern surfaces the dominant relapse context, when one
// exists, together with real streak statistics. Stats the history cannot
// support are omitted rather than reported as placeholders.
func (a *Analyzer) streakRelapsePattern(events []store.SmokingEvent, now time.Time) []Insight {
	context, contextCount, relapses := dominantRelapseContext(events, now)
	if context == "" {
		return nil
	}

	streaks := StreakLengths(events, now)
	longest, sum := 0, 0
	for _, s := range streaks {
		sum += s
		if s > longest {
			longest = s
		}
	}

	stats := map[string]float64{
		"relapse_count":  float64(relapses),
		"context_count":  float64(contextCount),
		"streak_count":   float64(len(streaks)),
		"longest_streak": float64(longest),
	}
	if len(streaks) > 0 {
		stats["average_streak"] = float64(sum) / float64(len(streaks))
	}

	return []Insight{{
		Category:   CategoryStreakRelapse,
		Title:      fmt.Sprintf("Relapse context: %s", context),
		Detail:     fmt.Sprintf("%d of your %d streak-ending days involved %q", contextCount, relapses, context),
		Confidence: math.Min(0.9, 0.3+0.15*float64(contextCount)),
		Risk:       math.Min(0.8, 0.2+0.1*float64(relapses)),
		Stats:      stats,
		DetectedAt: now,
	}}
}

// socialContextPattern flags a social-smoking profile when events carrying a
// social-vocabulary tag exceed a quarter of all events.
func (a *Analyzer) socialContextPattern(events []store.SmokingEvent, now time.Time) []Insight {
	if len(events) == 0 {
		return nil
	}

	matching := 0
	for _, e := range events {
		for _, tag := range e.Tags {
			if socialContextTags[strings.ToLower(tag.Name)] {
				matching++
				break
			}
		}
	}

	share := float64(matching) / float64(len(events))
	if share <= 0.25 {
		return nil
	}

	return []Insight{{
		Category:   CategorySocialInfluence,
		Title:      "Social smoking",
		Detail:     fmt.Sprintf("%.0f%% of your cigarettes happen in social situations", share*100),
		Confidence: math.Min(0.9, share*2),
		Risk:       math.Min(0.75, share*1.5),
		Stats: map[string]float64{
			"matching_events": float64(matching),
			"share":           share,
		},
		DetectedAt: now,
	}}
}

// environmentalPattern reports the dominant location among location-tagged
// events when it accounts for over a third of them.
func (a *Analyzer) environmentalPattern(events []store.SmokingEvent, now time.Time) []Insight {
	locationCounts := make(map[string]int)
	locationTagged := 0
	for _, e := range events {
		for _, tag := range e.Tags {
			name := strings.ToLower(tag.Name)
			if locationTags[name] {
				locationCounts[name]++
				locationTagged++
				break
			}
		}
	}
	if locationTagged == 0 {
		return nil
	}

	best, bestCount := "", 0
	for name, count := range locationCounts {
		if count > bestCount {
			best, bestCount = name, count
		}
	}

	share := float64(bestCount) / float64(locationTagged)
	if share <= 1.0/3.0 {
		return nil
	}

	return []Insight{{
		Category:   CategoryEnvironmental,
		Title:      fmt.Sprintf("Location: %s", best),
		Detail:     fmt.Sprintf("%.0f%% of your location-tagged cigarettes happen at %q", share*100, best),
		Confidence: math.Min(0.9, share*1.5),
		Risk:       math.Min(0.7, share*1.2),
		Stats: map[string]float64{
			"count": float64(bestCount),
			"share": share,
		},
		DetectedAt: now,
	}}
}

// regressionPattern compares the trailing week to the one before it and
// flags an increase that both exceeds three events and blows through the
// weekly reduction target.
func (a *Analyzer) regressionPattern(events []store.SmokingEvent, profile *store.UserProfile, now time.Time) []Insight {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	recent, previous := 0, 0
	for _, e := range events {
		switch {
		case e.SmokedAt.After(weekAgo) && !e.SmokedAt.After(now):
			recent++
		case e.SmokedAt.After(twoWeeksAgo) && !e.SmokedAt.After(weekAgo):
			previous++
		}
	}

	increase := recent - previous
	if increase <= 3 {
		return nil
	}

	weeklyTarget := 0.0
	if profile != nil {
		weeklyTarget = profile.TodayTarget(now) * 7
	}
	if float64(increase) <= weeklyTarget {
		return nil
	}

	return []Insight{{
		Category:   CategoryRegression,
		Title:      "Week-over-week increase",
		Detail:     fmt.Sprintf("You smoked %d more cigarettes this week than last week", increase),
		Confidence: math.Min(0.9, 0.5+float64(increase)/20),
		Risk:       math.Min(0.9, 0.4+float64(increase)/20),
		Stats: map[string]float64{
			"recent_week":   float64(recent),
			"previous_week": float64(previous),
			"increase":      float64(increase),
			"weekly_target": weeklyTarget,
		},
		DetectedAt: now,
	}}
}

func isWeekend(d time.Weekday) bool {
	return d == time.Saturday || d == time.Sunday
}
