package patterns

import (
	"strings"
	"time"

	"github.com/gmsas95/quitcoach/internal/store"
)

const dayFormat = "2006-01-02"

// StreakLengths walks the calendar-day range from the earliest event through
// today and returns every completed abstinence streak plus the currently
// open one. A streak is a maximal run of consecutive zero-event days, so the
// sequence never contains zeros. This is deliberately a different quantity
// from the capped current-streak the feature extractor reports.
func StreakLengths(events []store.SmokingEvent, now time.Time) []int {
	if len(events) == 0 {
		return nil
	}

	loc := now.Location()
	eventDays := make(map[string]bool, len(events))
	earliest := events[0].SmokedAt
	for _, e := range events {
		eventDays[e.SmokedAt.In(loc).Format(dayFormat)] = true
		if e.SmokedAt.Before(earliest) {
			earliest = e.SmokedAt
		}
	}

	var streaks []int
	current := 0

	day := time.Date(earliest.In(loc).Year(), earliest.In(loc).Month(), earliest.In(loc).Day(), 0, 0, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	for !day.After(end) {
		if eventDays[day.Format(dayFormat)] {
			if current > 0 {
				streaks = append(streaks, current)
			}
			current = 0
		} else {
			current++
		}
		day = day.AddDate(0, 0, 1)
	}

	if current > 0 {
		streaks = append(streaks, current)
	}

	return streaks
}

// relapseDays returns, for every streak that an event broke, the calendar
// day of that first event back.
func relapseDays(events []store.SmokingEvent, now time.Time) []string {
	if len(events) == 0 {
		return nil
	}

	loc := now.Location()
	eventDays := make(map[string]bool, len(events))
	earliest := events[0].SmokedAt
	for _, e := range events {
		eventDays[e.SmokedAt.In(loc).Format(dayFormat)] = true
		if e.SmokedAt.Before(earliest) {
			earliest = e.SmokedAt
		}
	}

	var days []string
	gap := 0

	day := time.Date(earliest.In(loc).Year(), earliest.In(loc).Month(), earliest.In(loc).Day(), 0, 0, 0, 0, loc)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	for !day.After(end) {
		key := day.Format(dayFormat)
		if eventDays[key] {
			if gap > 0 {
				days = append(days, key)
			}
			gap = 0
		} else {
			gap++
		}
		day = day.AddDate(0, 0, 1)
	}

	return days
}

// dominantRelapseContext finds the tag most often attached to
// streak-breaking events, when it labels at least half of the relapses.
func dominantRelapseContext(events []store.SmokingEvent, now time.Time) (string, int, int) {
	days := relapseDays(events, now)
	if len(days) < 2 {
		return "", 0, len(days)
	}

	daySet := make(map[string]bool, len(days))
	for _, d := range days {
		daySet[d] = true
	}

	// Count each tag once per relapse day, not once per event.
	loc := now.Location()
	dayTags := make(map[string]map[string]bool)
	for _, e := range events {
		key := e.SmokedAt.In(loc).Format(dayFormat)
		if !daySet[key] {
			continue
		}
		if dayTags[key] == nil {
			dayTags[key] = make(map[string]bool)
		}
		for _, tag := range e.Tags {
			dayTags[key][strings.ToLower(tag.Name)] = true
		}
	}

	tagCounts := make(map[string]int)
	for _, tags := range dayTags {
		for name := range tags {
			tagCounts[name]++
		}
	}

	best, bestCount := "", 0
	for name, count := range tagCounts {
		if count > bestCount {
			best, bestCount = name, count
		}
	}

	if bestCount*2 < len(days) {
		return "", 0, len(days)
	}
	return best, bestCount, len(days)
}
