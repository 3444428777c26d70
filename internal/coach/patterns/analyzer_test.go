package patterns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmsas95/quitcoach/internal/store"
)

// Aug 31 2026 is a Monday.
var now = time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)

func event(at time.Time, tagNames ...string) store.SmokingEvent {
	e := store.SmokingEvent{ID: at.Format(time.RFC3339Nano), SmokedAt: at}
	for _, name := range tagNames {
		e.Tags = append(e.Tags, store.Tag{ID: name, Name: name})
	}
	return e
}

func TestTimeOfDayPattern(t *testing.T) {
	a := NewAnalyzer()

	// 6 of 10 events at 09:00, spread over distinct days.
	var events []store.SmokingEvent
	for i := 0; i < 6; i++ {
		events = append(events, event(time.Date(2026, 8, 20+i, 9, 15, 0, 0, time.UTC)))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event(time.Date(2026, 8, 20+i, 18, 0, 0, 0, time.UTC)))
	}

	insights := a.timeOfDayPattern(events, now)
	require.Len(t, insights, 1)

	in := insights[0]
	assert.Equal(t, CategoryTimeOfDay, in.Category)
	assert.Contains(t, in.Title, "09:00")
	assert.Equal(t, 9.0, in.Stats["peak_hour"])
	// share 0.6: confidence 60/50 capped at 0.95, risk 60/40 capped at 0.9.
	assert.Equal(t, 0.95, in.Confidence)
	assert.Equal(t, 0.9, in.Risk)
}

func TestTimeOfDayPattern_UniformDistributionIsQuiet(t *testing.T) {
	a := NewAnalyzer()

	// 24 events, one per hour: every share is exactly 1/24.
	var events []store.SmokingEvent
	for h := 0; h < 24; h++ {
		events = append(events, event(time.Date(2026, 8, 20, h, 0, 0, 0, time.UTC)))
	}

	assert.Empty(t, a.timeOfDayPattern(events, now))
	assert.Empty(t, a.timeOfDayPattern(nil, now))
}

func TestWeekendPattern(t *testing.T) {
	a := NewAnalyzer()

	// Two weeks Mon Aug 17 .. Sun Aug 30: 10 weekdays, 4 weekend days.
	// 5 per weekend day, 1 per weekday: averages 5.0 vs 1.0, difference 4.
	var events []store.SmokingEvent
	for _, day := range []int{22, 23, 29, 30} {
		for i := 0; i < 5; i++ {
			events = append(events, event(time.Date(2026, 8, day, 10+i, 0, 0, 0, time.UTC)))
		}
	}
	for day := 17; day <= 21; day++ {
		events = append(events, event(time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)))
	}
	for day := 24; day <= 28; day++ {
		events = append(events, event(time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)))
	}

	analysisDay := time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)
	insights := a.weekendPattern(events, analysisDay)
	require.Len(t, insights, 1)

	in := insights[0]
	assert.Equal(t, CategorySocialInfluence, in.Category)
	assert.InDelta(t, 5.0, in.Stats["weekend_avg"], 1e-9)
	assert.InDelta(t, 1.0, in.Stats["weekday_avg"], 1e-9)
	assert.InDelta(t, 0.7, in.Risk, 1e-9)
	assert.Greater(t, in.Risk, 0.0)
	assert.LessOrEqual(t, in.Risk, 0.8)
}

func TestWeekendPattern_SmallDifferenceIsQuiet(t *testing.T) {
	a := NewAnalyzer()

	// 2 per weekend day vs 1 per weekday: difference 1, below the bar.
	var events []store.SmokingEvent
	for _, day := range []int{29, 30} {
		events = append(events,
			event(time.Date(2026, 8, day, 10, 0, 0, 0, time.UTC)),
			event(time.Date(2026, 8, day, 15, 0, 0, 0, time.UTC)))
	}
	for day := 24; day <= 28; day++ {
		events = append(events, event(time.Date(2026, 8, day, 12, 0, 0, 0, time.UTC)))
	}

	assert.Empty(t, a.weekendPattern(events, time.Date(2026, 8, 30, 22, 0, 0, 0, time.UTC)))
}

func TestTriggerPattern(t *testing.T) {
	a := NewAnalyzer()

	// 10 tagged events: "stress" on 6, "coffee" on 3, "party" on 1.
	var events []store.SmokingEvent
	for i := 0; i < 6; i++ {
		events = append(events, event(now.Add(-time.Duration(i+1)*time.Hour), "Stress"))
	}
	for i := 0; i < 3; i++ {
		events = append(events, event(now.Add(-time.Duration(i+10)*time.Hour), "coffee"))
	}
	events = append(events, event(now.Add(-20*time.Hour), "party"))

	insights := a.triggerPattern(events, now)
	require.Len(t, insights, 2) // party's 10% share misses the 20% bar

	assert.Equal(t, CategoryTrigger, insights[0].Category)
	assert.Contains(t, insights[0].Title, "stress")
	assert.Contains(t, insights[1].Title, "coffee")
	assert.Greater(t, insights[0].Confidence, insights[1].Confidence)
}

func TestTriggerPattern_UntaggedOnlyIsQuiet(t *testing.T) {
	a := NewAnalyzer()
	events := []store.SmokingEvent{event(now.Add(-time.Hour)), event(now.Add(-2 * time.Hour))}
	assert.Empty(t, a.triggerPattern(events, now))
}

func TestSocialContextPattern(t *testing.T) {
	a := NewAnalyzer()

	// 4 of 10 events carry social vocabulary: share 0.4.
	var events []store.SmokingEvent
	events = append(events,
		event(now.Add(-1*time.Hour), "bar"),
		event(now.Add(-2*time.Hour), "friends"),
		event(now.Add(-3*time.Hour), "party"),
		event(now.Add(-4*time.Hour), "work-break"),
	)
	for i := 4; i < 10; i++ {
		events = append(events, event(now.Add(-time.Duration(i+1)*time.Hour)))
	}

	insights := a.socialContextPattern(events, now)
	require.Len(t, insights, 1)
	assert.Equal(t, CategorySocialInfluence, insights[0].Category)
	assert.InDelta(t, 0.4, insights[0].Stats["share"], 1e-9)

	// 2 of 10 falls short.
	assert.Empty(t, a.socialContextPattern(events[2:], now))
}

func TestEnvironmentalPattern(t *testing.T) {
	a := NewAnalyzer()

	// Location-tagged events: balcony 4, car 2. Untagged events are ignored.
	var events []store.SmokingEvent
	for i := 0; i < 4; i++ {
		events = append(events, event(now.Add(-time.Duration(i+1)*time.Hour), "Balcony"))
	}
	events = append(events,
		event(now.Add(-10*time.Hour), "car"),
		event(now.Add(-11*time.Hour), "car"),
		event(now.Add(-12*time.Hour), "stress"),
	)

	insights := a.environmentalPattern(events, now)
	require.Len(t, insights, 1)
	assert.Equal(t, CategoryEnvironmental, insights[0].Category)
	assert.Contains(t, insights[0].Title, "balcony")
	assert.InDelta(t, 4.0/6.0, insights[0].Stats["share"], 1e-9)
}

func TestRegressionPattern(t *testing.T) {
	a := NewAnalyzer()

	// 10 this week versus 4 the week before: increase 6.
	var events []store.SmokingEvent
	for i := 0; i < 10; i++ {
		events = append(events, event(now.AddDate(0, 0, -(i%5)-1).Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event(now.AddDate(0, 0, -8-i)))
	}

	insights := a.regressionPattern(events, nil, now)
	require.Len(t, insights, 1)
	assert.Equal(t, CategoryRegression, insights[0].Category)
	assert.InDelta(t, 6.0, insights[0].Stats["increase"], 1e-9)
	assert.InDelta(t, 0.7, insights[0].Risk, 1e-9)
}

func TestRegressionPattern_WithinReductionTargetIsQuiet(t *testing.T) {
	a := NewAnalyzer()

	var events []store.SmokingEvent
	for i := 0; i < 10; i++ {
		events = append(events, event(now.AddDate(0, 0, -(i%5)-1).Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 4; i++ {
		events = append(events, event(now.AddDate(0, 0, -8-i)))
	}

	// A plan still allowing one per day tolerates an increase of 6 per week.
	profile := &store.UserProfile{DailyAverage: 1}
	assert.Empty(t, a.regressionPattern(events, profile, now))
}

func TestAnalyze_RetainsTopThreeByConfidenceSortedByRisk(t *testing.T) {
	a := NewAnalyzer()

	// History dense enough to trip several analyses at once: a strong 09:00
	// peak, heavy stress tagging, balcony location, and a weekly increase.
	var events []store.SmokingEvent
	for i := 0; i < 12; i++ {
		events = append(events, event(time.Date(2026, 8, 18+i, 9, 0, 0, 0, time.UTC), "stress", "balcony"))
	}
	for i := 0; i < 8; i++ {
		events = append(events, event(now.AddDate(0, 0, -(i%6)-1).Add(10*time.Hour).Add(time.Duration(i)*time.Minute), "stress"))
	}

	insights := a.Analyze(events, nil, now)
	require.NotEmpty(t, insights)
	assert.LessOrEqual(t, len(insights), MaxRetained)

	for i := 1; i < len(insights); i++ {
		assert.GreaterOrEqual(t, insights[i-1].Risk, insights[i].Risk)
	}
}

func TestAnalyze_EmptyHistory(t *testing.T) {
	a := NewAnalyzer()
	assert.Empty(t, a.Analyze(nil, nil, now))
}
