package coach

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gmsas95/quitcoach/internal/coach/patterns"
)

func TestTemplateTips_PoolSelection(t *testing.T) {
	g := NewTemplateTips()

	postEvent := g.TipFor(FeatureVector{MinutesSinceLastEvent: 30, RecentActivityLevel: 5000}, nil)
	assert.Contains(t, postEventTips, postEvent)

	sleep := g.TipFor(FeatureVector{MinutesSinceLastEvent: 500, PoorSleep: true, RecentActivityLevel: 5000}, nil)
	assert.Contains(t, poorSleepTips, sleep)

	sedentary := g.TipFor(FeatureVector{MinutesSinceLastEvent: 500, RecentActivityLevel: 200}, nil)
	assert.Contains(t, lowActivityTips, sedentary)

	general := g.TipFor(FeatureVector{MinutesSinceLastEvent: 500, RecentActivityLevel: 5000}, nil)
	assert.Contains(t, generalTips, general)
}

func TestTemplateTips_Rotates(t *testing.T) {
	g := NewTemplateTips()
	v := FeatureVector{MinutesSinceLastEvent: 500, RecentActivityLevel: 5000}

	first := g.TipFor(v, nil)
	second := g.TipFor(v, nil)
	assert.NotEqual(t, first, second)
}

// One generator is shared between the HTTP handler and the cron sweep,
// so concurrent TipFor calls must stay race-free.
func TestTemplateTips_ConcurrentUse(t *testing.T) {
	g := NewTemplateTips()
	v := FeatureVector{MinutesSinceLastEvent: 500, RecentActivityLevel: 5000}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tip := g.TipFor(v, nil)
				assert.Contains(t, generalTips, tip)
			}
		}()
	}
	wg.Wait()
}

func TestPersonalizedTips_TopInsightDrivesContent(t *testing.T) {
	g := NewPersonalizedTips()
	v := FeatureVector{MinutesSinceLastEvent: 500, RecentActivityLevel: 5000}

	cases := []struct {
		category patterns.Category
		want     string
	}{
		{patterns.CategorySocialInfluence, "Social situations"},
		{patterns.CategoryStreakRelapse, "Break the script"},
		{patterns.CategoryRegression, "bends the curve"},
	}

	for _, tc := range cases {
		tip := g.TipFor(v, []patterns.Insight{{Category: tc.category, Title: "Trigger: stress"}})
		assert.Contains(t, tip, tc.want, "category %s", tc.category)
	}
}

func TestPersonalizedTips_FallsBackWithoutInsights(t *testing.T) {
	g := NewPersonalizedTips()
	v := FeatureVector{MinutesSinceLastEvent: 30, RecentActivityLevel: 5000}

	tip := g.TipFor(v, nil)
	assert.Contains(t, postEventTips, tip)
}
