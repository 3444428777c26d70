package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleScorer_Recency(t *testing.T) {
	s := NewRuleScorer()

	base := FeatureVector{
		MinutesSinceLastEvent: 300,
		RecentActivityLevel:   5000,
		TimeOfDayRisk:         0.5,
	}
	baseline := s.Score(base)

	close := base
	close.MinutesSinceLastEvent = 30
	assert.InDelta(t, baseline+0.3, s.Score(close), 1e-9)

	near := base
	near.MinutesSinceLastEvent = 90
	assert.InDelta(t, baseline+0.2, s.Score(near), 1e-9)
}

func TestRuleScorer_AdditiveFactors(t *testing.T) {
	s := NewRuleScorer()

	v := FeatureVector{
		MinutesSinceLastEvent: 300,
		RecentActivityLevel:   5000,
		TimeOfDayRisk:         0.5,
	}
	// Only the time-of-day term contributes: 0.5 * 0.4.
	assert.InDelta(t, 0.2, s.Score(v), 1e-9)

	v.PoorSleep = true
	assert.InDelta(t, 0.4, s.Score(v), 1e-9)

	v.RecentActivityLevel = 500
	assert.InDelta(t, 0.55, s.Score(v), 1e-9)

	v.DailyAverageRate = 20
	assert.InDelta(t, 0.65, s.Score(v), 1e-9)
}

func TestRuleScorer_NRTProtection(t *testing.T) {
	s := NewRuleScorer()

	v := FeatureVector{
		MinutesSinceLastEvent: 30,
		RecentActivityLevel:   5000,
		TimeOfDayRisk:         1.0,
	}
	// 0.3 + 0.4 = 0.7 without protection.
	assert.InDelta(t, 0.7, s.Score(v), 1e-9)

	v.RecentNRTUse = true
	assert.InDelta(t, 0.49, s.Score(v), 1e-9)
}

func TestRuleScorer_StreakProtection(t *testing.T) {
	s := NewRuleScorer()

	v := FeatureVector{
		MinutesSinceLastEvent: 30,
		RecentActivityLevel:   5000,
		TimeOfDayRisk:         1.0,
	}
	raw := s.Score(v)

	v.AbstinenceStreakDays = 15
	assert.InDelta(t, raw*0.5, s.Score(v), 1e-9)

	// Beyond 21 days the factor floors at 0.3 instead of going to zero.
	v.AbstinenceStreakDays = 30
	assert.InDelta(t, raw*0.3, s.Score(v), 1e-9)
}

func TestRuleScorer_ClampedToUnitInterval(t *testing.T) {
	s := NewRuleScorer()

	worst := FeatureVector{
		MinutesSinceLastEvent: 5,
		RecentActivityLevel:   0,
		PoorSleep:             true,
		DailyAverageRate:      25,
		TimeOfDayRisk:         1.0,
	}
	score := s.Score(worst)
	assert.LessOrEqual(t, score, 1.0)
	assert.GreaterOrEqual(t, score, 0.0)

	best := FeatureVector{
		MinutesSinceLastEvent: 10000,
		RecentActivityLevel:   10000,
		TimeOfDayRisk:         0,
		RecentNRTUse:          true,
		AbstinenceStreakDays:  30,
	}
	assert.Equal(t, 0.0, s.Score(best))
}
