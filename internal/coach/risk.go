package coach

import "math"

// Scorer maps a feature vector to a craving-risk estimate in [0,1].
// Deterministic and side-effect free, so a trained classifier can swap in
// behind the same signature.
type Scorer interface {
	Score(v FeatureVector) float64
}

// Rule weights. Additive terms accumulate first; protective multipliers
// apply afterwards so NRT use and long streaks compound instead of capping
// risk independently.
const (
	recencyCloseWeight   = 0.3 // < 60 minutes since last event
	recencyNearWeight    = 0.2 // < 120 minutes
	timeOfDayWeight      = 0.4
	poorSleepWeight      = 0.2
	lowActivityWeight    = 0.15
	heavyRateWeight      = 0.1
	lowActivityThreshold = 1000.0
	heavyRateThreshold   = 15.0
	nrtProtection        = 0.7
	streakProtectionMin  = 0.3
)

// RuleScorer is the explicit weighted-rule implementation of Scorer.
type RuleScorer struct{}

// NewRuleScorer returns the default rule-based scorer.
func NewRuleScorer() *RuleScorer {
	return &RuleScorer{}
}

// Score applies the weighted rules and clamps the result to [0,1].
func (s *RuleScorer) Score(v FeatureVector) float64 {
	risk := 0.0

	switch {
	case v.MinutesSinceLastEvent < 60:
		risk += recencyCloseWeight
	case v.MinutesSinceLastEvent < 120:
		risk += recencyNearWeight
	}

	risk += v.TimeOfDayRisk * timeOfDayWeight

	if v.PoorSleep {
		risk += poorSleepWeight
	}
	if v.RecentActivityLevel < lowActivityThreshold {
		risk += lowActivityWeight
	}
	if v.DailyAverageRate > heavyRateThreshold {
		risk += heavyRateWeight
	}

	if v.RecentNRTUse {
		risk *= nrtProtection
	}
	if v.AbstinenceStreakDays > 0 {
		factor := 1.0 - float64(v.AbstinenceStreakDays)/30.0
		risk *= math.Max(streakProtectionMin, factor)
	}

	return clamp(risk, 0, 1)
}
