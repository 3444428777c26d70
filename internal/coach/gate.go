package coach

import "time"

// SafetyGate applies hard veto rules after risk scoring and before
// scheduling. Any single veto is final; there is no override path.
type SafetyGate struct{}

// NewSafetyGate returns the veto rule set.
func NewSafetyGate() *SafetyGate {
	return &SafetyGate{}
}

// Allows evaluates the vetoes in priority order and returns false with the
// first reason that fires. Callers only consult the gate above the
// activation threshold.
func (g *SafetyGate) Allows(v FeatureVector, risk float64, now time.Time) (bool, string) {
	// Too soon after an event for a nudge to be meaningful.
	if v.MinutesSinceLastEvent < 10 {
		return false, ReasonTooSoon
	}

	// Late-night suppression unless this hour is historically very high-risk.
	hour := now.Hour()
	if (hour >= 23 || hour <= 5) && v.TimeOfDayRisk < 0.8 {
		return false, ReasonLateNight
	}

	// Someone already succeeding does not need coaching, unless the hour is
	// nearly certain trouble. High streak plus very high time risk still
	// nudges.
	if v.AbstinenceStreakDays > 30 && v.TimeOfDayRisk < 0.9 {
		return false, ReasonLongStreak
	}

	return true, ""
}
