package coach

import (
	"time"

	"github.com/gmsas95/quitcoach/internal/scheduler"
)

// FeatureVector is the fixed-shape summary of "right now" used for risk
// scoring. Every field has a defined fallback so the vector is always fully
// populated even when external signals fail.
type FeatureVector struct {
	MinutesSinceLastEvent float64   `json:"minutes_since_last_event"`
	HourOfDay             int       `json:"hour_of_day"`
	RecentActivityLevel   float64   `json:"recent_activity_level"`
	PoorSleep             bool      `json:"poor_sleep"`
	RecentNRTUse          bool      `json:"recent_nrt_use"`
	DaysSinceQuit         int       `json:"days_since_quit"`
	AbstinenceStreakDays  int       `json:"abstinence_streak_days"`
	DailyAverageRate      float64   `json:"daily_average_rate"`
	HasRecentTags         bool      `json:"has_recent_tags"`
	TimeOfDayRisk         float64   `json:"time_of_day_risk"`
	MindfulSessionsToday  int       `json:"mindful_sessions_today"`
	ComputedAt            time.Time `json:"computed_at"`
}

// Sentinel defaults, part of the behavioral contract.
const (
	// EmptyLogMinutesSince is reported when the event log is empty.
	EmptyLogMinutesSince = 1440.0
	// EmptyLogTimeOfDayRisk is reported when there is no hourly history.
	EmptyLogTimeOfDayRisk = 0.5
	// StreakLookbackDays caps the reported abstinence streak.
	StreakLookbackDays = 30
	// RecentTagWindow is how many newest events the tag flag inspects.
	RecentTagWindow = 5
)

// Decision is the outcome of one evaluation cycle: either a nudge worth
// delivering or a suppression with its reason. Consumed immediately, never
// persisted.
type Decision struct {
	Nudge    bool               `json:"nudge"`
	Reason   string             `json:"reason,omitempty"`
	Content  string             `json:"content,omitempty"`
	Priority scheduler.Priority `json:"priority,omitempty"`
	Risk     float64            `json:"risk"`
	Vector   FeatureVector      `json:"vector"`
}

// Suppression reasons produced by the pipeline itself (the scheduler has its
// own set).
const (
	ReasonBelowThreshold = "below_activation_threshold"
	ReasonTooSoon        = "too_soon_after_event"
	ReasonLateNight      = "late_night"
	ReasonLongStreak     = "long_streak"
)
