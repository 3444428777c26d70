package patterns

import "time"

// Category classifies a detected behavioral pattern.
type Category string

const (
	CategoryTimeOfDay       Category = "time_of_day"
	CategorySocialInfluence Category = "social_influence"
	CategoryTrigger         Category = "trigger"
	CategoryStreakRelapse   Category = "streak_relapse"
	CategoryEnvironmental   Category = "environmental"
	CategoryRegression      Category = "progress_regression"
)

// Insight is a confidence-scored observation about recurring behavior,
// distinct from the per-moment risk score. Advisory: the pipeline survives
// losing any of them.
type Insight struct {
	Category   Category           `json:"category"`
	Title      string             `json:"title"`
	Detail     string             `json:"detail"`
	Confidence float64            `json:"confidence"`
	Risk       float64            `json:"risk"`
	Stats      map[string]float64 `json:"stats,omitempty"`
	DetectedAt time.Time          `json:"detected_at"`
}

// MaxRetained caps how many insights a single analysis run keeps, chosen by
// confidence descending.
const MaxRetained = 3
