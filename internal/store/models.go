package store

import (
	"math"
	"time"
)

// SmokingEvent is a single logged smoking occurrence. Immutable once created
// except for tag reassignment; deleted only by explicit user action.
type SmokingEvent struct {
	ID       string    `json:"id" gorm:"primaryKey"`
	SmokedAt time.Time `json:"smoked_at" gorm:"index"`
	Tags     []Tag     `json:"tags" gorm:"many2many:event_tags;"`

	CreatedAt time.Time `json:"created_at"`
}

// Tag labels events with a trigger or context. Name matching is
// case-insensitive. Deleting a tag removes associations, never events.
type Tag struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"uniqueIndex"`
	ColorHex string `json:"color_hex"`

	CreatedAt time.Time `json:"created_at"`
}

// HasTags reports whether the event carries at least one tag.
func (e *SmokingEvent) HasTags() bool {
	return len(e.Tags) > 0
}

// UserProfile is the per-user plan singleton.
type UserProfile struct {
	ID                     string     `json:"id" gorm:"primaryKey"`
	QuitDate               *time.Time `json:"quit_date,omitempty"`
	DailyAverage           float64    `json:"daily_average"`
	EnableGradualReduction bool       `json:"enable_gradual_reduction"`
	ReductionStart         *time.Time `json:"reduction_start,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TodayTarget returns the allowed events-per-day target for now. With gradual
// reduction enabled it tapers linearly from the daily average at plan start
// down to zero at the quit date, so it never increases as the quit date
// approaches. Without a plan it is just the daily average.
func (p *UserProfile) TodayTarget(now time.Time) float64 {
	if p.DailyAverage <= 0 {
		return 0
	}
	if !p.EnableGradualReduction || p.QuitDate == nil {
		return p.DailyAverage
	}
	if !now.Before(*p.QuitDate) {
		return 0
	}

	start := p.CreatedAt
	if p.ReductionStart != nil {
		start = *p.ReductionStart
	}
	total := p.QuitDate.Sub(start)
	if total <= 0 {
		return 0
	}
	remaining := p.QuitDate.Sub(now)
	if remaining > total {
		return p.DailyAverage
	}

	target := p.DailyAverage * remaining.Seconds() / total.Seconds()
	return math.Max(0, target)
}

// InsightRecord is a persisted behavioral insight for the presentation layer.
// The analyzer replaces the full set on each run.
type InsightRecord struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Category   string    `json:"category" gorm:"index"`
	Title      string    `json:"title"`
	Detail     string    `json:"detail"`
	Confidence float64   `json:"confidence"`
	Risk       float64   `json:"risk"`
	StatsJSON  string    `json:"-" gorm:"type:text"`
	DetectedAt time.Time `json:"detected_at"`

	CreatedAt time.Time `json:"created_at"`
}
