package coach

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
	"github.com/gmsas95/quitcoach/internal/metrics"
	"github.com/gmsas95/quitcoach/internal/signals"
	"github.com/gmsas95/quitcoach/internal/store"
)

// EventSource is the slice of the store the extractor reads. Queries return
// materialized slices, so concurrent readers observe consistent snapshots.
type EventSource interface {
	FetchAllEvents() ([]store.SmokingEvent, error)
	FetchUserProfile() (*store.UserProfile, error)
}

// VectorSink receives computed vectors for history continuity. Optional.
type VectorSink interface {
	AppendVectorSnapshot(snapshot json.RawMessage, max int) error
}

// FeatureExtractor computes a fully-populated feature vector for "now".
// Store read failures are hard errors; signal failures substitute neutral
// defaults and never surface.
type FeatureExtractor struct {
	events      EventSource
	signals     signals.Provider
	sink        VectorSink
	historySize int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewFeatureExtractor wires an extractor to its collaborators. sink may be
// nil when history persistence is not wanted.
func NewFeatureExtractor(events EventSource, provider signals.Provider, sink VectorSink, historySize int, logger *zap.Logger, m *metrics.Metrics) *FeatureExtractor {
	if historySize <= 0 {
		historySize = 100
	}
	return &FeatureExtractor{
		events:      events,
		signals:     provider,
		sink:        sink,
		historySize: historySize,
		logger:      logger,
		metrics:     m,
	}
}

// Compute derives the feature vector for now. The only error paths are event
// store reads and context cancellation.
func (f *FeatureExtractor) Compute(ctx context.Context, now time.Time) (FeatureVector, error) {
	events, err := f.events.FetchAllEvents()
	if err != nil {
		return FeatureVector{}, err
	}

	profile, err := f.events.FetchUserProfile()
	if err != nil {
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			return FeatureVector{}, err
		}
		profile = &store.UserProfile{}
	}

	if err := ctx.Err(); err != nil {
		return FeatureVector{}, err
	}

	v := FeatureVector{
		HourOfDay:  now.Hour(),
		ComputedAt: now,
	}

	v.MinutesSinceLastEvent = minutesSinceLast(events, now)
	v.AbstinenceStreakDays = currentStreakDays(events, now)
	v.DailyAverageRate = trailingDailyRate(events, now)
	v.TimeOfDayRisk = timeOfDayRisk(events, now)
	v.HasRecentTags = hasRecentTags(events)
	v.DaysSinceQuit = daysSinceQuit(profile, now)

	f.collectSignals(ctx, &v)

	if f.sink != nil {
		snapshot, err := json.Marshal(v)
		if err == nil {
			if err := f.sink.AppendVectorSnapshot(snapshot, f.historySize); err != nil {
				f.logger.Warn("Failed to persist feature vector", zap.Error(err))
			}
		}
	}

	return v, nil
}

// collectSignals fills the signal-backed fields, defaulting each one
// independently on failure.
func (f *FeatureExtractor) collectSignals(ctx context.Context, v *FeatureVector) {
	activity, err := f.signals.RecentActivityLevel(ctx, signals.ActivityWindow)
	if err != nil || activity < 0 {
		if err != nil {
			f.metrics.RecordSignalFailure("activity")
			f.logger.Debug("Activity signal unavailable", zap.Error(err))
		}
		activity = signals.DefaultActivityLevel
	}
	v.RecentActivityLevel = activity

	poorSleep, err := f.signals.PoorSleepLastNight(ctx)
	if err != nil {
		f.metrics.RecordSignalFailure("sleep")
		f.logger.Debug("Sleep signal unavailable", zap.Error(err))
		poorSleep = signals.DefaultPoorSleep
	}
	v.PoorSleep = poorSleep

	nrt, err := f.signals.RecentNRTUse(ctx, signals.NRTWindow)
	if err != nil {
		f.metrics.RecordSignalFailure("nrt")
		f.logger.Debug("NRT signal unavailable", zap.Error(err))
		nrt = signals.DefaultNRTUse
	}
	v.RecentNRTUse = nrt

	mindful, err := f.signals.MindfulSessionsToday(ctx)
	if err != nil || mindful < 0 {
		if err != nil {
			f.metrics.RecordSignalFailure("mindful")
			f.logger.Debug("Mindfulness signal unavailable", zap.Error(err))
		}
		mindful = signals.DefaultMindfulToday
	}
	v.MindfulSessionsToday = mindful
}

func minutesSinceLast(events []store.SmokingEvent, now time.Time) float64 {
	if len(events) == 0 {
		return EmptyLogMinutesSince
	}
	mins := now.Sub(events[0].SmokedAt).Minutes()
	return math.Max(0, mins)
}

// currentStreakDays counts consecutive zero-event calendar days ending
// today, capped at the lookback window. An empty log reports zero: with no
// history there is no streak to claim.
func currentStreakDays(events []store.SmokingEvent, now time.Time) int {
	if len(events) == 0 {
		return 0
	}

	eventDays := make(map[string]bool, len(events))
	loc := now.Location()
	for _, e := range events {
		eventDays[e.SmokedAt.In(loc).Format("2006-01-02")] = true
	}

	streak := 0
	for d := 0; d < StreakLookbackDays; d++ {
		day := now.AddDate(0, 0, -d).Format("2006-01-02")
		if eventDays[day] {
			break
		}
		streak++
	}
	return streak
}

// trailingDailyRate divides events in the trailing 30 days by 30; zero-event
// days count toward the denominator.
func trailingDailyRate(events []store.SmokingEvent, now time.Time) float64 {
	cutoff := now.AddDate(0, 0, -30)
	count := 0
	for _, e := range events {
		if e.SmokedAt.After(cutoff) && !e.SmokedAt.After(now) {
			count++
		}
	}
	return float64(count) / 30.0
}

// timeOfDayRisk is the current hour's share of all historical events,
// rescaled so a uniform distribution maps to 1.0, then clamped.
func timeOfDayRisk(events []store.SmokingEvent, now time.Time) float64 {
	if len(events) == 0 {
		return EmptyLogTimeOfDayRisk
	}

	loc := now.Location()
	hour := now.Hour()
	inHour := 0
	for _, e := range events {
		if e.SmokedAt.In(loc).Hour() == hour {
			inHour++
		}
	}

	risk := float64(inHour) / float64(len(events)) * 24.0
	return clamp(risk, 0.1, 1.0)
}

func hasRecentTags(events []store.SmokingEvent) bool {
	n := RecentTagWindow
	if len(events) < n {
		n = len(events)
	}
	for _, e := range events[:n] {
		if e.HasTags() {
			return true
		}
	}
	return false
}

func daysSinceQuit(profile *store.UserProfile, now time.Time) int {
	if profile == nil || profile.QuitDate == nil {
		return 0
	}
	days := int(now.Sub(*profile.QuitDate).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
