// Package scheduler owns the intervention rate-limiting state: last-sent
// time, the daily counter, and the quiet-hours window. All mutation goes
// through TrySchedule under one mutex; callers never touch the counters.
package scheduler

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
	"github.com/gmsas95/quitcoach/internal/store"
)

// Priority maps a risk score to delivery urgency. Critical bypasses silent
// batching on the delivery side.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityFor returns the delivery priority for a risk score.
func PriorityFor(risk float64) Priority {
	switch {
	case risk < 0.3:
		return PriorityLow
	case risk < 0.6:
		return PriorityNormal
	case risk < 0.8:
		return PriorityHigh
	default:
		return PriorityCritical
	}
}

// Suppression reasons reported in Result and metrics.
const (
	ReasonDailyCap   = "daily_cap_reached"
	ReasonInterval   = "minimum_interval"
	ReasonQuietHours = "quiet_hours"
)

// Result is the outcome of a scheduling attempt.
type Result struct {
	Accepted bool
	Reason   string
	Priority Priority
}

// Config holds the scheduler's rate limits.
type Config struct {
	MaxPerDay          int
	MinIntervalSeconds float64
	QuietStartHour     int
	QuietEndHour       int
}

// StateStore persists counters across process restarts.
type StateStore interface {
	SetKV(key string, value []byte) error
	GetKV(key string) ([]byte, error)
}

const stateKey = "scheduler:state"

// State is the persisted counter snapshot.
type State struct {
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
	SentToday  int        `json:"sent_today"`
}

// Scheduler turns an allowed high-risk decision into a scheduled
// notification while enforcing the daily cap, minimum interval, and quiet
// hours. Single-writer: the mutex serializes every check-then-act path.
type Scheduler struct {
	mu sync.Mutex

	maxPerDay   int
	minInterval time.Duration
	quietStart  int
	quietEnd    int

	lastSentAt *time.Time
	sentToday  int

	state  StateStore
	logger *zap.Logger
}

// New creates a scheduler, restoring persisted counters when available.
func New(cfg Config, state StateStore, logger *zap.Logger) *Scheduler {
	s := &Scheduler{
		maxPerDay:   cfg.MaxPerDay,
		minInterval: time.Duration(cfg.MinIntervalSeconds * float64(time.Second)),
		quietStart:  cfg.QuietStartHour,
		quietEnd:    cfg.QuietEndHour,
		state:       state,
		logger:      logger,
	}

	s.restore()
	return s
}

func (s *Scheduler) restore() {
	if s.state == nil {
		return
	}

	data, err := s.state.GetKV(stateKey)
	if err != nil {
		if !errors.Is(err, store.ErrKeyNotFound) {
			s.logger.Warn("Failed to restore scheduler state", zap.Error(err))
		}
		return
	}

	var ps State
	if err := json.Unmarshal(data, &ps); err != nil {
		s.logger.Warn("Persisted scheduler state corrupted, starting fresh", zap.Error(err))
		return
	}

	s.lastSentAt = ps.LastSentAt
	s.sentToday = ps.SentToday
}

func (s *Scheduler) persistLocked() {
	if s.state == nil {
		return
	}

	data, err := json.Marshal(State{
		LastSentAt: s.lastSentAt,
		SentToday:  s.sentToday,
	})
	if err != nil {
		s.logger.Error("Failed to marshal scheduler state", zap.Error(err))
		return
	}
	if err := s.state.SetKV(stateKey, data); err != nil {
		s.logger.Error("Failed to persist scheduler state", zap.Error(err))
	}
}

// TrySchedule applies the rate-limit checks for now and, on acceptance,
// commits the counter updates atomically. Rejections mutate nothing.
func (s *Scheduler) TrySchedule(risk float64, now time.Time) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Lazy daily reset: first attempt of a new calendar day clears the
	// counter. No background timer.
	if s.lastSentAt != nil && !sameDay(*s.lastSentAt, now) {
		s.sentToday = 0
	}

	if s.sentToday >= s.maxPerDay {
		return Result{Reason: ReasonDailyCap}
	}

	if s.lastSentAt != nil && now.Sub(*s.lastSentAt) < s.minInterval {
		return Result{Reason: ReasonInterval}
	}

	if s.inQuietHoursLocked(now.Hour()) {
		return Result{Reason: ReasonQuietHours}
	}

	// Commit point. Runs to completion; not cancellable.
	sent := now
	s.lastSentAt = &sent
	s.sentToday++

	if s.sentToday > s.maxPerDay {
		// Must never happen with the checks above. Clamp, never reset to a
		// more permissive value.
		s.logger.Error("Intervention counter exceeded daily cap, clamping",
			zap.Error(apperrors.ErrCounterInvariant),
			zap.Int("sent_today", s.sentToday),
			zap.Int("max_per_day", s.maxPerDay),
		)
		s.sentToday = s.maxPerDay
	}

	s.persistLocked()

	return Result{Accepted: true, Priority: PriorityFor(risk)}
}

// inQuietHoursLocked reports whether hour falls in the quiet window.
// start > end means the window wraps midnight.
func (s *Scheduler) inQuietHoursLocked(hour int) bool {
	start, end := s.quietStart, s.quietEnd
	if start == end {
		return false
	}
	if start < end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// SetQuietHours updates the quiet window with immediate effect.
func (s *Scheduler) SetQuietHours(start, end int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quietStart = start
	s.quietEnd = end
}

// SetMaxPerDay updates the daily cap with immediate effect.
func (s *Scheduler) SetMaxPerDay(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxPerDay = n
}

// SetMinimumInterval updates the minimum spacing between interventions.
func (s *Scheduler) SetMinimumInterval(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minInterval = time.Duration(seconds * float64(time.Second))
}

// Snapshot returns a read-only copy of the current limits and counters.
func (s *Scheduler) Snapshot() (Config, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Config{
		MaxPerDay:          s.maxPerDay,
		MinIntervalSeconds: s.minInterval.Seconds(),
		QuietStartHour:     s.quietStart,
		QuietEndHour:       s.quietEnd,
	}, State{LastSentAt: s.lastSentAt, SentToday: s.sentToday}
}
