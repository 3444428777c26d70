package scheduler

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/store"
)

type fakeStateStore struct {
	data map[string][]byte
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{data: make(map[string][]byte)}
}

func (f *fakeStateStore) SetKV(key string, value []byte) error {
	f.data[key] = value
	return nil
}

func (f *fakeStateStore) GetKV(key string) ([]byte, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, store.ErrKeyNotFound
	}
	return v, nil
}

func testScheduler(t *testing.T, cfg Config) *Scheduler {
	logger, _ := zap.NewDevelopment()
	return New(cfg, newFakeStateStore(), logger)
}

// noon avoids the default quiet window in every test that isn't about quiet hours.
var noon = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func TestTrySchedule_Accepts(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 3600, QuietStartHour: 22, QuietEndHour: 7})

	result := s.TrySchedule(0.7, noon)
	assert.True(t, result.Accepted)
	assert.Empty(t, result.Reason)
	assert.Equal(t, PriorityHigh, result.Priority)

	_, state := s.Snapshot()
	assert.Equal(t, 1, state.SentToday)
	require.NotNil(t, state.LastSentAt)
	assert.Equal(t, noon, *state.LastSentAt)
}

func TestTrySchedule_MinimumInterval(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 3600, QuietStartHour: 22, QuietEndHour: 7})

	first := s.TrySchedule(0.7, noon)
	require.True(t, first.Accepted)

	second := s.TrySchedule(0.7, noon.Add(30*time.Minute))
	assert.False(t, second.Accepted)
	assert.Equal(t, ReasonInterval, second.Reason)

	// Rejection must not touch the counters.
	_, state := s.Snapshot()
	assert.Equal(t, 1, state.SentToday)

	third := s.TrySchedule(0.7, noon.Add(61*time.Minute))
	assert.True(t, third.Accepted)
}

func TestTrySchedule_DailyCap(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 2, MinIntervalSeconds: 60, QuietStartHour: 22, QuietEndHour: 7})

	require.True(t, s.TrySchedule(0.7, noon).Accepted)
	require.True(t, s.TrySchedule(0.7, noon.Add(2*time.Minute)).Accepted)

	result := s.TrySchedule(0.7, noon.Add(4*time.Minute))
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonDailyCap, result.Reason)
}

func TestTrySchedule_DailyReset(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 1, MinIntervalSeconds: 60, QuietStartHour: 22, QuietEndHour: 7})

	require.True(t, s.TrySchedule(0.5, noon).Accepted)
	require.False(t, s.TrySchedule(0.5, noon.Add(5*time.Minute)).Accepted)

	// First attempt of the next day clears the counter lazily.
	nextDay := noon.AddDate(0, 0, 1)
	result := s.TrySchedule(0.5, nextDay)
	assert.True(t, result.Accepted)

	_, state := s.Snapshot()
	assert.Equal(t, 1, state.SentToday)
}

func TestTrySchedule_QuietHoursWrapMidnight(t *testing.T) {
	cases := []struct {
		hour    int
		allowed bool
	}{
		{21, true},
		{22, false},
		{23, false},
		{0, false},
		{3, false},
		{6, false},
		{7, true},
		{12, true},
	}

	for _, tc := range cases {
		s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 60, QuietStartHour: 22, QuietEndHour: 7})
		at := time.Date(2026, 8, 31, tc.hour, 30, 0, 0, time.UTC)
		result := s.TrySchedule(0.5, at)
		if tc.allowed {
			assert.True(t, result.Accepted, "hour %d should be allowed", tc.hour)
		} else {
			assert.False(t, result.Accepted, "hour %d should be quiet", tc.hour)
			assert.Equal(t, ReasonQuietHours, result.Reason)
		}
	}
}

func TestTrySchedule_QuietHoursSameDay(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 60, QuietStartHour: 13, QuietEndHour: 15})

	assert.True(t, s.TrySchedule(0.5, time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)).Accepted)

	blocked := s.TrySchedule(0.5, time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC))
	assert.False(t, blocked.Accepted)
	assert.Equal(t, ReasonQuietHours, blocked.Reason)
}

func TestTrySchedule_QuietHoursDisabledWhenEqual(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 60, QuietStartHour: 8, QuietEndHour: 8})

	at := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	assert.True(t, s.TrySchedule(0.5, at).Accepted)
}

func TestScheduler_PersistsAndRestoresState(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	state := newFakeStateStore()
	cfg := Config{MaxPerDay: 5, MinIntervalSeconds: 3600, QuietStartHour: 22, QuietEndHour: 7}

	s := New(cfg, state, logger)
	require.True(t, s.TrySchedule(0.7, noon).Accepted)

	// A fresh scheduler over the same state store sees the counters.
	restored := New(cfg, state, logger)
	result := restored.TrySchedule(0.7, noon.Add(10*time.Minute))
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonInterval, result.Reason)

	_, snap := restored.Snapshot()
	assert.Equal(t, 1, snap.SentToday)
}

func TestScheduler_CorruptedStateStartsFresh(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	state := newFakeStateStore()
	state.data[stateKey] = []byte("{not json")

	s := New(Config{MaxPerDay: 5, MinIntervalSeconds: 60, QuietStartHour: 22, QuietEndHour: 7}, state, logger)
	assert.True(t, s.TrySchedule(0.5, noon).Accepted)
}

func TestScheduler_StateRoundTrip(t *testing.T) {
	sent := noon
	data, err := json.Marshal(State{LastSentAt: &sent, SentToday: 3})
	require.NoError(t, err)

	var restored State
	require.NoError(t, json.Unmarshal(data, &restored))
	assert.Equal(t, 3, restored.SentToday)
	require.NotNil(t, restored.LastSentAt)
	assert.True(t, restored.LastSentAt.Equal(sent))
}

func TestPriorityFor(t *testing.T) {
	cases := []struct {
		risk float64
		want Priority
	}{
		{0.0, PriorityLow},
		{0.29, PriorityLow},
		{0.3, PriorityNormal},
		{0.59, PriorityNormal},
		{0.6, PriorityHigh},
		{0.79, PriorityHigh},
		{0.8, PriorityCritical},
		{1.0, PriorityCritical},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, PriorityFor(tc.risk), "risk %.2f", tc.risk)
	}
}

func TestScheduler_SettersApplyImmediately(t *testing.T) {
	s := testScheduler(t, Config{MaxPerDay: 5, MinIntervalSeconds: 3600, QuietStartHour: 22, QuietEndHour: 7})

	s.SetMaxPerDay(1)
	s.SetMinimumInterval(60)
	s.SetQuietHours(0, 0)

	require.True(t, s.TrySchedule(0.5, noon).Accepted)

	result := s.TrySchedule(0.5, noon.Add(5*time.Minute))
	assert.False(t, result.Accepted)
	assert.Equal(t, ReasonDailyCap, result.Reason)

	cfg, _ := s.Snapshot()
	assert.Equal(t, 1, cfg.MaxPerDay)
	assert.Equal(t, 60.0, cfg.MinIntervalSeconds)
}
