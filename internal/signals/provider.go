// Package signals integrates best-effort physiological and activity signals.
// Every call is fallible and the caller substitutes a documented default on
// failure; nothing here may block feature computation.
package signals

import (
	"context"
	"time"
)

// Provider exposes external signals consumed by the feature extractor.
type Provider interface {
	// RecentActivityLevel returns step count over the trailing window.
	RecentActivityLevel(ctx context.Context, window time.Duration) (float64, error)
	// PoorSleepLastNight reports whether last night's sleep quality was poor.
	PoorSleepLastNight(ctx context.Context) (bool, error)
	// RecentNRTUse reports nicotine-replacement use within the window.
	RecentNRTUse(ctx context.Context, window time.Duration) (bool, error)
	// MindfulSessionsToday returns completed mindfulness sessions today.
	MindfulSessionsToday(ctx context.Context) (int, error)
}

// Neutral defaults substituted when a signal is unavailable. These are
// behavioral contracts: the risk scorer treats activity below 1000 as
// sedentary, so the default sits well above it.
const (
	DefaultActivityLevel = 5000.0
	DefaultPoorSleep     = false
	DefaultNRTUse        = false
	DefaultMindfulToday  = 0
	ActivityWindow       = 3 * time.Hour
	NRTWindow            = 12 * time.Hour
)

// StaticProvider returns fixed values, used when no device integration is
// configured and in tests.
type StaticProvider struct {
	Activity float64
	Sleep    bool
	NRT      bool
	Mindful  int
}

func (p *StaticProvider) RecentActivityLevel(ctx context.Context, window time.Duration) (float64, error) {
	return p.Activity, nil
}

func (p *StaticProvider) PoorSleepLastNight(ctx context.Context) (bool, error) {
	return p.Sleep, nil
}

func (p *StaticProvider) RecentNRTUse(ctx context.Context, window time.Duration) (bool, error) {
	return p.NRT, nil
}

func (p *StaticProvider) MindfulSessionsToday(ctx context.Context) (int, error) {
	return p.Mindful, nil
}
