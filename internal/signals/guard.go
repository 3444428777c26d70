package signals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	apperrors "github.com/gmsas95/quitcoach/internal/errors"
)

// GuardConfig holds failure-isolation settings for signal calls
type GuardConfig struct {
	// Timeout per signal call
	Timeout time.Duration

	// ConsecutiveFailures before the breaker opens
	ConsecutiveFailures uint32

	// ResetTimeout before a half-open probe
	ResetTimeout time.Duration
}

// DefaultGuardConfig returns conservative bounds for on-device providers
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Timeout:             1500 * time.Millisecond,
		ConsecutiveFailures: 3,
		ResetTimeout:        time.Minute,
	}
}

// Guarded wraps a Provider with per-signal circuit breakers and a per-call
// timeout so one slow or broken signal cannot stall the pipeline. Failures
// still surface as errors; defaulting stays with the caller.
type Guarded struct {
	inner  Provider
	config GuardConfig
	logger *zap.Logger

	activity *gobreaker.CircuitBreaker[float64]
	sleep    *gobreaker.CircuitBreaker[bool]
	nrt      *gobreaker.CircuitBreaker[bool]
	mindful  *gobreaker.CircuitBreaker[int]
}

// NewGuarded creates a guarded provider around inner
func NewGuarded(inner Provider, cfg GuardConfig, logger *zap.Logger) *Guarded {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGuardConfig().Timeout
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = DefaultGuardConfig().ConsecutiveFailures
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultGuardConfig().ResetTimeout
	}

	g := &Guarded{
		inner:  inner,
		config: cfg,
		logger: logger,
	}

	g.activity = gobreaker.NewCircuitBreaker[float64](g.settings("signal_activity"))
	g.sleep = gobreaker.NewCircuitBreaker[bool](g.settings("signal_sleep"))
	g.nrt = gobreaker.NewCircuitBreaker[bool](g.settings("signal_nrt"))
	g.mindful = gobreaker.NewCircuitBreaker[int](g.settings("signal_mindful"))

	return g
}

func (g *Guarded) settings(name string) gobreaker.Settings {
	failures := g.config.ConsecutiveFailures
	return gobreaker.Settings{
		Name:    name,
		Timeout: g.config.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			g.logger.Warn("Signal breaker state change",
				zap.String("signal", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

// classify maps guard-level failures onto the error catalog so callers can
// tell an open breaker from a provider that ran out its timeout.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %v", apperrors.ErrSignalUnavailable, err)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", apperrors.ErrSignalTimeout, err)
	default:
		return err
	}
}

func (g *Guarded) RecentActivityLevel(ctx context.Context, window time.Duration) (float64, error) {
	v, err := g.activity.Execute(func() (float64, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return g.inner.RecentActivityLevel(callCtx, window)
	})
	return v, classify(err)
}

func (g *Guarded) PoorSleepLastNight(ctx context.Context) (bool, error) {
	v, err := g.sleep.Execute(func() (bool, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return g.inner.PoorSleepLastNight(callCtx)
	})
	return v, classify(err)
}

func (g *Guarded) RecentNRTUse(ctx context.Context, window time.Duration) (bool, error) {
	v, err := g.nrt.Execute(func() (bool, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return g.inner.RecentNRTUse(callCtx, window)
	})
	return v, classify(err)
}

func (g *Guarded) MindfulSessionsToday(ctx context.Context) (int, error) {
	v, err := g.mindful.Execute(func() (int, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
		return g.inner.MindfulSessionsToday(callCtx)
	})
	return v, classify(err)
}
