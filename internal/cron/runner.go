// Package cron runs the periodic pipeline jobs: decision sweeps, nightly
// pattern analysis, and insight pruning.
package cron

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/coach"
	"github.com/gmsas95/quitcoach/internal/config"
	"github.com/gmsas95/quitcoach/internal/store"
)

// Runner schedules recurring coach jobs
type Runner struct {
	config  config.CronConfig
	coach   *coach.Coach
	store   *store.Store
	logger  *zap.Logger
	cron    *cron.Cron
	running bool
	mu      sync.RWMutex
}

// NewRunner creates a cron runner
func NewRunner(cfg config.CronConfig, c *coach.Coach, st *store.Store, logger *zap.Logger) *Runner {
	return &Runner{
		config: cfg,
		coach:  c,
		store:  st,
		logger: logger,
		cron:   cron.New(),
	}
}

// Start registers the jobs and starts the scheduler
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("cron runner already running")
	}

	if _, err := r.cron.AddFunc(r.config.DecideSpec, r.runDecide); err != nil {
		return fmt.Errorf("invalid decide spec %q: %w", r.config.DecideSpec, err)
	}
	if _, err := r.cron.AddFunc(r.config.AnalyzeSpec, r.runAnalyze); err != nil {
		return fmt.Errorf("invalid analyze spec %q: %w", r.config.AnalyzeSpec, err)
	}
	if _, err := r.cron.AddFunc(r.config.PruneSpec, r.runPrune); err != nil {
		return fmt.Errorf("invalid prune spec %q: %w", r.config.PruneSpec, err)
	}

	r.cron.Start()
	r.running = true

	r.logger.Info("Cron runner started",
		zap.String("decide", r.config.DecideSpec),
		zap.String("analyze", r.config.AnalyzeSpec),
		zap.String("prune", r.config.PruneSpec),
	)
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	ctx := r.cron.Stop()
	<-ctx.Done()
	r.logger.Info("Cron runner stopped")
}

// IsRunning returns whether the runner is active
func (r *Runner) IsRunning() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.running
}

func (r *Runner) runDecide() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	decision, err := r.coach.Decide(ctx, time.Now())
	if err != nil {
		// No decision this cycle. Silence toward the user is the safe default.
		r.logger.Error("Decision cycle failed", zap.Error(err))
		return
	}

	if decision.Nudge {
		r.logger.Info("Decision cycle produced a nudge",
			zap.Float64("risk", decision.Risk),
			zap.String("priority", string(decision.Priority)),
		)
	}
}

func (r *Runner) runAnalyze() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	insights, err := r.coach.AnalyzeBehavior(ctx, time.Now())
	if err != nil {
		r.logger.Error("Pattern analysis failed", zap.Error(err))
		return
	}

	r.logger.Info("Pattern analysis complete", zap.Int("insights", len(insights)))
}

func (r *Runner) runPrune() {
	maxAge := r.config.PruneMaxAge
	if maxAge <= 0 {
		maxAge = 90
	}
	cutoff := time.Now().AddDate(0, 0, -maxAge)

	pruned, err := r.store.PruneInsights(cutoff)
	if err != nil {
		r.logger.Error("Insight pruning failed", zap.Error(err))
		return
	}
	if pruned > 0 {
		r.logger.Info("Pruned stale insights", zap.Int64("count", pruned))
	}
}
