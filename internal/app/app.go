// Package app wires the pipeline together: one store, one scheduler, one
// coach per process, all passed down explicitly.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/api"
	"github.com/gmsas95/quitcoach/internal/coach"
	"github.com/gmsas95/quitcoach/internal/coach/patterns"
	"github.com/gmsas95/quitcoach/internal/config"
	"github.com/gmsas95/quitcoach/internal/cron"
	"github.com/gmsas95/quitcoach/internal/metrics"
	"github.com/gmsas95/quitcoach/internal/notify"
	"github.com/gmsas95/quitcoach/internal/scheduler"
	"github.com/gmsas95/quitcoach/internal/signals"
	"github.com/gmsas95/quitcoach/internal/store"
)

// App holds the wired components
type App struct {
	Config    *config.Config
	Store     *store.Store
	Coach     *coach.Coach
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
	Version   string
}

// New builds the full pipeline from configuration.
func New(cfg *config.Config, logger *zap.Logger, version string) (*App, error) {
	st, err := store.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	m := metrics.Default()

	var provider signals.Provider = &signals.StaticProvider{
		Activity: signals.DefaultActivityLevel,
	}
	guarded := signals.NewGuarded(provider, signals.GuardConfig{
		Timeout:             time.Duration(cfg.Signals.TimeoutMillis) * time.Millisecond,
		ConsecutiveFailures: uint32(cfg.Signals.BreakerFailures),
		ResetTimeout:        time.Duration(cfg.Signals.BreakerResetSec) * time.Second,
	}, logger)

	sched := scheduler.New(scheduler.Config{
		MaxPerDay:          cfg.Scheduler.MaxPerDay,
		MinIntervalSeconds: cfg.Scheduler.MinIntervalSeconds,
		QuietStartHour:     cfg.Scheduler.QuietStartHour,
		QuietEndHour:       cfg.Scheduler.QuietEndHour,
	}, st, logger)

	var notifier notify.Notifier = notify.NewLogNotifier(logger)
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(notify.TelegramConfig{
			Token:  cfg.Notify.Telegram.BotToken,
			ChatID: cfg.Notify.Telegram.ChatID,
		}, logger)
		if err != nil {
			logger.Warn("Telegram notifier unavailable, falling back to log", zap.Error(err))
		} else {
			notifier = tg
		}
	}

	var tips coach.TipGenerator = coach.NewTemplateTips()
	if cfg.Coach.PersonalizedTips {
		tips = coach.NewPersonalizedTips()
	}

	extractor := coach.NewFeatureExtractor(st, guarded, st, cfg.Coach.VectorHistorySize, logger, m)

	c := coach.New(coach.Options{
		Extractor:           extractor,
		Scorer:              coach.NewRuleScorer(),
		Gate:                coach.NewSafetyGate(),
		Analyzer:            patterns.NewAnalyzer(),
		Tips:                tips,
		Scheduler:           sched,
		Notifier:            notifier,
		Events:              st,
		Insights:            st,
		ActivationThreshold: cfg.Coach.ActivationThreshold,
		Logger:              logger,
		Metrics:             m,
	})

	return &App{
		Config:    cfg,
		Store:     st,
		Coach:     c,
		Scheduler: sched,
		Metrics:   m,
		Logger:    logger,
		Version:   version,
	}, nil
}

// Close releases the app's resources.
func (a *App) Close() error {
	return a.Store.Close()
}

// RunServer starts the API server and cron jobs, blocking until a signal.
func (a *App) RunServer() error {
	server := api.New(a.Config, a.Store, a.Coach, a.Scheduler, a.Metrics, a.Logger)

	var runner *cron.Runner
	if a.Config.Cron.Enabled {
		runner = cron.NewRunner(a.Config.Cron, a.Coach, a.Store, a.Logger)
		if err := runner.Start(); err != nil {
			return fmt.Errorf("failed to start cron runner: %w", err)
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.Logger.Info("Shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			a.Logger.Error("Server stopped", zap.Error(err))
		}
	}

	if runner != nil {
		runner.Stop()
	}
	if err := server.Shutdown(); err != nil {
		a.Logger.Warn("Server shutdown failed", zap.Error(err))
	}
	return a.Close()
}

// DecideOnce runs one decision cycle and prints the outcome.
func (a *App) DecideOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	decision, err := a.Coach.Decide(ctx, time.Now())
	if err != nil {
		return err
	}

	if decision.Nudge {
		fmt.Printf("Nudge (%s, risk %.2f): %s\n", decision.Priority, decision.Risk, decision.Content)
	} else {
		fmt.Printf("Suppressed (%s), risk %.2f\n", decision.Reason, decision.Risk)
	}
	return nil
}

// AnalyzeOnce runs pattern analysis and prints the insights.
func (a *App) AnalyzeOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	insights, err := a.Coach.AnalyzeBehavior(ctx, time.Now())
	if err != nil {
		return err
	}

	if len(insights) == 0 {
		fmt.Println("No patterns detected yet. Keep logging.")
		return nil
	}
	for _, in := range insights {
		fmt.Printf("[%s] %s (confidence %.2f, risk %.2f)\n  %s\n",
			in.Category, in.Title, in.Confidence, in.Risk, in.Detail)
	}
	return nil
}

// LogEvent records a smoking event with optional tags.
func (a *App) LogEvent(tags []string) error {
	event, err := a.Store.CreateEvent(time.Now(), tags)
	if err != nil {
		return err
	}
	a.Metrics.RecordEventLogged()

	fmt.Printf("Logged event %s", event.ID)
	if len(event.Tags) > 0 {
		fmt.Printf(" with %d tag(s)", len(event.Tags))
	}
	fmt.Println()
	return nil
}

// PrintStatus shows the current vector and scheduler counters.
func (a *App) PrintStatus() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	vector, err := a.Coach.ComputeFeatures(ctx, time.Now())
	if err != nil {
		return err
	}

	cfg, state := a.Scheduler.Snapshot()

	fmt.Printf("Minutes since last cigarette: %.0f\n", vector.MinutesSinceLastEvent)
	fmt.Printf("Abstinence streak: %d day(s)\n", vector.AbstinenceStreakDays)
	fmt.Printf("Trailing 30-day rate: %.1f/day\n", vector.DailyAverageRate)
	fmt.Printf("Time-of-day risk: %.2f\n", vector.TimeOfDayRisk)
	fmt.Printf("Nudges today: %d/%d\n", state.SentToday, cfg.MaxPerDay)
	if state.LastSentAt != nil {
		fmt.Printf("Last nudge: %s\n", state.LastSentAt.Format(time.RFC3339))
	}
	return nil
}
