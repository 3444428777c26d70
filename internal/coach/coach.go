// Package coach composes the adaptive coaching decision pipeline: feature
// extraction, risk scoring, the safety gate, tip selection, and intervention
// scheduling.
package coach

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gmsas95/quitcoach/internal/coach/patterns"
	apperrors "github.com/gmsas95/quitcoach/internal/errors"
	"github.com/gmsas95/quitcoach/internal/metrics"
	"github.com/gmsas95/quitcoach/internal/notify"
	"github.com/gmsas95/quitcoach/internal/scheduler"
	"github.com/gmsas95/quitcoach/internal/store"
)

// InsightStore persists analysis results for the presentation layer.
type InsightStore interface {
	ReplaceInsights(insights []store.InsightRecord) error
	ListInsights() ([]store.InsightRecord, error)
}

// Coach is the facade the presentation layer talks to. Constructed once per
// process with explicit collaborators; no ambient globals.
type Coach struct {
	extractor *FeatureExtractor
	scorer    Scorer
	gate      *SafetyGate
	analyzer  *patterns.Analyzer
	tips      TipGenerator
	sched     *scheduler.Scheduler
	notifier  notify.Notifier
	events    EventSource
	insights  InsightStore
	threshold float64
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// Options bundles the Coach's collaborators.
type Options struct {
	Extractor           *FeatureExtractor
	Scorer              Scorer
	Gate                *SafetyGate
	Analyzer            *patterns.Analyzer
	Tips                TipGenerator
	Scheduler           *scheduler.Scheduler
	Notifier            notify.Notifier
	Events              EventSource
	Insights            InsightStore
	ActivationThreshold float64
	Logger              *zap.Logger
	Metrics             *metrics.Metrics
}

// New builds a coach from its collaborators.
func New(opts Options) *Coach {
	if opts.ActivationThreshold <= 0 {
		opts.ActivationThreshold = 0.6
	}
	return &Coach{
		extractor: opts.Extractor,
		scorer:    opts.Scorer,
		gate:      opts.Gate,
		analyzer:  opts.Analyzer,
		tips:      opts.Tips,
		sched:     opts.Scheduler,
		notifier:  opts.Notifier,
		events:    opts.Events,
		insights:  opts.Insights,
		threshold: opts.ActivationThreshold,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}
}

// Decide evaluates "now" end to end and possibly schedules a nudge. A store
// failure is a hard error; the caller's fallback is no decision this cycle.
// Everything before the scheduler's commit is side-effect free and
// cancellable.
func (c *Coach) Decide(ctx context.Context, now time.Time) (Decision, error) {
	vector, err := c.extractor.Compute(ctx, now)
	if err != nil {
		c.metrics.RecordDecision("error")
		return Decision{}, err
	}

	risk := c.scorer.Score(vector)
	c.metrics.RecordRiskScore(risk)

	decision := Decision{Risk: risk, Vector: vector}

	if risk <= c.threshold {
		decision.Reason = ReasonBelowThreshold
		return c.suppressed(decision), nil
	}

	if ok, reason := c.gate.Allows(vector, risk, now); !ok {
		decision.Reason = reason
		return c.suppressed(decision), nil
	}

	if err := ctx.Err(); err != nil {
		c.metrics.RecordDecision("error")
		return Decision{}, err
	}

	result := c.sched.TrySchedule(risk, now)
	if !result.Accepted {
		decision.Reason = result.Reason
		return c.suppressed(decision), nil
	}

	decision.Nudge = true
	decision.Priority = result.Priority
	decision.Content = c.tips.TipFor(vector, c.latestInsights())

	c.metrics.RecordDecision("nudge")
	c.metrics.RecordNotification(string(result.Priority))
	c.logger.Info("Nudge scheduled",
		zap.Float64("risk", risk),
		zap.String("priority", string(result.Priority)),
	)

	if c.notifier != nil {
		if err := c.notifier.Send(ctx, notify.Notification{
			Content:  decision.Content,
			Priority: decision.Priority,
		}); err != nil {
			// Delivery is the external surface's concern; the decision stands.
			c.logger.Warn("Nudge delivery failed", zap.Error(err))
		}
	}

	return decision, nil
}

func (c *Coach) suppressed(d Decision) Decision {
	c.metrics.RecordDecision("suppressed")
	c.metrics.RecordSuppression(d.Reason)
	c.logger.Debug("Intervention suppressed",
		zap.String("reason", d.Reason),
		zap.Float64("risk", d.Risk),
	)
	return d
}

// ComputeFeatures exposes the feature vector for "now" without deciding.
func (c *Coach) ComputeFeatures(ctx context.Context, now time.Time) (FeatureVector, error) {
	return c.extractor.Compute(ctx, now)
}

// AnalyzeBehavior mines the full event history for patterns and persists the
// retained insights, replacing the previous run's set.
func (c *Coach) AnalyzeBehavior(ctx context.Context, now time.Time) ([]patterns.Insight, error) {
	events, err := c.events.FetchAllEvents()
	if err != nil {
		return nil, err
	}
	profile, err := c.events.FetchUserProfile()
	if err != nil {
		if !errors.Is(err, apperrors.ErrProfileNotFound) {
			return nil, err
		}
		profile = nil // analysis still works without a plan
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	insights := c.analyzer.Analyze(events, profile, now)
	c.metrics.RecordAnalysisRun(len(insights))

	if c.insights != nil {
		records := make([]store.InsightRecord, 0, len(insights))
		for _, in := range insights {
			statsJSON, _ := json.Marshal(in.Stats)
			records = append(records, store.InsightRecord{
				Category:   string(in.Category),
				Title:      in.Title,
				Detail:     in.Detail,
				Confidence: in.Confidence,
				Risk:       in.Risk,
				StatsJSON:  string(statsJSON),
				DetectedAt: in.DetectedAt,
			})
		}
		if err := c.insights.ReplaceInsights(records); err != nil {
			return nil, err
		}
	}

	c.logger.Info("Behavior analysis complete", zap.Int("insights", len(insights)))
	return insights, nil
}

// latestInsights loads the persisted insight set for tip personalization.
// Best effort: an empty slice just means generic tips.
func (c *Coach) latestInsights() []patterns.Insight {
	if c.insights == nil {
		return nil
	}
	records, err := c.insights.ListInsights()
	if err != nil {
		c.logger.Debug("Could not load insights for tip selection", zap.Error(err))
		return nil
	}

	insights := make([]patterns.Insight, 0, len(records))
	for _, r := range records {
		insights = append(insights, patterns.Insight{
			Category:   patterns.Category(r.Category),
			Title:      r.Title,
			Detail:     r.Detail,
			Confidence: r.Confidence,
			Risk:       r.Risk,
			DetectedAt: r.DetectedAt,
		})
	}
	return insights
}
