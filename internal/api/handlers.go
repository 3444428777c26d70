package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleDecide(c *fiber.Ctx) error {
	decision, err := s.coach.Decide(c.Context(), time.Now())
	if err != nil {
		// Documented fallback: no decision this cycle, never a crash.
		s.logger.Error("Decision cycle failed", zap.Error(err))
		return c.Status(503).JSON(fiber.Map{"error": "no decision this cycle"})
	}

	return c.JSON(decision)
}

func (s *Server) handleFeatures(c *fiber.Ctx) error {
	vector, err := s.coach.ComputeFeatures(c.Context(), time.Now())
	if err != nil {
		s.logger.Error("Feature computation failed", zap.Error(err))
		return c.Status(503).JSON(fiber.Map{"error": "feature computation failed"})
	}

	return c.JSON(vector)
}

func (s *Server) handleInsights(c *fiber.Ctx) error {
	insights, err := s.store.ListInsights()
	if err != nil {
		s.logger.Error("Failed to list insights", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list insights"})
	}

	return c.JSON(insights)
}

func (s *Server) handleAnalyze(c *fiber.Ctx) error {
	insights, err := s.coach.AnalyzeBehavior(c.Context(), time.Now())
	if err != nil {
		s.logger.Error("Behavior analysis failed", zap.Error(err))
		return c.Status(503).JSON(fiber.Map{"error": "no insights this cycle"})
	}

	return c.JSON(insights)
}

func (s *Server) handleListEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)

	events, err := s.store.RecentEvents(limit)
	if err != nil {
		s.logger.Error("Failed to list events", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list events"})
	}

	return c.JSON(events)
}

func (s *Server) handleCreateEvent(c *fiber.Ctx) error {
	var req struct {
		SmokedAt *time.Time `json:"smoked_at"`
		Tags     []string   `json:"tags"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	smokedAt := time.Now()
	if req.SmokedAt != nil {
		smokedAt = *req.SmokedAt
	}

	event, err := s.store.CreateEvent(smokedAt, req.Tags)
	if err != nil {
		s.logger.Error("Failed to create event", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to create event"})
	}

	s.metrics.RecordEventLogged()
	return c.Status(201).JSON(event)
}

func (s *Server) handleDeleteEvent(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.store.DeleteEvent(id); err != nil {
		s.logger.Error("Failed to delete event", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete event"})
	}

	return c.SendStatus(204)
}

func (s *Server) handleListTags(c *fiber.Ctx) error {
	tags, err := s.store.ListTags()
	if err != nil {
		s.logger.Error("Failed to list tags", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list tags"})
	}

	return c.JSON(tags)
}

func (s *Server) handleDeleteTag(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.store.DeleteTag(id); err != nil {
		s.logger.Error("Failed to delete tag", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete tag"})
	}

	return c.SendStatus(204)
}

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	profile, err := s.store.FetchUserProfile()
	if err != nil {
		s.logger.Error("Failed to fetch profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch profile"})
	}

	return c.JSON(profile)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	var req struct {
		QuitDate               *time.Time `json:"quit_date"`
		DailyAverage           *float64   `json:"daily_average"`
		EnableGradualReduction *bool      `json:"enable_gradual_reduction"`
		ReductionStart         *time.Time `json:"reduction_start"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	profile, err := s.store.FetchUserProfile()
	if err != nil {
		s.logger.Error("Failed to fetch profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to fetch profile"})
	}

	if req.QuitDate != nil {
		profile.QuitDate = req.QuitDate
	}
	if req.DailyAverage != nil {
		if *req.DailyAverage < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "daily_average must not be negative"})
		}
		profile.DailyAverage = *req.DailyAverage
	}
	if req.EnableGradualReduction != nil {
		profile.EnableGradualReduction = *req.EnableGradualReduction
	}
	if req.ReductionStart != nil {
		profile.ReductionStart = req.ReductionStart
	}

	if err := s.store.SaveUserProfile(profile); err != nil {
		s.logger.Error("Failed to save profile", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to save profile"})
	}

	return c.JSON(profile)
}

func (s *Server) handleGetSchedulerConfig(c *fiber.Ctx) error {
	cfg, state := s.sched.Snapshot()
	return c.JSON(fiber.Map{
		"max_per_day":          cfg.MaxPerDay,
		"min_interval_seconds": cfg.MinIntervalSeconds,
		"quiet_start_hour":     cfg.QuietStartHour,
		"quiet_end_hour":       cfg.QuietEndHour,
		"sent_today":           state.SentToday,
		"last_sent_at":         state.LastSentAt,
	})
}

func (s *Server) handleUpdateSchedulerConfig(c *fiber.Ctx) error {
	var req struct {
		MaxPerDay          *int     `json:"max_per_day"`
		MinIntervalSeconds *float64 `json:"min_interval_seconds"`
		QuietStartHour     *int     `json:"quiet_start_hour"`
		QuietEndHour       *int     `json:"quiet_end_hour"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.MaxPerDay != nil {
		if *req.MaxPerDay < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "max_per_day must not be negative"})
		}
		s.sched.SetMaxPerDay(*req.MaxPerDay)
	}
	if req.MinIntervalSeconds != nil {
		if *req.MinIntervalSeconds < 0 {
			return c.Status(400).JSON(fiber.Map{"error": "min_interval_seconds must not be negative"})
		}
		s.sched.SetMinimumInterval(*req.MinIntervalSeconds)
	}
	if req.QuietStartHour != nil || req.QuietEndHour != nil {
		cfg, _ := s.sched.Snapshot()
		start, end := cfg.QuietStartHour, cfg.QuietEndHour
		if req.QuietStartHour != nil {
			start = *req.QuietStartHour
		}
		if req.QuietEndHour != nil {
			end = *req.QuietEndHour
		}
		if start < 0 || start > 23 || end < 0 || end > 23 {
			return c.Status(400).JSON(fiber.Map{"error": "quiet hours must be in [0,23]"})
		}
		s.sched.SetQuietHours(start, end)
	}

	return s.handleGetSchedulerConfig(c)
}
