package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ValidLogLevels returns the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidLogFormats returns the accepted logging.format values.
func ValidLogFormats() []string {
	return []string{"text", "json"}
}

// Validate reports every invalid setting.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field string, value any, msg string) {
		errs = append(errs, ValidationError{Field: field, Value: value, Message: msg})
	}

	if strings.TrimSpace(c.Server.Addr) == "" {
		add("server.addr", c.Server.Addr, "must not be empty")
	}
	if c.Server.ShutdownTimeout <= 0 {
		add("server.shutdown_timeout", c.Server.ShutdownTimeout, "must be positive")
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		add("database.path", c.Database.Path, "must not be empty")
	}
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		add("logging.level", c.Logging.Level, "must be one of "+strings.Join(ValidLogLevels(), ", "))
	}
	if !slices.Contains(ValidLogFormats(), strings.ToLower(c.Logging.Format)) {
		add("logging.format", c.Logging.Format, "must be one of "+strings.Join(ValidLogFormats(), ", "))
	}

	if c.Ledger.DailyLimit <= 0 {
		add("ledger.daily_limit", c.Ledger.DailyLimit, "must be positive")
	}
	if _, err := time.LoadLocation(c.Ledger.Timezone); err != nil {
		add("ledger.timezone", c.Ledger.Timezone, "unknown time zone")
	}
	for action, pts := range c.Ledger.Points {
		if action == model.ActionMissionComplete && pts < 0 {
			add("ledger.points."+action, pts, "must not be negative")
		}
	}
	if len(c.Ledger.Points) == 0 {
		add("ledger.points", c.Ledger.Points, "must not be empty")
	}

	if c.Scheduler.Interval < time.Second {
		add("scheduler.interval", c.Scheduler.Interval, "must be at least 1s")
	}
	if _, err := ParseWeekday(c.Scheduler.PollWeekday); err != nil {
		add("scheduler.poll_weekday", c.Scheduler.PollWeekday, "must be a weekday name")
	}

	if c.Leaderboard.Size < 1 {
		add("leaderboard.size", c.Leaderboard.Size, "must be at least 1")
	}
	if c.Leaderboard.TTL < 0 {
		add("leaderboard.ttl", c.Leaderboard.TTL, "must not be negative")
	}

	if h := c.Cron.TokenHash; h != "" && !strings.HasPrefix(h, "$2") {
		add("cron.token_hash", "<redacted>", "must be a bcrypt hash")
	}
	if c.Cron.RequestsPerMin < 1 {
		add("cron.requests_per_min", c.Cron.RequestsPerMin, "must be at least 1")
	}
	if c.Cron.BackfillBatch < 1 {
		add("cron.backfill_batch", c.Cron.BackfillBatch, "must be at least 1")
	}
	return errs
}
