// Package scheduler runs daily mission assignment and the weekly trend poll
// on a ticker, alongside request traffic.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/mission"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/poll"
)

type Config struct {
	Interval    time.Duration
	Location    *time.Location
	PollWeekday time.Weekday
}

// Scheduler triggers each job at most once per period. Both jobs are
// idempotent, so a restart that repeats a trigger is harmless.
type Scheduler struct {
	missions *mission.Engine
	polls    *poll.Generator
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	stateMu    sync.Mutex
	lastDaily  string
	lastWeekly string

	mu     sync.RWMutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(missions *mission.Engine, polls *poll.Generator, cfg Config, logger *slog.Logger) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Scheduler{
		missions: missions,
		polls:    polls,
		cfg:      cfg,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// SetClock replaces the time source.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins the scheduler loop. The first check runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
	s.logger.Info("scheduler started", "interval", s.cfg.Interval, "poll_weekday", s.cfg.PollWeekday)
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) tick() {
	now := s.now().In(s.cfg.Location)
	date := now.Format(time.DateOnly)
	year, week := now.ISOWeek()
	isoWeek := fmt.Sprintf("%d-W%02d", year, week)

	s.stateMu.Lock()
	runDaily := s.lastDaily != date
	runWeekly := now.Weekday() == s.cfg.PollWeekday && s.lastWeekly != isoWeek
	s.stateMu.Unlock()

	if runDaily {
		if _, err := s.missions.AssignDaily(now); err != nil {
			s.logger.Error("daily mission assignment", "date", date, "error", err)
		} else {
			s.stateMu.Lock()
			s.lastDaily = date
			s.stateMu.Unlock()
		}
	}

	if runWeekly {
		if _, err := s.polls.GenerateWeekly(now); err != nil {
			s.logger.Error("weekly poll generation", "week", isoWeek, "error", err)
		} else {
			s.stateMu.Lock()
			s.lastWeekly = isoWeek
			s.stateMu.Unlock()
		}
	}
}

// RunDailyMissionAssignment assigns today's missions now.
func (s *Scheduler) RunDailyMissionAssignment() (mission.Summary, error) {
	return s.missions.AssignDaily(s.now())
}

// RunWeeklyPollGeneration creates this week's trend poll now. It returns
// nil when there was nothing to create.
func (s *Scheduler) RunWeeklyPollGeneration() (*model.Poll, error) {
	return s.polls.GenerateWeekly(s.now())
}
