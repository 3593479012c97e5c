// Package mission assigns daily missions, tracks their progress and pays the
// completion bonus through the ledger.
package mission

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

// DailyCount is how many templates a user is given per day.
const DailyCount = 5

// Summary reports one batch assignment run.
type Summary struct {
	Date     string `json:"date"`
	Users    int    `json:"users"`
	Assigned int    `json:"assigned"`
	Skipped  int    `json:"skipped"`
	Failed   int    `json:"failed"`
}

// ProgressNotifier is told about assignments that moved.
type ProgressNotifier interface {
	MissionProgressed(m model.UserMission)
}

type Engine struct {
	missions *store.MissionStore
	users    *store.UserStore
	ledger   *ledger.Ledger
	loc      *time.Location
	logger   *slog.Logger
	notifier ProgressNotifier
	now      func() time.Time

	// rand.Rand is not safe for concurrent use; the scheduler and request
	// handlers both sample.
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewEngine(missions *store.MissionStore, users *store.UserStore, l *ledger.Ledger, logger *slog.Logger) *Engine {
	return &Engine{
		missions: missions,
		users:    users,
		ledger:   l,
		loc:      l.Location(),
		logger:   logger.With("component", "mission"),
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:      time.Now,
	}
}

// SetRand replaces the sampling source.
func (e *Engine) SetRand(r *rand.Rand) {
	e.rngMu.Lock()
	e.rng = r
	e.rngMu.Unlock()
}

// SetClock replaces the time source used to decide "today".
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

func (e *Engine) SetNotifier(n ProgressNotifier) {
	e.notifier = n
}

func (e *Engine) dateOf(t time.Time) string {
	return t.In(e.loc).Format(time.DateOnly)
}

// AssignDaily gives every non-privileged user without assignments on asOf's
// date a fresh sample of templates. Users that already have any assignment
// for the date are skipped, so repeated runs add nothing.
func (e *Engine) AssignDaily(asOf time.Time) (Summary, error) {
	summary := Summary{Date: e.dateOf(asOf)}

	templates, err := e.missions.ListTemplates()
	if err != nil {
		return summary, err
	}
	if len(templates) == 0 {
		e.logger.Warn("mission catalog is empty, nothing to assign", "date", summary.Date)
		return summary, nil
	}

	userIDs, err := e.users.ListGamified()
	if err != nil {
		return summary, err
	}
	summary.Users = len(userIDs)

	for _, userID := range userIDs {
		n, err := e.assign(userID, asOf, templates)
		if err != nil {
			summary.Failed++
			e.logger.Error("assign daily missions", "user_id", userID, "date", summary.Date, "error", err)
			continue
		}
		if n == 0 {
			summary.Skipped++
			continue
		}
		summary.Assigned += n
	}

	e.logger.Info("daily missions assigned",
		"date", summary.Date,
		"users", summary.Users,
		"assigned", summary.Assigned,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return summary, nil
}

// EnsureAssigned assigns asOf's missions to one user if they have none yet
// and returns how many were created.
func (e *Engine) EnsureAssigned(userID int64, asOf time.Time) (int, error) {
	u, err := e.users.GetByID(userID)
	if err != nil {
		return 0, err
	}
	if u == nil || u.IsPrivileged {
		return 0, nil
	}

	templates, err := e.missions.ListTemplates()
	if err != nil {
		return 0, err
	}
	if len(templates) == 0 {
		return 0, nil
	}
	return e.assign(userID, asOf, templates)
}

func (e *Engine) assign(userID int64, asOf time.Time, templates []model.MissionTemplate) (int, error) {
	date := e.dateOf(asOf)
	has, err := e.missions.HasAssignment(userID, date)
	if err != nil {
		return 0, err
	}
	if has {
		return 0, nil
	}

	yesterday := e.dateOf(asOf.In(e.loc).AddDate(0, 0, -1))
	done, err := e.missions.CompletedTemplateIDs(userID, yesterday)
	if err != nil {
		return 0, err
	}

	candidates := make([]model.MissionTemplate, 0, len(templates))
	for _, t := range templates {
		if !done[t.ID] {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		candidates = templates
	}

	picked := e.sample(candidates, DailyCount)
	ids := make([]int64, len(picked))
	for i, t := range picked {
		ids[i] = t.ID
	}
	return e.missions.AssignDay(userID, date, ids)
}

func (e *Engine) sample(templates []model.MissionTemplate, n int) []model.MissionTemplate {
	picked := make([]model.MissionTemplate, len(templates))
	copy(picked, templates)

	e.rngMu.Lock()
	defer e.rngMu.Unlock()
	e.rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	return picked[:min(n, len(picked))]
}

// RecordProgress advances each of today's open assignments of the user that
// track actionType and pays the bonus for any that reach their goal. Failures
// are logged and never undo the action that triggered the call. It returns
// the assignments that moved.
func (e *Engine) RecordProgress(userID int64, actionType string) []model.UserMission {
	date := e.dateOf(e.now())
	active, err := e.missions.ListActiveByAction(userID, date, actionType)
	if err != nil {
		e.logger.Error("list active missions", "user_id", userID, "action", actionType, "error", err)
		return nil
	}

	var moved []model.UserMission
	for _, um := range active {
		progress, ok, err := e.missions.IncrementProgress(um.ID)
		if err != nil {
			e.logger.Error("increment mission progress", "assignment_id", um.ID, "error", err)
			continue
		}
		if !ok {
			continue
		}
		um.CurrentProgress = progress

		if progress >= um.Mission.GoalCount {
			e.complete(&um)
		}
		moved = append(moved, um)
		if e.notifier != nil {
			e.notifier.MissionProgressed(um)
		}
	}
	return moved
}

func (e *Engine) complete(um *model.UserMission) {
	flipped, err := e.missions.MarkCompleted(um.ID)
	if err != nil {
		e.logger.Error("complete mission", "assignment_id", um.ID, "error", err)
		return
	}
	if !flipped {
		return
	}
	um.IsCompleted = true

	if _, err := e.ledger.AwardBonus(um.UserID, um.Mission.BonusPoints); err != nil {
		e.logger.Error("award mission bonus",
			"assignment_id", um.ID,
			"user_id", um.UserID,
			"bonus", um.Mission.BonusPoints,
			"error", err,
		)
		return
	}
	e.logger.Info("mission completed",
		"user_id", um.UserID,
		"mission", um.Mission.Title,
		"bonus", um.Mission.BonusPoints,
	)
}

// Today lists the user's assignments for the current date.
func (e *Engine) Today(userID int64) ([]model.UserMission, error) {
	return e.missions.ListByUserDate(userID, e.dateOf(e.now()))
}

// Current assigns today's missions to the user if the daily run has not
// reached them yet, then lists them.
func (e *Engine) Current(userID int64) ([]model.UserMission, error) {
	if _, err := e.EnsureAssigned(userID, e.now()); err != nil {
		return nil, err
	}
	return e.Today(userID)
}

type catalogFile struct {
	Missions []model.MissionTemplate `yaml:"missions"`
}

// SeedCatalog inserts the templates listed in a YAML file whose titles are
// not in the catalog yet, and returns how many were added.
func (e *Engine) SeedCatalog(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read catalog: %w", err)
	}

	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse catalog: %w", err)
	}

	added := 0
	for i, m := range file.Missions {
		if m.Title == "" || m.ActionType == "" {
			return added, fmt.Errorf("catalog entry %d: title and action_type are required", i)
		}
		if m.GoalCount < 1 {
			m.GoalCount = 1
		}
		if m.BonusPoints < 0 {
			return added, fmt.Errorf("catalog entry %q: negative bonus", m.Title)
		}

		existing, err := e.missions.GetTemplateByTitle(m.Title)
		if err != nil {
			return added, err
		}
		if existing != nil {
			continue
		}
		if _, err := e.missions.CreateTemplate(m.Title, m.Description, m.ActionType, m.GoalCount, m.BonusPoints); err != nil {
			return added, err
		}
		added++
	}

	e.logger.Info("mission catalog seeded", "path", path, "added", added, "total", len(file.Missions))
	return added, nil
}
