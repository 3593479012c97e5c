// Package ledger is the authoritative points accounting: every credit or
// debit is one activity log row, ordinary earning is capped per calendar day,
// and level and title are rewritten from the balance after each change.
package ledger

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

// ErrUnknownUser is returned when a mutation targets a user that does not exist.
var ErrUnknownUser = errors.New("unknown user")

// Config holds the point tables and the daily cap.
type Config struct {
	Points     map[string]int
	Reactions  map[string]int
	DailyLimit int
	// Location decides where a calendar day starts. Nil means UTC.
	Location *time.Location
}

// DefaultConfig returns the stock point tables.
func DefaultConfig() Config {
	return Config{
		Points: map[string]int{
			model.ActionCreatePost:      30,
			model.ActionRemovePost:      -30,
			model.ActionCreateComment:   5,
			model.ActionRemoveComment:   -5,
			model.ActionPollVote:        15,
			model.ActionMissionComplete: 50,
		},
		Reactions: map[string]int{
			model.ReactionLike:   1,
			model.ReactionWow:    2,
			model.ReactionLove:   3,
			model.ReactionUnlike: -1,
			model.ReactionAngry:  -2,
		},
		DailyLimit: 200,
		Location:   time.UTC,
	}
}

// Result describes the outcome of one mutation. A zero Applied with a nil
// Entry means nothing was credited or debited.
type Result struct {
	UserID       int64
	Applied      int
	Points       int
	Level        int
	Title        string
	LevelChanged bool
	Entry        *model.ActivityLogEntry
}

// Notifier is told about every committed balance change.
type Notifier interface {
	PointsChanged(res Result)
}

// Notifiers fans one change out to several receivers in order.
type Notifiers []Notifier

func (ns Notifiers) PointsChanged(res Result) {
	for _, n := range ns {
		n.PointsChanged(res)
	}
}

type Ledger struct {
	store    *store.LedgerStore
	cfg      Config
	logger   *slog.Logger
	notifier Notifier
	now      func() time.Time
}

func New(s *store.LedgerStore, cfg Config, logger *slog.Logger) *Ledger {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &Ledger{
		store:  s,
		cfg:    cfg,
		logger: logger.With("component", "ledger"),
		now:    time.Now,
	}
}

// SetNotifier registers the receiver of balance changes. Call before use.
func (l *Ledger) SetNotifier(n Notifier) {
	l.notifier = n
}

// SetClock replaces the time source.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Location returns the time zone calendar days are computed in.
func (l *Ledger) Location() *time.Location {
	return l.cfg.Location
}

// DailyLimit returns the cap on ordinary points per calendar day.
func (l *Ledger) DailyLimit() int {
	return l.cfg.DailyLimit
}

// ReactionValue returns the points a reaction type is worth.
func (l *Ledger) ReactionValue(reactionType string) (int, bool) {
	v, ok := l.cfg.Reactions[reactionType]
	return v, ok
}

type mode int

const (
	capped mode = iota
	exempt
	debit
)

// AddPoints applies the configured delta for actionType. Privileged users,
// unknown action types and zero deltas are no-ops. Positive ordinary deltas
// are trimmed to what is left of today's cap; mission_complete is exempt.
func (l *Ledger) AddPoints(userID int64, actionType string) (Result, error) {
	delta, ok := l.cfg.Points[actionType]
	if !ok {
		l.logger.Warn("unknown action type", "user_id", userID, "action", actionType)
		return Result{UserID: userID}, nil
	}
	if delta == 0 {
		return Result{UserID: userID}, nil
	}

	m := capped
	switch {
	case actionType == model.ActionMissionComplete:
		m = exempt
	case delta < 0:
		m = debit
	}
	return l.apply(userID, actionType, delta, m)
}

// AwardBonus credits a mission bonus outside the daily cap, logged as
// mission_complete.
func (l *Ledger) AwardBonus(userID int64, bonus int) (Result, error) {
	if bonus <= 0 {
		return Result{UserID: userID}, nil
	}
	return l.apply(userID, model.ActionMissionComplete, bonus, exempt)
}

func (l *Ledger) apply(userID int64, actionType string, delta int, m mode) (Result, error) {
	res := Result{UserID: userID}

	tx, err := l.store.Begin()
	if err != nil {
		return res, err
	}
	defer tx.Rollback()

	u, err := tx.User(userID)
	if err != nil {
		return res, err
	}
	if u == nil {
		return res, fmt.Errorf("add points to user %d: %w", userID, ErrUnknownUser)
	}
	if u.IsPrivileged {
		return res, nil
	}

	now := l.now()
	award := delta
	if m == capped {
		start, end := l.dayBounds(now)
		// Bonuses are left out of the day's total, so completing a mission
		// never eats into the ordinary allowance. Counting every positive
		// entry would let a bonus shrink what the user can still earn.
		earned, err := tx.EarnedBetween(userID, start, end, model.ActionMissionComplete)
		if err != nil {
			return res, err
		}
		if earned >= l.cfg.DailyLimit {
			l.logger.Debug("daily limit reached", "user_id", userID, "action", actionType, "earned", earned)
			return res, nil
		}
		award = min(delta, l.cfg.DailyLimit-earned)
	}

	points, err := tx.AdjustPoints(userID, award)
	if err != nil {
		return res, err
	}
	applied := points - u.Points
	if applied == 0 {
		return res, nil
	}

	level := LevelFor(points)
	title := TitleFor(level)
	if err := tx.SetStanding(userID, level, title); err != nil {
		return res, err
	}

	entry, err := tx.Append(userID, actionType, applied, now)
	if err != nil {
		return res, err
	}
	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("commit points: %w", err)
	}

	res.Applied = applied
	res.Points = points
	res.Level = level
	res.Title = title
	res.LevelChanged = level != u.Level
	res.Entry = entry

	l.logger.Info("points applied",
		"user_id", userID,
		"action", actionType,
		"delta", applied,
		"points", points,
		"level", level,
	)
	l.notify(res)
	return res, nil
}

// ApplyReactionDelta moves the balance by delta without logging or capping
// it and returns the new balance. Privileged users are left untouched.
func (l *Ledger) ApplyReactionDelta(userID int64, delta int) (int, error) {
	tx, err := l.store.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	u, err := tx.User(userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, fmt.Errorf("apply reaction to user %d: %w", userID, ErrUnknownUser)
	}
	if u.IsPrivileged || delta == 0 {
		return u.Points, nil
	}

	points, err := tx.AdjustPoints(userID, delta)
	if err != nil {
		return 0, err
	}
	level := LevelFor(points)
	title := TitleFor(level)
	if err := tx.SetStanding(userID, level, title); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reaction delta: %w", err)
	}

	l.notify(Result{
		UserID:       userID,
		Applied:      points - u.Points,
		Points:       points,
		Level:        level,
		Title:        title,
		LevelChanged: level != u.Level,
	})
	return points, nil
}

// EarnedToday returns the ordinary points the user has earned so far today.
func (l *Ledger) EarnedToday(userID int64) (int, error) {
	start, end := l.dayBounds(l.now())
	return l.store.EarnedBetween(userID, start, end, model.ActionMissionComplete)
}

func (l *Ledger) dayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.In(l.cfg.Location).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, l.cfg.Location)
	return start, start.AddDate(0, 0, 1)
}

func (l *Ledger) notify(res Result) {
	if l.notifier != nil {
		l.notifier.PointsChanged(res)
	}
}
