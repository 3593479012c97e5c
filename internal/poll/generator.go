// Package poll creates the weekly trend poll from the most used hashtag.
package poll

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

// BotUsername owns generated polls. The account is privileged.
const BotUsername = "BMA-Bot"

const (
	trendWindow = 7 * 24 * time.Hour
	pollLength  = 7 * 24 * time.Hour
)

// Choices offered on every generated poll.
var Choices = []string{"เห็นด้วย", "ไม่เห็นด้วย", "ควรปรับปรุง"}

// Title returns the question asked about a tag.
func Title(tag string) string {
	return fmt.Sprintf("คุณมีความคิดเห็นอย่างไรกับประเด็น: #%s ในสัปดาห์นี้?", tag)
}

type Generator struct {
	posts  *store.PostStore
	polls  *store.PollStore
	users  *store.UserStore
	loc    *time.Location
	logger *slog.Logger
}

func NewGenerator(posts *store.PostStore, polls *store.PollStore, users *store.UserStore, loc *time.Location, logger *slog.Logger) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	return &Generator{
		posts:  posts,
		polls:  polls,
		users:  users,
		loc:    loc,
		logger: logger.With("component", "poll"),
	}
}

// GenerateWeekly creates a poll about the tag carried by the most posts in
// the seven days before now. It returns nil without error when no tag was
// used or when this ISO week's poll already exists.
func (g *Generator) GenerateWeekly(now time.Time) (*model.Poll, error) {
	top, err := g.posts.TopTagSince(now.Add(-trendWindow))
	if err != nil {
		return nil, err
	}
	if top == nil {
		g.logger.Info("no trending tag, weekly poll skipped")
		return nil, nil
	}

	bot, err := g.bot()
	if err != nil {
		return nil, err
	}

	existing, err := g.polls.LatestByOwnerSince(bot.ID, WeekStart(now, g.loc))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		g.logger.Info("weekly poll already created", "poll_id", existing.ID)
		return nil, nil
	}

	p, err := g.polls.Create(bot.ID, Title(top.Name), now.Add(pollLength), Choices)
	if err != nil {
		return nil, err
	}
	g.logger.Info("weekly poll created", "poll_id", p.ID, "tag", top.Name, "posts", top.Posts)
	return p, nil
}

func (g *Generator) bot() (*model.User, error) {
	bot, err := g.users.GetOrCreate(BotUsername, true)
	if err != nil {
		return nil, err
	}
	if !bot.IsPrivileged {
		if err := g.users.SetPrivileged(bot.ID, true); err != nil {
			return nil, err
		}
		bot.IsPrivileged = true
	}
	return bot, nil
}

// WeekStart returns Monday 00:00 of t's ISO week in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	offset := (int(t.Weekday()) + 6) % 7
	y, m, d := t.AddDate(0, 0, -offset).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
