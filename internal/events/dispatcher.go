// Package events turns persisted domain writes into ledger and mission calls.
// Callers invoke a Dispatcher method once, after the write has committed.
package events

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ZyrusXD/BMA-Voice/internal/geo"
	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/mission"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/sentiment"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

// DistrictResolver maps a coordinate to a district name.
type DistrictResolver interface {
	Resolve(lat, lon float64) string
}

type Dispatcher struct {
	ledger    *ledger.Ledger
	missions  *mission.Engine
	districts DistrictResolver
	posts     *store.PostStore
	comments  *store.CommentStore
	scorer    sentiment.Scorer
	logger    *slog.Logger
}

func NewDispatcher(
	l *ledger.Ledger,
	missions *mission.Engine,
	districts DistrictResolver,
	posts *store.PostStore,
	comments *store.CommentStore,
	scorer sentiment.Scorer,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		ledger:    l,
		missions:  missions,
		districts: districts,
		posts:     posts,
		comments:  comments,
		scorer:    scorer,
		logger:    logger.With("component", "events"),
	}
}

func (d *Dispatcher) eventLogger(name string, args ...any) *slog.Logger {
	return d.logger.With(append([]any{"event_id", uuid.NewString(), "event", name}, args...)...)
}

func (d *Dispatcher) addPoints(log *slog.Logger, userID int64, action string) {
	if _, err := d.ledger.AddPoints(userID, action); err != nil {
		log.Error("add points", "user_id", userID, "action", action, "error", err)
	}
}

// PostCreated routes the post to its district, credits the owner, advances
// post missions and stores the sentiment score and policy aspect.
func (d *Dispatcher) PostCreated(p *model.Post) {
	log := d.eventLogger("post_created", "post_id", p.ID, "user_id", p.OwnerID)

	if p.HasCoordinates() && p.District == "" {
		p.District = d.resolveDistrict(log, *p.Latitude, *p.Longitude)
		if err := d.posts.SetDistrict(p.ID, p.District); err != nil {
			log.Error("store district", "district", p.District, "error", err)
		}
	}

	d.addPoints(log, p.OwnerID, model.ActionCreatePost)
	d.missions.RecordProgress(p.OwnerID, model.ActionCreatePost)
	if len(p.Tags) > 0 {
		d.missions.RecordProgress(p.OwnerID, model.ActionCreatePostHashtag)
	}
	if p.HasCoordinates() {
		d.missions.RecordProgress(p.OwnerID, model.ActionCreatePostLocation)
	}

	d.analyzePost(log, p)
	log.Debug("post created handled", "district", p.District)
}

// resolveDistrict never fails: a panicking resolver yields geo.Undetermined.
func (d *Dispatcher) resolveDistrict(log *slog.Logger, lat, lon float64) (district string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("resolve district", "lat", lat, "lon", lon, "error", fmt.Sprint(r))
			district = geo.Undetermined
		}
	}()
	district = d.districts.Resolve(lat, lon)
	if district == "" {
		district = geo.Undetermined
	}
	return district
}

func (d *Dispatcher) analyzePost(log *slog.Logger, p *model.Post) {
	text := strings.TrimSpace(p.Title + " " + p.Content)

	score, err := d.scorer.Score(text)
	if err != nil {
		log.Error("score post sentiment", "error", err)
		score = 0
	}
	aspect := p.PolicyAspect
	if aspect == "" || aspect == model.PolicyUnspecified {
		aspect = sentiment.ClassifyPolicy(text)
	}

	if err := d.posts.SetAnalysis(p.ID, score, aspect); err != nil {
		log.Error("store post analysis", "error", err)
		return
	}
	p.SentimentScore = score
	p.PolicyAspect = aspect
}

// PostDeleted debits the owner. Mission progress earned by the post stays.
func (d *Dispatcher) PostDeleted(p *model.Post) {
	log := d.eventLogger("post_deleted", "post_id", p.ID, "user_id", p.OwnerID)
	d.addPoints(log, p.OwnerID, model.ActionRemovePost)
}

// CommentCreated credits the author, advances comment missions and scores
// the comment.
func (d *Dispatcher) CommentCreated(c *model.Comment) {
	log := d.eventLogger("comment_created", "comment_id", c.ID, "user_id", c.AuthorID)

	d.addPoints(log, c.AuthorID, model.ActionCreateComment)
	d.missions.RecordProgress(c.AuthorID, model.ActionCreateComment)

	score, err := d.scorer.Score(c.Content)
	if err != nil {
		log.Error("score comment sentiment", "error", err)
		return
	}
	if err := d.comments.SetSentiment(c.ID, score); err != nil {
		log.Error("store comment sentiment", "error", err)
		return
	}
	c.SentimentScore = score
}

func (d *Dispatcher) CommentDeleted(c *model.Comment) {
	log := d.eventLogger("comment_deleted", "comment_id", c.ID, "user_id", c.AuthorID)
	d.addPoints(log, c.AuthorID, model.ActionRemoveComment)
}

// PollVoteCreated must only be called for a user's first vote in a poll.
func (d *Dispatcher) PollVoteCreated(v *model.PollVote) {
	log := d.eventLogger("poll_vote_created", "poll_id", v.PollID, "user_id", v.UserID)
	d.addPoints(log, v.UserID, model.ActionPollVote)
	d.missions.RecordProgress(v.UserID, model.ActionPollVote)
}

// ReactionCreated settles a reaction write for the reacting user. previous
// is the type the user held on the post before the write ("" for none);
// r.ReactionType is the type now held ("" when toggled off). The balance
// moves by value(current) - value(previous) outside the daily cap, and a
// newly created like advances like missions.
func (d *Dispatcher) ReactionCreated(r *model.Reaction, previous string) {
	log := d.eventLogger("reaction_created",
		"post_id", r.PostID,
		"user_id", r.UserID,
		"reaction", r.ReactionType,
		"previous", previous,
	)

	oldValue, _ := d.ledger.ReactionValue(previous)
	newValue, _ := d.ledger.ReactionValue(r.ReactionType)
	if delta := newValue - oldValue; delta != 0 {
		if _, err := d.ledger.ApplyReactionDelta(r.UserID, delta); err != nil {
			log.Error("apply reaction delta", "delta", delta, "error", err)
		}
	}

	if previous == "" && r.ReactionType == model.ReactionLike {
		d.missions.RecordProgress(r.UserID, model.ActionCreateReactionLike)
	}
}

// Backfill re-scores up to limit posts that have no sentiment score or
// policy aspect yet and returns how many were processed.
func (d *Dispatcher) Backfill(limit int) (int, error) {
	posts, err := d.posts.ListUnanalyzed(limit)
	if err != nil {
		return 0, err
	}

	log := d.eventLogger("backfill")
	for i := range posts {
		d.analyzePost(log.With("post_id", posts[i].ID), &posts[i])
	}
	log.Info("posts analyzed", "count", len(posts))
	return len(posts), nil
}
