// Package civic is the write side for posts, comments, votes and reactions.
// Each successful write is handed to the event dispatcher exactly once.
package civic

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/events"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/sentiment"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyVoted    = errors.New("already voted")
	ErrPollClosed      = errors.New("poll closed")
	ErrInvalidChoice   = errors.New("invalid poll choice")
	ErrInvalidReaction = errors.New("invalid reaction type")
	ErrInvalidStatus   = errors.New("invalid post status")
	ErrInvalidPolicy   = errors.New("invalid policy aspect")
	ErrInvalidInput    = errors.New("invalid input")
)

var reactionTypes = []string{
	model.ReactionLike, model.ReactionLove, model.ReactionWow, model.ReactionUnlike, model.ReactionAngry,
}

var postStatuses = []string{
	model.PostStatusOpen, model.PostStatusProgress, model.PostStatusResolved, model.PostStatusClosed,
}

// Reaction outcomes.
const (
	ReactionCreated = "created"
	ReactionChanged = "changed"
	ReactionRemoved = "removed"
)

type Service struct {
	users     *store.UserStore
	posts     *store.PostStore
	comments  *store.CommentStore
	polls     *store.PollStore
	reactions *store.ReactionStore
	events    *events.Dispatcher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(
	users *store.UserStore,
	posts *store.PostStore,
	comments *store.CommentStore,
	polls *store.PollStore,
	reactions *store.ReactionStore,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
) *Service {
	return &Service{
		users:     users,
		posts:     posts,
		comments:  comments,
		polls:     polls,
		reactions: reactions,
		events:    dispatcher,
		logger:    logger.With("component", "civic"),
		now:       time.Now,
	}
}

func (s *Service) user(id int64) (*model.User, error) {
	u, err := s.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, nil
}

// NewPost is the input to CreatePost.
type NewPost struct {
	OwnerID      int64
	Title        string
	Content      string
	PolicyAspect string
	Latitude     *float64
	Longitude    *float64
	Tags         []string
}

// CreatePost stores a post with its tags plus any #hashtags in its text.
func (s *Service) CreatePost(in NewPost) (*model.Post, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("post title is required: %w", ErrInvalidInput)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, fmt.Errorf("latitude and longitude go together: %w", ErrInvalidInput)
	}
	if in.PolicyAspect != "" && !sentiment.IsPolicyAspect(in.PolicyAspect) {
		return nil, fmt.Errorf("%q: %w", in.PolicyAspect, ErrInvalidPolicy)
	}
	if _, err := s.user(in.OwnerID); err != nil {
		return nil, err
	}

	tags := mergeTags(in.Tags, sentiment.ExtractHashtags(title+" "+in.Content))
	p, err := s.posts.Create(in.OwnerID, title, in.Content, in.PolicyAspect, in.Latitude, in.Longitude, "", tags)
	if err != nil {
		return nil, err
	}

	s.events.PostCreated(p)
	return p, nil
}

func mergeTags(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, t := range list {
			t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
			if t != "" && !slices.Contains(out, t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// Thread is a post with its comments and reaction counts.
type Thread struct {
	Post      *model.Post     `json:"post"`
	Comments  []model.Comment `json:"comments"`
	Reactions map[string]int  `json:"reactions"`
}

func (s *Service) Thread(postID int64) (*Thread, error) {
	p, err := s.posts.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	comments, err := s.comments.ListByPost(postID)
	if err != nil {
		return nil, err
	}
	counts, err := s.reactions.CountsByPost(postID)
	if err != nil {
		return nil, err
	}
	return &Thread{Post: p, Comments: comments, Reactions: counts}, nil
}

// DeletePost removes a post and its comments. Only its owner or a privileged
// user may.
func (s *Service) DeletePost(actorID, postID int64) error {
	actor, err := s.user(actorID)
	if err != nil {
		return err
	}
	p, err := s.posts.GetByID(postID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}
	if p.OwnerID != actorID && !actor.IsPrivileged {
		return ErrForbidden
	}

	// The delete cascades to the post's comments; their authors are debited
	// as if each comment had been removed on its own.
	comments, err := s.comments.ListByPost(postID)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(postID); err != nil {
		return err
	}
	s.events.PostDeleted(p)
	for i := range comments {
		s.events.CommentDeleted(&comments[i])
	}
	return nil
}

// CreateComment adds a comment to exactly one of a post or a poll.
func (s *Service) CreateComment(authorID int64, postID, pollID *int64, content string) (*model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("comment content is required: %w", ErrInvalidInput)
	}
	if (postID == nil) == (pollID == nil) {
		return nil, fmt.Errorf("comment needs one target: %w", ErrInvalidInput)
	}
	if _, err := s.user(authorID); err != nil {
		return nil, err
	}

	if postID != nil {
		p, err := s.posts.GetByID(*postID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("post %d: %w", *postID, ErrNotFound)
		}
	} else {
		p, err := s.polls.GetByID(*pollID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("poll %d: %w", *pollID, ErrNotFound)
		}
	}

	c, err := s.comments.Create(authorID, postID, pollID, content)
	if err != nil {
		return nil, err
	}
	s.events.CommentCreated(c)
	return c, nil
}

// DeleteComment removes a comment. Only its author or a privileged user may.
func (s *Service) DeleteComment(actorID, commentID int64) error {
	actor, err := s.user(actorID)
	if err != nil {
		return err
	}
	c, err := s.comments.GetByID(commentID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}
	if c.AuthorID != actorID && !actor.IsPrivileged {
		return ErrForbidden
	}

	if err := s.comments.Delete(commentID); err != nil {
		return err
	}
	s.events.CommentDeleted(c)
	return nil
}

// CastVote records a user's one vote on an open poll.
func (s *Service) CastVote(userID, pollID, choiceID int64) (*model.PollVote, error) {
	if _, err := s.user(userID); err != nil {
		return nil, err
	}
	p, err := s.polls.GetByID(pollID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("poll %d: %w", pollID, ErrNotFound)
	}
	if p.IsExpired(s.now()) {
		return nil, ErrPollClosed
	}

	v, created, err := s.polls.Vote(pollID, choiceID, userID)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrInvalidChoice
	}
	if !created {
		return v, ErrAlreadyVoted
	}

	s.events.PollVoteCreated(v)
	return v, nil
}

// ReactionResult is the outcome of React with the post's updated counts.
type ReactionResult struct {
	Action string         `json:"action"`
	Counts map[string]int `json:"counts"`
}

// React sets the user's reaction on a post. Reacting with the held type
// removes it; reacting with another type replaces it.
func (s *Service) React(userID, postID int64, reactionType string) (*ReactionResult, error) {
	if !slices.Contains(reactionTypes, reactionType) {
		return nil, fmt.Errorf("%q: %w", reactionType, ErrInvalidReaction)
	}
	if _, err := s.user(userID); err != nil {
		return nil, err
	}
	p, err := s.posts.GetByID(postID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	action, err := s.react(userID, postID, reactionType)
	if err != nil {
		return nil, err
	}

	counts, err := s.reactions.CountsByPost(postID)
	if err != nil {
		return nil, err
	}
	return &ReactionResult{Action: action, Counts: counts}, nil
}

func (s *Service) react(userID, postID int64, reactionType string) (string, error) {
	existing, err := s.reactions.Get(userID, postID)
	if err != nil {
		return "", err
	}

	if existing == nil {
		created, err := s.reactions.Create(userID, postID, reactionType)
		if err != nil {
			return "", err
		}
		if created {
			s.events.ReactionCreated(&model.Reaction{UserID: userID, PostID: postID, ReactionType: reactionType}, "")
			return ReactionCreated, nil
		}
		// Lost a race with a concurrent reaction by the same user.
		existing, err = s.reactions.Get(userID, postID)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return "", fmt.Errorf("reaction vanished during write: %w", ErrNotFound)
		}
	}

	if existing.ReactionType == reactionType {
		if err := s.reactions.Delete(existing.ID); err != nil {
			return "", err
		}
		s.events.ReactionCreated(&model.Reaction{ID: existing.ID, UserID: userID, PostID: postID}, existing.ReactionType)
		return ReactionRemoved, nil
	}

	if err := s.reactions.UpdateType(existing.ID, reactionType); err != nil {
		return "", err
	}
	updated := *existing
	updated.ReactionType = reactionType
	s.events.ReactionCreated(&updated, existing.ReactionType)
	return ReactionChanged, nil
}

// ChangeStatus moves a post through its triage states. Privileged users only.
func (s *Service) ChangeStatus(actorID, postID int64, status string) error {
	actor, err := s.user(actorID)
	if err != nil {
		return err
	}
	if !actor.IsPrivileged {
		return ErrForbidden
	}
	if !slices.Contains(postStatuses, status) {
		return fmt.Errorf("%q: %w", status, ErrInvalidStatus)
	}
	p, err := s.posts.GetByID(postID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("post %d: %w", postID, ErrNotFound)
	}

	if err := s.posts.SetStatus(postID, status); err != nil {
		return err
	}
	s.logger.Info("post status changed", "post_id", postID, "from", p.Status, "to", status, "actor_id", actorID)
	return nil
}
