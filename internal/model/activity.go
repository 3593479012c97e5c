package model

import "time"

// Point-affecting action types recognised by the ledger and the mission engine.
const (
	ActionCreatePost         = "create_post"
	ActionRemovePost         = "remove_post"
	ActionCreateComment      = "create_comment"
	ActionRemoveComment      = "remove_comment"
	ActionPollVote           = "poll_vote"
	ActionMissionComplete    = "mission_complete"
	ActionCreatePostHashtag  = "create_post_hashtag"
	ActionCreatePostLocation = "create_post_location"
	ActionCreateReactionLike = "create_reaction_like"
)

// ActivityLogEntry is an immutable ledger row. PointsEarned is signed.
type ActivityLogEntry struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ActionType   string    `json:"action_type"`
	PointsEarned int       `json:"points_earned"`
	Timestamp    time.Time `json:"timestamp"`
}
