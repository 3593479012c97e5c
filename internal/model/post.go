package model

import "time"

const (
	PostStatusOpen     = "open"
	PostStatusProgress = "progress"
	PostStatusResolved = "resolved"
	PostStatusClosed   = "closed"
)

// PolicyUnspecified is the policy aspect of posts that match no category.
const PolicyUnspecified = "ไม่ระบุ"

type Post struct {
	ID             int64     `json:"id"`
	OwnerID        int64     `json:"owner_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Latitude       *float64  `json:"latitude"`
	Longitude      *float64  `json:"longitude"`
	District       string    `json:"district"`
	Status         string    `json:"status"`
	PolicyAspect   string    `json:"policy_aspect"`
	SentimentScore int       `json:"sentiment_score"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p *Post) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TagCount is a tag with the number of posts that carry it in some window.
type TagCount struct {
	Tag
	Posts int `json:"posts"`
}

type Comment struct {
	ID             int64     `json:"id"`
	AuthorID       int64     `json:"author_id"`
	PostID         *int64    `json:"post_id"`
	PollID         *int64    `json:"poll_id"`
	Content        string    `json:"content"`
	SentimentScore int       `json:"sentiment_score"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	ReactionLike   = "like"
	ReactionLove   = "love"
	ReactionWow    = "wow"
	ReactionUnlike = "unlike"
	ReactionAngry  = "angry"
)

type Reaction struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	PostID       int64     `json:"post_id"`
	ReactionType string    `json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// DistrictRanking aggregates post sentiment per district.
type DistrictRanking struct {
	District     string  `json:"district"`
	AvgSentiment float64 `json:"avg_sentiment"`
	PostCount    int     `json:"post_count"`
}
