package model

import "time"

type Poll struct {
	ID        int64        `json:"id"`
	OwnerID   int64        `json:"owner_id"`
	Title     string       `json:"title"`
	EndDate   time.Time    `json:"end_date"`
	CreatedAt time.Time    `json:"created_at"`
	Choices   []PollChoice `json:"choices,omitempty"`
}

// IsExpired reports whether voting has closed at the given instant.
func (p *Poll) IsExpired(now time.Time) bool {
	return p.EndDate.Before(now)
}

type PollChoice struct {
	ID     int64  `json:"id"`
	PollID int64  `json:"poll_id"`
	Text   string `json:"text"`
	Votes  int    `json:"votes"`
}

type PollVote struct {
	ID       int64     `json:"id"`
	PollID   int64     `json:"poll_id"`
	ChoiceID int64     `json:"choice_id"`
	UserID   int64     `json:"user_id"`
	VotedAt  time.Time `json:"voted_at"`
}
