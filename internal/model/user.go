package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Points       int       `json:"points"`
	Level        int       `json:"level"`
	Title        string    `json:"title"`
	IsPrivileged bool      `json:"is_privileged"`
	CreatedAt    time.Time `json:"created_at"`
}

// LeaderboardEntry is one row of the public ranking.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Points   int    `json:"points"`
	Level    int    `json:"level"`
	Title    string `json:"title"`
}
