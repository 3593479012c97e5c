package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

type ReactionStore struct {
	db *sql.DB
}

func NewReactionStore(db *sql.DB) *ReactionStore {
	return &ReactionStore{db: db}
}

const reactionCols = `id, user_id, post_id, reaction_type, created_at`

func (s *ReactionStore) Get(userID, postID int64) (*model.Reaction, error) {
	var r model.Reaction
	err := s.db.QueryRow(
		`SELECT `+reactionCols+` FROM reactions WHERE user_id = ? AND post_id = ?`,
		userID, postID,
	).Scan(&r.ID, &r.UserID, &r.PostID, &r.ReactionType, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reaction: %w", err)
	}
	return &r, nil
}

// Create inserts a reaction. It reports false without error when the user has
// already reacted to the post.
func (s *ReactionStore) Create(userID, postID int64, reactionType string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO reactions (user_id, post_id, reaction_type, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, reactionType, time.Now().UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

func (s *ReactionStore) UpdateType(id int64, reactionType string) error {
	_, err := s.db.Exec(`UPDATE reactions SET reaction_type = ? WHERE id = ?`, reactionType, id)
	if err != nil {
		return fmt.Errorf("update reaction: %w", err)
	}
	return nil
}

func (s *ReactionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reaction: %w", err)
	}
	return nil
}

// CountsByPost returns the number of reactions per type on a post.
func (s *ReactionStore) CountsByPost(postID int64) (map[string]int, error) {
	rows, err := s.db.Query(
		`SELECT reaction_type, COUNT(*) FROM reactions WHERE post_id = ? GROUP BY reaction_type`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("count reactions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("scan reaction count: %w", err)
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
