package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

type CommentStore struct {
	db *sql.DB
}

func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func scanComment(scanner interface{ Scan(...any) error }) (*model.Comment, error) {
	var c model.Comment
	var postID, pollID sql.NullInt64

	err := scanner.Scan(&c.ID, &c.AuthorID, &postID, &pollID, &c.Content, &c.SentimentScore, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	if postID.Valid {
		c.PostID = &postID.Int64
	}
	if pollID.Valid {
		c.PollID = &pollID.Int64
	}
	return &c, nil
}

const commentCols = `id, author_id, post_id, poll_id, content, sentiment_score, created_at`

// Create inserts a comment on exactly one of a post or a poll.
func (s *CommentStore) Create(authorID int64, postID, pollID *int64, content string) (*model.Comment, error) {
	var pID, plID sql.NullInt64
	if postID != nil {
		pID = sql.NullInt64{Int64: *postID, Valid: true}
	}
	if pollID != nil {
		plID = sql.NullInt64{Int64: *pollID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO comments (author_id, post_id, poll_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		authorID, pID, plID, content, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CommentStore) GetByID(id int64) (*model.Comment, error) {
	row := s.db.QueryRow(`SELECT `+commentCols+` FROM comments WHERE id = ?`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (s *CommentStore) ListByPost(postID int64) ([]model.Comment, error) {
	rows, err := s.db.Query(
		`SELECT `+commentCols+` FROM comments WHERE post_id = ? ORDER BY created_at ASC, id ASC`,
		postID,
	)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (s *CommentStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentStore) SetSentiment(id int64, score int) error {
	_, err := s.db.Exec(`UPDATE comments SET sentiment_score = ? WHERE id = ?`, score, id)
	if err != nil {
		return fmt.Errorf("set comment sentiment: %w", err)
	}
	return nil
}
