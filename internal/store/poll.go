package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

type PollStore struct {
	db *sql.DB
}

func NewPollStore(db *sql.DB) *PollStore {
	return &PollStore{db: db}
}

const pollCols = `id, owner_id, title, end_date, created_at`

func scanPoll(scanner interface{ Scan(...any) error }) (*model.Poll, error) {
	var p model.Poll
	err := scanner.Scan(&p.ID, &p.OwnerID, &p.Title, &p.EndDate, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a poll and its choices in one transaction.
func (s *PollStore) Create(ownerID int64, title string, endDate time.Time, choices []string) (*model.Poll, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT INTO polls (owner_id, title, end_date, created_at) VALUES (?, ?, ?, ?)`,
		ownerID, title, endDate.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert poll: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for _, text := range choices {
		if _, err := tx.Exec(`INSERT INTO poll_choices (poll_id, text) VALUES (?, ?)`, id, text); err != nil {
			return nil, fmt.Errorf("insert poll choice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit poll: %w", err)
	}
	return s.GetByID(id)
}

// GetByID returns the poll with its choices and their vote counts.
func (s *PollStore) GetByID(id int64) (*model.Poll, error) {
	row := s.db.QueryRow(`SELECT `+pollCols+` FROM polls WHERE id = ?`, id)
	p, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get poll: %w", err)
	}

	rows, err := s.db.Query(
		`SELECT c.id, c.poll_id, c.text, COUNT(v.id)
		 FROM poll_choices c LEFT JOIN poll_votes v ON v.choice_id = c.id
		 WHERE c.poll_id = ?
		 GROUP BY c.id, c.poll_id, c.text
		 ORDER BY c.id ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list poll choices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.PollChoice
		if err := rows.Scan(&c.ID, &c.PollID, &c.Text, &c.Votes); err != nil {
			return nil, fmt.Errorf("scan poll choice: %w", err)
		}
		p.Choices = append(p.Choices, c)
	}
	return p, rows.Err()
}

// LatestByOwnerSince returns the owner's newest poll created at or after since.
func (s *PollStore) LatestByOwnerSince(ownerID int64, since time.Time) (*model.Poll, error) {
	row := s.db.QueryRow(
		`SELECT `+pollCols+` FROM polls WHERE owner_id = ? AND created_at >= ? ORDER BY created_at DESC LIMIT 1`,
		ownerID, since.UTC(),
	)
	p, err := scanPoll(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest poll: %w", err)
	}
	return p, nil
}

// Vote records a user's first vote on a poll. Votes are immutable: a repeat
// vote reports created=false and leaves the original in place.
func (s *PollStore) Vote(pollID, choiceID, userID int64) (*model.PollVote, bool, error) {
	now := time.Now().UTC()
	result, err := s.db.Exec(
		`INSERT INTO poll_votes (poll_id, choice_id, user_id, voted_at)
		 SELECT ?, id, ?, ? FROM poll_choices WHERE id = ? AND poll_id = ?
		 ON CONFLICT (user_id, poll_id) DO NOTHING`,
		pollID, userID, now, choiceID, pollID,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert vote: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	var v model.PollVote
	err = s.db.QueryRow(
		`SELECT id, poll_id, choice_id, user_id, voted_at FROM poll_votes WHERE user_id = ? AND poll_id = ?`,
		userID, pollID,
	).Scan(&v.ID, &v.PollID, &v.ChoiceID, &v.UserID, &v.VotedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get vote: %w", err)
	}
	return &v, n == 1, nil
}
