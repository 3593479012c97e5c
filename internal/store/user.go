package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

// DefaultTitle is the title every new user starts with at level 1.
const DefaultTitle = "พลเมืองใหม่"

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var privileged int
	err := scanner.Scan(&u.ID, &u.Username, &u.Points, &u.Level, &u.Title, &privileged, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.IsPrivileged = privileged != 0
	return &u, nil
}

const userCols = `id, username, points, level, title, is_privileged, created_at`

func (s *UserStore) Create(username string, privileged bool) (*model.User, error) {
	var p int
	if privileged {
		p = 1
	}

	result, err := s.db.Exec(
		`INSERT INTO users (username, title, is_privileged, created_at) VALUES (?, ?, ?, ?)`,
		username, DefaultTitle, p, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// GetOrCreate returns the user with the given username, creating it with the
// given privilege flag when absent. An existing user's flag is left as is.
func (s *UserStore) GetOrCreate(username string, privileged bool) (*model.User, error) {
	var p int
	if privileged {
		p = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO users (username, title, is_privileged, created_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (username) DO NOTHING`,
		username, DefaultTitle, p, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByUsername(username)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUsername(username string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE username = ?`, username)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (s *UserStore) SetPrivileged(id int64, privileged bool) error {
	var p int
	if privileged {
		p = 1
	}
	if _, err := s.db.Exec(`UPDATE users SET is_privileged = ? WHERE id = ?`, p, id); err != nil {
		return fmt.Errorf("set privileged: %w", err)
	}
	return nil
}

// ListGamified returns the IDs of every user that takes part in gamification.
func (s *UserStore) ListGamified() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM users WHERE is_privileged = 0 ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list gamified users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Top returns the highest-ranked non-privileged users: points, then level,
// then username.
func (s *UserStore) Top(limit int) ([]model.LeaderboardEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, username, points, level, title FROM users
		 WHERE is_privileged = 0
		 ORDER BY points DESC, level DESC, username ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Points, &e.Level, &e.Title); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
