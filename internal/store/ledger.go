package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

// LedgerStore persists the activity log and the balances it drives.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// LedgerTx groups one balance change and its log row. Callers must Commit or
// Rollback.
type LedgerTx struct {
	tx *sql.Tx
}

func (s *LedgerStore) Begin() (*LedgerTx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &LedgerTx{tx: tx}, nil
}

func (t *LedgerTx) Commit() error {
	return t.tx.Commit()
}

func (t *LedgerTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *LedgerTx) User(id int64) (*model.User, error) {
	row := t.tx.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// EarnedBetween sums positive log entries in [start, end) excluding the given
// action type.
func (t *LedgerTx) EarnedBetween(userID int64, start, end time.Time, exclude string) (int, error) {
	var total int
	err := t.tx.QueryRow(
		`SELECT COALESCE(SUM(points_earned), 0) FROM activity_logs
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ? AND points_earned > 0 AND action_type != ?`,
		userID, start.UTC(), end.UTC(), exclude,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum earned: %w", err)
	}
	return total, nil
}

// AdjustPoints applies delta against the stored balance, flooring at zero, and
// returns the new balance.
func (t *LedgerTx) AdjustPoints(userID int64, delta int) (int, error) {
	var points int
	err := t.tx.QueryRow(
		`UPDATE users SET points = MAX(points + ?, 0) WHERE id = ? RETURNING points`,
		delta, userID,
	).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("adjust points: %w", err)
	}
	return points, nil
}

func (t *LedgerTx) SetStanding(userID int64, level int, title string) error {
	_, err := t.tx.Exec(`UPDATE users SET level = ?, title = ? WHERE id = ?`, level, title, userID)
	if err != nil {
		return fmt.Errorf("set level: %w", err)
	}
	return nil
}

func (t *LedgerTx) Append(userID int64, actionType string, points int, at time.Time) (*model.ActivityLogEntry, error) {
	result, err := t.tx.Exec(
		`INSERT INTO activity_logs (user_id, action_type, points_earned, timestamp) VALUES (?, ?, ?, ?)`,
		userID, actionType, points, at.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &model.ActivityLogEntry{
		ID:           id,
		UserID:       userID,
		ActionType:   actionType,
		PointsEarned: points,
		Timestamp:    at.UTC(),
	}, nil
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.ActivityLogEntry, error) {
	var e model.ActivityLogEntry
	err := scanner.Scan(&e.ID, &e.UserID, &e.ActionType, &e.PointsEarned, &e.Timestamp)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const entryCols = `id, user_id, action_type, points_earned, timestamp`

// ListByUser returns the user's most recent log entries, newest first.
func (s *LedgerStore) ListByUser(userID int64, limit int) ([]model.ActivityLogEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+entryCols+` FROM activity_logs WHERE user_id = ? ORDER BY timestamp DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var entries []model.ActivityLogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// EarnedBetween is the read-only form of LedgerTx.EarnedBetween.
func (s *LedgerStore) EarnedBetween(userID int64, start, end time.Time, exclude string) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(points_earned), 0) FROM activity_logs
		 WHERE user_id = ? AND timestamp >= ? AND timestamp < ? AND points_earned > 0 AND action_type != ?`,
		userID, start.UTC(), end.UTC(), exclude,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum earned: %w", err)
	}
	return total, nil
}

// SumByUser returns the net total of every log entry for the user.
func (s *LedgerStore) SumByUser(userID int64) (int, error) {
	var total int
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(points_earned), 0) FROM activity_logs WHERE user_id = ?`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum activity logs: %w", err)
	}
	return total, nil
}
