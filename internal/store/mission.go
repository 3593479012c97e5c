package store

import (
	"database/sql"
	"fmt"

	"github.com/ZyrusXD/BMA-Voice/internal/model"
)

type MissionStore struct {
	db *sql.DB
}

func NewMissionStore(db *sql.DB) *MissionStore {
	return &MissionStore{db: db}
}

// --- Template methods ---

func scanTemplate(scanner interface{ Scan(...any) error }) (*model.MissionTemplate, error) {
	var m model.MissionTemplate
	err := scanner.Scan(&m.ID, &m.Title, &m.Description, &m.ActionType, &m.GoalCount, &m.BonusPoints)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const templateCols = `id, title, description, action_type, goal_count, bonus_points`

func (s *MissionStore) CreateTemplate(title, description, actionType string, goalCount, bonusPoints int) (*model.MissionTemplate, error) {
	result, err := s.db.Exec(
		`INSERT INTO missions (title, description, action_type, goal_count, bonus_points) VALUES (?, ?, ?, ?, ?)`,
		title, description, actionType, goalCount, bonusPoints,
	)
	if err != nil {
		return nil, fmt.Errorf("insert mission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetTemplateByID(id)
}

func (s *MissionStore) GetTemplateByID(id int64) (*model.MissionTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM missions WHERE id = ?`, id)
	m, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

func (s *MissionStore) GetTemplateByTitle(title string) (*model.MissionTemplate, error) {
	row := s.db.QueryRow(`SELECT `+templateCols+` FROM missions WHERE title = ? ORDER BY id LIMIT 1`, title)
	m, err := scanTemplate(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission by title: %w", err)
	}
	return m, nil
}

func (s *MissionStore) ListTemplates() ([]model.MissionTemplate, error) {
	rows, err := s.db.Query(`SELECT ` + templateCols + ` FROM missions ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var templates []model.MissionTemplate
	for rows.Next() {
		m, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		templates = append(templates, *m)
	}
	return templates, rows.Err()
}

// --- Assignment methods ---

func scanAssignment(scanner interface{ Scan(...any) error }) (*model.UserMission, error) {
	var um model.UserMission
	var completed int
	err := scanner.Scan(
		&um.ID, &um.UserID, &um.MissionID, &um.Date, &um.CurrentProgress, &completed,
		&um.Mission.ID, &um.Mission.Title, &um.Mission.Description, &um.Mission.ActionType,
		&um.Mission.GoalCount, &um.Mission.BonusPoints,
	)
	if err != nil {
		return nil, err
	}
	um.IsCompleted = completed != 0
	return &um, nil
}

const assignmentSelect = `SELECT um.id, um.user_id, um.mission_id, um.date, um.current_progress, um.is_completed,
	m.id, m.title, m.description, m.action_type, m.goal_count, m.bonus_points
	FROM user_missions um JOIN missions m ON m.id = um.mission_id`

func (s *MissionStore) listAssignments(query string, args ...any) ([]model.UserMission, error) {
	rows, err := s.db.Query(assignmentSelect+` `+query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []model.UserMission
	for rows.Next() {
		um, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, *um)
	}
	return out, rows.Err()
}

// Assign inserts an assignment at zero progress. It reports false without
// error when the (user, mission, date) row already exists.
func (s *MissionStore) Assign(userID, missionID int64, date string) (bool, error) {
	result, err := s.db.Exec(
		`INSERT INTO user_missions (user_id, mission_id, date) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, mission_id, date) DO NOTHING`,
		userID, missionID, date,
	)
	if err != nil {
		return false, fmt.Errorf("insert assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// AssignDay gives the user missionIDs for date in one write transaction,
// unless the user already holds any assignment for that date. It returns how
// many rows were created. Runs racing for the same user serialise on the
// write lock, so only one set is ever stored per user and day.
func (s *MissionStore) AssignDay(userID int64, date string, missionIDs []int64) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM user_missions WHERE user_id = ? AND date = ?)`,
		userID, date,
	).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check assignment: %w", err)
	}
	if exists == 1 {
		return 0, nil
	}

	created := 0
	for _, id := range missionIDs {
		result, err := tx.Exec(
			`INSERT INTO user_missions (user_id, mission_id, date) VALUES (?, ?, ?)
			 ON CONFLICT (user_id, mission_id, date) DO NOTHING`,
			userID, id, date,
		)
		if err != nil {
			return 0, fmt.Errorf("insert assignment: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		created += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit assignments: %w", err)
	}
	return created, nil
}

func (s *MissionStore) HasAssignment(userID int64, date string) (bool, error) {
	var exists int
	err := s.db.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM user_missions WHERE user_id = ? AND date = ?)`,
		userID, date,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return exists == 1, nil
}

// CompletedTemplateIDs returns the templates the user completed on date.
func (s *MissionStore) CompletedTemplateIDs(userID int64, date string) (map[int64]bool, error) {
	rows, err := s.db.Query(
		`SELECT mission_id FROM user_missions WHERE user_id = ? AND date = ? AND is_completed = 1`,
		userID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed missions: %w", err)
	}
	defer rows.Close()

	ids := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan mission id: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// ListByUserDate returns a user's assignments for date, open ones first.
func (s *MissionStore) ListByUserDate(userID int64, date string) ([]model.UserMission, error) {
	return s.listAssignments(
		`WHERE um.user_id = ? AND um.date = ? ORDER BY um.is_completed ASC, um.id ASC`,
		userID, date,
	)
}

// ListActiveByAction returns the user's open assignments for date whose
// template tracks actionType.
func (s *MissionStore) ListActiveByAction(userID int64, date, actionType string) ([]model.UserMission, error) {
	return s.listAssignments(
		`WHERE um.user_id = ? AND um.date = ? AND um.is_completed = 0 AND m.action_type = ? ORDER BY um.id ASC`,
		userID, date, actionType,
	)
}

// IncrementProgress adds one to an open assignment's progress and returns the
// new value. ok is false when the assignment is already completed or gone.
func (s *MissionStore) IncrementProgress(id int64) (progress int, ok bool, err error) {
	err = s.db.QueryRow(
		`UPDATE user_missions SET current_progress = current_progress + 1
		 WHERE id = ? AND is_completed = 0 RETURNING current_progress`,
		id,
	).Scan(&progress)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("increment progress: %w", err)
	}
	return progress, true, nil
}

// MarkCompleted flips an assignment to completed. It reports true only for the
// caller that performed the transition.
func (s *MissionStore) MarkCompleted(id int64) (bool, error) {
	result, err := s.db.Exec(`UPDATE user_missions SET is_completed = 1 WHERE id = ? AND is_completed = 0`, id)
	if err != nil {
		return false, fmt.Errorf("complete assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
