package model

// MissionTemplate is a catalog entry. Goal counts start at 1.
type MissionTemplate struct {
	ID          int64  `json:"id" yaml:"-"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	ActionType  string `json:"action_type" yaml:"action_type"`
	GoalCount   int    `json:"goal_count" yaml:"goal_count"`
	BonusPoints int    `json:"bonus_points" yaml:"bonus_points"`
}

// UserMission is a per-user, per-day assignment of a template.
// Date is a calendar date in time.DateOnly layout.
type UserMission struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"user_id"`
	MissionID       int64           `json:"mission_id"`
	Date            string          `json:"date"`
	CurrentProgress int             `json:"current_progress"`
	IsCompleted     bool            `json:"is_completed"`
	Mission         MissionTemplate `json:"mission"`
}
