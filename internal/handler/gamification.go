package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ZyrusXD/BMA-Voice/internal/leaderboard"
	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
	"github.com/ZyrusXD/BMA-Voice/internal/mission"
	"github.com/ZyrusXD/BMA-Voice/internal/model"
	"github.com/ZyrusXD/BMA-Voice/internal/store"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

type GamificationHandler struct {
	users    *store.UserStore
	activity *store.LedgerStore
	ledger   *ledger.Ledger
	missions *mission.Engine
	board    *leaderboard.Cache
	logger   *slog.Logger
}

func NewGamificationHandler(
	users *store.UserStore,
	activity *store.LedgerStore,
	l *ledger.Ledger,
	missions *mission.Engine,
	board *leaderboard.Cache,
	logger *slog.Logger,
) *GamificationHandler {
	return &GamificationHandler{
		users:    users,
		activity: activity,
		ledger:   l,
		missions: missions,
		board:    board,
		logger:   logger,
	}
}

func (h *GamificationHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, "error", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// lookup resolves the {id} path value to a user, writing the error response
// itself when it returns nil.
func (h *GamificationHandler) lookup(w http.ResponseWriter, r *http.Request) *model.User {
	id, ok := pathID(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	u, err := h.users.GetByID(id)
	if err != nil {
		h.internalError(w, "get user", err)
		return nil
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return nil
	}
	return u
}

func (h *GamificationHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.board.Top()
	if err != nil {
		h.internalError(w, "leaderboard", err)
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// CreateUser registers a username, returning the existing user if taken.
func (h *GamificationHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		writeError(w, http.StatusBadRequest, "username is required")
		return
	}

	u, err := h.users.GetOrCreate(req.Username, false)
	if err != nil {
		h.internalError(w, "create user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type userResponse struct {
	*model.User
	EarnedToday int `json:"earned_today"`
	DailyLimit  int `json:"daily_limit"`
}

func (h *GamificationHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u := h.lookup(w, r)
	if u == nil {
		return
	}
	earned, err := h.ledger.EarnedToday(u.ID)
	if err != nil {
		h.internalError(w, "earned today", err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u, EarnedToday: earned, DailyLimit: h.ledger.DailyLimit()})
}

func (h *GamificationHandler) Activity(w http.ResponseWriter, r *http.Request) {
	u := h.lookup(w, r)
	if u == nil {
		return
	}
	entries, err := h.activity.ListByUser(u.ID, queryInt(r, "limit", defaultActivityLimit, maxActivityLimit))
	if err != nil {
		h.internalError(w, "list activity", err)
		return
	}
	if entries == nil {
		entries = []model.ActivityLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *GamificationHandler) Missions(w http.ResponseWriter, r *http.Request) {
	u := h.lookup(w, r)
	if u == nil {
		return
	}
	missions, err := h.missions.Current(u.ID)
	if err != nil {
		h.internalError(w, "list missions", err)
		return
	}
	if missions == nil {
		missions = []model.UserMission{}
	}
	writeJSON(w, http.StatusOK, missions)
}
