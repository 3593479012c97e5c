// Package handler holds the HTTP handlers for the public read surface, the
// civic write endpoints and the operational cron triggers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ZyrusXD/BMA-Voice/internal/civic"
)

// UserHeader carries the acting user's id, set by the fronting gateway.
const UserHeader = "X-User-ID"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func actorID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(UserHeader), 10, 64)
	return id, err == nil && id > 0
}

func queryInt(r *http.Request, name string, def, maxVal int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return def
	}
	return min(n, maxVal)
}

// civicStatus maps service errors onto HTTP status codes.
func civicStatus(err error) int {
	switch {
	case errors.Is(err, civic.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, civic.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, civic.ErrAlreadyVoted), errors.Is(err, civic.ErrPollClosed):
		return http.StatusConflict
	case errors.Is(err, civic.ErrInvalidChoice),
		errors.Is(err, civic.ErrInvalidReaction),
		errors.Is(err, civic.ErrInvalidStatus),
		errors.Is(err, civic.ErrInvalidPolicy),
		errors.Is(err, civic.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
