package websocket

import (
	"net/http"
	"strconv"

	ws "github.com/coder/websocket"
)

// HandleWebSocket upgrades the connection and streams live events. An
// optional user_id query parameter limits the stream to that user.
func HandleWebSocket(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var userID int64
		if v := r.URL.Query().Get("user_id"); v != "" {
			id, err := strconv.ParseInt(v, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "invalid user_id", http.StatusBadRequest)
				return
			}
			userID = id
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}
