package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/moodmirror/backend/internal/services"
)

var moodUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// MoodWebSocket streams entries_updated events to a signed-in client so every
// open screen sees the refreshed list after a submission. Authentication uses
// the session token (Authorization: Bearer <token>, or ?token= for browser
// clients).
func MoodWebSocket(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		token = r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing session token", http.StatusUnauthorized)
			return
		}
	}

	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		http.Error(w, "invalid session token", http.StatusUnauthorized)
		return
	}

	conn, err := moodUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	// The subscription must be torn down with the connection so events are
	// never delivered to discarded state.
	eventsCh, unsubscribe := services.SubscribeMoodEvents(userID.String())
	defer unsubscribe()

	go func() {
		for evt := range eventsCh {
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}()

	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	// Reader loop: clients send nothing meaningful; it exists to refresh the
	// read deadline and detect disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	}
}
