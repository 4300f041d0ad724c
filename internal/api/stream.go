package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(_ *http.Request) bool { return true }}

const (
	pongWait     = 60 * time.Second
	pingInterval = 20 * time.Second
	writeWait    = 5 * time.Second
)

// StreamHandler handles GET /itineraries/ws. It pushes the user's change
// events as JSON messages until either side closes.
func (s *Server) StreamHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userID, status, detail := s.streamUser(r)
	if status != 0 {
		writeProblem(w, status, http.StatusText(status), detail, r.URL.Path)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	topic := UserTopic(userID)
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)

	// all writes happen on this goroutine
	write := func(fn func() error) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return fn()
	}

	// The read loop only services control frames and notices the close.
	closed := make(chan struct{})
	conn.SetReadLimit(4 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(pongWait)) })
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := write(func() error { return conn.WriteMessage(websocket.PingMessage, nil) }); err != nil {
				return
			}
		case evt, ok := <-ch:
			if !ok {
				_ = write(func() error {
					return conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				})
				return
			}
			if err := write(func() error { return conn.WriteJSON(evt) }); err != nil {
				return
			}
		}
	}
}

// streamUser resolves whose events to stream. In hmac mode the verified
// token decides and ?userId may only repeat it; in dev mode ?userId wins.
// A non-zero status means the request is refused.
func (s *Server) streamUser(r *http.Request) (int, int, string) {
	q := r.URL.Query().Get("userId")
	var queried int
	if q != "" {
		n, err := strconv.Atoi(q)
		if err != nil {
			return 0, http.StatusBadRequest, "userId must be an integer"
		}
		queried = n
	}
	if s.Auth != nil && s.Auth.Mode == "hmac" {
		uid, ok := s.Auth.FromRequest(r).User()
		if !ok {
			return 0, http.StatusUnauthorized, "a valid bearer token is required"
		}
		if q != "" && queried != uid {
			return 0, http.StatusForbidden, "userId does not match the token"
		}
		return uid, 0, ""
	}
	if q != "" {
		return queried, 0, ""
	}
	if s.Auth != nil {
		if uid, ok := s.Auth.FromRequest(r).User(); ok {
			return uid, 0, ""
		}
	}
	return 0, http.StatusBadRequest, "pass ?userId or a bearer token"
}
