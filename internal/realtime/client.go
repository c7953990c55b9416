package realtime

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neboloop/surfer/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Frame is one status snapshot. Final reports whether the stream ends after it.
type Frame struct {
	Payload any
	Final   bool
}

// ServeStatus writes a frame from current now and after every hub
// notification until a final frame has been sent or the peer goes away. It
// blocks until the connection is closed.
func ServeStatus(hub *Hub, conn *websocket.Conn, clientID string, current func() Frame) {
	notify, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	gone := make(chan struct{})
	go readPump(conn, gone)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	var last []byte
	send := func() (final bool, ok bool) {
		f := current()
		data, err := json.Marshal(f.Payload)
		if err != nil {
			logging.Errorf("[realtime] %s marshal status: %v", clientID, err)
			return false, false
		}
		if string(data) == string(last) && !f.Final {
			return false, true
		}
		last = data
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return false, false
		}
		return f.Final, true
	}

	for {
		final, ok := send()
		if !ok {
			return
		}
		if final {
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
			return
		}

		// an unchanged status is not re-sent, so waking on the ping tick is harmless
		select {
		case <-notify:
		case <-gone:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains the peer so control frames are processed, closing gone
// when the connection fails.
func readPump(conn *websocket.Conn, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Warnf("[realtime] read error: %v", err)
			}
			return
		}
	}
}
