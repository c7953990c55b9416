package websocket

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/logic/agent"
	"github.com/neboloop/surfer/internal/middleware"
	"github.com/neboloop/surfer/internal/realtime"
	"github.com/neboloop/surfer/internal/svc"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || middleware.IsLocalhostOrigin(origin)
	},
}

// StatusHandler upgrades to a websocket that pushes the agent status on every
// change and closes after the first terminal status.
func StatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientID := r.URL.Query().Get("clientId")
		if clientID == "" {
			clientID = "client-" + uuid.New().String()[:8]
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Errorf("WebSocket upgrade error: %v", err)
			return
		}
		logging.Debugf("Serving status stream for %s", clientID)

		realtime.ServeStatus(svcCtx.Hub, conn, clientID, func() realtime.Frame {
			st := svcCtx.Jobs.Status()
			return realtime.Frame{
				Payload: agent.StatusResponse(st),
				Final:   st.Terminal(),
			}
		})
	}
}
