package chat

import (
	"errors"
	"net/http"

	chain "github.com/neboloop/surfer/internal/chat"
	"github.com/neboloop/surfer/internal/httputil"
	"github.com/neboloop/surfer/internal/logic/chat"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

// Send one message to the chat chain
func SendMessageHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChatRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := chat.NewSendMessageLogic(r.Context(), svcCtx)
		resp, err := l.SendMessage(&req)
		switch {
		case errors.Is(err, chain.ErrEmptyMessage):
			httputil.Error(w, err)
		case err != nil:
			httputil.InternalError(w, err.Error())
		default:
			httputil.OkJSON(w, resp)
		}
	}
}
