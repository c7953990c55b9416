package agent

import (
	"errors"
	"net/http"

	"github.com/neboloop/surfer/internal/httputil"
	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/logic/agent"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

// Start a web agent task
func StartWebAgentHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.WebAgentRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := agent.NewStartWebAgentLogic(r.Context(), svcCtx)
		resp, err := l.StartWebAgent(&req)
		switch {
		case errors.Is(err, jobs.ErrAlreadyRunning):
			httputil.ErrorWithCode(w, http.StatusConflict, "An agent task is already running.")
		case err != nil:
			httputil.InternalError(w, err.Error())
		default:
			httputil.WriteJSON(w, http.StatusAccepted, resp)
		}
	}
}
