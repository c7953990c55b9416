package agent

import (
	"net/http"

	"github.com/neboloop/surfer/internal/httputil"
	"github.com/neboloop/surfer/internal/logic/agent"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

// List recent web agent runs
func ListAgentRunsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AgentHistoryRequest
		if err := httputil.Parse(r, &req); err != nil {
			httputil.Error(w, err)
			return
		}

		l := agent.NewListAgentRunsLogic(r.Context(), svcCtx)
		resp, err := l.ListAgentRuns(&req)
		if err != nil {
			httputil.InternalError(w, err.Error())
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
