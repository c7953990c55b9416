package agent

import (
	"net/http"

	"github.com/neboloop/surfer/internal/httputil"
	"github.com/neboloop/surfer/internal/logic/agent"
	"github.com/neboloop/surfer/internal/svc"
)

// Cancel the running web agent task
func StopAgentHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := agent.NewStopAgentLogic(r.Context(), svcCtx)
		resp, err := l.StopAgent()
		if err != nil {
			httputil.InternalError(w, err.Error())
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
