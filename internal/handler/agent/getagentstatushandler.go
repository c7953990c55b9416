package agent

import (
	"net/http"

	"github.com/neboloop/surfer/internal/httputil"
	"github.com/neboloop/surfer/internal/logic/agent"
	"github.com/neboloop/surfer/internal/svc"
)

func GetAgentStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := agent.NewGetAgentStatusLogic(r.Context(), svcCtx)
		resp, err := l.GetAgentStatus()
		if err != nil {
			httputil.Error(w, err)
		} else {
			httputil.OkJSON(w, resp)
		}
	}
}
