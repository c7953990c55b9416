package agent

import (
	"context"
	"fmt"

	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

type GetAgentStatusLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Poll the job slot without blocking
func NewGetAgentStatusLogic(ctx context.Context, svcCtx *svc.ServiceContext) *GetAgentStatusLogic {
	return &GetAgentStatusLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *GetAgentStatusLogic) GetAgentStatus() (*types.AgentStatusResponse, error) {
	return StatusResponse(l.svcCtx.Jobs.Status()), nil
}

// StatusResponse renders a slot snapshot. A failed job is reported as
// completed with an "Agent failed: ..." result.
func StatusResponse(st jobs.Status) *types.AgentStatusResponse {
	switch st.State {
	case jobs.StateRunning:
		running := true
		return &types.AgentStatusResponse{Running: &running}
	case jobs.StateCompleted:
		result := fmt.Sprint(st.Result)
		if s, ok := st.Result.(string); ok {
			result = s
		}
		return &types.AgentStatusResponse{Completed: true, Result: &result}
	case jobs.StateFailed:
		result := fmt.Sprintf("Agent failed: %v", st.Err)
		return &types.AgentStatusResponse{Completed: true, Result: &result}
	default:
		running := false
		return &types.AgentStatusResponse{Running: &running}
	}
}
