package agent

import (
	"context"

	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

type ListAgentRunsLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// List recent web agent runs from the history store
func NewListAgentRunsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ListAgentRunsLogic {
	return &ListAgentRunsLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ListAgentRunsLogic) ListAgentRuns(req *types.AgentHistoryRequest) (*types.AgentHistoryResponse, error) {
	resp := &types.AgentHistoryResponse{Runs: []types.AgentRun{}}
	if l.svcCtx.History == nil {
		return resp, nil
	}

	runs, err := l.svcCtx.History.ListRuns(l.ctx, req.Limit)
	if err != nil {
		l.Errorf("Failed to list runs: %v", err)
		return nil, err
	}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, types.AgentRun{
			Id:         r.ID,
			Task:       r.Task,
			Status:     r.Status,
			Result:     r.Result,
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return resp, nil
}
