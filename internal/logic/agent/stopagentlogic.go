package agent

import (
	"context"
	"errors"

	"github.com/neboloop/surfer/internal/jobs"
	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

type StopAgentLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Cancel the running job, if any
func NewStopAgentLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StopAgentLogic {
	return &StopAgentLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *StopAgentLogic) StopAgent() (*types.MessageResponse, error) {
	err := l.svcCtx.Jobs.Cancel()
	switch {
	case errors.Is(err, jobs.ErrNothingRunning):
		return &types.MessageResponse{Response: "No agent was running."}, nil
	case err != nil:
		return nil, err
	}
	l.Info("Agent cancelled by user")
	return &types.MessageResponse{Response: "Agent cancelled by user."}, nil
}
