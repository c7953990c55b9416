package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

type StartWebAgentLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Start a web agent job in the single job slot
func NewStartWebAgentLogic(ctx context.Context, svcCtx *svc.ServiceContext) *StartWebAgentLogic {
	return &StartWebAgentLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// StartWebAgent returns jobs.ErrAlreadyRunning while another job is in flight.
func (l *StartWebAgentLogic) StartWebAgent(req *types.WebAgentRequest) (*types.MessageResponse, error) {
	task := strings.TrimSpace(req.Task)
	if task == "" {
		task = l.svcCtx.Config.Agent.DefaultTask
	}

	job, err := l.svcCtx.Jobs.Start(task)
	if err != nil {
		return nil, err
	}
	l.Infof("Web agent job %s accepted", job.ID)
	return &types.MessageResponse{Response: fmt.Sprintf("Started web-agent task: %s", task)}, nil
}
