package chat

import (
	"context"

	"github.com/neboloop/surfer/internal/logging"
	"github.com/neboloop/surfer/internal/markdown"
	"github.com/neboloop/surfer/internal/svc"
	"github.com/neboloop/surfer/internal/types"
)

type SendMessageLogic struct {
	logging.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

// Send one message to the conversational chain
func NewSendMessageLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SendMessageLogic {
	return &SendMessageLogic{
		Logger: logging.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SendMessageLogic) SendMessage(req *types.ChatRequest) (*types.ChatResponse, error) {
	reply, err := l.svcCtx.Chat.Run(l.ctx, req.Message)
	if err != nil {
		l.Errorf("Chat failed: %v", err)
		return nil, err
	}
	return &types.ChatResponse{
		Response: reply,
		Html:     markdown.Render(reply),
	}, nil
}
