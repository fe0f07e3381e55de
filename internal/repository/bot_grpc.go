package repo

import (
	"context"
	"fmt"

	"google.golang.org/grpc"

	"goarena/internal/usecase/bot"
	botRPC "goarena/microservices/proto"
)

// BotRPCRepository generates bot moves through the bot gRPC service.
type BotRPCRepository struct {
	client botRPC.BotServiceClient
}

func NewBotRPCRepository(conn grpc.ClientConnInterface) *BotRPCRepository {
	return &BotRPCRepository{client: botRPC.NewBotServiceClient(conn)}
}

func (b *BotRPCRepository) GenerateMove(ctx context.Context, req bot.Request) (string, error) {
	in, err := botRPC.MoveRequest{
		BoardSize: req.BoardSize,
		Komi:      req.Komi,
		Ko:        req.Ko,
		Moves:     req.Moves,
	}.ToStruct()
	if err != nil {
		return "", fmt.Errorf("failed to build move request: %w", err)
	}
	out, err := b.client.GenerateMove(ctx, in)
	if err != nil {
		return "", fmt.Errorf("bot service: %w", err)
	}
	reply, err := botRPC.MoveReplyFromStruct(out)
	if err != nil {
		return "", err
	}
	return reply.Move, nil
}
