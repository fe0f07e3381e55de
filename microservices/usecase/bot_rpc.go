package usecase

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"goarena/internal/usecase/bot"
	botRPC "goarena/microservices/proto"
)

type MoveStore interface {
	GenerateMove(ctx context.Context, req bot.Request) (string, error)
}

const maxBoardSize = 25

type BotUseCase struct {
	store MoveStore
}

func NewBotUseCase(store MoveStore) *BotUseCase {
	return &BotUseCase{
		store: store,
	}
}

func (b *BotUseCase) GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := botRPC.MoveRequestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if req.BoardSize < 2 || req.BoardSize > maxBoardSize {
		return nil, status.Errorf(codes.InvalidArgument, "unsupported board size %d", req.BoardSize)
	}

	move, err := b.store.GenerateMove(ctx, bot.Request{
		BoardSize: req.BoardSize,
		Komi:      req.Komi,
		Ko:        req.Ko,
		Moves:     req.Moves,
	})
	if err != nil {
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return botRPC.MoveReply{Move: move}.ToStruct()
}
