// Package proto holds the bot service contract. Messages travel as
// structpb.Struct so no generated code is required on either side.
package proto

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName                            = "bot.BotService"
	BotService_GenerateMove_FullMethodName = "/bot.BotService/GenerateMove"
)

// MoveRequest asks for the next move of the side to play after Moves.
type MoveRequest struct {
	BoardSize int
	Komi      float64
	Ko        bool
	Moves     []string
}

type MoveReply struct {
	Move string
}

func (r MoveRequest) ToStruct() (*structpb.Struct, error) {
	moves := make([]any, len(r.Moves))
	for i, m := range r.Moves {
		moves[i] = m
	}
	return structpb.NewStruct(map[string]any{
		"board_size": r.BoardSize,
		"komi":       r.Komi,
		"ko":         r.Ko,
		"moves":      moves,
	})
}

func MoveRequestFromStruct(s *structpb.Struct) (MoveRequest, error) {
	fields := s.GetFields()
	size, ok := fields["board_size"]
	if !ok {
		return MoveRequest{}, fmt.Errorf("board_size is missing")
	}
	req := MoveRequest{
		BoardSize: int(size.GetNumberValue()),
		Komi:      fields["komi"].GetNumberValue(),
		// older clients do not send ko; simple ko is the default rule
		Ko: true,
	}
	if ko, ok := fields["ko"]; ok {
		req.Ko = ko.GetBoolValue()
	}
	for _, v := range fields["moves"].GetListValue().GetValues() {
		move, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return MoveRequest{}, fmt.Errorf("moves must be strings")
		}
		req.Moves = append(req.Moves, move.StringValue)
	}
	return req, nil
}

func (r MoveReply) ToStruct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"bot_move": r.Move})
}

func MoveReplyFromStruct(s *structpb.Struct) (MoveReply, error) {
	v, ok := s.GetFields()["bot_move"]
	if !ok {
		return MoveReply{}, fmt.Errorf("bot_move is missing")
	}
	return MoveReply{Move: v.GetStringValue()}, nil
}

type BotServiceServer interface {
	GenerateMove(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

func RegisterBotServiceServer(s grpc.ServiceRegistrar, srv BotServiceServer) {
	s.RegisterService(&BotService_ServiceDesc, srv)
}

func _BotService_GenerateMove_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BotServiceServer).GenerateMove(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: BotService_GenerateMove_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BotServiceServer).GenerateMove(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var BotService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BotServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GenerateMove",
			Handler:    _BotService_GenerateMove_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bot.proto",
}

type BotServiceClient interface {
	GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type botServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBotServiceClient(cc grpc.ClientConnInterface) BotServiceClient {
	return &botServiceClient{cc}
}

func (c *botServiceClient) GenerateMove(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, BotService_GenerateMove_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}
