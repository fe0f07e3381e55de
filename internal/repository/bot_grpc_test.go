package repo

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"goarena/internal/usecase/bot"
	botRPC "goarena/microservices/proto"
	"goarena/microservices/usecase"
)

func TestBotRPCRepository(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	botRPC.RegisterBotServiceServer(server, usecase.NewBotUseCase(bot.Heuristic{}))
	go server.Serve(lis)
	defer server.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	repo := NewBotRPCRepository(conn)
	move, err := repo.GenerateMove(context.Background(), bot.Request{
		BoardSize: 19,
		Moves:     []string{"b2", "a2", "q16", "c2", "q15", "b1", "q14"},
	})
	require.NoError(t, err)
	assert.Equal(t, "b3", move)

	_, err = repo.GenerateMove(context.Background(), bot.Request{BoardSize: 1})
	assert.Error(t, err)
}
