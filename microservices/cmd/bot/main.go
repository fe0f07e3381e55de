package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"goarena/internal/bootstrap"
	botRPC "goarena/microservices/proto"
	"goarena/microservices/repository"
	"goarena/microservices/usecase"
)

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}

	lis, err := net.Listen("tcp", ":"+cfg.BotGrpcPort)
	if err != nil {
		logger.Fatalw("cant listen port", "port", cfg.BotGrpcPort, "error", err)
	}

	server := grpc.NewServer()
	engine := repository.NewEngineRepository(cfg, logger)
	botRPC.RegisterBotServiceServer(server, usecase.NewBotUseCase(engine))

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("stopping bot service")
		server.GracefulStop()
	}()

	logger.Infow("starting bot service", "port", cfg.BotGrpcPort, "engine", cfg.BotEngineUrl != "")
	if err := server.Serve(lis); err != nil {
		logger.Errorw("bot service stopped", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}
