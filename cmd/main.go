package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"goarena/internal/adapters"
	"goarena/internal/bootstrap"
	authDelivery "goarena/internal/delivery/auth"
	gameDelivery "goarena/internal/delivery/game"
	ownMiddleware "goarena/internal/middleware"
	repo "goarena/internal/repository"
	authUC "goarena/internal/usecase/auth"
	"goarena/internal/usecase/bot"
	"goarena/internal/usecase/matchmaker"
	ratingUC "goarena/internal/usecase/rating"
	"goarena/internal/usecase/registry"
)

type dataBaseAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
}

func main() {
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		NewLogger("info").Errorw("Failed to setup configuration", "error", err)
		return
	}
	logger := NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.close(context.Background())

	var generator bot.Generator
	if cfg.BotGrpcAddr != "" {
		conn, err := grpc.NewClient(cfg.BotGrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			logger.Fatalw("Failed to dial bot service", "addr", cfg.BotGrpcAddr, "error", err)
		}
		defer conn.Close()
		generator = repo.NewBotRPCRepository(conn)
		logger.Infow("bot moves served by gRPC", "addr", cfg.BotGrpcAddr)
	}

	var (
		live     *repo.LiveGameRepository
		liveIF   registry.LiveStore
		liveRead gameDelivery.LiveReader
		archive  registry.Archive
		ratings  registry.Ratings
		sessions authUC.SessionStorage
	)
	if databaseAdapters.redisAdapter != nil {
		client := databaseAdapters.redisAdapter.GetClient()
		live = repo.NewLiveGameRepository(logger, client)
		liveIF, liveRead = live, live
		sessions = repo.NewSessionRedisStorage(client, logger)
	}
	if databaseAdapters.mongoAdapter != nil {
		archive = repo.NewGameArchiveRepository(logger, databaseAdapters.mongoAdapter.Database)
		ratings = ratingUC.NewRatingUseCase(repo.NewRatingRepository(logger, databaseAdapters.mongoAdapter.Database), logger)
	}

	reg := registry.New(registry.Config{
		Size:            cfg.BoardSize,
		Komi:            cfg.Komi,
		Ko:              cfg.KoRule,
		MainTime:        time.Duration(cfg.MainTimeMs) * time.Millisecond,
		StartTimeout:    cfg.StartTimeout,
		RetentionWindow: cfg.RetentionWindow,
	}, logger, liveIF, archive, ratings)

	mm := matchmaker.New(matchmaker.Config{
		TicketTTL: cfg.TicketTTL,
		Bot:       bot.Config{BoardSize: cfg.BoardSize, Komi: cfg.Komi, Ko: cfg.KoRule},
	}, reg, generator, logger)

	authHandler := authDelivery.NewAuthHandler(authUC.NewAuthUsecaseHandler(sessions, cfg.JwtSecret), logger)
	gameHandler := gameDelivery.NewGameHandler(cfg, logger, reg, mm, authHandler, liveRead)

	r := chi.NewRouter()
	if cfg.IsLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	gameHandler.Routes(r)

	srv := &http.Server{Addr: ":" + cfg.ServerPort, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Server is running on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return mm.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Received shutdown signal")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		reg.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("Server stopped", "error", err)
	}
}

func NewLogger(level string) *zap.SugaredLogger {
	build := zap.NewProduction
	if level == "debug" {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

// initDatabaseAdapters connects the configured stores; an empty address
// disables that store.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	result := &dataBaseAdapters{}
	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Fatalw("Failed to initialize MongoDB", "error", err)
		}
		result.mongoAdapter = mongoAdapter
	}
	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Fatalw("Failed to initialize Redis", "error", err)
		}
		result.redisAdapter = redisAdapter
	}
	log.Info("database adapters initialized")
	return result
}

func (d *dataBaseAdapters) close(ctx context.Context) {
	if d.mongoAdapter != nil {
		_ = d.mongoAdapter.Close(ctx)
	}
	if d.redisAdapter != nil {
		_ = d.redisAdapter.Close(ctx)
	}
}
