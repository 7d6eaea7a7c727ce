package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/joho/godotenv"
	"github.com/mbeoliero/kit/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mbeoliero/parley/internal/config"
	"github.com/mbeoliero/parley/internal/gateway"
	"github.com/mbeoliero/parley/internal/handler"
	"github.com/mbeoliero/parley/internal/middleware"
	"github.com/mbeoliero/parley/internal/notify"
	"github.com/mbeoliero/parley/internal/repository"
	"github.com/mbeoliero/parley/internal/router"
	"github.com/mbeoliero/parley/internal/service"
	"github.com/mbeoliero/parley/pkg/constant"
	"github.com/mbeoliero/parley/pkg/idgen"
	"github.com/mbeoliero/parley/pkg/ratelimit"
)

const defaultConfigPath = "config/config.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A missing .env is fine; real deployments use the environment
	_ = godotenv.Load()

	configPath := os.Getenv("PARLEY_CONFIG")
	if configPath == "" {
		configPath = defaultConfigPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.CtxError(ctx, "failed to load config: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "config loaded: mode=%s, driver=%s", cfg.Server.Mode, cfg.Database.Driver)

	zl, err := newZapLogger(cfg)
	if err != nil {
		log.CtxError(ctx, "failed to build zap logger: %v", err)
		panic(err)
	}
	defer func() { _ = zl.Sync() }()

	constant.InitRedisKeyPrefix(cfg.Redis.KeyPrefix)

	gen, err := idgen.NewSonyflakeGenerator(cfg.Server.MachineID)
	if err != nil {
		log.CtxError(ctx, "failed to create id generator: %v", err)
		panic(err)
	}
	idgen.SetDefaultGenerator(gen)

	repos, err := repository.NewRepositories(cfg, zl)
	if err != nil {
		log.CtxError(ctx, "failed to initialize repositories: %v", err)
		panic(err)
	}
	defer repos.Close()

	if err := repos.CheckConnection(ctx); err != nil {
		log.CtxError(ctx, "storage connection check failed: %v", err)
		panic(err)
	}
	log.CtxInfo(ctx, "storage connection established")

	var bus notify.Bus
	if repos.Redis != nil {
		bus = notify.NewRedisBus(repos.Redis)
	} else {
		log.CtxWarn(ctx, "redis disabled, change events stay inside this process")
		bus = notify.NewLocalBus()
	}

	var limiter middleware.Limiter
	if cfg.RateLimit.Enabled && repos.Redis != nil {
		l, err := ratelimit.NewFixedWindowLimiter(repos.Redis, constant.RedisKeyRateLimit(), cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			log.CtxError(ctx, "failed to build rate limiter: %v", err)
			panic(err)
		}
		limiter = l
	}

	svcs := service.NewServices(repos, cfg, service.WithNotifier(bus))

	wsServer := gateway.NewWsServer(cfg, gateway.NewQueries(svcs), bus)
	if err := wsServer.Run(ctx); err != nil {
		log.CtxError(ctx, "failed to start websocket gateway: %v", err)
		panic(err)
	}

	handlers := &router.Handlers{
		User:         handler.NewUserHandler(svcs.Identity),
		Conversation: handler.NewConversationHandler(svcs),
		Message:      handler.NewMessageHandler(svcs.Message, svcs.Reaction),
		Activity:     handler.NewActivityHandler(svcs.Presence, svcs.Typing),
	}

	h := server.Default(
		server.WithHostPorts(fmt.Sprintf(":%d", cfg.Server.HTTPPort)),
	)
	router.SetupRouter(h, cfg, handlers, wsServer, router.Deps{
		Users:   svcs.Identity,
		Limiter: limiter,
		Logger:  zl,
	})

	log.CtxInfo(ctx, "server starting on port %d", cfg.Server.HTTPPort)
	go h.Spin()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.CtxInfo(ctx, "shutting down server...")
	cancel()
	if err := h.Shutdown(context.Background()); err != nil {
		log.CtxError(ctx, "server shutdown error: %v", err)
	}
	log.CtxInfo(ctx, "server stopped")
}

func newZapLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Server.Mode == "debug" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Log.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}
	return zc.Build()
}
