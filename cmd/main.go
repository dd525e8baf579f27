package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"LoveStory/server/internal/config"
	"LoveStory/server/internal/engine"
	"LoveStory/server/internal/interfaces"
	"LoveStory/server/internal/logger"
	"LoveStory/server/internal/observability"
	"LoveStory/server/internal/prompts"
	"LoveStory/server/internal/storage"
	"LoveStory/server/internal/web"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tracer, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		log.Warn("Failed to initialise tracing, continuing without it", zap.Error(err))
	} else if tracer.IsEnabled() {
		log.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.Endpoint))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tracer.Shutdown(shutdownCtx)
		}()
	}

	provider, err := engine.NewProvider(ctx, cfg, tracer.Tracer(engine.TracerName))
	if err != nil {
		log.Fatal("Failed to create completion provider", zap.Error(err))
	}
	if closer, ok := provider.(io.Closer); ok {
		defer closer.Close()
	}
	if !cfg.HasCredentials() {
		log.Warn("No credentials configured for provider; every turn will fall back",
			zap.String("provider", cfg.Provider.Name))
	}

	recorder, closeStores := openRecorders(cfg, log)
	defer closeStores()

	templates := prompts.NewTemplateEngine()
	turns := engine.NewTurnGenerator(provider, templates, cfg.Generation, cfg.Provider.Timeout, recorder, log)
	characters := engine.NewCharacterResolver(provider, templates, cfg.Extraction, cfg.Provider.Timeout, recorder, log)

	handlers := web.NewHandlers(provider.Name(), turns, characters, log)
	hub := web.NewTurnHub(handlers, log)
	go hub.Run(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      web.NewRouter(handlers, hub),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("provider", provider.Name()),
			zap.String("model", cfg.Generation.Model))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped")
}

// openRecorders connects the optional audit stores. A store that cannot be
// reached is logged and skipped; the relay works without any.
func openRecorders(cfg *config.Config, log *zap.Logger) (interfaces.TurnRecorder, func()) {
	var (
		recorders storage.MultiRecorder
		closers   []io.Closer
	)

	if cfg.Database.Redis.Enabled {
		redisStore, err := storage.NewRedisStore(cfg.Database.Redis)
		if err != nil {
			log.Warn("Failed to connect to Redis", zap.Error(err))
		} else {
			log.Info("Redis connected successfully")
			recorders = append(recorders, redisStore)
			closers = append(closers, redisStore)
		}
	}

	if cfg.Database.MySQL.Enabled {
		mysqlStore, err := storage.NewMySQLStore(cfg.Database.MySQL)
		if err != nil {
			log.Warn("Failed to connect to MySQL", zap.Error(err))
		} else {
			log.Info("MySQL connected successfully")
			recorders = append(recorders, mysqlStore)
			closers = append(closers, mysqlStore)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}

	if len(recorders) == 0 {
		return nil, closeAll
	}
	return recorders, closeAll
}
