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
	"gopkg.in/natefinch/lumberjack.v2"

	"dialog-backend/internal/chatbot"
	"dialog-backend/internal/config"
	"dialog-backend/internal/corpus"
	"dialog-backend/internal/database"
	"dialog-backend/internal/handlers"
	"dialog-backend/internal/logging"
	"dialog-backend/internal/middleware"
	"dialog-backend/internal/repository"
	"dialog-backend/internal/router"
	"dialog-backend/internal/services"
	"dialog-backend/internal/websocket"
)

// Log file rotation settings used when LOG_FILE is set.
const (
	maxLogFileSizeInMb = 10
	maxLogBackups      = 3
	maxLogAgeInDays    = 28
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// ──── Step 2: Initialize Logger ────
	writers := []io.Writer{os.Stdout}
	if cfg.LogFile != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    maxLogFileSizeInMb,
			MaxBackups: maxLogBackups,
			MaxAge:     maxLogAgeInDays,
		})
	}
	logger := logging.NewLogger(logging.LoggerParameters{
		Level:   cfg.LogLevel,
		Writers: writers,
	}).With(zap.String("env", cfg.Env))
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// ──── Step 3: Open Statement Storage ────
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("statement storage ready", zap.String("backend", cfg.StorageBackend))

	// ──── Step 4: Initialize Logic Adapters ────
	comparator, err := chatbot.ComparatorByName(cfg.StatementComparison)
	if err != nil {
		return err
	}
	selection, err := chatbot.SelectionMethodByName(cfg.ResponseSelection)
	if err != nil {
		return err
	}

	var extra []chatbot.LogicAdapter
	if cfg.GeminiAPIKey != "" {
		geminiService, err := services.NewGeminiService(&services.GeminiParameters{
			Logger:         logger,
			APIKey:         cfg.GeminiAPIKey,
			Model:          cfg.GeminiModel,
			BotName:        cfg.BotName,
			Confidence:     cfg.GeminiConfidence,
			ConcurrentReqs: cfg.GeminiConcurrentReqs,
		})
		if err != nil {
			return fmt.Errorf("failed to create gemini adapter: %w", err)
		}
		defer geminiService.Close()
		extra = append(extra, geminiService)
		logger.Info("gemini fallback enabled", zap.String("model", cfg.GeminiModel))
	}

	bot, err := chatbot.New(&chatbot.Parameters{
		Name:   cfg.BotName,
		Logger: logger,
		Store:  store,
		BestMatch: chatbot.BestMatchParameters{
			Comparator:                 comparator,
			SelectionMethod:            selection,
			MaximumSimilarityThreshold: cfg.MaximumSimilarityThreshold,
			DefaultResponse:            cfg.DefaultResponse,
		},
		ExtraAdapters: extra,
		ReadOnly:      cfg.ReadOnly,
	})
	if err != nil {
		return fmt.Errorf("failed to create chatbot: %w", err)
	}

	// ──── Step 5: Train From Corpus ────
	if cfg.TrainOnStart {
		if err := train(ctx, bot, cfg, logger); err != nil {
			return err
		}
	}

	// ──── Step 6: Build HTTP Stack ────
	var jwtAuth *middleware.JWTAuth
	var wsAuth websocket.TokenValidator
	if cfg.JWTSecret != "" {
		jwtAuth = middleware.NewJWTAuth(cfg.JWTSecret)
		wsAuth = jwtAuth
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitPerMinute > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		defer limiter.Stop()
	}

	wsHub := websocket.NewHub(bot, wsAuth, logger)

	r := router.New(&router.Parameters{
		Logger:          logger,
		ConverseHandler: handlers.NewConverseHandler(bot, logger),
		WSHub:           wsHub,
		JWTAuth:         jwtAuth,
		RateLimiter:     limiter,
		CORSOrigins:     cfg.CORSOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		wsHub.CloseAll()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("server shutdown did not complete", zap.Error(err))
		}
	}()

	// ──── Step 7: Start HTTP Server ────
	logger.Info(
		"chatbot ready",
		zap.String("name", cfg.BotName),
		zap.String("addr", "http://localhost:"+cfg.Port),
		zap.Bool("auth", jwtAuth != nil),
	)

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	<-shutdownDone
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.StatementStore, error) {
	switch cfg.StorageBackend {
	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		if err := database.RunMigrations(ctx, pool, database.Migrations(), logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("database migration failed: %w", err)
		}
		return repository.NewStatementRepo(pool), nil
	case config.StorageRedis:
		client, err := database.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return repository.NewRedisStatementRepo(client, cfg.RedisKeyPrefix), nil
	default:
		return repository.NewMemoryStatementRepo(), nil
	}
}

func train(ctx context.Context, bot *chatbot.ChatBot, cfg *config.Config, logger *zap.Logger) error {
	var corpora []corpus.Corpus
	for _, ref := range cfg.Corpora {
		loaded, err := corpus.Load(ref)
		if err != nil {
			return fmt.Errorf("failed to load corpus %s: %w", ref, err)
		}
		corpora = append(corpora, loaded...)
	}

	trainer, err := chatbot.NewTrainer(bot)
	if err != nil {
		return err
	}

	start := time.Now()
	trained, err := trainer.TrainIfEmpty(ctx, cfg.ForceRetrain, corpora...)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	if trained {
		logger.Info(
			"trained chatbot",
			zap.Strings("corpora", cfg.Corpora),
			zap.Int("files", len(corpora)),
			zap.Duration("took", time.Since(start)),
		)
	}
	return nil
}
