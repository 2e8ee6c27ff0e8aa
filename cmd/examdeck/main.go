package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/examdeck/examdeck/internal/chunk"
	"github.com/examdeck/examdeck/internal/config"
	dbRedis "github.com/examdeck/examdeck/internal/db/redis"
	logpkg "github.com/examdeck/examdeck/internal/logger"
	"github.com/examdeck/examdeck/internal/metrics"
	documentrepo "github.com/examdeck/examdeck/internal/repository/document"
	sectionrepo "github.com/examdeck/examdeck/internal/repository/section"
	userrepo "github.com/examdeck/examdeck/internal/repository/user"
	"github.com/examdeck/examdeck/internal/session"
	chiTransport "github.com/examdeck/examdeck/internal/transport/chi"
	openaiTransport "github.com/examdeck/examdeck/internal/transport/openai"
	chatuc "github.com/examdeck/examdeck/internal/usecase/chat"
	healthuc "github.com/examdeck/examdeck/internal/usecase/health"
	indexinguc "github.com/examdeck/examdeck/internal/usecase/indexing"
	studentuc "github.com/examdeck/examdeck/internal/usecase/student"
	"github.com/examdeck/examdeck/internal/version"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting examdeck API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterLLMMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Embedding.Model,
		Dimensions: cfg.LLM.Embedding.Dimensions,
		Logger:     logger,
	})
	chatClient := openaiTransport.NewChatClient(&openaiTransport.ChatConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Chat.Model,
		MaxTokens:   cfg.LLM.Chat.MaxTokens,
		Temperature: cfg.LLM.Chat.Temperature,
		Logger:      logger,
	})
	logger.Info("LLM clients created",
		zap.String("chat_model", cfg.LLM.Chat.Model),
		zap.String("embedding_model", cfg.LLM.Embedding.Model),
		zap.Int("dimensions", cfg.LLM.Embedding.Dimensions),
	)

	users := userrepo.New(store)
	docs := documentrepo.New(store)
	sections := sectionrepo.New(store, cfg.LLM.Embedding.Dimensions)

	if err := sections.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure section index", zap.Error(err))
	}

	sessions := session.NewRegistry()
	splitter := chunk.NewSplitter(cfg.Indexing.ChunkSize)

	indexingSvc := indexinguc.New(docs, sections, embedder, chatClient, splitter, logger)
	chatSvc := chatuc.New(docs, sections, embedder, chatClient,
		cfg.Retrieval.Threshold, cfg.Retrieval.Limit, logger)
	studentSvc := studentuc.New(users, docs, sessions,
		cfg.XP.MasteredAward, cfg.XP.LeaderboardSize, logger)
	healthSvc := healthuc.New(store, embedder)

	server := chiTransport.NewServer(
		studentSvc, indexingSvc, chatSvc, healthSvc,
		docs, sessions,
		[]chiTransport.Wiper{sections, docs},
		int64(cfg.HTTP.MaxUploadMB)<<20,
		logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
