package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	v1 "conversa/cmd/api/router/v1"
	"conversa/internal/infrastructure/auth"
	bpadapter "conversa/internal/infrastructure/backplane/adapter"
	bport "conversa/internal/infrastructure/backplane/port"
	"conversa/internal/infrastructure/config"
	"conversa/internal/infrastructure/database"
	qadapter "conversa/internal/infrastructure/queue/adapter"
	qport "conversa/internal/infrastructure/queue/port"
	"conversa/internal/pkg/chat/application/task"
	storeadapter "conversa/internal/pkg/chat/persistence/repository/adapter"
	repository "conversa/internal/pkg/chat/persistence/repository/port"
	"conversa/internal/pkg/chat/session"
	useradapter "conversa/internal/repository/adapter"
	users "conversa/internal/repository/port"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Store: Postgres when configured, in-memory otherwise.
	var store repository.ChatStore
	var userRepo users.UserRepository
	if cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		pool, err := database.Connect(dbCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer pool.Close()
		store = storeadapter.NewPgChatStore(pool)
		userRepo = useradapter.NewPgUserRepository(pool)
	} else {
		logger.Warn("DB_URL not set, running on the in-memory store")
		store = storeadapter.NewMemoryChatStore()
		userRepo = useradapter.NewMemoryUserRepository()
	}

	// Backplane: Redis pub/sub when configured, in-process hub otherwise.
	var backplane bport.Backplane
	if cfg.RedisURL != "" {
		rb, err := bpadapter.NewRedisBackplane(ctx, cfg.RedisURL, logger)
		if err != nil {
			log.Fatalf("failed to connect backplane: %v", err)
		}
		defer rb.Close()
		backplane = rb
	} else {
		backplane = bpadapter.NewHub()
	}

	deps := session.NewDeps(store, userRepo, backplane, logger)

	// Queue: asynq workers over Redis, or the inline fallback.
	var queueClient qport.Client
	var queueServer qport.Server
	if cfg.RedisURL != "" {
		client, err := qadapter.NewAsynqClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to create queue client: %v", err)
		}
		defer client.Close()
		server, err := qadapter.NewAsynqServer(cfg.RedisURL, cfg.AsynqConcurrency, cfg.AsynqQueues, logger)
		if err != nil {
			log.Fatalf("failed to create queue server: %v", err)
		}
		queueClient, queueServer = client, server
	} else {
		inline := qadapter.NewInlineQueue()
		queueClient, queueServer = inline, inline
	}
	task.RegisterSendMessageTask(queueServer, deps)
	go func() {
		if err := queueServer.Run(ctx); err != nil {
			logger.Error("queue server stopped", "error", err)
		}
	}()

	authn := auth.NewJWTAuthenticator(cfg.JWTSecret)

	r := gin.Default()
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	v1.RegisterRoutes(r, authn, userRepo, deps, queueClient)

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()
	logger.Info("server listening", "addr", cfg.Addr())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
}
