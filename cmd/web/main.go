package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/chat"
	"smarthealth-frontend/internal/config"
	"smarthealth-frontend/internal/db"
	"smarthealth-frontend/internal/gateway"
	apihttp "smarthealth-frontend/internal/http"
	"smarthealth-frontend/internal/repository"
	"smarthealth-frontend/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	authGateway, queryGateway, err := gateway.New(cfg, logger)
	if err != nil {
		logger.Fatal("backend gateway", zap.Error(err))
	}
	logger.Info("backend gateway ready", zap.String("mode", cfg.BackendMode), zap.String("base_url", cfg.BackendBaseURL))

	var (
		sessionStore = service.NewMemorySessionStore()
		loginLimiter = service.NewLoginRateLimiter(cfg.LoginWindow(), cfg.LoginMaxAttempts)
		redisClient  *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			sessionStore = service.NewRedisSessionStore(redisClient)
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, cfg.LoginWindow(), cfg.LoginMaxAttempts)
		}
		cancel()
		defer redisClient.Close()
	}

	secret := cfg.SessionSecret
	if secret == "" {
		secret = randomSecret()
		logger.Warn("session secret not configured, sessions will not survive a restart")
	}
	jwtSvc := service.NewJWTServiceWithStore(secret, cfg.SessionTTL(), sessionStore)

	historySvc := service.NewHistoryService(logger, nil)
	if pool, err := openHistoryPool(ctx, cfg); err != nil {
		if !errors.Is(err, db.ErrNoDatabase) {
			logger.Warn("history database unavailable, logging only", zap.Error(err))
		}
	} else {
		defer pool.Close()
		historyRepo := repository.NewPgHistoryRepository(pool)
		if err := historyRepo.EnsureSchema(ctx); err != nil {
			logger.Warn("history schema", zap.Error(err))
		} else {
			historySvc = service.NewHistoryService(logger, historyRepo)
		}
	}

	authCtrl := service.NewAuthController(logger, authGateway, jwtSvc, loginLimiter)
	registry := chat.NewRegistry()
	go pruneRegistry(ctx, logger, registry, apihttp.InstanceIdleTTL(cfg.ChatPageIdleTTL(), cfg.SessionTTL()))

	authHandler := apihttp.NewAuthHandler(logger, authCtrl, registry, cfg.CookieSecure, cfg.SessionTTL())
	chatHandler := apihttp.NewChatHandler(logger, registry, queryGateway, historySvc)
	wsHandler := apihttp.NewWSHandler(logger, authCtrl, chatHandler, registry, apihttp.WSConfig{AllowedOrigins: cfg.CORSAllowedOrigins})
	router := apihttp.NewRouter(logger, cfg.CORSAllowedOrigins, authCtrl, authHandler, chatHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("server shutdown", zap.Error(err))
		}
	}()

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func openHistoryPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// pruneRegistry descarta periódicamente los controladores de chat inactivos.
func pruneRegistry(ctx context.Context, logger *zap.Logger, registry *chat.Registry, maxIdle func(key string) time.Duration) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := registry.PruneFunc(now, maxIdle); removed > 0 {
				logger.Info("pruned idle chat controllers", zap.Int("removed", removed), zap.Int("active", registry.Len()))
			}
		}
	}
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
