package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pygmalion/internal/config"
	"pygmalion/internal/db"
	apihttp "pygmalion/internal/http"
	"pygmalion/internal/llm"
	"pygmalion/internal/repository"
	"pygmalion/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	userRepo := repository.NewPgUserRepository(pool)
	characterRepo := repository.NewPgCharacterRepository(pool)
	chatRepo := repository.NewPgChatRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	llmClient := llm.NewAphroditeClient(cfg.AphroditeBaseURL, cfg.AphroditeAPIKey, cfg.AphroditeModel, logger)

	var tokenStore service.RefreshTokenStore
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			tokenStore = service.NewRedisRefreshTokenStore(redisClient)
		}
		cancel()
	}
	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo)
	streamSvc := service.NewStreamService(logger, chatRepo, characterRepo, messageRepo, llmClient, service.PromptBuilder{})

	userHandler := apihttp.NewUserHandler(logger, userSvc, jwtSvc)
	characterHandler := apihttp.NewCharacterHandler(logger, characterRepo)
	chatHandler := apihttp.NewChatHandler(logger, chatRepo, characterRepo, messageRepo)
	streamHandler := apihttp.NewStreamHandler(logger, streamSvc, jwtSvc)
	healthHandler := apihttp.NewHealthHandler(pool, llmClient)
	router := apihttp.NewRouter(logger, jwtSvc, userHandler, characterHandler, chatHandler, streamHandler, healthHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
