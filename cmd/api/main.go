package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"satlas-api/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	redisClient, err := core.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisClient.Close()

	// Ensure writable dir for uploaded images
	if cfg.UploadDir == "" {
		log.Fatalf("upload dir path is empty")
	}
	if abs, err := filepath.Abs(cfg.UploadDir); err == nil {
		cfg.UploadDir = abs
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("failed to ensure upload dir %s: %v", cfg.UploadDir, err)
	}

	issuer := core.NewTokenIssuer(cfg.JWTSecret, core.TokenTTL)
	userRepo := core.NewPgUserRepository(db)
	bannerRepo := core.NewPgBannerRepository(db)
	blogRepo := core.NewPgBlogRepository(db)
	questionRepo := core.NewPgQuestionRepository(db)
	authService := core.NewRepositoryAuthService(userRepo, issuer)
	queue := core.NewRedisQueue(redisClient)
	limiter := core.NewSigninLimiter(redisClient, cfg.SigninRateLimit, time.Duration(cfg.SigninRateWindowSec)*time.Second)
	metrics := core.NewMetricsService(redisClient)

	if err := core.BootstrapAdmin(ctx, userRepo, cfg); err != nil {
		log.Fatalf("bootstrap admin failed: %v", err)
	}

	router := core.NewRouter(cfg, authService, issuer, userRepo, bannerRepo, blogRepo, questionRepo, queue, limiter, metrics)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
