package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"pemiyos/internal/config"
	"pemiyos/internal/db"
	"pemiyos/internal/logger"
	"pemiyos/internal/router"
	"pemiyos/internal/services"
	"pemiyos/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(os.Stderr).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	utils.SetBcryptCost(cfg.BcryptCost)

	// Initialize Database
	conn, err := db.Open(cfg.DBDriver, cfg.DatabaseURL, logger.NewGorm(log))
	if err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	if err := db.Migrate(conn); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("database ready")

	var revoker services.Revoker = services.NoopRevoker{}
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rr, err := services.NewRedisRevoker(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatal().Err(err).Msg("redis unavailable")
		}
		defer rr.Close()
		revoker = rr
		log.Info().Msg("token revocation enabled")
	}

	docs := services.NewDocumentService(conn, log)
	crud := services.NewCRUDService(conn, docs, log)
	stats := services.NewStatisticsService(conn, log)
	auth := services.NewAuthService(conn, docs, cfg.JWTSecret, cfg.TokenTTL, revoker, log)

	if cfg.SeedSampleData {
		if err := services.SeedSampleData(context.Background(), crud, docs, cfg.SeedAdminPassword, log); err != nil {
			log.Error().Err(err).Msg("seeding sample data failed")
		}
	}

	// Initialize Gin
	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(log))

	router.RegisterRoutes(r, router.Services{
		DB:    conn,
		Docs:  docs,
		CRUD:  crud,
		Stats: stats,
		Auth:  auth,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := db.Close(conn); err != nil {
		log.Error().Err(err).Msg("closing database")
	}
}
