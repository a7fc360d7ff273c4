package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/logger"
	"agora/internal/router"
	"agora/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	logger.Configure(cfg.LogLevel, cfg.LogFile)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	conn := db.Init(cfg.DatabaseURL)

	// 初始化异步排名服务
	ranking := services.NewRankingService(conn, cfg.RankBatchSize, cfg.RankFlushInterval)
	ranking.Start(ctx)
	ranking.StartScheduledRefresh(ctx, cfg.RankRefreshInterval)

	places := services.NewPlaceDirectory(conn, cfg.PlaceCacheTTL)
	r := router.New(router.Services{
		DB:            conn,
		Votes:         services.NewVoteService(conn, ranking),
		Feeds:         services.NewFeedService(conn, places),
		Places:        places,
		Subscriptions: services.NewSubscriptionService(conn, places),
	}, router.Sessions{
		Name:   cfg.SessionName,
		Secret: cfg.SessionSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Agora server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
