package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wirelive/multihost-service/internal/client"
	"github.com/wirelive/multihost-service/internal/config"
	"github.com/wirelive/multihost-service/internal/coordinator"
	"github.com/wirelive/multihost-service/internal/handler"
	"github.com/wirelive/multihost-service/internal/messaging"
	pkglog "github.com/wirelive/multihost-service/pkg/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, ServiceName: "multihost-service"})
	logger := pkglog.L()

	logger.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str(pkglog.FieldRoomID, cfg.Room.ID).
		Msg("starting multihost-service")

	// Messaging driver for peer messages
	messagingClient, err := messaging.New(cfg.MessagingDriver())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create messaging client")
	}
	defer messagingClient.Close()

	// Room Service seat endpoint
	seatClient := client.NewSeatClient(cfg.Room.ServiceAddr, cfg.Room.ServiceToken)

	// Per-room coordinator
	coord := coordinator.New(cfg.Room.ID, cfg.LocalRole(), cfg.OwnerRole(), seatClient, messagingClient, logger)
	defer coord.Close()

	// HTTP surface
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	handler.NewHandler(coord, cfg.LocalRole()).RegisterRoutes(router)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := messagingClient.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("service exited with error")
	}
	logger.Info().Msg("multihost-service stopped")
}
