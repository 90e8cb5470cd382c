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
	"golang.org/x/time/rate"

	"linkforge/internal/auth"
	"linkforge/internal/cache"
	"linkforge/internal/config"
	"linkforge/internal/controllers"
	"linkforge/internal/database"
	"linkforge/internal/logger"
	"linkforge/internal/middleware"
	"linkforge/internal/queue"
	"linkforge/internal/repository"
	"linkforge/internal/service"
	"linkforge/internal/sweeper"
)

func main() {
	cfg := config.Load()
	slogger := logger.New(logger.Config{Format: "json"})

	fatal := func(msg string, err error) {
		slogger.Error(msg, "error", err)
		os.Exit(1)
	}

	// Root context cancelled on SIGINT/SIGTERM; every background task
	// hangs off it.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		fatal("failed to run migrations", err)
	}

	// Redis holds the QR artifact cache
	redisClient, err := cache.Connect(ctx, cfg.RedisURL, 3)
	if err != nil {
		fatal("failed to connect to redis", err)
	}
	defer redisClient.Close()
	qrCache := cache.NewQRCache(redisClient)

	// Broker carries click events from redirects to the consumer pool
	broker, err := queue.Dial(cfg.AMQPURL, cfg.ClicksQueue)
	if err != nil {
		fatal("failed to connect to message broker", err)
	}
	defer broker.Close()

	publisher, err := queue.NewClickPublisher(broker)
	if err != nil {
		fatal("failed to create click publisher", err)
	}
	defer publisher.Close()

	linkRepo := repository.NewLinkRepository(db)

	consumer := queue.NewClickConsumer(broker, linkRepo, cfg.ClickWorkers, slogger)
	if err := consumer.Start(ctx); err != nil {
		fatal("failed to start click consumer", err)
	}

	expirySweeper := sweeper.New(linkRepo, cfg.SweepInterval, slogger)
	go expirySweeper.Run(ctx)

	linkService := service.NewLinkService(linkRepo, publisher, qrCache, cfg.BaseURL, slogger)
	qrService := service.NewQRService(linkRepo, qrCache, cfg.BaseURL, slogger)

	authClient := auth.NewClient(cfg.AuthServiceURL)

	shortenerController := controllers.NewShortenerController(linkService)
	qrcodeController := controllers.NewQRCodeController(qrService)

	generalRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	shortenRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitShortenRPS), cfg.RateLimitShortenBurst)
	redirectRateLimiter := middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRedirectRPS), cfg.RateLimitRedirectBurst)

	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Redirect hot path
	router.GET("/:shortCode", redirectRateLimiter.LimitMiddleware(), shortenerController.RedirectToURL)

	api := router.Group("/api/v1")
	api.Use(generalRateLimiter.LimitMiddleware())
	{
		api.GET("/qrcode/:shortCode", qrcodeController.GetQRCode)

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(authClient))
		{
			protected.POST("/shorten", shortenRateLimiter.LimitMiddleware(), shortenerController.CreateShortURL)
			protected.GET("/urls", shortenerController.GetUserURLs)
			protected.DELETE("/url/:shortCode", shortenerController.DeleteURL)
			protected.PUT("/qrcode/:shortCode", qrcodeController.SaveQRCode)
			protected.DELETE("/qrcode/:shortCode", qrcodeController.DeleteQRCode)
		}
	}

	server := &http.Server{
		Addr:    ":8080",
		Handler: router,
	}

	go func() {
		slogger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("server failed", err)
		}
	}()

	<-ctx.Done()
	slogger.Info("shutting down")

	// Stop taking requests first, then let the consumer finish its
	// in-flight deliveries before the broker connection drops.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slogger.Error("server shutdown error", "error", err)
	}

	consumer.Wait()
	slogger.Info("shutdown complete")
}
