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

	"github.com/KseniyaZaitseva1/bloggpt/internal/app"
	"github.com/KseniyaZaitseva1/bloggpt/internal/config"
	"github.com/KseniyaZaitseva1/bloggpt/internal/handler"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("error loading config: %v", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("error building app: %v", err)
	}
	defer application.Close()

	postHandler := handler.NewPostHandler(application.Pipeline, cfg.Mode == config.ModeDeferred)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}

	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/", handler.GetRoot)
	r.GET("/heartbeat", handler.GetHeartbeat)
	r.POST("/generate-post", postHandler.GeneratePost)
	r.POST("/generate_post/", postHandler.GeneratePost)
	r.GET("/jobs/:id", postHandler.GetJob)
	r.GET("/metrics", gin.WrapH(application.Metrics.Handler()))

	if application.Usage != nil {
		usageHandler := handler.NewUsageHandler(application.Usage)
		r.GET("/usage", usageHandler.GetUsage)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "mode", cfg.Mode, "body_strategy", cfg.BodyStrategy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("error shutting down server", "error", err)
	}
	if err := application.Pipeline.Wait(ctx); err != nil {
		slog.Warn("deferred jobs still running at exit", "error", err)
	}
}
