package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/himomohi/MaziSpace/internal/application"
	"github.com/himomohi/MaziSpace/internal/config"
	"github.com/himomohi/MaziSpace/internal/domain/model"
	httpapi "github.com/himomohi/MaziSpace/internal/interfaces/http"
	"github.com/himomohi/MaziSpace/internal/pubsub"
	"github.com/himomohi/MaziSpace/internal/scheduler"
)

func main() {
	log.Println("Starting application...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	gin.SetMode(cfg.Server.Mode)
	log.Println("Config loaded.")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化排行榜与事件总线
	lb := model.NewLeaderboard(cfg.Leaderboard.MaxEntries)
	events := pubsub.NewGenericPubSub[[]model.ScoreEntry]()
	log.Printf("Leaderboard created (max %d entries).", lb.MaxEntries())

	// 初始化应用服务
	leaderboardService, err := application.NewLeaderboardService(lb, events)
	if err != nil {
		log.Fatalf("failed to create leaderboard service: %v", err)
	}
	log.Println("Leaderboard service created.")

	// 定时清榜
	if cfg.Leaderboard.ResetCron != "" {
		spec, err := scheduler.ParseCron(cfg.Leaderboard.ResetCron)
		if err != nil {
			log.Fatalf("failed to parse reset cron: %v", err)
		}
		s := scheduler.NewScheduler()
		s.AddCron(spec, leaderboardService.Reset)
		s.Start(ctx, time.Second)
		log.Printf("Leaderboard reset scheduled: %q", cfg.Leaderboard.ResetCron)
	}

	// 初始化 HTTP 处理器与路由
	handler := httpapi.NewHandler(leaderboardService, events)
	router, err := httpapi.NewRouter(handler)
	if err != nil {
		log.Fatalf("failed to create router: %v", err)
	}
	log.Println("Routes registered.")

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.WithCORS(router, cfg.CORS),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("Starting server on %s...", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to run server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	log.Println("Server stopped.")
}
