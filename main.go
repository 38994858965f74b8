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
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"relaychat/controller"
	"relaychat/model"
	"relaychat/platform"
	"relaychat/provider"
	"relaychat/service"
)

var logger = platform.Logger

func main() {
	//Load the .env file
	if err := godotenv.Load(".env"); err != nil {
		logger.Infof("no .env file loaded, %s", err)
	}
	cfg := platform.LoadConfig()

	if err := platform.InitLogger(cfg.LogPath, "relaychat", cfg.LogLevel); err != nil {
		logger.Warnf("file logging disabled, %s", err)
	}
	if err := platform.InitSentry(cfg.SentryDSN); err != nil {
		logger.Warnf("sentry disabled, %s", err)
	}
	defer platform.FlushSentry()

	//init database
	db, err := platform.OpenDB(cfg.DB)
	if err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}
	if err := model.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	store := model.NewStore(db)

	registry := provider.NewRegistry(
		provider.NewOpenAIAdapter(cfg.Credentials[string(provider.KindOpenAI)]),
		provider.NewAnthropicAdapter(cfg.Credentials[string(provider.KindAnthropic)], cfg.AnthropicMaxTokens),
	)
	models := service.NewModelService(registry, cfg.ModelCacheTTL)

	gin.SetMode(gin.ReleaseMode)
	r := controller.NewRouter(controller.Services{
		Completions: service.NewCompletionService(store, registry),
		Models:      models,
		ChatRooms:   service.NewChatRoomService(store),
	}, controller.RouterOptions{
		AllowOrigin: cfg.AllowOrigin,
		Metrics:     true,
	})

	c := cron.New()
	if _, err := c.AddFunc(cfg.ModelRefreshSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		models.Refresh(ctx)
	}); err != nil {
		logger.Warnf("model refresh not scheduled, %s", err)
	}
	c.Start()
	defer c.Stop()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		logger.Infof("Server started on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warnf("server shutdown, %s", err)
	}
}
