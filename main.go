package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"nezhabot/internal/commands"
	"nezhabot/internal/config"
	"nezhabot/internal/controllers"
	"nezhabot/internal/i18n"
	"nezhabot/internal/middleware"
	"nezhabot/internal/routes"
	"nezhabot/internal/services"
	"nezhabot/internal/telegram"
)

const telegramTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file (environment variables override it)")
	refreshOnce := flag.Bool("refresh-once", false, "refresh the dashboard token once and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[CONFIG] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := services.OpenCredentialStore(ctx, services.StoreOptions{
		Backend:  cfg.Store.Backend,
		FilePath: cfg.Store.Path,
		Redis: services.RedisStoreConfig{
			Address:   cfg.Store.Redis.Address,
			Password:  cfg.Store.Redis.Password,
			DB:        cfg.Store.Redis.DB,
			KeyPrefix: cfg.Store.Redis.KeyPrefix,
			Key:       cfg.Store.Key,
			PoolSize:  cfg.Store.Redis.PoolSize,
		},
	})
	if err != nil {
		log.Fatalf("[TOKEN] %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer closer.Close()
	}

	api := services.NewNezhaAPI(cfg.Nezha.BaseURL, cfg.Nezha.Timeout)
	tokens, err := services.InitTokenManager(ctx, api, store, services.Credentials{
		Username: cfg.Nezha.Username,
		Password: cfg.Nezha.Password,
	})
	if err != nil {
		log.Fatalf("[TOKEN] %v", err)
	}

	if *refreshOnce {
		services.RunScheduledRefresh(ctx, tokens)
		return
	}

	tr, err := i18n.New(cfg.Locale.Lang)
	if err != nil {
		log.Fatalf("[BOT] %v", err)
	}
	tr = tr.WithLocation(cfg.Location())
	log.Printf("[BOT] Replying in %s", tr.Lang())

	tg, err := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken, telegramTimeout)
	if err != nil {
		log.Fatalf("[TELEGRAM] %v", err)
	}
	bot := telegram.NewBot(tg, cfg.Telegram.UID)
	commands.NewHandlers(services.NewTelemetryClient(api, tokens), tokens, tr).Register(bot)

	scheduler := services.NewRefreshScheduler(tokens, cfg.Refresh.Interval)
	scheduler.Start()
	defer scheduler.Stop()

	r := gin.Default()
	r.Use(
		middleware.SecurityHeadersMiddleware(),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)),
	)

	sl := middleware.NewSecurityLogger()
	routes.RegisterOperatorRoutes(r, cfg.Auth.Password,
		controllers.NewOperatorController(tg, bot, tokens, cfg.Telegram.EndpointPath, cfg.Telegram.Secret),
		controllers.NewStatusController(services.NewStatusService(tokens, cfg.Status.DiskPath)),
		sl,
	)
	routes.RegisterWebhookRoutes(r, cfg.Telegram.EndpointPath, cfg.Telegram.Secret, controllers.NewWebhookController(bot), sl)
	routes.RegisterFallback(r)

	srv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("[HTTP] Listening on %s, webhook at %s", srv.Addr, cfg.Telegram.EndpointPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[HTTP] %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[HTTP] Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[HTTP] Shutdown: %v", err)
	}
}
