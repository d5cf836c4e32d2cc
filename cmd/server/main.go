package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Freeeeeet/meeting_scheduler/internal/advisor"
	"github.com/Freeeeeet/meeting_scheduler/internal/app"
	"github.com/Freeeeeet/meeting_scheduler/internal/config"
	"github.com/Freeeeeet/meeting_scheduler/internal/controller/httpapi"
	"github.com/Freeeeeet/meeting_scheduler/internal/notify"
	"github.com/Freeeeeet/meeting_scheduler/internal/repository"
	"github.com/Freeeeeet/meeting_scheduler/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Sugar().Infow("Starting meeting scheduler", "addr", cfg.HTTPAddr, "env", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Scheduler stopped with error", zap.Error(err))
	}
	logger.Info("Scheduler stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pool, err := pgxpool.New(ctx, cfg.GetDBDSN())
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		return err
	}
	if err := migrator.Run(ctx); err != nil {
		migrator.Close()
		return err
	}
	migrator.Close()

	store := repository.NewStore(pool, logger)

	notifier, closeNotifier, err := buildNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier()

	adv, closeAdvisor, err := buildAdvisor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeAdvisor()

	shiftMode, err := service.ParseShiftMode(cfg.CascadeShiftMode)
	if err != nil {
		return err
	}

	booking := service.NewBookingService(store, notifier, cfg.FocusCategoryID, nil, logger)
	svc := httpapi.Services{
		Users:        service.NewUserService(store.Repos().Users, logger),
		Categories:   service.NewCategoryService(store.Repos().Categories, store.Repos().Users, logger),
		Availability: service.NewAvailabilityService(store, cfg.FocusCategoryID, nil, logger),
		Booking:      booking,
		Extension:    service.NewExtensionService(store, notifier, shiftMode, nil, logger),
		Suggestions:  service.NewSuggestionService(store, adv, cfg.FocusCategoryID, nil, logger),
	}

	scheduler := app.NewScheduler(booking, cfg.SweepSpec, logger)
	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler := httpapi.NewHandler(svc, httpapi.Options{
		JWTSecret:         []byte(cfg.JWTSecret),
		SuggestionsPerMin: cfg.SuggestionsRate,
		CORSOrigins:       splitOrigins(cfg.CORSOrigins),
	}, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildNotifier собирает каналы уведомлений из конфига; без каналов уведомления выключены
func buildNotifier(cfg *config.Config, logger *zap.Logger) (notify.Notifier, func(), error) {
	var notifiers []notify.Notifier
	closers := []func(){}

	if cfg.TelegramToken != "" {
		b, err := notify.NewTelegramBot(cfg.TelegramToken)
		if err != nil {
			return nil, nil, err
		}
		notifiers = append(notifiers, notify.NewTelegramNotifier(b))
		logger.Info("Telegram notifications enabled")
	}

	if cfg.NATSURL != "" {
		nc, err := notify.ConnectNATS(cfg.NATSURL, func(err error) {
			logger.Warn("NATS connection error", zap.Error(err))
		})
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, nc.Close)
		notifiers = append(notifiers, notify.NewNATSNotifier(nc))
		logger.Info("NATS notifications enabled", zap.String("url", cfg.NATSURL))
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	if len(notifiers) == 0 {
		return notify.Nop{}, closeAll, nil
	}
	return notify.NewMulti(logger, notifiers...), closeAll, nil
}

// buildAdvisor поднимает Gemini (и кэш в Redis, если задан адрес).
// Без ключа возвращает nil, и подсказки отвечают 503.
func buildAdvisor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (advisor.Advisor, func(), error) {
	noop := func() {}
	if !cfg.SuggestionsEnabled() {
		logger.Info("Reschedule suggestions disabled: GEMINI_API_KEY is not set")
		return nil, noop, nil
	}

	client, err := advisor.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, noop, err
	}
	closers := []func(){func() { _ = client.Close() }}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	var adv advisor.Advisor = advisor.NewLLMAdvisor(client)

	if cfg.RedisAddr != "" {
		rdb, err := advisor.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			closeAll()
			return nil, noop, err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		adv = advisor.NewCachedAdvisor(adv, advisor.NewRedisCache(rdb), cfg.SuggestionTTL, logger)
		logger.Info("Suggestion cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	return adv, closeAll, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
