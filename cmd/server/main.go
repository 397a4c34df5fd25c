package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"navalha/internal/api"
	"navalha/internal/availability"
	"navalha/internal/config"
	"navalha/internal/database"
	"navalha/internal/events"
	"navalha/internal/google"
	"navalha/internal/metrics"
	"navalha/internal/notify"
	"navalha/internal/reminders"
)

func main() {
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("NAVALHA_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.EnsureDefaultSchedules(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure default schedules")
	}

	bus := events.NewEventBus()
	metrics.Register()

	avail := availability.NewService(db, cfg.GridStep(), &logger)
	if cfg.Redis.Address != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable; availability cache disabled")
		} else {
			avail.UseRedisCache(redisClient, cfg.CacheTTL())
			avail.SubscribeInvalidation(bus)
			logger.Info().Str("address", cfg.Redis.Address).Msg("Availability cache enabled")
		}
	}

	var notifier *notify.TelegramNotifier
	if cfg.Telegram.BotToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Debug, cfg.Managers, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to start telegram notifier")
		}
		notifier.SubscribeBookingEvents(bus)
	}

	if cfg.Reminders.Enabled && notifier != nil {
		reminderSvc := reminders.NewService(&reminders.Config{
			CheckInterval: cfg.ReminderInterval(),
			HoursBefore:   cfg.Reminders.HoursBefore,
		}, db, notifier, &logger)
		reminderSvc.Start()
		defer reminderSvc.Stop()
	}

	if cfg.Sheets.Enabled {
		sheetsSvc, err := google.NewSheetsService(ctx, cfg.Sheets.CredentialsPath,
			cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, &logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to start sheets sync")
		}
		go runSheetsSync(ctx, sheetsSvc, db, bus, &logger)
	}

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
	go backup.Start(ctx)

	if cfg.Monitoring.HealthCheckPort > 0 {
		go runHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, &logger)
	}
	if cfg.Monitoring.PrometheusEnabled && cfg.Monitoring.PrometheusPort > 0 {
		go runMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	server := api.NewHTTPServer(cfg, db, avail, bus, &logger)
	if err := server.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("HTTP server failed")
	}

	logger.Info().Msg("Shutdown complete")
}

// runSheetsSync mirrors bookings to the spreadsheet hourly and after every
// booking event.
func runSheetsSync(ctx context.Context, svc *google.SheetsService, db *database.DB, bus *events.EventBus, logger *zerolog.Logger) {
	sync := func() {
		syncCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		from := time.Now().AddDate(0, -1, 0)
		to := time.Now().AddDate(0, 1, 0)
		bookings, err := db.ListBookingsInRange(syncCtx, from, to)
		if err != nil {
			logger.Error().Err(err).Msg("Failed to load bookings for sheet sync")
			return
		}
		if err := svc.SyncBookings(syncCtx, bookings); err != nil {
			logger.Error().Err(err).Msg("Sheet sync failed")
		}
	}

	trigger := make(chan struct{}, 1)
	relay := func(events.Event) error {
		select {
		case trigger <- struct{}{}:
		default:
		}
		return nil
	}
	bus.Subscribe(events.TypeBookingCreated, relay)
	bus.Subscribe(events.TypeBookingCanceled, relay)

	sync()
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sync()
		case <-trigger:
			sync()
		}
	}
}

func runHealthServer(ctx context.Context, port int, db *database.DB, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("db unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("Health server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Health server failed")
	}
}

func runMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Int("port", port).Msg("Metrics server started")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}
