package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/atendeai/clinicbot/internal/api/router"
	"github.com/atendeai/clinicbot/internal/channel"
	"github.com/atendeai/clinicbot/internal/clinicdata"
	"github.com/atendeai/clinicbot/internal/config"
	"github.com/atendeai/clinicbot/internal/dialog"
	"github.com/atendeai/clinicbot/internal/notify"
	"github.com/atendeai/clinicbot/internal/observability/metrics"
	"github.com/atendeai/clinicbot/internal/oncall"
	"github.com/atendeai/clinicbot/internal/pricing"
	"github.com/atendeai/clinicbot/internal/session"
	"github.com/atendeai/clinicbot/internal/transcript"
	"github.com/atendeai/clinicbot/pkg/logging"
)

func main() {
	// Local development convenience; production sets real env vars.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic attendant bot",
		"env", cfg.Env,
		"port", cfg.Port,
		"menu_variant", cfg.MenuVariant,
	)

	// Reference data is a startup precondition: without prices and the on-call
	// roster the bot cannot answer, so refuse to start.
	catalog, err := clinicdata.LoadCatalog(cfg.ProceduresCSV)
	if err != nil {
		logger.Error("failed to load procedure catalog", "error", err, "path", cfg.ProceduresCSV)
		os.Exit(1)
	}
	roster, err := clinicdata.LoadRoster(cfg.RosterCSV)
	if err != nil {
		logger.Error("failed to load duty roster", "error", err, "path", cfg.RosterCSV)
		os.Exit(1)
	}
	logger.Info("reference data loaded", "procedures", len(catalog), "duty_windows", len(roster))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions, cleanup := buildSessionStore(ctx, cfg, logger)
	defer cleanup()

	var transcripts *transcript.Store
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		transcripts = transcript.NewStore(db)
		if err := transcripts.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare transcript schema", "error", err)
			os.Exit(1)
		}
		logger.Info("transcript persistence enabled")
	}

	menu := dialog.FullMenu()
	if cfg.MenuVariant == config.MenuVariantReduced {
		menu = dialog.ReducedMenu()
	}

	engine := dialog.NewEngine(dialog.EngineConfig{
		Sessions:      sessions,
		OnCall:        oncall.NewResolver(roster),
		Prices:        pricing.NewMatcher(catalog),
		Menu:          menu,
		ClinicName:    cfg.ClinicName,
		EndoscopyDays: cfg.EndoscopyDays,
		ReMenuDelay:   cfg.ReMenuDelay,
		Logger:        logger,
	})

	var notifier notify.Notifier
	if cfg.AlertsEnabled {
		notifier = notify.NewDesktopNotifier(logger)
	} else {
		notifier = notify.NewStubNotifier(logger)
	}

	queue := dialog.NewQueue(cfg.QueueBuffer)
	botMetrics := metrics.NewBotMetrics(nil)

	messenger := channel.NewGatewaySender(cfg.GatewayBaseURL, cfg.GatewayToken, logger)
	worker := dialog.NewWorker(dialog.WorkerConfig{
		Engine:     engine,
		Queue:      queue,
		Messenger:  messenger,
		Notifier:   notifier,
		Transcript: transcripts,
		Metrics:    botMetrics,
		Logger:     logger,
		Workers:    cfg.WorkerCount,
	})
	worker.Start(ctx)

	if cfg.GatewayWSURL != "" {
		listener := channel.NewListener(cfg.GatewayWSURL, cfg.GatewayToken, queue, logger)
		go listener.Run(ctx)
		logger.Info("gateway stream listener started", "url", cfg.GatewayWSURL)
	}

	r := router.New(&router.Config{
		Logger:      logger,
		Webhook:     channel.NewWebhookHandler(cfg.WebhookSecret, queue, logger),
		Metrics:     promhttp.Handler(),
		Transcripts: transcripts,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	cancel()
	worker.Wait()
	logger.Info("bot stopped")
}

// buildSessionStore picks Redis when configured, otherwise the in-memory
// store. The returned cleanup closes whatever was opened.
func buildSessionStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (session.Store, func()) {
	if cfg.RedisAddr == "" {
		logger.Info("using in-memory session store", "idle_ttl", cfg.SessionTTL.String())
		return session.NewMemoryStore(cfg.SessionTTL), func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect redis", "error", err, "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	logger.Info("using redis session store", "addr", cfg.RedisAddr, "idle_ttl", cfg.SessionTTL.String())
	return session.NewRedisStore(client, cfg.SessionTTL), func() { client.Close() }
}
