package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ftsomon/app/internal/alerting"
	"ftsomon/app/internal/config"
	"ftsomon/app/internal/database"
	"ftsomon/app/internal/extract"
	"ftsomon/app/internal/notify"
	"ftsomon/app/internal/scheduler"
	"ftsomon/app/internal/source"
	"ftsomon/app/internal/web"
)

func main() {
	// Load configuration from environment. Missing required identity is the
	// only class of error that exits non-zero.
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Initialize the SQLite journal
	if err := database.Init(cfg.DBPath); err != nil {
		log.Printf("Failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer database.Close()

	alertMgr := alerting.NewManager(buildNotifier(cfg), cfg.ProviderAddress)
	sched := scheduler.New(
		buildSource(cfg),
		buildExtractor(cfg),
		cfg.Thresholds,
		alertMgr,
		cfg.Interval,
		cfg.BackoffCap,
		cfg.FailureAlertAfter,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	if cfg.EnableStatusAPI {
		srv = &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      web.SetupRoutes(alertMgr, cfg.ProviderAddress, cfg.Network),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Printf("Status API listening on port %s", cfg.Port)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("Status API failed: %v", err)
			}
		}()
	}

	log.Printf("Monitoring FTSO provider %s on network %s every %s", cfg.ProviderAddress, cfg.Network, cfg.Interval)
	log.Printf("Dashboard: %s", cfg.DashboardURL())
	_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "", "Monitor started", cfg.DashboardURL())

	// Blocks until a shutdown signal interrupts the inter-tick sleep.
	_ = sched.Run(ctx)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}

	_ = database.InsertLog(database.LogLevelInfo, database.LogCategorySystem, "", "Monitor stopped", "")
	log.Println("Monitoring stopped")
}

// buildSource selects the acquisition mode from configuration.
func buildSource(cfg *config.Config) source.Source {
	if cfg.ScrapeMode == "http" {
		return source.NewHTTPSource(cfg.DashboardURL(), cfg.FetchTimeout)
	}
	return source.NewBrowserSource(cfg.DashboardURL(), cfg.FetchTimeout)
}

// buildExtractor enables the semantic fallback only when a credential is
// configured; the structural path alone still works without one.
func buildExtractor(cfg *config.Config) *extract.Extractor {
	if cfg.OpenAIKey == "" {
		log.Println("OPENAI_API_KEY not set, semantic fallback disabled")
		return extract.New(nil)
	}
	return extract.New(extract.NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel))
}

// buildNotifier assembles the configured channels. With none configured,
// alerts are journaled but delivery is reported as failed so they stay owed.
func buildNotifier(cfg *config.Config) notify.Notifier {
	var channels notify.Multi
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.NotifyTimeout))
	} else {
		log.Println("Telegram bot token or chat ID not configured")
	}
	if cfg.WebhookURL != "" {
		channels = append(channels, notify.NewWebhook(cfg.WebhookURL, cfg.WebhookSecret, cfg.NotifyTimeout))
	}
	return channels
}
