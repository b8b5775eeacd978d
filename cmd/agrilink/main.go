package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/agrilink/agrilink/internal/classify"
	"github.com/agrilink/agrilink/internal/classify/claude"
	"github.com/agrilink/agrilink/internal/classify/gemini"
	"github.com/agrilink/agrilink/internal/classify/openai"
	"github.com/agrilink/agrilink/internal/classify/puter"
	"github.com/agrilink/agrilink/internal/config"
	"github.com/agrilink/agrilink/internal/db"
	"github.com/agrilink/agrilink/internal/logging"
	"github.com/agrilink/agrilink/internal/photostore"
	"github.com/agrilink/agrilink/internal/photostore/azure"
	"github.com/agrilink/agrilink/internal/photostore/local"
	"github.com/agrilink/agrilink/internal/service"
	"github.com/agrilink/agrilink/internal/store"
	"github.com/agrilink/agrilink/internal/web"
)

func main() {
	// .env.local wins over .env; neither overrides the real environment.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("failed to load %s: %v", f, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	if err := run(cfg, logger); err != nil {
		logger.Error("agrilink stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect, dsn := db.SQLite, cfg.DBPath
	if cfg.DBDriver == "postgres" {
		dialect, dsn = db.Postgres, cfg.DatabaseURL
	}
	database, err := db.Open(dialect, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()
	logger.Info("database ready", "driver", dialect)

	photos, err := newPhotoStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	prices := classify.DefaultPriceTable().With(cfg.Pricing.Crops, cfg.Pricing.Default)
	classifier := classify.New(newSender(cfg, logger), prices, logger)
	svc := service.NewListingService(store.NewListingStore(database, dialect), classifier, photos, prices, logger)
	srv := web.NewServer(svc, web.DefaultCORSConfig(cfg.CORSOrigins), logger).HTTPServer(cfg.ListenAddr)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newPhotoStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	if cfg.PhotoBackend == "azure" {
		ps, err := azure.New(cfg.AzureConnectionString, cfg.AzureContainer, logger)
		if err != nil {
			return nil, err
		}
		if err := ps.EnsureContainer(ctx); err != nil {
			return nil, err
		}
		logger.Info("using Azure photo storage", "container", cfg.AzureContainer)
		return ps, nil
	}

	ps, err := local.New(cfg.PhotoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize photo store: %w", err)
	}
	logger.Info("using local photo storage", "path", cfg.PhotoPath)
	return ps, nil
}

// newSender builds the provider transport. The chat endpoint is always
// configured; with PREFER_SDK set an SDK provider is tried first and the chat
// endpoint only answers when it fails.
func newSender(cfg *config.Config, logger *slog.Logger) classify.Sender {
	policy := classify.DefaultRetryPolicy()
	policy.Backoff = cfg.RetryBackoff
	chat := classify.WithTimeout(
		puter.NewInvoker(cfg.PuterBaseURL, cfg.PuterAPIKey, cfg.PuterModel, policy, logger),
		cfg.ProviderTimeout,
	)

	var sdk classify.Sender
	switch cfg.Provider {
	case "claude":
		sdk = claude.New(cfg.ClaudeAPIKey, cfg.ClaudeModel)
	case "gemini":
		sdk = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	case "openai":
		sdk = openai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL)
	default:
		logger.Info("using chat endpoint provider", "base_url", cfg.PuterBaseURL, "model", cfg.PuterModel)
		return chat
	}
	sdk = classify.WithTimeout(sdk, cfg.ProviderTimeout)

	if cfg.PreferSDK {
		logger.Info("using SDK provider with chat endpoint fallback", "provider", cfg.Provider)
		return &classify.Fallback{Preferred: sdk, Fallback: chat, Logger: logger}
	}
	logger.Info("using SDK provider", "provider", cfg.Provider)
	return sdk
}
