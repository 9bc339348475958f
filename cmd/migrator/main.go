// Command migrator moves documents from an ecoDMS XML export into a
// Paperless-ngx instance. Configuration comes from the environment (with
// optional .env file); see pkg/config for the variable names.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pweiler/ecodms2paperless/internal/ecodms"
	"github.com/pweiler/ecodms2paperless/internal/paperless"
	"github.com/pweiler/ecodms2paperless/internal/repository"
	"github.com/pweiler/ecodms2paperless/internal/service"
	"github.com/pweiler/ecodms2paperless/pkg/config"
	"github.com/pweiler/ecodms2paperless/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	logr = logr.With(zap.String("run_id", uuid.NewString()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := ecodms.ParseFile(cfg.ExportFile)
	if err != nil {
		logr.Sugar().Fatalw("export parse failed", "file", cfg.ExportFile, "error", err)
	}

	client := paperless.NewClient(paperless.ClientConfig{
		BaseURL:         cfg.Paperless.URL,
		Token:           cfg.Paperless.Token,
		PollInterval:    cfg.Poll.Interval,
		PollMaxAttempts: cfg.Poll.MaxAttempts,
	}, logr)
	resolver := service.NewResolver(client, logr)
	ledger := repository.NewLedger(cfg.Ledger.Path)

	migrator := service.NewMigrator(client, resolver, ledger, logr, service.MigratorConfig{
		SourceTag: cfg.Markers.SourceTag,
		TaxTag:    cfg.Markers.TaxTag,
	})

	// Relative file paths inside the export are anchored at the export's
	// own directory.
	baseDir := filepath.Dir(cfg.ExportFile)

	if _, err := migrator.Run(ctx, docs, baseDir); err != nil {
		logr.Sugar().Fatalw("migration aborted", "error", err)
	}
}
