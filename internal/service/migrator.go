package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pweiler/ecodms2paperless/internal/models"
	"github.com/pweiler/ecodms2paperless/internal/paperless"
	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

type uploadAPI interface {
	UploadDocument(ctx context.Context, filePath string, meta paperless.UploadMetadata) (string, error)
	WaitForTask(ctx context.Context, taskID string) error
}

type attributeResolver interface {
	ResolveTag(ctx context.Context, name string) (int, error)
	ResolveDocumentType(ctx context.Context, name string) (int, error)
}

type ledgerStore interface {
	IsNew(path string) (bool, error)
	RecordCompleted(path string, completedAt time.Time) error
}

// MigratorConfig names the fixed marker tags attached to every upload.
type MigratorConfig struct {
	SourceTag string
	TaxTag    string
}

// Migrator drives the pipeline: map → ledger check → resolve → upload →
// wait → record. Strictly sequential, one document at a time.
type Migrator struct {
	api      uploadAPI
	resolver attributeResolver
	ledger   ledgerStore
	logger   *zap.Logger
	cfg      MigratorConfig
}

// NewMigrator constructs the migrator.
func NewMigrator(api uploadAPI, resolver attributeResolver, ledger ledgerStore, logger *zap.Logger, cfg MigratorConfig) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SourceTag == "" {
		cfg.SourceTag = "EcoDMS"
	}
	if cfg.TaxTag == "" {
		cfg.TaxTag = "Steuerrelevant"
	}
	return &Migrator{api: api, resolver: resolver, ledger: ledger, logger: logger, cfg: cfg}
}

// RunSummary counts per-document outcomes of one run.
type RunSummary struct {
	Migrated    int
	AlreadyDone int
	Skipped     int
	Failed      int
}

// Run migrates every document of the export in source order. Fatal errors
// abort the run; document-level failures are logged and counted, and the run
// continues with the next document.
func (m *Migrator) Run(ctx context.Context, docs *models.Documents, baseDir string) (RunSummary, error) {
	summary := RunSummary{}

	m.logger.Info("starting migration",
		zap.String("user", docs.User),
		zap.String("start_id", docs.StartID),
		zap.String("end_id", docs.EndID),
		zap.Int("documents", len(docs.Documents)))

	for _, doc := range docs.Documents {
		intent, err := MapDocument(doc, baseDir)
		if err != nil {
			if apperrors.IsFatal(err) {
				return summary, err
			}
			m.logger.Warn("skipping document",
				zap.String("docid", doc.DocID),
				zap.Error(err))
			summary.Skipped++
			continue
		}

		isNew, err := m.ledger.IsNew(intent.FilePath)
		if err != nil {
			return summary, err
		}
		if !isNew {
			m.logger.Info("already migrated",
				zap.String("docid", intent.DocID),
				zap.String("file", intent.FilePath))
			summary.AlreadyDone++
			continue
		}

		if err := m.migrateOne(ctx, intent); err != nil {
			if apperrors.IsFatal(err) {
				return summary, err
			}
			m.logger.Error("document failed",
				zap.String("docid", intent.DocID),
				zap.String("file", intent.FilePath),
				zap.Error(err))
			summary.Failed++
			continue
		}
		summary.Migrated++
	}

	m.logger.Info("migration finished",
		zap.Int("migrated", summary.Migrated),
		zap.Int("already_done", summary.AlreadyDone),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

func (m *Migrator) migrateOne(ctx context.Context, intent *models.DocumentIntent) error {
	meta, err := m.buildMetadata(ctx, intent)
	if err != nil {
		return err
	}

	taskID, err := m.api.UploadDocument(ctx, intent.FilePath, *meta)
	if err != nil {
		return err
	}
	m.logger.Info("uploaded, waiting for consumption",
		zap.String("docid", intent.DocID),
		zap.String("task_id", taskID))

	if err := m.api.WaitForTask(ctx, taskID); err != nil {
		return err
	}
	if err := m.ledger.RecordCompleted(intent.FilePath, time.Now()); err != nil {
		return err
	}
	m.logger.Info("document migrated",
		zap.String("docid", intent.DocID),
		zap.String("file", intent.FilePath))
	return nil
}

func (m *Migrator) buildMetadata(ctx context.Context, intent *models.DocumentIntent) (*paperless.UploadMetadata, error) {
	tagNames := []string{intent.Folder, m.cfg.SourceTag}
	if intent.TaxRelevant {
		tagNames = append(tagNames, m.cfg.TaxTag)
	}

	tags := make([]int, 0, len(tagNames))
	for _, name := range tagNames {
		id, err := m.resolver.ResolveTag(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, id)
	}

	docTypeID, err := m.resolver.ResolveDocumentType(ctx, intent.DocumentType)
	if err != nil {
		return nil, err
	}

	return &paperless.UploadMetadata{
		Title:               intent.Title,
		Created:             intent.Created,
		Tags:                tags,
		DocumentTypeID:      &docTypeID,
		ArchiveSerialNumber: intent.ArchiveSerialNumber,
	}, nil
}
