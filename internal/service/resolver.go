package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pweiler/ecodms2paperless/internal/models"
	apperrors "github.com/pweiler/ecodms2paperless/pkg/errors"
)

type catalogAPI interface {
	ListTags(ctx context.Context) ([]models.CatalogEntry, error)
	CreateTag(ctx context.Context, name string) error
	ListDocumentTypes(ctx context.Context) ([]models.CatalogEntry, error)
	CreateDocumentType(ctx context.Context, name string) error
}

// Resolver turns catalog names into remote ids, lazily creating entries that
// do not exist yet. Each catalog is cached as a full name→id snapshot; after
// any creation the whole catalog is re-fetched so the cache always matches
// server truth, even when the server normalises names on its side.
type Resolver struct {
	api    catalogAPI
	logger *zap.Logger

	tags          map[string]int
	documentTypes map[string]int
}

// NewResolver constructs a resolver with cold caches.
func NewResolver(api catalogAPI, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{api: api, logger: logger}
}

// ResolveTag returns the id of the named tag, creating it when absent.
func (r *Resolver) ResolveTag(ctx context.Context, name string) (int, error) {
	return r.resolve(ctx, "tag", name, &r.tags, r.api.ListTags, r.api.CreateTag)
}

// ResolveDocumentType returns the id of the named document type, creating it
// when absent.
func (r *Resolver) ResolveDocumentType(ctx context.Context, name string) (int, error) {
	return r.resolve(ctx, "document type", name, &r.documentTypes, r.api.ListDocumentTypes, r.api.CreateDocumentType)
}

func (r *Resolver) resolve(
	ctx context.Context,
	kind, name string,
	cache *map[string]int,
	list func(context.Context) ([]models.CatalogEntry, error),
	create func(context.Context, string) error,
) (int, error) {
	if strings.TrimSpace(name) == "" {
		return 0, apperrors.Clonef(apperrors.ErrIncompleteRecord, "empty %s name", kind)
	}

	if *cache == nil {
		if err := r.refresh(ctx, cache, list); err != nil {
			return 0, err
		}
	}
	if id, ok := (*cache)[name]; ok {
		return id, nil
	}

	r.logger.Info("creating missing catalog entry", zap.String("catalog", kind), zap.String("name", name))
	if err := create(ctx, name); err != nil {
		return 0, err
	}
	if err := r.refresh(ctx, cache, list); err != nil {
		return 0, err
	}
	if id, ok := (*cache)[name]; ok {
		return id, nil
	}
	// One create and one re-fetch are the whole budget; a second miss means
	// the server and this run disagree about the name.
	return 0, apperrors.Clonef(apperrors.ErrCatalogCreate,
		"%s %q did not resolve after creation", kind, name)
}

func (r *Resolver) refresh(
	ctx context.Context,
	cache *map[string]int,
	list func(context.Context) ([]models.CatalogEntry, error),
) error {
	entries, err := list(ctx)
	if err != nil {
		return err
	}
	snapshot := make(map[string]int, len(entries))
	for _, e := range entries {
		snapshot[e.Name] = e.ID
	}
	*cache = snapshot
	return nil
}
