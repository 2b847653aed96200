package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/devirz/open-router-chat/internal/models"
)

// Catalog retrieves the model catalog.
type Catalog interface {
	Models(ctx context.Context) ([]models.Model, error)
}

// CachedCatalog serves the model catalog from a BoltCatalog while it is fresh, refreshing from
// the upstream catalog once it goes stale. When a refresh fails, a stale copy beats an empty
// model selector, so the cached catalog is served with a warning.
type CachedCatalog struct {
	upstream Catalog
	cache    BoltCatalog
	ttl      time.Duration

	logger *slog.Logger
}

// NewCachedCatalog wraps upstream with the given cache and time-to-live.
func NewCachedCatalog(upstream Catalog, cache BoltCatalog, ttl time.Duration, logger *slog.Logger) CachedCatalog {
	return CachedCatalog{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With(slog.String("module", "catalog")),
	}
}

// Models implements Catalog.
func (c CachedCatalog) Models(ctx context.Context) ([]models.Model, error) {
	cached, fetchedAt, err := c.cache.Get()
	if err != nil {
		c.logger.Error("Failed to read catalog cache", slog.String("err", err.Error()))
	} else if len(cached) > 0 && time.Since(fetchedAt) < c.ttl {
		return cached, nil
	}

	fresh, err := c.upstream.Models(ctx)
	if err != nil {
		if len(cached) > 0 {
			c.logger.Warn("Serving stale model catalog", slog.String("err", err.Error()))
			return cached, nil
		}
		return nil, err
	}

	if err := c.cache.Put(fresh); err != nil {
		c.logger.Error("Failed to cache model catalog", slog.String("err", err.Error()))
	}
	return fresh, nil
}
