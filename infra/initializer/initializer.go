// Package initializer builds the infrastructure collaborators from config.
package initializer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/marketplace/config"
	infracache "github.com/amirasaad/marketplace/infra/cache"
	"github.com/amirasaad/marketplace/infra/provider/stripepayment"
	infrarepo "github.com/amirasaad/marketplace/infra/repository"
	infrastorage "github.com/amirasaad/marketplace/infra/storage"
	"github.com/amirasaad/marketplace/pkg/app"
	"github.com/amirasaad/marketplace/pkg/cache"
	"github.com/amirasaad/marketplace/pkg/storage"
)

// InitializeDependencies connects to the database, Redis, S3 and Stripe.
// Redis is optional: when unreachable the badge cache degrades to an
// in-process one. S3 is optional: without a bucket, media uploads are
// disabled and URLs resolve empty.
func InitializeDependencies(
	ctx context.Context,
	cfg *config.AppConfig,
	logger *slog.Logger,
) (*app.Deps, error) {
	db, err := infrarepo.NewDBConnection(cfg.DB.Url)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	var c cache.Cache
	redisCache, err := infracache.NewRedisCache(ctx, cfg.Redis.URL)
	if err != nil {
		logger.Warn("redis unavailable, using in-memory cache", "error", err)
		c = infracache.NewMemoryCache()
	} else {
		c = redisCache
	}

	var store storage.ObjectStorage
	if cfg.S3.Bucket != "" {
		s3Store, err := infrastorage.NewS3Storage(ctx, &cfg.S3, logger)
		if err != nil {
			return nil, fmt.Errorf("initializing object storage: %w", err)
		}
		store = s3Store
	} else {
		logger.Warn("no S3 bucket configured, media uploads disabled")
	}

	return &app.Deps{
		Uow:     infrarepo.NewUoW(db),
		Gateway: stripepayment.New(&cfg.Stripe, logger),
		Cache:   c,
		Storage: store,
		Logger:  logger,
	}, nil
}
