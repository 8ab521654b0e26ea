package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/recipeboxapp/recipebox-server/internal/config"
	"github.com/recipeboxapp/recipebox-server/internal/logger"
	"github.com/recipeboxapp/recipebox-server/internal/media"
)

// ProvideMediaStorage provides the blob storage for uploaded recipe images.
func ProvideMediaStorage(i do.Injector) (media.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Media.Backend {
	case config.MediaBackendS3:
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		s3 := cfg.Media.S3
		storage, err := media.NewS3Storage(ctx, media.S3Config{
			Endpoint:  s3.Endpoint,
			Bucket:    s3.Bucket,
			Region:    s3.Region,
			AccessKey: s3.AccessKey,
			SecretKey: s3.SecretKey,
			UseSSL:    s3.UseSSL,
			PublicURL: s3.PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 media storage: %w", err)
		}
		log.Info("Media storage initialized", "backend", "s3", "endpoint", s3.Endpoint, "bucket", s3.Bucket)
		return storage, nil

	default:
		storage, err := media.NewLocalStorage(cfg.Media.Root, cfg.Media.URL)
		if err != nil {
			return nil, fmt.Errorf("local media storage: %w", err)
		}
		log.Info("Media storage initialized", "backend", "local", "root", cfg.Media.Root, "url", cfg.Media.URL)
		return storage, nil
	}
}
