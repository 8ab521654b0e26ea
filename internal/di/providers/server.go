package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/recipeboxapp/recipebox-server/internal/api"
	"github.com/recipeboxapp/recipebox-server/internal/config"
	"github.com/recipeboxapp/recipebox-server/internal/logger"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *api.Server
	log     *logger.Logger
}

// Shutdown implements do.Shutdownable. In-flight requests get shutdownTimeout to finish.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	h.log.Info("Draining HTTP server...")
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideMetrics provides the Prometheus request metrics.
func ProvideMetrics(i do.Injector) (*api.Metrics, error) {
	return api.NewMetrics(), nil
}

// ProvideHTTPServer builds the API handler and starts serving in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	storage := do.MustInvoke[media.Storage](i)
	metrics := do.MustInvoke[*api.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	attributes := do.MustInvoke[*AttributeServices](i)
	services := &api.Services{
		Users:       do.MustInvoke[*service.UserService](i),
		Tags:        attributes.Tags,
		Ingredients: attributes.Ingredients,
		Recipes:     do.MustInvoke[*service.RecipeService](i),
	}

	apiCfg := api.Config{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		TokenRateLimit:     cfg.Auth.TokenRateLimit,
	}
	// Blobs in S3 are served by the bucket, not by us.
	if cfg.Media.Backend == config.MediaBackendLocal {
		apiCfg.MediaURL = cfg.Media.URL
	}

	handler := api.NewServer(storeHandle.Store, services, storage, metrics, apiCfg, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr)

	return &HTTPServerHandle{Server: srv, handler: handler, log: log}, nil
}
