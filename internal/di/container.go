// Package di provides dependency injection configuration for the recipebox server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/recipeboxapp/recipebox-server/internal/auth"
	"github.com/recipeboxapp/recipebox-server/internal/config"
	"github.com/recipeboxapp/recipebox-server/internal/di/providers"
	"github.com/recipeboxapp/recipebox-server/internal/logger"
	"github.com/recipeboxapp/recipebox-server/internal/media"
	"github.com/recipeboxapp/recipebox-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
// Configuration comes from the process flags and environment.
func NewContainer() *do.RootScope {
	return newContainer(providers.ProvideConfig)
}

// NewContainerWithConfig is NewContainer with an already loaded configuration.
func NewContainerWithConfig(cfg *config.Config) *do.RootScope {
	return newContainer(func(do.Injector) (*config.Config, error) { return cfg, nil })
}

func newContainer(provideConfig do.Provider[*config.Config]) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, provideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideMediaStorage)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)

	// Business services
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideAttributeServices)
	do.Provide(injector, providers.ProvideRecipeService)

	// Server
	do.Provide(injector, providers.ProvideMetrics)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Any provider failure is returned instead of panicking.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[media.Storage](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*auth.TokenService](injector); err != nil {
		return err
	}

	// Business services
	if _, err := do.Invoke[*service.UserService](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.AttributeServices](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*service.RecipeService](injector); err != nil {
		return err
	}

	// Server
	_, err := do.Invoke[*providers.HTTPServerHandle](injector)
	return err
}

// Services builds everything the operator CLI needs without starting the HTTP server.
func Services(injector *do.RootScope) (*service.UserService, *service.RecipeService, *providers.AttributeServices, error) {
	users, err := do.Invoke[*service.UserService](injector)
	if err != nil {
		return nil, nil, nil, err
	}
	recipes, err := do.Invoke[*service.RecipeService](injector)
	if err != nil {
		return nil, nil, nil, err
	}
	attributes, err := do.Invoke[*providers.AttributeServices](injector)
	if err != nil {
		return nil, nil, nil, err
	}
	return users, recipes, attributes, nil
}
