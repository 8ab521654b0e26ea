package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/recipeboxapp/recipebox-server/internal/config"
	"github.com/recipeboxapp/recipebox-server/internal/logger"
	"github.com/recipeboxapp/recipebox-server/internal/store/sqlstore"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlstore.Store
	log *logger.Logger
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	h.log.Info("Closing database...")
	return h.Close()
}

// ProvideStore opens the database and applies pending migrations.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := sqlstore.Open(ctx, cfg.Database.URL, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "dialect", db.Dialect())

	return &StoreHandle{Store: db, log: log}, nil
}
