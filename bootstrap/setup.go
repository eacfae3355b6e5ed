package bootstrap

import (
	"context"
	"fmt"

	"github.com/va6996/toolshed/config"
	"github.com/va6996/toolshed/database"
	"github.com/va6996/toolshed/log"
	"github.com/va6996/toolshed/orm"
)

// App holds the initialized components of the application
type App struct {
	Connections *database.Factory
	Tools       *orm.ToolRepository
}

// Setup initializes the application components based on the configuration
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	// 1. Logging
	if cfg.Log.Level != "" {
		if err := log.SetLevelName(cfg.Log.Level); err != nil {
			return nil, err
		}
	}

	// 2. Connection factory. Bad settings are fatal here, before any statement runs.
	factory, err := database.NewFactory(cfg.Database)
	if err != nil {
		return nil, err
	}

	// 3. Schema, only when asked for
	if cfg.Database.AutoMigrate {
		log.Infof(ctx, "Ensuring tools table exists on %s", cfg.Database.Target())
		if err := orm.EnsureSchema(ctx, factory); err != nil {
			_ = factory.Disconnect(ctx)
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
	}

	return &App{
		Connections: factory,
		Tools:       orm.NewToolRepository(factory),
	}, nil
}

// Close releases the database handle
func (a *App) Close(ctx context.Context) error {
	return a.Connections.Disconnect(ctx)
}
