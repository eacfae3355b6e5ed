package orm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/va6996/toolshed/config"
	"github.com/va6996/toolshed/database"
	"gorm.io/gorm"
)

// SetupTestDB returns a factory over a fresh sqlite file with the tools table in place
func SetupTestDB(t *testing.T) *database.Factory {
	t.Helper()
	factory, err := database.NewFactory(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "tools.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = factory.Disconnect(context.Background()) })

	err = EnsureSchema(context.Background(), factory)
	assert.NoError(t, err)

	return factory
}

// handle returns the factory's shared gorm handle, for registering callbacks
func handle(t *testing.T, factory *database.Factory) *gorm.DB {
	t.Helper()
	db, err := factory.Connect(context.Background())
	require.NoError(t, err)
	return db
}

func connectionsInUse(t *testing.T, factory *database.Factory) int {
	t.Helper()
	sqlDB, err := handle(t, factory).DB()
	require.NoError(t, err)
	return sqlDB.Stats().InUse
}
