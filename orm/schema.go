package orm

import (
	"context"

	"gorm.io/gorm"
)

// EnsureSchema creates the tools table if it does not exist yet. It only
// ever creates or widens; there is no versioned migration.
func EnsureSchema(ctx context.Context, conn Connector) error {
	const op = "ensure schema"
	return conn.WithConn(ctx, op, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&Tool{}); err != nil {
			return &PersistenceError{Op: op, Err: err}
		}
		return nil
	})
}
