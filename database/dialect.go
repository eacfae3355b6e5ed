package database

import (
	"fmt"

	"github.com/va6996/toolshed/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// dialectorFor maps the configured driver to a gorm dialector constructor.
// A fresh dialector is built for every open.
func dialectorFor(cfg config.DatabaseConfig) (func() gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch cfg.Driver {
	case config.DriverPostgres:
		return func() gorm.Dialector { return postgres.Open(dsn) }, nil
	case config.DriverMySQL:
		return func() gorm.Dialector { return mysql.Open(dsn) }, nil
	case config.DriverSQLite:
		return func() gorm.Dialector { return sqlite.Open(dsn) }, nil
	}
	return nil, fmt.Errorf("no dialect for driver %q", cfg.Driver)
}
