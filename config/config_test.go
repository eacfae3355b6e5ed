package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dbEnvVars = []string{
	"DB_DRIVER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"DB_SSLMODE", "DB_PATH", "DB_AUTO_MIGRATE", "DB_SLOW_QUERY_MS", "LOG_LEVEL",
}

// clearEnv unsets the config variables for the duration of the test
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range dbEnvVars {
		orig, ok := os.LookupEnv(key)
		os.Unsetenv(key)
		if ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
	}
}

func TestLoad(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, DriverSQLite, cfg.Database.Driver)
		assert.Equal(t, "toolshed.db", cfg.Database.Path)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 200, cfg.Database.SlowQueryMS)
		assert.False(t, cfg.Database.AutoMigrate)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("EnvironmentVariables", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_HOST", "db.internal")
		t.Setenv("DB_PORT", "6543")
		t.Setenv("DB_PASSWORD", "s3cret")
		t.Setenv("DB_AUTO_MIGRATE", "true")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		assert.NoError(t, err)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 6543, cfg.Database.Port)
		assert.Equal(t, "s3cret", cfg.Database.Password)
		assert.True(t, cfg.Database.AutoMigrate)
		assert.Equal(t, "debug", cfg.Log.Level)
	})
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "toolshed.yaml")
	yaml := []byte(`database:
  driver: mysql
  host: inventory.local
  name: securitydb
  user: operator
log:
  level: warn
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "inventory.local", cfg.Database.Host)
	assert.Equal(t, "securitydb", cfg.Database.Name)
	assert.Equal(t, "operator", cfg.Database.User)
	assert.Equal(t, "warn", cfg.Log.Level)

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("DB_HOST", "override.local")
		cfg, err := LoadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "override.local", cfg.Database.Host)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	t.Run("Postgres", func(t *testing.T) {
		tests := []struct {
			name string
			cfg  DatabaseConfig
		}{
			{"plain", DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Name: "toolshed", User: "root", Password: "pw", SSLMode: "disable"}},
			{"password with space", DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Name: "toolshed", User: "root", Password: "s3cret pass", SSLMode: "disable"}},
			{"password with quotes", DatabaseConfig{Driver: DriverPostgres, Host: "db", Port: 6000, Name: "inv", User: "o'neil", Password: `a'b\c@d/e?f`, SSLMode: "require"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				parsed, err := pgconn.ParseConfig(tt.cfg.DSN())
				require.NoError(t, err)
				assert.Equal(t, tt.cfg.Host, parsed.Host)
				assert.Equal(t, uint16(tt.cfg.portOr(5432)), parsed.Port)
				assert.Equal(t, tt.cfg.Name, parsed.Database)
				assert.Equal(t, tt.cfg.User, parsed.User)
				assert.Equal(t, tt.cfg.Password, parsed.Password)
			})
		}
	})

	t.Run("PostgresWithoutCredentials", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverPostgres, Host: "localhost", Port: 6000, Name: "toolshed", SSLMode: "require"}
		assert.Equal(t, "postgres://localhost:6000/toolshed?sslmode=require", cfg.DSN())
	})

	t.Run("MySQL", func(t *testing.T) {
		tests := []struct {
			name    string
			cfg     DatabaseConfig
			wantTLS string
		}{
			{"tls disabled", DatabaseConfig{Driver: DriverMySQL, Host: "127.0.0.1", Name: "securitydb2025", User: "root", Password: "123456", SSLMode: "disable"}, "false"},
			{"tls enabled", DatabaseConfig{Driver: DriverMySQL, Host: "db", Port: 3307, Name: "inv", User: "u", SSLMode: "require"}, "true"},
			{"password with separators", DatabaseConfig{Driver: DriverMySQL, Host: "db", Name: "inv", User: "app", Password: "p/a?s@s:w&rd", SSLMode: "disable"}, "false"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				parsed, err := mysql.ParseDSN(tt.cfg.DSN())
				require.NoError(t, err)
				assert.Equal(t, tt.cfg.User, parsed.User)
				assert.Equal(t, tt.cfg.Password, parsed.Passwd)
				assert.Equal(t, "tcp", parsed.Net)
				assert.Equal(t, fmt.Sprintf("%s:%d", tt.cfg.Host, tt.cfg.portOr(3306)), parsed.Addr)
				assert.Equal(t, tt.cfg.Name, parsed.DBName)
				assert.True(t, parsed.ParseTime)
				assert.True(t, parsed.ClientFoundRows)
				assert.Equal(t, tt.wantTLS, parsed.TLSConfig)
			})
		}
	})

	t.Run("SQLite", func(t *testing.T) {
		cfg := DatabaseConfig{Driver: DriverSQLite, Path: ":memory:"}
		assert.Equal(t, ":memory:", cfg.DSN())
	})
}

func TestDatabaseConfigValidate(t *testing.T) {
	assert.NoError(t, (&DatabaseConfig{Driver: DriverSQLite, Path: "x.db"}).Validate())
	assert.NoError(t, (&DatabaseConfig{Driver: DriverPostgres, Host: "h", Name: "n"}).Validate())

	assert.Error(t, (&DatabaseConfig{Driver: DriverSQLite}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: DriverMySQL, Name: "n"}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: DriverPostgres, Host: "h"}).Validate())
	assert.ErrorContains(t, (&DatabaseConfig{Driver: "oracle"}).Validate(), "unsupported")
}

func TestDatabaseConfigTarget(t *testing.T) {
	pg := DatabaseConfig{Driver: DriverPostgres, Host: "h", Name: "n", Password: "secret"}
	assert.Equal(t, "h:5432/n", pg.Target())
	assert.NotContains(t, pg.Target(), "secret")

	my := DatabaseConfig{Driver: DriverMySQL, Host: "h", Name: "n"}
	assert.Equal(t, "h:3306/n", my.Target())
}
