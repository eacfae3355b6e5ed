package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// Config aggregates all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	Host     string `yaml:"host" env:"DB_HOST" env-default:"127.0.0.1"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"toolshed"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	// SSLMode is passed through for postgres; any value other than "disable" turns TLS on for mysql.
	SSLMode string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	// Path is the sqlite database file. ":memory:" is allowed.
	Path        string `yaml:"path" env:"DB_PATH" env-default:"toolshed.db"`
	AutoMigrate bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"false"`
	SlowQueryMS int    `yaml:"slow_query_ms" env:"DB_SLOW_QUERY_MS" env-default:"200"`
}

type LogConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
}

// Load reads configuration from .env, config.yaml and environment variables
// Priority: Env Vars > Config File > Defaults
func Load() (*Config, error) {
	loadDotEnv(".env")

	var cfg Config
	err := cleanenv.ReadConfig("config.yaml", &cfg)
	if err != nil {
		// No config file, fall back to env vars alone
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
	}

	return &cfg, nil
}

// LoadFile reads configuration from an explicit yaml file. Unlike Load a
// missing or malformed file is an error.
func LoadFile(path string) (*Config, error) {
	loadDotEnv(".env")

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return &cfg, nil
}

// loadDotEnv populates the environment from a dotenv file without
// overriding variables that are already set.
func loadDotEnv(path string) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	_ = godotenv.Load(path)
}

// Validate checks that the settings are sufficient for the selected driver.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("sqlite driver requires DB_PATH")
		}
	case DriverPostgres, DriverMySQL:
		if c.Host == "" {
			return fmt.Errorf("%s driver requires DB_HOST", c.Driver)
		}
		if c.Name == "" {
			return fmt.Errorf("%s driver requires DB_NAME", c.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	return nil
}

// DSN renders the driver specific connection string. Credentials are
// escaped, so any byte sequence is a valid user or password.
func (c *DatabaseConfig) DSN() string {
	switch c.Driver {
	case DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(5432))),
			Path:   "/" + c.Name,
		}
		if c.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
		}
		if c.User != "" || c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		}
		return u.String()
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.portOr(3306)))
		mc.DBName = c.Name
		mc.ParseTime = true
		mc.ClientFoundRows = true
		mc.TLSConfig = "false"
		if c.SSLMode != "" && c.SSLMode != "disable" {
			mc.TLSConfig = "true"
		}
		return mc.FormatDSN()
	case DriverSQLite:
		return c.Path
	}
	return ""
}

// Target describes where the connection points, without credentials.
func (c *DatabaseConfig) Target() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.portOr(c.defaultPort()), c.Name)
}

func (c *DatabaseConfig) defaultPort() int {
	if c.Driver == DriverMySQL {
		return 3306
	}
	return 5432
}

func (c *DatabaseConfig) portOr(def int) int {
	if c.Port > 0 {
		return c.Port
	}
	return def
}
