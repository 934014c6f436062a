package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

var validate = validator.New()

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Validate checks the configuration against its struct tags
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("invalid config field %s: failed %q check (value: %v)", first.Namespace(), first.Tag(), first.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() error {
	// Start with defaults
	cfg := defaultConfig
	_loaded = &cfg

	configFile := os.Getenv("EION_USERS_CONFIG_FILE")
	if configFile == "" {
		configFile = "eion-users.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	}

	// Apply environment variable overrides (highest priority)
	ApplyEnvOverrides()

	return _loaded.Validate()
}

func LoadDefault() {
	cfg := defaultConfig
	_loaded = &cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Store: storeConfig{
			Backend: "memory",
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "eion_users",
			MaxOpenConnections: 10,
		},
		SQLite: sqliteConfig{
			Path: "eion-users.db",
		},
		Redis: redisConfig{
			Host:      "localhost",
			Port:      6379,
			Password:  "",
			Database:  0,
			KeyPrefix: "eion:users",
		},
	},
}

type Common struct {
	Log      logConfig      `yaml:"log"`
	Store    storeConfig    `yaml:"store"`
	Postgres postgresConfig `yaml:"postgres"`
	SQLite   sqliteConfig   `yaml:"sqlite"`
	Redis    redisConfig    `yaml:"redis"`
}

type logConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

type storeConfig struct {
	// one of memory, postgres, sqlite, redis
	Backend string `yaml:"backend" validate:"oneof=memory postgres sqlite redis"`
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host" validate:"required"`
	Port               int    `yaml:"port" validate:"gt=0"`
	Database           string `yaml:"database" validate:"required"`
	MaxOpenConnections int    `yaml:"max_open_connections" validate:"gte=0"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type sqliteConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type redisConfig struct {
	Host      string `yaml:"host" validate:"required"`
	Port      int    `yaml:"port" validate:"gt=0"`
	Password  string `yaml:"password"`
	Database  int    `yaml:"database" validate:"gte=0"`
	KeyPrefix string `yaml:"key_prefix"`
}

func (c redisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Store() storeConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Store
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func SQLite() sqliteConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.SQLite
}

func Redis() redisConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Redis
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	if logLevel := os.Getenv("EION_USERS_LOG_LEVEL"); logLevel != "" {
		_loaded.Common.Log.Level = logLevel
	}
	if logFormat := os.Getenv("EION_USERS_LOG_FORMAT"); logFormat != "" {
		_loaded.Common.Log.Format = logFormat
	}

	if backend := os.Getenv("EION_USERS_STORE_BACKEND"); backend != "" {
		_loaded.Common.Store.Backend = backend
	}

	if dbHost := os.Getenv("EION_USERS_DB_HOST"); dbHost != "" {
		_loaded.Common.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("EION_USERS_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("EION_USERS_DB_USER"); dbUser != "" {
		_loaded.Common.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("EION_USERS_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("EION_USERS_DB_NAME"); dbName != "" {
		_loaded.Common.Postgres.Database = dbName
	}
	if maxConns := os.Getenv("EION_USERS_DB_MAX_OPEN_CONNECTIONS"); maxConns != "" {
		if n, err := strconv.Atoi(maxConns); err == nil {
			_loaded.Common.Postgres.MaxOpenConnections = n
		}
	}

	if sqlitePath := os.Getenv("EION_USERS_SQLITE_PATH"); sqlitePath != "" {
		_loaded.Common.SQLite.Path = sqlitePath
	}

	if redisHost := os.Getenv("EION_USERS_REDIS_HOST"); redisHost != "" {
		_loaded.Common.Redis.Host = redisHost
	}
	if redisPort := os.Getenv("EION_USERS_REDIS_PORT"); redisPort != "" {
		if port, err := strconv.Atoi(redisPort); err == nil {
			_loaded.Common.Redis.Port = port
		}
	}
	if redisPassword := os.Getenv("EION_USERS_REDIS_PASSWORD"); redisPassword != "" {
		_loaded.Common.Redis.Password = redisPassword
	}
	if redisDB := os.Getenv("EION_USERS_REDIS_DB"); redisDB != "" {
		if db, err := strconv.Atoi(redisDB); err == nil {
			_loaded.Common.Redis.Database = db
		}
	}
	if keyPrefix := os.Getenv("EION_USERS_REDIS_KEY_PREFIX"); keyPrefix != "" {
		_loaded.Common.Redis.KeyPrefix = keyPrefix
	}
}
