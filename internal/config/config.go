// Package config loads server and CLI configuration.
//
// Values come from defaults, then an optional YAML file named by CONFIG_FILE,
// then environment variables. Later sources win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Record store backends.
const (
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Mirror store backends.
const (
	MirrorMongo    = "mongo"
	MirrorDynamoDB = "dynamodb"
	MirrorMemory   = "memory"
	MirrorNone     = "none"
)

const devJWTSecret = "dev-secret-change-me"

// Config is the complete application configuration.
type Config struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	Port     string `yaml:"port"`

	RecordStore string `yaml:"record_store"`
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`

	Mirror MirrorConfig `yaml:"mirror"`
	Auth   AuthConfig   `yaml:"auth"`
}

// MirrorConfig selects and configures the Mirror Store.
type MirrorConfig struct {
	Backend         string `yaml:"backend"`
	MongoURI        string `yaml:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
	DynamoTable     string `yaml:"dynamo_table"`
	AWSRegion       string `yaml:"aws_region"`
	DynamoEndpoint  string `yaml:"dynamo_endpoint"`
}

// AuthConfig configures tokens and login lockout.
type AuthConfig struct {
	JWTSecret        string        `yaml:"jwt_secret"`
	AccessTokenTTL   time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `yaml:"refresh_token_ttl"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockDuration     time.Duration `yaml:"lock_duration"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Env:         "development",
		LogLevel:    "info",
		Port:        "8080",
		RecordStore: StoreSQLite,
		SQLitePath:  "studentrecords.db",
		Mirror: MirrorConfig{
			Backend:         MirrorNone,
			MongoDatabase:   "studentrecords",
			MongoCollection: "student_records",
			DynamoTable:     "student_records",
		},
		Auth: AuthConfig{
			JWTSecret:        devJWTSecret,
			AccessTokenTTL:   15 * time.Minute,
			RefreshTokenTTL:  7 * 24 * time.Hour,
			MaxLoginAttempts: 5,
			LockDuration:     15 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, CONFIG_FILE and the environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Env = getEnv("APP_ENV", c.Env)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.Port = getEnv("APP_PORT", c.Port)

	c.RecordStore = getEnv("RECORD_STORE", c.RecordStore)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.Mirror.Backend = getEnv("MIRROR_BACKEND", c.Mirror.Backend)
	c.Mirror.MongoURI = getEnv("MONGO_URI", c.Mirror.MongoURI)
	c.Mirror.MongoDatabase = getEnv("MONGO_DB", c.Mirror.MongoDatabase)
	c.Mirror.MongoCollection = getEnv("MONGO_COLLECTION", c.Mirror.MongoCollection)
	c.Mirror.DynamoTable = getEnv("DYNAMO_TABLE", c.Mirror.DynamoTable)
	c.Mirror.AWSRegion = getEnv("AWS_REGION", c.Mirror.AWSRegion)
	c.Mirror.DynamoEndpoint = getEnv("DYNAMO_ENDPOINT", c.Mirror.DynamoEndpoint)

	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.AccessTokenTTL = getEnvDuration("ACCESS_TOKEN_TTL", c.Auth.AccessTokenTTL)
	c.Auth.RefreshTokenTTL = getEnvDuration("REFRESH_TOKEN_TTL", c.Auth.RefreshTokenTTL)
	c.Auth.MaxLoginAttempts = getEnvInt("MAX_LOGIN_ATTEMPTS", c.Auth.MaxLoginAttempts)
	c.Auth.LockDuration = getEnvDuration("LOCK_DURATION", c.Auth.LockDuration)
}

// IsDevelopment reports whether the development logger and defaults apply.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Validate checks that the selected backends have what they need.
func (c Config) Validate() error {
	var errs []error

	switch c.RecordStore {
	case StorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres record store"))
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite record store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown record store %q", c.RecordStore))
	}

	switch c.Mirror.Backend {
	case MirrorMongo:
		if c.Mirror.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo mirror"))
		}
	case MirrorDynamoDB:
		if c.Mirror.DynamoTable == "" {
			errs = append(errs, errors.New("DYNAMO_TABLE is required for the dynamodb mirror"))
		}
	case MirrorMemory, MirrorNone:
	default:
		errs = append(errs, fmt.Errorf("unknown mirror backend %q", c.Mirror.Backend))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if !c.IsDevelopment() && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set outside development"))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("MAX_LOGIN_ATTEMPTS must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
