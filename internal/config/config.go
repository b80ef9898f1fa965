// Package config loads service configuration from an optional .env file, an
// optional YAML file and the process environment, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/airalert/airalert/internal/database"
	"github.com/airalert/airalert/internal/pollution"
	"github.com/airalert/airalert/internal/validation"
)

// DefaultFile is read when CONFIG_FILE is unset.
const DefaultFile = "config.yaml"

// DevSigningKey is used when no JWT signing key is configured outside
// production.
const DevSigningKey = "local-dev-signing-key-change-in-production"

// Store backends.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// AppConfig holds process-level settings.
type AppConfig struct {
	Port string `yaml:"port" json:"port" validate:"required,numeric"`
	Env  string `yaml:"env" json:"env" validate:"required"`
}

// AuthConfig holds token and key settings.
type AuthConfig struct {
	JWTSigningKey string `yaml:"jwt_signing_key" json:"jwt_signing_key"`
	JWTIssuer     string `yaml:"jwt_issuer" json:"jwt_issuer"`
	JWTAudience   string `yaml:"jwt_audience" json:"jwt_audience"`
	AnonKey       string `yaml:"anon_key" json:"anon_key"`
	BcryptCost    int    `yaml:"bcrypt_cost" json:"bcrypt_cost" validate:"omitempty,gte=4,lte=31"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// StoreConfig selects the key-value backend.
type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend" validate:"oneof=memory redis postgres"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" json:"otlp_endpoint"`
	SampleRatio  float64 `yaml:"sample_ratio" json:"sample_ratio" validate:"gte=0,lte=1"`
}

// PubSubConfig holds Google Cloud Pub/Sub settings for the worker.
type PubSubConfig struct {
	ProjectID    string `yaml:"project_id" json:"project_id"`
	Subscription string `yaml:"subscription" json:"subscription"`
}

// CORSConfig holds browser origin settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
}

// WorkerConfig holds background refresh settings.
type WorkerConfig struct {
	Port          string        `yaml:"port" json:"port"`
	Interval      time.Duration `yaml:"interval" json:"interval" validate:"gt=0"`
	Concurrency   int           `yaml:"concurrency" json:"concurrency" validate:"gte=1,lte=32"`
	RegionTimeout time.Duration `yaml:"region_timeout" json:"region_timeout" validate:"gt=0"`
	Regions       []string      `yaml:"regions" json:"regions" validate:"min=1"`

	// Embedded runs the refresh loop inside the API process.
	Embedded bool `yaml:"embedded" json:"embedded"`
}

// Config is the complete service configuration.
type Config struct {
	App       AppConfig       `yaml:"app" json:"app"`
	Auth      AuthConfig      `yaml:"auth" json:"auth"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Database  database.Config `yaml:"database" json:"-"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
	PubSub    PubSubConfig    `yaml:"pubsub" json:"pubsub"`
	CORS      CORSConfig      `yaml:"cors" json:"cors"`
	Worker    WorkerConfig    `yaml:"worker" json:"worker"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		App: AppConfig{Port: "8080", Env: "development"},
		Auth: AuthConfig{
			JWTIssuer:   "https://api.airalert.app",
			JWTAudience: "airalert-api",
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
		},
		Database:  database.DefaultConfig(),
		Telemetry: TelemetryConfig{OTLPEndpoint: "localhost:4317"},
		CORS:      CORSConfig{AllowedOrigins: []string{"*"}},
		Worker: WorkerConfig{
			Port:          "8081",
			Interval:      5 * time.Minute,
			Concurrency:   3,
			RegionTimeout: 30 * time.Second,
			Regions:       pollution.Regions(),
			Embedded:      true,
		},
	}
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads .env (if present), the YAML file named by CONFIG_FILE (or
// config.yaml if present), then applies environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		path = DefaultFile
	}

	cfg := Default()
	if err := loadFile(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || explicit {
			return nil, err
		}
	}

	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("APP_PORT", &cfg.App.Port)
	str("APP_ENV", &cfg.App.Env)

	str("JWT_SIGNING_KEY", &cfg.Auth.JWTSigningKey)
	str("JWT_ISSUER", &cfg.Auth.JWTIssuer)
	str("JWT_AUDIENCE", &cfg.Auth.JWTAudience)
	str("ANON_KEY", &cfg.Auth.AnonKey)
	num("BCRYPT_COST", &cfg.Auth.BcryptCost)

	str("STORE_BACKEND", &cfg.Store.Backend)
	str("REDIS_ADDR", &cfg.Store.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Store.Redis.Password)
	num("REDIS_DB", &cfg.Store.Redis.DB)

	str("DB_HOST", &cfg.Database.Host)
	num("DB_PORT", &cfg.Database.Port)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_NAME", &cfg.Database.Database)
	str("DB_SSL_MODE", &cfg.Database.SSLMode)
	num("DB_MAX_OPEN_CONNS", &cfg.Database.MaxOpenConns)
	num("DB_MAX_IDLE_CONNS", &cfg.Database.MaxIdleConns)
	dur("DB_CONN_MAX_LIFETIME", &cfg.Database.ConnMaxLifetime)

	if v, ok := lookup("OTEL_ENABLED"); ok && v != "" {
		cfg.Telemetry.Enabled = v == "true"
	}
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint)
	if v, ok := lookup("OTEL_TRACES_SAMPLER_ARG"); ok && v != "" {
		ratio, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("OTEL_TRACES_SAMPLER_ARG: %w", err))
		} else {
			cfg.Telemetry.SampleRatio = ratio
		}
	}

	str("PUBSUB_PROJECT_ID", &cfg.PubSub.ProjectID)
	str("PUBSUB_SUBSCRIPTION", &cfg.PubSub.Subscription)

	list("CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins)

	str("WORKER_PORT", &cfg.Worker.Port)
	dur("WORKER_INTERVAL", &cfg.Worker.Interval)
	num("WORKER_CONCURRENCY", &cfg.Worker.Concurrency)
	dur("WORKER_REGION_TIMEOUT", &cfg.Worker.RegionTimeout)
	list("WORKER_REGIONS", &cfg.Worker.Regions)
	if v, ok := lookup("WORKER_EMBEDDED"); ok && v != "" {
		cfg.Worker.Embedded = v == "true"
	}

	return errors.Join(errs...)
}

func (c *Config) finish() error {
	if c.Auth.JWTSigningKey == "" {
		if c.IsProduction() {
			return validation.NewError("jwt_signing_key", "required", "is required in production")
		}
		c.Auth.JWTSigningKey = DevSigningKey
	}
	return validation.Struct(c)
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
