// Package config resolves the service configuration: defaults, then an
// optional YAML file, then environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/mcules/student-success/internal/features"
)

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Model    Model    `yaml:"model"`
	Dataset  Dataset  `yaml:"dataset"`
	History  History  `yaml:"history"`
	Cache    Cache    `yaml:"cache"`
	Auth     Auth     `yaml:"auth"`
	Log      Log      `yaml:"log"`
	Demo     Demo     `yaml:"demo"`
	Activity Activity `yaml:"activity"`
}

type HTTP struct {
	Addr            string        `yaml:"addr"`
	CORSOrigin      string        `yaml:"cors_origin"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// GRPC serves the health service. An empty Addr disables it.
type GRPC struct {
	Addr string `yaml:"addr"`
}

type Model struct {
	Path      string `yaml:"path"`
	Alignment string `yaml:"alignment"`
	Watch     bool   `yaml:"watch"`
}

type Dataset struct {
	Path       string `yaml:"path"`
	SampleRows int    `yaml:"sample_rows"`
}

// History stores predictions. An empty DSN disables persistence.
type History struct {
	DSN      string `yaml:"dsn"`
	PageSize int    `yaml:"page_size"`
}

type Cache struct {
	RedisURL   string        `yaml:"redis_url"`
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type Auth struct {
	APIKeyHashes      []string `yaml:"api_key_hashes"`
	AdminUser         string   `yaml:"admin_user"`
	AdminPasswordHash string   `yaml:"admin_password_hash"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Demo generates a synthetic dataset and model into Dir and serves those
// instead of Model.Path and Dataset.Path.
type Demo struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Rows    int    `yaml:"rows"`
	Seed    uint64 `yaml:"seed"`
}

type Activity struct {
	Size int `yaml:"size"`
}

func Default() Config {
	return Config{
		HTTP: HTTP{
			Addr:            ":8501",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		GRPC:     GRPC{Addr: ":9090"},
		Model:    Model{Path: "modelku.json", Alignment: string(features.ModeStrict)},
		Dataset:  Dataset{Path: "data_agum.csv", SampleRows: 5},
		History:  History{DSN: "predictions.db", PageSize: 50},
		Cache:    Cache{TTL: 10 * time.Minute, MaxEntries: 1024},
		Auth:     Auth{AdminUser: "admin"},
		Log:      Log{Level: "info", Format: "json"},
		Demo:     Demo{Dir: "demo", Rows: 600, Seed: 42},
		Activity: Activity{Size: 300},
	}
}

// Load resolves configuration in priority order: defaults, file, env. An
// empty path skips the file; a named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	var errs []error
	c.HTTP.Addr = envOrDefault("HTTP_ADDR", c.HTTP.Addr)
	c.HTTP.CORSOrigin = envOrDefault("CORS_ORIGIN", c.HTTP.CORSOrigin)
	c.GRPC.Addr = envOrDefault("GRPC_ADDR", c.GRPC.Addr)
	c.Model.Path = envOrDefault("MODEL_PATH", c.Model.Path)
	c.Model.Alignment = envOrDefault("MODEL_ALIGNMENT", c.Model.Alignment)
	c.Dataset.Path = envOrDefault("DATASET_PATH", c.Dataset.Path)
	c.History.DSN = envOrDefault("HISTORY_DSN", c.History.DSN)
	c.Cache.RedisURL = envOrDefault("REDIS_URL", c.Cache.RedisURL)
	c.Auth.APIKeyHashes = envCSV("API_KEY_HASHES", c.Auth.APIKeyHashes)
	c.Auth.AdminUser = envOrDefault("ADMIN_USER", c.Auth.AdminUser)
	c.Auth.AdminPasswordHash = envOrDefault("ADMIN_PASSWORD_HASH", c.Auth.AdminPasswordHash)
	c.Log.Level = envOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("LOG_FORMAT", c.Log.Format)
	c.Demo.Dir = envOrDefault("DEMO_DIR", c.Demo.Dir)

	var err error
	if c.Model.Watch, err = envBool("MODEL_WATCH", c.Model.Watch); err != nil {
		errs = append(errs, err)
	}
	if c.Demo.Enabled, err = envBool("DEMO_MODE", c.Demo.Enabled); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.TTL, err = envDuration("CACHE_TTL", c.Cache.TTL); err != nil {
		errs = append(errs, err)
	}
	if c.Cache.MaxEntries, err = envInt("CACHE_MAX_ENTRIES", c.Cache.MaxEntries); err != nil {
		errs = append(errs, err)
	}
	if c.Activity.Size, err = envInt("ACTIVITY_SIZE", c.Activity.Size); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if _, err := features.ParseMode(c.Model.Alignment); err != nil {
		errs = append(errs, fmt.Errorf("model.alignment: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want json or console)", c.Log.Format))
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr: must not be empty"))
	}
	if !c.Demo.Enabled && c.Model.Path == "" {
		errs = append(errs, errors.New("model.path: must not be empty"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache.ttl: must not be negative"))
	}
	return errors.Join(errs...)
}

// AlignmentMode returns the parsed model.alignment setting.
func (c Config) AlignmentMode() features.Mode {
	m, _ := features.ParseMode(c.Model.Alignment)
	return m
}

func envOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := envOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := envOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := envOrDefault(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func envCSV(key string, def []string) []string {
	v := envOrDefault(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
