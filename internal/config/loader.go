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
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. OUTREACH_HTTP_PORT.
const EnvPrefix = "OUTREACH"

// Configuration keys understood by Load.
const (
	KeyHTTPPort           = "http.port"
	KeySnapshotPath       = "snapshot.path"
	KeySnapshotInterval   = "snapshot.interval"
	KeyRedisAddr          = "redis.addr"
	KeyCacheTTL           = "cache.ttl"
	KeySeedFile           = "seed.file"
	KeyMaxAttempts        = "attempts.max"
	KeyPageSize           = "listing.page_size"
	KeyLogLevel           = "log.level"
	KeyCORSAllowedOrigins = "cors.allowed_origins"
)

// Config captures the resolved settings for the outreach service.
type Config struct {
	HTTPPort           int
	SnapshotPath       string
	SnapshotInterval   time.Duration
	RedisAddr          string
	CacheTTL           time.Duration
	SeedFile           string
	MaxAttempts        int
	PageSize           int
	LogLevel           string
	CORSAllowedOrigins []string
}

// NewViper returns a viper instance with defaults and environment binding applied.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyHTTPPort, 8080)
	v.SetDefault(KeySnapshotPath, "")
	v.SetDefault(KeySnapshotInterval, "0s")
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyCacheTTL, "30s")
	v.SetDefault(KeySeedFile, "")
	v.SetDefault(KeyMaxAttempts, 3)
	v.SetDefault(KeyPageSize, 10)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCORSAllowedOrigins, "*")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are skipped and variables that are already set win.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// ReadConfigFile merges a YAML config file into v. An empty path searches for
// config.yaml in the working directory and tolerates its absence.
func ReadConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves configuration values from v.
//
// Every invalid value is collected and reported in a single error naming the
// environment variables involved.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = NewViper()
	}

	cfg := Config{
		SnapshotPath: strings.TrimSpace(v.GetString(KeySnapshotPath)),
		RedisAddr:    strings.TrimSpace(v.GetString(KeyRedisAddr)),
		SeedFile:     strings.TrimSpace(v.GetString(KeySeedFile)),
		LogLevel:     strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
	}

	invalid := make([]string, 0, 4)

	if port, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyHTTPPort))); err != nil || port <= 0 || port > 65535 {
		invalid = append(invalid, EnvName(KeyHTTPPort))
	} else {
		cfg.HTTPPort = port
	}

	if interval, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeySnapshotInterval))); err != nil || interval < 0 {
		invalid = append(invalid, EnvName(KeySnapshotInterval))
	} else {
		cfg.SnapshotInterval = interval
	}

	if ttl, err := time.ParseDuration(strings.TrimSpace(v.GetString(KeyCacheTTL))); err != nil || ttl <= 0 {
		invalid = append(invalid, EnvName(KeyCacheTTL))
	} else {
		cfg.CacheTTL = ttl
	}

	if maxAttempts, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyMaxAttempts))); err != nil || maxAttempts <= 0 {
		invalid = append(invalid, EnvName(KeyMaxAttempts))
	} else {
		cfg.MaxAttempts = maxAttempts
	}

	if pageSize, err := strconv.Atoi(strings.TrimSpace(v.GetString(KeyPageSize))); err != nil || pageSize <= 0 || pageSize > 100 {
		invalid = append(invalid, EnvName(KeyPageSize))
	} else {
		cfg.PageSize = pageSize
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid = append(invalid, EnvName(KeyLogLevel))
	}

	for _, origin := range strings.Split(v.GetString(KeyCORSAllowedOrigins), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
