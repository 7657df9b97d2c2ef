// Package config loads gateway settings from configs/config.yml, an optional
// .env file and DISMOMENT_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "DISMOMENT"

type Config struct {
	Port      string          `mapstructure:"port"`
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Search    SearchConfig    `mapstructure:"search"`
	Sweeper   SweeperConfig   `mapstructure:"sweeper"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes    int64         `mapstructure:"max_upload_bytes"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
}

type DBConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busy_timeout"`
}

type BackendConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	ProjectID         string        `mapstructure:"project_id"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	DatabaseID        string        `mapstructure:"database_id"`
	UsersCollectionID string        `mapstructure:"users_collection_id"`
	PostsCollectionID string        `mapstructure:"posts_collection_id"`
	MediaBucketID     string        `mapstructure:"media_bucket_id"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

type CacheConfig struct {
	Size          int           `mapstructure:"size"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	FormCacheSize int           `mapstructure:"form_cache_size"`
}

type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

type SweeperConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Batch    int           `mapstructure:"batch"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)
	v.SetDefault("server.trusted_proxies", []string{})
	v.SetDefault("db.path", "dismoment.db")
	v.SetDefault("db.busy_timeout", 5*time.Second)
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.session_ttl", 7*24*time.Hour)
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.stale_after", 30*time.Second)
	v.SetDefault("cache.form_cache_size", 4096)
	v.SetDefault("search.debounce", time.Second)
	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", time.Minute)
	v.SetDefault("sweeper.batch", 50)
	v.SetDefault("ratelimit.rps", 5)
	v.SetDefault("ratelimit.burst", 10)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Env-only keys must be known to viper for Unmarshal to see them.
	for _, k := range []string{
		"backend.endpoint", "backend.project_id", "backend.api_key", "backend.database_id",
		"backend.users_collection_id", "backend.posts_collection_id", "backend.media_bucket_id",
		"auth.signing_key",
	} {
		v.SetDefault(k, "")
	}
}

// Load reads configuration from dir (configs/config.yml when dir is
// "configs"). A missing config file is fine; a malformed one is not.
// envFile, when non-empty and present, is loaded into the process
// environment first without overriding variables already set.
func Load(dir, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the gateway cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Backend.Endpoint == "" {
		errs = append(errs, errors.New("backend.endpoint is required"))
	}
	if c.Backend.ProjectID == "" {
		errs = append(errs, errors.New("backend.project_id is required"))
	}
	if c.Backend.DatabaseID == "" || c.Backend.UsersCollectionID == "" || c.Backend.PostsCollectionID == "" {
		errs = append(errs, errors.New("backend database and collection ids are required"))
	}
	if c.Backend.MediaBucketID == "" {
		errs = append(errs, errors.New("backend.media_bucket_id is required"))
	}
	if len(c.Auth.SigningKey) < 16 {
		errs = append(errs, errors.New("auth.signing_key must be at least 16 characters"))
	}
	if c.Sweeper.Enabled && c.Sweeper.Interval <= 0 {
		errs = append(errs, errors.New("sweeper.interval must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
