package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/newthinker/binsig/internal/core"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Export    ExportConfig    `mapstructure:"export"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Market    MarketConfig    `mapstructure:"market"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host        string  `mapstructure:"host"`
	Port        int     `mapstructure:"port"`
	APIKey      string  `mapstructure:"api_key"`
	JobTTLHours int     `mapstructure:"job_ttl_hours"`
	MaxJobs     int     `mapstructure:"max_jobs"`
	RateLimit   float64 `mapstructure:"rate_limit"` // requests per second per client, 0 disables
}

// GeneratorConfig controls signal generation.
type GeneratorConfig struct {
	Delay time.Duration `mapstructure:"delay"`
	Seed  uint64        `mapstructure:"seed"` // 0 seeds from the clock
}

// ExportConfig controls the text export.
type ExportConfig struct {
	TimeLayout string `mapstructure:"time_layout"`
}

type StorageConfig struct {
	Batch   BatchStorageConfig   `mapstructure:"batch"`
	Archive ArchiveStorageConfig `mapstructure:"archive"`
}

// BatchStorageConfig selects where generated batches live until exported.
type BatchStorageConfig struct {
	Type       string        `mapstructure:"type"` // "memory" or "redis"
	MaxBatches int           `mapstructure:"max_batches"`
	TTL        time.Duration `mapstructure:"ttl"`
	Redis      RedisConfig   `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ArchiveStorageConfig selects where exported files are kept.
type ArchiveStorageConfig struct {
	Type string   `mapstructure:"type"` // "none", "localfs" or "s3"
	Path string   `mapstructure:"path"` // For localfs
	S3   S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MarketConfig points the analyze command at a market-data service.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

type LLMConfig struct {
	Provider string         `mapstructure:"provider"`
	Claude   ProviderConfig `mapstructure:"claude"`
	OpenAI   ProviderConfig `mapstructure:"openai"`
}

type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"` // empty uses the vendor endpoint
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file on top of Defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("BINSIG")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.job_ttl_hours", d.Server.JobTTLHours)
	v.SetDefault("server.max_jobs", d.Server.MaxJobs)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("generator.delay", d.Generator.Delay)
	v.SetDefault("export.time_layout", d.Export.TimeLayout)
	v.SetDefault("storage.batch.type", d.Storage.Batch.Type)
	v.SetDefault("storage.batch.max_batches", d.Storage.Batch.MaxBatches)
	v.SetDefault("storage.batch.ttl", d.Storage.Batch.TTL)
	v.SetDefault("storage.archive.type", d.Storage.Archive.Type)
	v.SetDefault("market.base_url", d.Market.BaseURL)
	v.SetDefault("market.timeout", d.Market.Timeout)
	v.SetDefault("market.requests_per_sec", d.Market.RequestsPerSec)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Generator: GeneratorConfig{
			Delay: 2 * time.Second,
		},
		Export: ExportConfig{
			TimeLayout: "15:04:05",
		},
		Storage: StorageConfig{
			Batch: BatchStorageConfig{
				Type:       "memory",
				MaxBatches: 1000,
				TTL:        time.Hour,
			},
			Archive: ArchiveStorageConfig{
				Type: "none",
			},
		},
		Market: MarketConfig{
			BaseURL:        "http://localhost:8080/api/pocketoption",
			Timeout:        10 * time.Second,
			RequestsPerSec: 5,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("rate_limit cannot be negative, got %f", c.Server.RateLimit))
	}

	if c.Generator.Delay < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("generator delay cannot be negative, got %s", c.Generator.Delay))
	}

	// Storage validation
	switch c.Storage.Batch.Type {
	case "", "memory":
	case "redis":
		if c.Storage.Batch.Redis.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("redis addr required when batch storage is redis"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown batch storage type: %s", c.Storage.Batch.Type))
	}

	switch c.Storage.Archive.Type {
	case "", "none":
	case "localfs":
		if c.Storage.Archive.Path == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("archive path required when archive type is localfs"))
		}
	case "s3":
		if c.Storage.Archive.S3.Bucket == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("s3 bucket required when archive type is s3"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown archive type: %s", c.Storage.Archive.Type))
	}

	// LLM validation - if provider set, check config exists
	switch c.LLM.Provider {
	case "":
	case "claude":
		if c.LLM.Claude.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("claude api_key required when provider is claude"))
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("openai api_key required when provider is openai"))
		}
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("unknown llm provider: %s", c.LLM.Provider))
	}

	return nil
}
