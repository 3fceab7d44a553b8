package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server  ServerConfig
	Reader  ReaderConfig
	OpenAI  OpenAIConfig
	Storage StorageConfig
	Ingest  IngestConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ReaderConfig holds the page-to-text reader service configuration
type ReaderConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig holds the completion API configuration
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// StorageConfig holds object storage (MinIO/S3) configuration. An empty
// Endpoint selects the in-memory store, for local development.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// IngestConfig holds tunables for the ingestion pipeline
type IngestConfig struct {
	// ExchangeRate is the number of yen per US dollar used for pricing.
	ExchangeRate float64 `mapstructure:"exchange_rate"`
	// YuanRate converts yuan-quoted source prices to US dollars.
	YuanRate          float64       `mapstructure:"yuan_rate"`
	FetchTimeout      time.Duration `mapstructure:"fetch_timeout"`
	MinContentLength  int           `mapstructure:"min_content_length"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/sorashop/")

	v.SetEnvPrefix("SORASHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindSecretKeys(v)

	// Config file is optional; env vars and defaults cover everything.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Reader defaults
	v.SetDefault("reader.base_url", "https://r.jina.ai")

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.timeout", "30s")

	// Storage defaults
	v.SetDefault("storage.bucket", "product-images")
	v.SetDefault("storage.region", "ap-northeast-1")

	// Ingest defaults
	v.SetDefault("ingest.exchange_rate", 150.0)
	v.SetDefault("ingest.yuan_rate", 0.14)
	v.SetDefault("ingest.fetch_timeout", "8s")
	v.SetDefault("ingest.min_content_length", 300)
	v.SetDefault("ingest.requests_per_minute", 20)
}

// bindSecretKeys registers keys that have no default. Unmarshal only sees
// keys present in AllKeys(), and AutomaticEnv does not register env-only
// keys, so credentials must be bound explicitly to be readable from the
// environment.
func bindSecretKeys(v *viper.Viper) {
	for _, key := range []string{
		"openai.api_key",
		"storage.endpoint",
		"storage.access_key",
		"storage.secret_key",
		"storage.use_ssl",
	} {
		_ = v.BindEnv(key)
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.OpenAI.APIKey == "" {
		return fmt.Errorf("OpenAI API key is required (set SORASHOP_OPENAI_API_KEY)")
	}

	if config.Storage.Endpoint != "" {
		if config.Storage.AccessKey == "" || config.Storage.SecretKey == "" {
			return fmt.Errorf("storage credentials are required when an endpoint is configured")
		}
		if config.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required when an endpoint is configured")
		}
	}

	if config.Ingest.ExchangeRate <= 0 {
		return fmt.Errorf("exchange rate must be positive, got: %f", config.Ingest.ExchangeRate)
	}
	if config.Ingest.YuanRate <= 0 {
		return fmt.Errorf("yuan rate must be positive, got: %f", config.Ingest.YuanRate)
	}
	if config.Ingest.MinContentLength <= 0 {
		return fmt.Errorf("min content length must be positive, got: %d", config.Ingest.MinContentLength)
	}

	return nil
}
