package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the docchat service.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Retrieval RetrievalConfig `mapstructure:"retrieval"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	StaticDir      string `mapstructure:"static_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

// SessionConfig controls session lifetime and reaping.
type SessionConfig struct {
	TTL          time.Duration `mapstructure:"ttl"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

// RetrievalConfig controls chunking and similarity search.
type RetrievalConfig struct {
	TopK         int `mapstructure:"top_k"`
	ChunkSize    int `mapstructure:"chunk_size"`
	ChunkOverlap int `mapstructure:"chunk_overlap"`
}

// ProvidersConfig contains external model provider configurations
type ProvidersConfig struct {
	OpenAI OpenAIConfig `mapstructure:"openai"`
}

// OpenAIConfig represents the OpenAI provider configuration
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	CompletionModel string        `mapstructure:"completion_model"`
	EmbeddingModel  string        `mapstructure:"embedding_model"`
	Temperature     float64       `mapstructure:"temperature"`
	MaxTokens       int           `mapstructure:"max_tokens"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

func (s SessionConfig) Validate() error {
	if s.TTL <= 0 {
		return errors.New("session.ttl must be > 0")
	}
	if s.ReapInterval <= 0 {
		return errors.New("session.reap_interval must be > 0")
	}
	return nil
}

func (r RetrievalConfig) Validate() error {
	if r.TopK <= 0 {
		return errors.New("retrieval.top_k must be > 0")
	}
	if r.ChunkSize <= 0 {
		return errors.New("retrieval.chunk_size must be > 0")
	}
	if r.ChunkOverlap < 0 || r.ChunkOverlap >= r.ChunkSize {
		return errors.New("retrieval.chunk_overlap must be in [0, chunk_size)")
	}
	return nil
}

// LoadConfig reads configuration from file and environment. A missing config
// file is not an error; defaults plus DOCCHAT_* environment variables apply.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.debug", false)
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("server.static_dir", "static")
	viper.SetDefault("server.max_upload_bytes", 25<<20)
	viper.SetDefault("session.ttl", "300s")
	viper.SetDefault("session.reap_interval", "60s")
	viper.SetDefault("retrieval.top_k", 5)
	viper.SetDefault("retrieval.chunk_size", 1000)
	viper.SetDefault("retrieval.chunk_overlap", 200)
	viper.SetDefault("providers.openai.completion_model", "gpt-4o-mini")
	viper.SetDefault("providers.openai.embedding_model", "text-embedding-3-small")
	viper.SetDefault("providers.openai.temperature", 0.2)
	viper.SetDefault("providers.openai.max_tokens", 1024)
	viper.SetDefault("providers.openai.timeout", "30s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("DOCCHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.Session.Validate(); err != nil {
		return nil, err
	}
	if err := config.Retrieval.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
