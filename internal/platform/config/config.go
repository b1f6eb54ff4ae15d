// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Cache          CacheConfig
	Session        SessionConfig
	AI             AIConfig
	YouTube        YouTubeConfig
	Log            LogConfig
	CurriculumPath string // empty uses the embedded catalog
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL
// disables the analytics event log.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	AutoMigrate bool
}

// CacheConfig holds Redis connection settings. An empty URL keeps
// sessions in process memory.
type CacheConfig struct {
	URL string
}

// MaxSessionTTLHours caps LEARN_SESSION_TTL at one year.
const MaxSessionTTLHours = 24 * 365

// SessionConfig holds learner session settings.
type SessionConfig struct {
	TTLHours int
}

// TTL returns the idle lifetime of a session.
func (s SessionConfig) TTL() time.Duration {
	return time.Duration(s.TTLHours) * time.Hour
}

// AIConfig holds configuration for the AI providers.
type AIConfig struct {
	Groq      GroqConfig
	Anthropic AnthropicConfig
}

// GroqConfig holds the primary chat-completion provider settings.
type GroqConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// AnthropicConfig holds the optional fallback provider settings.
type AnthropicConfig struct {
	APIKey string
}

// YouTubeConfig holds video search settings. An empty key disables
// video lookup.
type YouTubeConfig struct {
	APIKey string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:         envStr("LEARN_DATABASE_URL", ""),
			MaxConns:    envInt("LEARN_DATABASE_MAX_CONNS", 10),
			MinConns:    envInt("LEARN_DATABASE_MIN_CONNS", 1),
			AutoMigrate: envBool("LEARN_DATABASE_AUTO_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
		},
		Session: SessionConfig{
			TTLHours: envInt("LEARN_SESSION_TTL", 24),
		},
		AI: AIConfig{
			Groq: GroqConfig{
				APIKey:  envStr("LEARN_AI_GROQ_API_KEY", ""),
				BaseURL: envStr("LEARN_AI_GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
				Model:   envStr("LEARN_AI_MODEL", "llama-3.1-70b-versatile"),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
			},
		},
		YouTube: YouTubeConfig{
			APIKey: envStr("LEARN_YOUTUBE_API_KEY", ""),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
		CurriculumPath: envStr("LEARN_CURRICULUM_PATH", ""),
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.AI.Groq.APIKey == "" {
		return fmt.Errorf("LEARN_AI_GROQ_API_KEY is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("LEARN_SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Session.TTLHours < 1 || c.Session.TTLHours > MaxSessionTTLHours {
		return fmt.Errorf("LEARN_SESSION_TTL must be between 1 and %d hours, got %d",
			MaxSessionTTLHours, c.Session.TTLHours)
	}

	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("LEARN_DATABASE_MIN_CONNS (%d) exceeds LEARN_DATABASE_MAX_CONNS (%d)",
			c.Database.MinConns, c.Database.MaxConns)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}

	return nil
}

// HasVideoSearch reports whether video lookup is configured.
func (c *Config) HasVideoSearch() bool {
	return c.YouTube.APIKey != ""
}

// SlogLevel parses Level into a slog.Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LEARN_LOG_LEVEL: %w", err)
	}
	return level, nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
