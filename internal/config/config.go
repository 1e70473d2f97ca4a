package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	TVMaze     TVMazeConfig
	TMDB       TMDBConfig
	Redis      RedisConfig
	LocalCache LocalCacheConfig
	Gemini     GeminiConfig
	OpenAI     OpenAIConfig
	Affiliate  AffiliateConfig
	Logging    LoggingConfig
	Env        string
}

type ServerConfig struct {
	Port int
}

type TVMazeConfig struct {
	BaseURL string
}

type TMDBConfig struct {
	APIKey string
}

// RedisConfig describes the remote cache tier. An empty URL disables the tier
// and the store runs on the local fallback alone.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// LocalCacheConfig describes the bbolt fallback tier. An empty Dir disables it.
type LocalCacheConfig struct {
	Dir string
}

type GeminiConfig struct {
	APIKey string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type AffiliateConfig struct {
	Tag string
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("PORT", 8080),
		},
		TVMaze: TVMazeConfig{
			BaseURL: getEnv("TVMAZE_BASE_URL", "https://api.tvmaze.com"),
		},
		TMDB: TMDBConfig{
			APIKey: getEnv("TMDB_API_KEY", ""),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		LocalCache: LocalCacheConfig{
			Dir: getEnv("CACHE_DIR", "data/cache"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Affiliate: AffiliateConfig{
			Tag: getEnv("AFFILIATE_TAG", ""),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Env: getEnv("APP_ENV", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.TVMaze.BaseURL == "" {
		return fmt.Errorf("TVMAZE_BASE_URL is required")
	}
	if !strings.HasPrefix(c.TVMaze.BaseURL, "http") {
		return fmt.Errorf("TVMAZE_BASE_URL must be an http(s) URL")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT must be a valid port number")
	}
	return nil
}

// IsProduction gates startup-only behavior like cache warming.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
