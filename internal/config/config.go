package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Assets    AssetsConfig
	Media     MediaConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Google    GoogleConfig
	OpenAI    OpenAIConfig
	Status    StatusConfig
	Janitor   JanitorConfig
	Logging   LoggingConfig
}

type AssetsConfig struct {
	// Root holds the per-avatar sign clip libraries ({root}/male-model, ...).
	Root string
	// StagingDir holds freshly generated preview videos keyed by UUID.
	StagingDir string
	// PermanentDir holds promoted per-user videos.
	PermanentDir string
}

type MediaConfig struct {
	FFmpegBin     string
	FFprobeBin    string
	ConcatTimeout time.Duration
	ProbeTimeout  time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	// TemplateTTL bounds how long template and route-translation lookups
	// are served from cache.
	TemplateTTL time.Duration
}

type GoogleConfig struct {
	CredentialsFile string
	ProjectID       string
	GeminiAPIKey    string
}

type OpenAIConfig struct {
	APIKey         string
	EnableFallback bool
}

type StatusConfig struct {
	ListenAddr string
}

type JanitorConfig struct {
	SweepInterval time.Duration
	MaxAge        time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Assets: AssetsConfig{
			Root:         getEnv("ISL_ASSET_ROOT", "assets/videos/isl"),
			StagingDir:   getEnv("ISL_STAGING_DIR", "data/temp/videos"),
			PermanentDir: getEnv("ISL_PERMANENT_DIR", "data/uploads/isl-videos"),
		},
		Media: MediaConfig{
			FFmpegBin:     getEnv("FFMPEG_BIN", "ffmpeg"),
			FFprobeBin:    getEnv("FFPROBE_BIN", "ffprobe"),
			ConcatTimeout: time.Duration(getEnvInt("CONCAT_TIMEOUT_SECONDS", 300)) * time.Second,
			ProbeTimeout:  time.Duration(getEnvInt("PROBE_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "isl"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "isl_announcements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

			MaxOpenConns:    getEnvInt("POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("POSTGRES_CONN_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Host:        getEnv("REDIS_HOST", "localhost"),
			Port:        getEnvInt("REDIS_PORT", 6379),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getEnvInt("REDIS_DB", 0),
			TemplateTTL: time.Duration(getEnvInt("TEMPLATE_CACHE_TTL_SECONDS", 1800)) * time.Second,
		},
		Google: GoogleConfig{
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
			ProjectID:       getEnv("GOOGLE_PROJECT_ID", ""),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Status: StatusConfig{
			ListenAddr: getEnv("STATUS_LISTEN_ADDR", ":8090"),
		},
		Janitor: JanitorConfig{
			SweepInterval: time.Duration(getEnvInt("JANITOR_SWEEP_MINUTES", 60)) * time.Minute,
			MaxAge:        time.Duration(getEnvInt("JANITOR_MAX_AGE_MINUTES", 120)) * time.Minute,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Assets.Root == "" {
		return fmt.Errorf("ISL_ASSET_ROOT is required")
	}
	if c.Assets.StagingDir == "" {
		return fmt.Errorf("ISL_STAGING_DIR is required")
	}
	if c.Assets.PermanentDir == "" {
		return fmt.Errorf("ISL_PERMANENT_DIR is required")
	}
	if c.Media.FFmpegBin == "" || c.Media.FFprobeBin == "" {
		return fmt.Errorf("FFMPEG_BIN and FFPROBE_BIN are required")
	}
	if c.Media.ConcatTimeout <= 0 {
		return fmt.Errorf("CONCAT_TIMEOUT_SECONDS must be positive")
	}
	return nil
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
