package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Storage       StorageConfig
	AWS           AWSConfig
	Transcription TranscriptionConfig
	Generation    GenerationConfig
	Synthesis     SynthesisConfig
	Pipeline      PipelineConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	MaxUploadMB        int
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings. Redis only carries status events.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds bearer token settings. An empty secret disables auth on write endpoints.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// StorageConfig selects the artifact backend.
type StorageConfig struct {
	Backend string // "local" or "s3"
	Dir     string // root for the local backend
}

// AWSConfig holds AWS credentials and the artifacts bucket.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	ArtifactsBucket      string
	PresignExpireMinutes int
}

// TranscriptionConfig configures the speech-to-text provider. Empty APIKey selects the stub.
type TranscriptionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// ProviderConfig is one OpenAI-compatible chat completion provider.
type ProviderConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Model   string
}

// GenerationConfig lists LLM providers in priority order. The first with a key wins.
type GenerationConfig struct {
	Providers      []ProviderConfig
	TimeoutSeconds int
}

// SynthesisConfig configures the text-to-speech provider.
type SynthesisConfig struct {
	APIKey        string
	BaseURL       string
	VoiceID       string
	SecondVoiceID string
	Model         string
}

// PipelineConfig tunes the processing pipeline.
type PipelineConfig struct {
	// ProvisionalVoiced writes "voiced" after generation when synthesis is about to run.
	ProvisionalVoiced bool
}

// DSN returns the PostgreSQL connection string.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	openAIKey := getEnv("OPENAI_API_KEY", "")
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 120),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"),
			MaxUploadMB:        getEnvInt("MAX_UPLOAD_MB", 500),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "lectures"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24*30),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			Dir:     getEnv("STORAGE_DIR", "./data"),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			ArtifactsBucket:      getEnv("AWS_S3_ARTIFACTS_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Transcription: TranscriptionConfig{
			APIKey:  openAIKey,
			BaseURL: getEnv("TRANSCRIPTION_BASE_URL", "https://api.openai.com/v1"),
			Model:   getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		},
		Generation: GenerationConfig{
			Providers: []ProviderConfig{
				{
					Name:    "openai",
					APIKey:  openAIKey,
					BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
					Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
				},
				{
					Name:    "openrouter",
					APIKey:  getEnv("OPENROUTER_API_KEY", ""),
					BaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1/chat/completions"),
					Model:   getEnv("OPENROUTER_MODEL", "openai/gpt-4o-mini"),
				},
			},
			TimeoutSeconds: getEnvInt("GENERATION_TIMEOUT_SEC", 120),
		},
		Synthesis: SynthesisConfig{
			APIKey:        getEnv("ELEVENLABS_API_KEY", ""),
			BaseURL:       getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
			VoiceID:       getEnv("ELEVENLABS_VOICE_ID", ""),
			SecondVoiceID: getEnv("ELEVENLABS_SECOND_VOICE_ID", ""),
			Model:         getEnv("ELEVENLABS_MODEL", "eleven_multilingual_v2"),
		},
		Pipeline: PipelineConfig{
			ProvisionalVoiced: getEnvBool("PIPELINE_PROVISIONAL_VOICED", false),
		},
	}
	if cfg.Storage.Backend != "local" && cfg.Storage.Backend != "s3" {
		return nil, fmt.Errorf("STORAGE_BACKEND must be local or s3, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "s3" && cfg.AWS.ArtifactsBucket == "" {
		return nil, fmt.Errorf("AWS_S3_ARTIFACTS_BUCKET required for s3 storage")
	}
	return cfg, nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
