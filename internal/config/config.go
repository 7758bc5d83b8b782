package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/mantradev/mantra/internal/logger"
)

type Config struct {
	DatabaseURL string
	HTTPPort    string
	LogLevel    string

	LinesPerSession int

	TextgenProvider string
	TextgenModel    string
	TextgenTimeout  int
	GeminiAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	OpenAIBaseURL   string

	TTSProvider     string
	TTSTimeout      int
	PiperAddr       string
	PiperVoiceModel string

	ArtifactBackend string
	AudioDir        string
	MinioEndpoint   string
	MinioAccessKey  string
	MinioSecretKey  string
	MinioBucket     string
	MinioUseSSL     bool

	CacheMaxBytes      int64
	CacheSweepSchedule string

	TelemetryMirrorSize int
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		logger.Info("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		DatabaseURL: getEnv("DATABASE_URL", "mantra.db"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		LogLevel:    getEnv("LOG_LEVEL", "INFO"),

		LinesPerSession: getEnvAsInt("LINES_PER_SESSION", 6),

		TextgenProvider: getEnv("TEXTGEN_PROVIDER", "gemini"),
		TextgenModel:    getEnv("TEXTGEN_MODEL", ""),
		TextgenTimeout:  getEnvAsInt("TEXTGEN_TIMEOUT_SECONDS", 20),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),

		TTSProvider:     getEnv("TTS_PROVIDER", "piper"),
		TTSTimeout:      getEnvAsInt("TTS_TIMEOUT_SECONDS", 30),
		PiperAddr:       getEnv("PIPER_ADDR", "localhost:10200"),
		PiperVoiceModel: getEnv("PIPER_VOICE_MODEL", "en_US-lessac-medium"),

		ArtifactBackend: getEnv("ARTIFACT_BACKEND", "fs"),
		AudioDir:        getEnv("AUDIO_DIR", "./audio"),
		MinioEndpoint:   getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:  getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:  getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:     getEnv("MINIO_BUCKET", "mantra-audio"),
		MinioUseSSL:     getEnvAsBool("MINIO_USE_SSL", false),

		CacheMaxBytes:      getEnvAsInt64("CACHE_MAX_BYTES", 512<<20),
		CacheSweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "17 3 * * *"),

		TelemetryMirrorSize: getEnvAsInt("TELEMETRY_MIRROR_SIZE", 256),
	}

	logger.Init(AppConfig.LogLevel)
}

// RequireProviders exits unless every configured provider has its
// credentials. The serve command calls this up front so a misconfigured
// server dies at boot instead of on the first session.
func RequireProviders() {
	switch AppConfig.TextgenProvider {
	case "gemini":
		if AppConfig.GeminiAPIKey == "" {
			logger.Fatal("GEMINI_API_KEY environment variable is required for the gemini provider")
		}
	case "claude":
		if AppConfig.AnthropicAPIKey == "" {
			logger.Fatal("ANTHROPIC_API_KEY environment variable is required for the claude provider")
		}
	case "openai":
		if AppConfig.OpenAIAPIKey == "" {
			logger.Fatal("OPENAI_API_KEY environment variable is required for the openai provider")
		}
	default:
		logger.Fatal("Unknown TEXTGEN_PROVIDER", "provider", AppConfig.TextgenProvider)
	}

	if AppConfig.TTSProvider == "openai" && AppConfig.OpenAIAPIKey == "" {
		logger.Fatal("OPENAI_API_KEY environment variable is required for openai speech synthesis")
	}

	if AppConfig.ArtifactBackend == "minio" {
		if AppConfig.MinioEndpoint == "" || AppConfig.MinioAccessKey == "" || AppConfig.MinioSecretKey == "" {
			logger.Fatal("MINIO_ENDPOINT, MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required for the minio backend")
		}
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
