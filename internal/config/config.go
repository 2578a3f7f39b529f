package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Keys     APIKeys
	Admin    AdminConfig
	Ai       AIConfig
	Weather  WeatherConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string // empty: in-memory session registry
	RateLimitPerMin    int
}

type DatabaseConfig struct {
	Connection string // empty: chat log storage disabled
}

type APIKeys struct {
	Chat        string // exact-match key for the public chat endpoint
	OpenWeather string
	OpenRouter  string
}

type AdminConfig struct {
	PasswordHash string // bcrypt hash for the admin login
	JwtSecret    string
}

type AIConfig struct {
	Provider      string // "ollama" or "openrouter"
	Model         string
	OllamaBaseURL string
}

type WeatherConfig struct {
	DefaultLocation string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string // OTLP over HTTP, Jaeger-compatible
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", ""),
			RateLimitPerMin:    getEnvAsInt("RATE_LIMIT_PER_MIN", 20),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Keys: APIKeys{
			Chat:        getEnv("CHAT_API_KEY", ""),
			OpenWeather: getEnv("OPENWEATHER_API_KEY", ""),
			OpenRouter:  getEnv("OPENROUTER_API_KEY", ""),
		},
		Admin: AdminConfig{
			PasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
			JwtSecret:    getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			Provider:      getEnv("LLM_PROVIDER", "ollama"),
			Model:         getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Weather: WeatherConfig{
			DefaultLocation: getEnv("WEATHER_DEFAULT_LOCATION", "San Francisco,CA,US"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
