package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Chart    ChartConfig
	Session  SessionConfig
	CORS     CORSConfig
	Frontend FrontendConfig
	Logging  LoggingConfig
}
type ServerConfig struct {
	Port         string
	Host         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// APIConfig describes the upstream exchange-rate provider.
// Timeout of zero means the client waits for as long as the caller's context allows.
type APIConfig struct {
	ExchangeAPIKey string
	ExchangeAPIURL string
	Timeout        time.Duration
}
type ChartConfig struct {
	HistoryURL string
	Days       int
}
type SessionConfig struct {
	TTL         time.Duration
	MaxSessions int
}
type CORSConfig struct {
	AllowOrigins []string
}
type FrontendConfig struct {
	Dir string
}
type LoggingConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "json" or "text"
}

func (s *ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// Load reads .env (when present) and then the process environment.
// The exchange API key has no default: a missing key only shows up as a
// failed conversion at request time.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Host:         getEnv("HOST", "0.0.0.0"),
			Mode:         getEnv("GIN_MODE", "debug"),
			ReadTimeout:  getEnvAsDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getEnvAsDuration("WRITE_TIMEOUT", 0),
		},
		API: APIConfig{
			ExchangeAPIKey: getEnv("EXCHANGE_API_KEY", ""),
			ExchangeAPIURL: strings.TrimRight(getEnv("EXCHANGE_API_URL", "https://v6.exchangerate-api.com"), "/"),
			Timeout:        getEnvAsDuration("API_TIMEOUT", 0),
		},
		Chart: ChartConfig{
			HistoryURL: strings.TrimRight(getEnv("CHART_API_URL", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api"), "/"),
			Days:       getEnvAsInt("CHART_DAYS", 30),
		},
		Session: SessionConfig{
			TTL:         getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			MaxSessions: getEnvAsInt("SESSION_MAX", 10000),
		},
		CORS: CORSConfig{
			AllowOrigins: getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		Frontend: FrontendConfig{
			Dir: getEnv("FRONTEND_DIR", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}
}
