package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	Advisor  AdvisorConfig
	Market   MarketConfig
	Schedule ScheduleConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// RedisConfig holds the candle cache configuration
type RedisConfig struct {
	Enabled bool
	Addr    string
	DB      int
	TTL     time.Duration
}

// AdvisorConfig holds the model provider configuration
type AdvisorConfig struct {
	BaseURL          string
	APIKey           string
	DailyModel       string
	ResearchModel    string
	TacticalTimeout  time.Duration
	StrategicTimeout time.Duration
}

// MarketConfig holds market data configuration
type MarketConfig struct {
	// FallbackTickers seed the candle sync when no positions exist yet.
	FallbackTickers []string
}

// ScheduleConfig holds the cron expressions for the two cycles
type ScheduleConfig struct {
	Enabled   bool
	Tactical  string
	Strategic string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Pretty bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "advisor"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "portfolio-events"),
		},
		Redis: RedisConfig{
			Enabled: getEnvBool("REDIS_ENABLED", false),
			Addr:    getEnv("REDIS_ADDR", "localhost:6379"),
			DB:      getEnvInt("REDIS_DB", 0),
			TTL:     getEnvDuration("REDIS_CANDLE_TTL", time.Hour),
		},
		Advisor: AdvisorConfig{
			BaseURL:          getEnv("ADVISOR_BASE_URL", "https://api.openai.com/v1"),
			APIKey:           getEnv("ADVISOR_API_KEY", ""),
			DailyModel:       getEnv("ADVISOR_DAILY_MODEL", "gpt-4o"),
			ResearchModel:    getEnv("ADVISOR_RESEARCH_MODEL", "o3-deep-research"),
			TacticalTimeout:  getEnvDuration("ADVISOR_TACTICAL_TIMEOUT", 120*time.Second),
			StrategicTimeout: getEnvDuration("ADVISOR_STRATEGIC_TIMEOUT", 1800*time.Second),
		},
		Market: MarketConfig{
			FallbackTickers: strings.Split(getEnv("MARKET_FALLBACK_TICKERS", "AAPL,MSFT,GOOGL"), ","),
		},
		Schedule: ScheduleConfig{
			Enabled:   getEnvBool("SCHEDULE_ENABLED", true),
			Tactical:  getEnv("SCHEDULE_TACTICAL", "0 0 18 * * MON-FRI"),
			Strategic: getEnv("SCHEDULE_STRATEGIC", "0 0 9 * * SUN"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
	}
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	return "postgres://" + d.User + ":" + d.Password + "@" + d.Host + ":" + d.Port + "/" + d.DBName + "?sslmode=" + d.SSLMode
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
