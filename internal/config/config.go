package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	API      APIConfig
	Realtime RealtimeConfig
	Kafka    KafkaConfig
	Store    StoreConfig
	View     ViewConfig
	Seatmap  SeatmapConfig
}

type APIConfig struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
}

type RealtimeConfig struct {
	RedisAddr string
	RedisDB   int
}

type KafkaConfig struct {
	Brokers      []string
	GroupID      string
	BookingTopic string
	Enabled      bool
}

type StoreConfig struct {
	Path          string
	MigrationsDir string
}

type ViewConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type SeatmapConfig struct {
	PollInterval time.Duration
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:     getEnv("API_BASE_URL", "http://localhost:8080/api"),
			Timeout:     time.Duration(getEnvInt("API_TIMEOUT_SECONDS", 10)) * time.Second,
			MaxAttempts: getEnvInt("API_MAX_ATTEMPTS", 3),
		},
		Realtime: RealtimeConfig{
			RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
			RedisDB:   getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:      []string{getEnv("KAFKA_ADDR", "localhost:9092")},
			GroupID:      getEnv("KAFKA_GROUP_ID", "ticketly-client"),
			BookingTopic: getEnv("KAFKA_TOPIC_BOOKINGS", "ticketly.booking.created"),
			Enabled:      getEnvBool("KAFKA_ENABLED", false),
		},
		Store: StoreConfig{
			Path:          getEnv("STORE_PATH", "ticketly-client.db"),
			MigrationsDir: getEnv("STORE_MIGRATIONS_DIR", "./migrations"),
		},
		View: ViewConfig{
			Addr:         getEnv("VIEW_ADDR", ":8090"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Seatmap: SeatmapConfig{
			PollInterval: time.Duration(getEnvInt("SEAT_POLL_INTERVAL_SECONDS", 2)) * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
