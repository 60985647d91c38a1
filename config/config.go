package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	ServiceName string
	LoggerLevel string

	AppPort int

	DispatchBaseURL string
	HTTPTimeout     time.Duration

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderCacheTTL  time.Duration

	PollInterval         time.Duration
	CompletionFixTimeout time.Duration
	BookingFixTimeout    time.Duration

	StorageDriver    string
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RabbitMQURL      string
	RabbitMQExchange string

	TelegramBotToken string
	DriverBotToken   string
}

func Load() Config {
	_ = godotenv.Load(".env")

	cfg := Config{}

	cfg.ServiceName = cast.ToString(getOrReturnDefault("SERVICE_NAME", "lifeline"))
	cfg.LoggerLevel = cast.ToString(getOrReturnDefault("LOGGER_LEVEL", "debug"))
	cfg.AppPort = cast.ToInt(getOrReturnDefault("APP_PORT", 8080))

	cfg.DispatchBaseURL = cast.ToString(getOrReturnDefault("DISPATCH_BASE_URL", "http://localhost:5000"))
	cfg.HTTPTimeout = cast.ToDuration(getOrReturnDefault("HTTP_TIMEOUT", "15s"))

	cfg.GeocoderURL = cast.ToString(getOrReturnDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org"))
	cfg.GeocoderUserAgent = cast.ToString(getOrReturnDefault("GEOCODER_USER_AGENT", "lifeline-dispatch-client/1.0"))
	cfg.GeocoderCacheTTL = cast.ToDuration(getOrReturnDefault("GEOCODER_CACHE_TTL", "24h"))

	cfg.PollInterval = cast.ToDuration(getOrReturnDefault("POLL_INTERVAL", "5s"))
	cfg.CompletionFixTimeout = cast.ToDuration(getOrReturnDefault("COMPLETION_FIX_TIMEOUT", "10s"))
	cfg.BookingFixTimeout = cast.ToDuration(getOrReturnDefault("BOOKING_FIX_TIMEOUT", "60s"))

	cfg.StorageDriver = cast.ToString(getOrReturnDefault("STORAGE_DRIVER", StoragePostgres))
	cfg.PostgresHost = cast.ToString(getOrReturnDefault("POSTGRES_HOST", "localhost"))
	cfg.PostgresPort = cast.ToString(getOrReturnDefault("POSTGRES_PORT", "5432"))
	cfg.PostgresUser = cast.ToString(getOrReturnDefault("POSTGRES_USER", "postgres"))
	cfg.PostgresPassword = cast.ToString(getOrReturnDefault("POSTGRES_PASSWORD", "1234"))
	cfg.PostgresDB = cast.ToString(getOrReturnDefault("POSTGRES_DB", "lifeline"))

	cfg.RabbitMQURL = cast.ToString(getOrReturnDefault("RABBITMQ_URL", ""))
	cfg.RabbitMQExchange = cast.ToString(getOrReturnDefault("RABBITMQ_EXCHANGE", "lifeline.events"))

	cfg.TelegramBotToken = cast.ToString(getOrReturnDefault("TG_BOT_TOKEN", ""))
	cfg.DriverBotToken = cast.ToString(getOrReturnDefault("DRIVER_BOT_TOKEN", ""))

	return cfg
}

func getOrReturnDefault(key string, defaultValue interface{}) interface{} {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}
