package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App               AppConfig
	HTTP              ServerConfig
	GRPC              ServerConfig
	MySQL             MySQLConfig
	Log               LogConfig
	InternalEndpoints InternalEndpointsConfig
	UPI               UPIConfig
	Backend           BackendConfig
	Kafka             KafkaConfig
	Redis             RedisConfig
	Payments          PaymentsConfig
	Jobs              JobsConfig
}

type AppConfig struct {
	ServiceName string
	APIKey      string
}

type ServerConfig struct {
	Host string
	Port string
}

type MySQLConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level string
}

type InternalEndpointsConfig struct {
	AuthGRPCAddr string
}

type UPIConfig struct {
	CallbackScheme string
	PayeeID        string
	PayeeName      string
	Currency       string
	InitialURL     string
}

type BackendConfig struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	ResolvedTopic string
	Retry         RetryConfig
}

type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      bool
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	ResolvedTTL time.Duration
}

type PaymentsConfig struct {
	RecordMaxAttempts   int32
	RecordRetryInterval time.Duration
	PendingTimeout      time.Duration
	JobBatchSize        int32
}

type JobsConfig struct {
	RecordDispatchInterval time.Duration
	ExpirePendingInterval  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	mysqlDSN := os.Getenv("MYSQL_DSN")
	if mysqlDSN == "" {
		return nil, errors.New("MYSQL_DSN environment variable is required")
	}

	return &Config{
		App: AppConfig{
			ServiceName: getEnv("APP_SERVICE_NAME", "upi-payments-service"),
			APIKey:      getEnv("APP_API_KEY", ""),
		},
		HTTP: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnv("HTTP_PORT", "8080"),
		},
		GRPC: ServerConfig{
			Host: getEnv("GRPC_HOST", "0.0.0.0"),
			Port: getEnv("GRPC_PORT", "9090"),
		},
		MySQL: MySQLConfig{
			DSN:             mysqlDSN,
			MaxOpenConns:    getIntEnv("MYSQL_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getIntEnv("MYSQL_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getMinutesEnv("MYSQL_CONN_MAX_LIFETIME_MINUTES", 30*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		InternalEndpoints: InternalEndpointsConfig{
			AuthGRPCAddr: getEnv("AUTH_SERVICE_GRPC_ADDR", "localhost:9090"),
		},
		UPI: UPIConfig{
			CallbackScheme: getEnv("UPI_CALLBACK_SCHEME", "scrapmatepartner"),
			PayeeID:        getEnv("UPI_PAYEE_ID", ""),
			PayeeName:      getEnv("UPI_PAYEE_NAME", ""),
			Currency:       getEnv("UPI_CURRENCY", "INR"),
			InitialURL:     getEnv("UPI_INITIAL_URL", ""),
		},
		Backend: BackendConfig{
			BaseURL:     getEnv("BACKEND_BASE_URL", ""),
			APIKey:      getEnv("BACKEND_API_KEY", ""),
			HTTPTimeout: getSecondsEnv("BACKEND_HTTP_TIMEOUT_SECONDS", 10*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       getListEnv("KAFKA_BROKERS"),
			ResolvedTopic: getEnv("KAFKA_RESOLVED_TOPIC", "upi.payments.resolved"),
			Retry: RetryConfig{
				MaxAttempts: getIntEnv("KAFKA_RETRY_MAX_ATTEMPTS", 5),
				BaseDelay:   getMillisecondsEnv("KAFKA_RETRY_BASE_DELAY_MS", 100*time.Millisecond),
				MaxDelay:    getMillisecondsEnv("KAFKA_RETRY_MAX_DELAY_MS", 10*time.Second),
				Jitter:      getBoolEnv("KAFKA_RETRY_JITTER", true),
			},
		},
		Redis: RedisConfig{
			Addr:        getEnv("REDIS_ADDR", ""),
			Password:    getEnv("REDIS_PASSWORD", ""),
			DB:          getIntEnv("REDIS_DB", 0),
			ResolvedTTL: getMinutesEnv("REDIS_RESOLVED_TTL_MINUTES", 24*time.Hour),
		},
		Payments: PaymentsConfig{
			RecordMaxAttempts:   int32(getIntEnv("PAYMENTS_RECORD_MAX_ATTEMPTS", 10)),
			RecordRetryInterval: getMinutesEnv("PAYMENTS_RECORD_RETRY_INTERVAL_MINUTES", 5*time.Minute),
			PendingTimeout:      getMinutesEnv("PAYMENTS_PENDING_TIMEOUT_MINUTES", 60*time.Minute),
			JobBatchSize:        int32(getIntEnv("PAYMENTS_JOB_BATCH_SIZE", 100)),
		},
		Jobs: JobsConfig{
			RecordDispatchInterval: getMinutesEnv("PAYMENTS_RECORD_DISPATCH_INTERVAL_MINUTES", time.Minute),
			ExpirePendingInterval:  getMinutesEnv("PAYMENTS_EXPIRE_PENDING_INTERVAL_MINUTES", 5*time.Minute),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getListEnv(key string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func getMinutesEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}

func getSecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func getMillisecondsEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
