package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/kurirapp/kurir/internal/pkg/models"
)

// InitConfig loads configuration from the environment, optionally seeded from
// a local .env file when APP_ENV is "local".
func InitConfig(configPath string) *models.Config {
	env := GetEnv("APP_ENV", "local")
	if env == "local" {
		if err := godotenv.Load(configPath); err != nil {
			log.Println("error loading config from file", err)
		}
	}
	return loadConfigFromEnv()
}

func loadConfigFromEnv() *models.Config {
	configs := &models.Config{}

	// App config
	configs.App.Name = GetEnv("APP_NAME", "tracking-service")
	configs.App.Environment = GetEnv("APP_ENV", "local")
	configs.App.Debug = GetEnvAsBool("APP_DEBUG", true)
	configs.App.Version = GetEnv("APP_VERSION", "")

	// Server config
	configs.Server.Host = GetEnv("SERVER_HOST", "")
	configs.Server.Port = GetEnvAsInt("SERVER_PORT", 9994)
	configs.Server.ReadTimeout = GetEnvAsInt("SERVER_READ_TIMEOUT", 30)
	configs.Server.WriteTimeout = GetEnvAsInt("SERVER_WRITE_TIMEOUT", 30)
	configs.Server.ShutdownTimeout = GetEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30)

	// Database config
	configs.Database.Host = GetEnv("DB_HOST", "localhost")
	configs.Database.Port = GetEnvAsInt("DB_PORT", 5432)
	configs.Database.Username = GetEnv("DB_USERNAME", "")
	configs.Database.Password = GetEnv("DB_PASSWORD", "")
	configs.Database.Database = GetEnv("DB_DATABASE", "kurir")
	configs.Database.SSLMode = GetEnv("DB_SSL_MODE", "disable")
	configs.Database.MaxConns = GetEnvAsInt("DB_MAX_CONNS", 10)
	configs.Database.IdleConns = GetEnvAsInt("DB_IDLE_CONNS", 2)

	// Redis config
	configs.Redis.Host = GetEnv("REDIS_HOST", "localhost")
	configs.Redis.Port = GetEnvAsInt("REDIS_PORT", 6379)
	configs.Redis.Password = GetEnv("REDIS_PASSWORD", "")
	configs.Redis.DB = GetEnvAsInt("REDIS_DB", 0)
	configs.Redis.PoolSize = GetEnvAsInt("REDIS_POOL_SIZE", 10)

	// NATS config
	configs.NATS.URL = GetEnv("NATS_URL", "nats://localhost:4222")

	// JWT config
	configs.JWT.Secret = GetEnv("JWT_SECRET", "")
	configs.JWT.Issuer = GetEnv("JWT_ISSUER", "kurir-auth")

	// Logger config
	configs.Logger.Level = GetEnv("LOG_LEVEL", "info")
	configs.Logger.FilePath = GetEnv("LOG_FILE_PATH", "")

	// Collaborating services
	configs.Services.DeliveryServiceURL = GetEnv("DELIVERY_SERVICE_URL", "http://localhost:9992")
	configs.Services.DeliveryServiceAPIKey = GetEnv("DELIVERY_SERVICE_API_KEY", "")

	// Tracking pipeline config
	configs.Tracking.MaxConnections = GetEnvAsInt("TRACKING_MAX_CONNECTIONS", 10000)
	configs.Tracking.IdleTimeout = GetEnvAsDuration("TRACKING_IDLE_TIMEOUT", 5*time.Minute)
	configs.Tracking.ReapInterval = GetEnvAsDuration("TRACKING_REAP_INTERVAL", time.Minute)
	configs.Tracking.BatchSize = GetEnvAsInt("TRACKING_BATCH_SIZE", 100)
	configs.Tracking.FlushInterval = GetEnvAsDuration("TRACKING_FLUSH_INTERVAL", 10*time.Second)
	configs.Tracking.FlushTimeout = GetEnvAsDuration("TRACKING_FLUSH_TIMEOUT", 5*time.Second)
	configs.Tracking.RetentionLimit = GetEnvAsInt("TRACKING_RETENTION_LIMIT", 1000)
	configs.Tracking.CacheTTL = GetEnvAsDuration("TRACKING_CACHE_TTL", 2*time.Minute)
	configs.Tracking.SweepInterval = GetEnvAsDuration("TRACKING_SWEEP_INTERVAL", time.Minute)
	configs.Tracking.ResolveTimeout = GetEnvAsDuration("TRACKING_RESOLVE_TIMEOUT", 2*time.Second)
	configs.Tracking.ResolveTTL = GetEnvAsDuration("TRACKING_RESOLVE_TTL", 5*time.Minute)
	configs.Tracking.NegativeTTL = GetEnvAsDuration("TRACKING_NEGATIVE_TTL", 30*time.Second)
	configs.Tracking.SimulatorAPIKey = GetEnv("TRACKING_SIMULATOR_API_KEY", "")

	return configs
}

// Helper functions to get environment variables with different types

func GetEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetEnvAsInt(key string, defaultValue int) int {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default: %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsBool(key string, defaultValue bool) bool {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default: %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func GetEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := GetEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default: %s", key, defaultValue)
		return defaultValue
	}
	return value
}
