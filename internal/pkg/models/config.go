package models

import "time"

// Config represents application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	JWT      JWTConfig
	Logger   LoggerConfig
	Tracking TrackingConfig
	Services ServicesConfig
}

// AppConfig contains application-specific configuration
type AppConfig struct {
	Name        string
	Environment string
	Debug       bool
	Version     string
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig contains database connection configuration
type DatabaseConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	Database  string
	SSLMode   string
	MaxConns  int
	IdleConns int
}

// RedisConfig contains Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// NATSConfig contains NATS connection configuration
type NATSConfig struct {
	URL string
}

// JWTConfig contains JWT authentication configuration
type JWTConfig struct {
	Secret string
	Issuer string
}

// LoggerConfig contains structured logging configuration
type LoggerConfig struct {
	Level    string
	FilePath string
}

// ServicesConfig contains URLs and keys for collaborating services
type ServicesConfig struct {
	DeliveryServiceURL    string
	DeliveryServiceAPIKey string
}

// TrackingConfig contains tracking pipeline configuration
type TrackingConfig struct {
	MaxConnections  int           // ceiling on concurrent real-time connections
	IdleTimeout     time.Duration // connections idle longer than this are reaped
	ReapInterval    time.Duration
	BatchSize       int           // size threshold that triggers a flush
	FlushInterval   time.Duration // periodic flush regardless of batch size
	FlushTimeout    time.Duration
	RetentionLimit  int           // pending buffer cap after failed flushes
	CacheTTL        time.Duration // latest-position cache entry lifetime
	SweepInterval   time.Duration
	ResolveTimeout  time.Duration // bound on active-delivery lookups
	ResolveTTL      time.Duration // positive driver->order association TTL
	NegativeTTL     time.Duration // "no active delivery" association TTL
	SimulatorAPIKey string        // shared secret for simulator ingestion
}
