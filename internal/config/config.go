package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gerakkita/service-transit/internal/platform/database"
	"github.com/spf13/viper"
)

// KafkaConfig holds broker addresses and the consumer group prefix.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// MidtransConfig holds the payment gateway credentials and endpoint.
type MidtransConfig struct {
	ServerKey string
	BaseURL   string
}

// TrackingConfig holds the fixed cadences of the publisher and watcher loops.
type TrackingConfig struct {
	PublishInterval time.Duration
	RefreshInterval time.Duration
}

// ServiceConfig holds all configuration for the transit service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	MetricsAddr string
	JWTSecret   string
	DBConfig    database.PostgresConfig
	KafkaConfig KafkaConfig
	Midtrans    MidtransConfig
	Tracking    TrackingConfig
}

// Load reads configuration from TRANSIT_-prefixed environment variables.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("TRANSIT")
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("METRICS_ADDR", ":9090")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "transit")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "transit-")
	v.SetDefault("MIDTRANS_BASE_URL", "https://app.sandbox.midtrans.com/snap/v1")
	v.SetDefault("TRACKING_PUBLISH_INTERVAL", "10s")
	v.SetDefault("TRACKING_REFRESH_INTERVAL", "15s")

	if v.GetString("JWT_SECRET") == "" && v.GetString("APP_ENV") != "development" {
		return nil, fmt.Errorf("TRANSIT_JWT_SECRET is required outside development")
	}
	jwtSecret := v.GetString("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-only-secret"
	}

	port := v.GetString("SERVICE_PORT")
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	return &ServiceConfig{
		Port:        port,
		AppEnv:      v.GetString("APP_ENV"),
		MetricsAddr: v.GetString("METRICS_ADDR"),
		JWTSecret:   jwtSecret,
		DBConfig: database.PostgresConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		Midtrans: MidtransConfig{
			ServerKey: v.GetString("MIDTRANS_SERVER_KEY"),
			BaseURL:   v.GetString("MIDTRANS_BASE_URL"),
		},
		Tracking: TrackingConfig{
			PublishInterval: v.GetDuration("TRACKING_PUBLISH_INTERVAL"),
			RefreshInterval: v.GetDuration("TRACKING_REFRESH_INTERVAL"),
		},
	}, nil
}
