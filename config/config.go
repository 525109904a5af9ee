package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Session SessionConfig
	Kafka   KafkaConfig
	Observ  ObservabilityConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type StorageConfig struct {
	DataDir string
}

type SessionConfig struct {
	TTL           time.Duration
	RememberMeTTL time.Duration
	PruneInterval time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	TopicActivity string
	Enabled       bool
}

type ObservabilityConfig struct {
	JaegerEndpoint string
	TracingEnabled bool
}

func Load() *Config {
	_ = godotenv.Load()

	sessionTTL, _ := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "30"))
	rememberTTL, _ := strconv.Atoi(getEnv("REMEMBER_ME_TTL_HOURS", "240"))
	pruneInterval, _ := strconv.Atoi(getEnv("SESSION_PRUNE_INTERVAL_MINUTES", "5"))

	brokers := getEnv("KAFKA_BROKERS", "")

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("ENV", "development"),
		},
		Storage: StorageConfig{
			DataDir: getEnv("DATA_DIR", "./data"),
		},
		Session: SessionConfig{
			TTL:           time.Duration(sessionTTL) * time.Minute,
			RememberMeTTL: time.Duration(rememberTTL) * time.Hour,
			PruneInterval: time.Duration(pruneInterval) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:       splitNonEmpty(brokers),
			TopicActivity: getEnv("KAFKA_TOPIC_ACTIVITY", "activity-events"),
			Enabled:       brokers != "",
		},
		Observ: ObservabilityConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces"),
			TracingEnabled: getEnv("TRACING_ENABLED", "false") == "true",
		},
	}

	log.Printf("Config loaded: env=%s, port=%s, data_dir=%s", cfg.Server.Env, cfg.Server.Port, cfg.Storage.DataDir)
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
