// Package config loads service configuration from environment variables.
// Invalid values fall back to defaults rather than failing startup.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceConfig identifies the service instance.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// KafkaConfig configures the broker channels.
type KafkaConfig struct {
	Enabled    bool
	Brokers    []string
	AudioTopic string
	TextTopic  string
	GroupID    string
}

// LLMConfig configures the external language-model service.
type LLMConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float64
}

// DatabaseConfig configures the persistence layer. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string
}

// ObservabilityConfig configures logging and the metrics server.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
}

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Kafka         KafkaConfig
	LLM           LLMConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// Load reads configuration from the environment.
func Load() *Configuration {
	return &Configuration{
		Service: ServiceConfig{
			Principal: envOrDefault("SERVICE_PRINCIPAL", "svc-meeting-orchestrator"),
			HTTPPort:  envOrDefault("HTTP_PORT", "3000"),
		},
		Kafka: KafkaConfig{
			Enabled:    envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:    envOrDefaultList("KAFKA_BROKERS", []string{"localhost:9092"}),
			AudioTopic: envOrDefault("KAFKA_AUDIO_TOPIC", "meeting.audio.input"),
			TextTopic:  envOrDefault("KAFKA_TEXT_TOPIC", "meeting.text.output"),
			GroupID:    envOrDefault("KAFKA_GROUP_ID", "orchestrator"),
		},
		LLM: LLMConfig{
			BaseURL:     envOrDefault("LLM_BASE_URL", "http://localhost:11434/v1"),
			APIKey:      os.Getenv("LLM_API_KEY"),
			Model:       envOrDefault("LLM_MODEL", "gemini-1.5-flash"),
			Timeout:     envOrDefaultDuration("LLM_TIMEOUT", 30*time.Second),
			Temperature: envOrDefaultFloat("LLM_TEMPERATURE", 0.3),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
		},
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

func envOrDefaultList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envOrDefaultFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
