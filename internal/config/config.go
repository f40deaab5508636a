package config

import (
	"os"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	CacheTTL time.Duration
	Timezone string
}

// ServerConfig holds HTTP-server-specific configuration
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// UpstreamConfig holds the upstream feed endpoints and credentials
type UpstreamConfig struct {
	LTABase       string
	LTAAccountKey string
	NEAWeatherURL string
	Timeout       time.Duration
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:           getEnv("ADDR", ":8000"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
			ReadTimeout:    getEnvAsDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:   getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:    getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		},
		Upstream: UpstreamConfig{
			LTABase:       getEnv("LTA_API_BASE", "https://datamall2.mytransport.sg/ltaodataservice"),
			LTAAccountKey: getEnv("LTA_API_KEY", ""),
			NEAWeatherURL: getEnv("NEA_WEATHER_URL", "https://api.data.gov.sg/v1/environment/2-hour-weather-forecast"),
			Timeout:       getEnvAsDuration("UPSTREAM_TIMEOUT", 20*time.Second),
		},
		CacheTTL: getEnvAsDuration("CACHE_TTL", 90*time.Second),
		Timezone: getEnv("TIMEZONE", "Asia/Singapore"),
	}
}

// Summary returns a redacted view of the configuration for the /config
// endpoint; the account key itself is never exposed.
func (c *Config) Summary() map[string]any {
	return map[string]any{
		"allowed_origins":        c.Server.AllowedOrigins,
		"nea_weather_url":        c.Upstream.NEAWeatherURL,
		"lta_api_base":           c.Upstream.LTABase,
		"lta_api_key_configured": c.Upstream.LTAAccountKey != "",
		"cache_ttl":              c.CacheTTL.String(),
		"timezone":               c.Timezone,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr := os.Getenv(key); valueStr != "" {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
