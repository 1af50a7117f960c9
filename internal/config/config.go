package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by STRAINFEED_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("STRAINFEED_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Missing files are fine; the environment may already be populated.
	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

// DatabaseURL is optional. When set, the graph is seeded from Postgres.
func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

// SeedFile is the JSON or YAML document loaded at startup when no database
// is configured. Empty means start with an empty graph.
func SeedFile() string {
	return os.Getenv("SEED_FILE")
}

// TickInterval returns the metric engine period. Defaults to 2s.
func TickInterval() time.Duration {
	return durationEnv("TICK_INTERVAL", 2*time.Second)
}

// HeartbeatInterval is how long a feed subscriber may sit idle before it is
// sent a heartbeat. Defaults to 5s.
func HeartbeatInterval() time.Duration {
	return durationEnv("HEARTBEAT_INTERVAL", 5*time.Second)
}

// FeedBuffer returns the per-subscriber batch buffer. Defaults to 16.
func FeedBuffer() int {
	return intEnv("FEED_BUFFER", 16)
}

// StallMultiplier is the number of missed tick intervals after which the
// engine is reported stalled. Defaults to 5.
func StallMultiplier() int {
	return intEnv("ENGINE_STALL_MULTIPLIER", 5)
}

func HighStrainThreshold() float64 {
	return floatEnv("HIGH_STRAIN_THRESHOLD", 0.8)
}

func LowResistanceThreshold() float64 {
	return floatEnv("LOW_RESISTANCE_THRESHOLD", 0.5)
}

func HighFrequencyThreshold() int {
	return intEnv("HIGH_FREQUENCY_THRESHOLD", 500)
}

func HighMassThreshold() float64 {
	return floatEnv("HIGH_MASS_THRESHOLD", 10.0)
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	return floatEnv("RATE_LIMIT_RPS", 100)
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	return intEnv("RATE_LIMIT_BURST", 20)
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

func intEnv(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func floatEnv(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func durationEnv(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
