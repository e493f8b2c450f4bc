package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by SCHOOLGATE_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SCHOOLGATE_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
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

// APIBaseURL returns the base URL of the platform backend.
// Defaults to the local development backend if not set.
func APIBaseURL() string {
	u := os.Getenv("API_URL")
	if u == "" {
		return "http://localhost:8000"
	}
	return u
}

// AppDomain returns the base domain under which tenant subdomains live
// (e.g. "nexus.example.com" for "greenwood.nexus.example.com").
func AppDomain() string {
	return os.Getenv("APP_DOMAIN")
}

func SessionSecret() string {
	return os.Getenv("SESSION_SECRET")
}

// SessionTTL returns the session lifetime. The backend token has the same
// lifetime by convention; there is no refresh path.
// Defaults to 8 hours if not set.
func SessionTTL() time.Duration {
	mins, err := strconv.Atoi(os.Getenv("SESSION_TTL_MINUTES"))
	if err != nil || mins <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(mins) * time.Minute
}

// SessionStoreKind selects the session store backend.
// Valid values: memory, postgres, redis. Defaults to "memory".
func SessionStoreKind() string {
	k := os.Getenv("SESSION_STORE")
	if k == "" {
		return "memory"
	}
	return k
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func RedisURL() string {
	return os.Getenv("REDIS_URL")
}

// LoginRateLimitPerMinute returns the per-client login attempt budget.
// Mirrors the backend's own limiter. Defaults to 5 if not set.
func LoginRateLimitPerMinute() int {
	n, err := strconv.Atoi(os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"))
	if err != nil || n <= 0 {
		return 5
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// CloudinaryCloudName configures direct browser-to-Cloudinary image upload;
// the gateway only hands the values out, the upload bypasses the backend.
func CloudinaryCloudName() string {
	return os.Getenv("CLOUDINARY_CLOUD_NAME")
}

func CloudinaryUploadPreset() string {
	return os.Getenv("CLOUDINARY_UPLOAD_PRESET")
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
