package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every runtime setting, read once at startup.
type Config struct {
	DB          DBConfig
	HTTPAddr    string
	CORSOrigins []string // empty allows any origin

	JWTSecret      string
	AdminAccessKey string

	GeminiAPIKey       string
	GeminiModel        string
	ClassifierTimeout  time.Duration
	DutyDuration       time.Duration
	GeofenceToleranceM float64

	LogFile  string
	LogLevel string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
	TimeZone string
}

// Load reads .env (if present) and the environment, applying defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found – relying on env vars")
	}

	return Config{
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "password"),
			Name:     getEnv("DB_NAME", "patrol"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			TimeZone: getEnv("DB_TIMEZONE", "UTC"),
		},
		HTTPAddr:           getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		CORSOrigins:        getList("CORS_ALLOWED_ORIGINS"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		AdminAccessKey:     getEnv("ADMIN_ACCESS_KEY", ""),
		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModel:        getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
		ClassifierTimeout:  getDuration("CLASSIFIER_TIMEOUT", 10*time.Second),
		DutyDuration:       time.Duration(getFloat("DUTY_DURATION_HOURS", 8) * float64(time.Hour)),
		GeofenceToleranceM: getFloat("GEOFENCE_TOLERANCE_METERS", 50),
		LogFile:            getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		logrus.WithField("key", key).WithField("value", raw).Warn("Ignoring invalid numeric setting")
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		logrus.WithField("key", key).WithField("value", raw).Warn("Ignoring invalid duration setting")
		return defaultValue
	}
	return v
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
