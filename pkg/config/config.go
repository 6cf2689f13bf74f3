package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	SendPolicyRetain     = "retain"
	SendPolicyMarkFailed = "mark-failed"
)

type Config struct {
	BackendURL        string
	LoginURL          string
	CallbackAddr      string
	SessionDBPath     string
	SessionKey        string
	MatchPageSize     int
	SendFailurePolicy string
	RequestTimeout    time.Duration
	LogFile           string
	LogLevel          string
	Environment       string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		BackendURL:        strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:8080"), "/"),
		CallbackAddr:      getEnv("CALLBACK_ADDR", "127.0.0.1:3000"),
		SessionDBPath:     getEnv("SESSION_DB_PATH", "chatbuysell.db"),
		SessionKey:        getEnv("SESSION_KEY", "user"),
		MatchPageSize:     int(getEnvAsInt64("MATCH_PAGE_SIZE", 10)),
		SendFailurePolicy: getEnv("SEND_FAILURE_POLICY", SendPolicyMarkFailed),
		RequestTimeout:    time.Duration(getEnvAsInt64("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		LogFile:           getEnv("LOG_FILE", "chatbuysell.log"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		Environment:       getEnv("ENVIRONMENT", "development"),
	}
	config.LoginURL = getEnv("LOGIN_URL", config.BackendURL+"/auth/facebook")

	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
