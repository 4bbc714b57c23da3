package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Logging LoggingConfig
	Capture CaptureConfig
}

type ServerConfig struct {
	Host              string `validate:"omitempty,hostname|ip"`
	Port              int    `validate:"gte=1,lte=65535"`
	PortAttempts      int    `validate:"gte=1,lte=100"`
	Env               string `validate:"oneof=development production test"`
	WebRoot           string
	DecoyServerHeader string
	CORSOrigins       []string      `validate:"min=1,dive,required"`
	CORSMaxAge        int           `validate:"gte=0"`
	ReadTimeout       time.Duration `validate:"gt=0"`
	WriteTimeout      time.Duration `validate:"gt=0"`
	IdleTimeout       time.Duration `validate:"gt=0"`
}

type LoggingConfig struct {
	Level      string `validate:"oneof=debug info warn error"`
	File       string
	MaxSizeMB  int `validate:"gte=1"`
	MaxBackups int `validate:"gte=0"`
	MaxAgeDays int `validate:"gte=0"`
}

type CaptureConfig struct {
	LogDir         string   `validate:"required"`
	TextLogFile    string   `validate:"required,excludesall=/\\"`
	JSONLogFile    string   `validate:"required,excludesall=/\\"`
	MaxBodyBytes   int64    `validate:"gte=1"`
	TrustedProxies []string `validate:"dive,cidr"`
}

var validate = validator.New()

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:              getEnv("HOST", ""),
			Port:              getEnvAsInt("PORT", 8080),
			PortAttempts:      getEnvAsInt("PORT_SCAN_ATTEMPTS", 10),
			Env:               getEnv("ENV", "development"),
			WebRoot:           getEnv("WEB_ROOT", "web"),
			DecoyServerHeader: getEnv("DECOY_SERVER_HEADER", ""),
			CORSOrigins:       getEnvAsListOr("CORS_ALLOWED_ORIGINS", []string{"*"}),
			CORSMaxAge:        getEnvAsInt("CORS_MAX_AGE", 0),
			ReadTimeout:       getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:      getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Logging: LoggingConfig{
			Level:      strings.ToLower(getEnv("LOG_LEVEL", "info")),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 10),
			MaxBackups: getEnvAsInt("LOG_FILE_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 28),
		},
		Capture: CaptureConfig{
			LogDir:         getEnv("LOG_DIR", "logs"),
			TextLogFile:    getEnv("TEXT_LOG_FILE", "honeypot_attempts.log"),
			JSONLogFile:    getEnv("JSON_LOG_FILE", "honeypot_attempts.json"),
			MaxBodyBytes:   int64(getEnvAsInt("CAPTURE_MAX_BODY_BYTES", 1<<20)),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field against its validate tag
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
			fe := ve[0]
			return fmt.Errorf("invalid configuration: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return []string{}
	}
	items := strings.Split(value, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvAsListOr(key string, defaultVal []string) []string {
	if items := getEnvAsList(key); len(items) > 0 {
		return items
	}
	return defaultVal
}
