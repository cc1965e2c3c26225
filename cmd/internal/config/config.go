package config

import (
	"errors"
	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
	"github.com/spf13/viper"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env         string
	Port        string
	AppURL      string
	FrontendURL string
	LogLevel    string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret string
	JWTTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	Mail MailConfig

	ScanInterval          time.Duration
	DispatchTimeout       time.Duration
	DispatchWorkers       int
	RetryMaxAttempts      int
	RetryDelay            time.Duration
	StatusUpdateInterval  time.Duration
	ShareDefaultExpiryDay int
}

type MailConfig struct {
	Driver   string // log, smtp or ses
	From     string
	FromName string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	AWSRegion string

	// TreatErrorsAsSent marks email notifications as sent even when the
	// transport rejects them. Meant for local mail relays only.
	TreatErrorsAsSent bool
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside development")

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("failed to load .env file: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "6060")
	v.SetDefault("APP_URL", "http://localhost:6060")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_URL", "./database.db")
	v.SetDefault("JWT_TTL", "24h")
	v.SetDefault("MAIL_DRIVER", "log")
	v.SetDefault("MAIL_FROM", "noreply@appointease.local")
	v.SetDefault("MAIL_FROM_NAME", "AppointEase")
	v.SetDefault("SMTP_HOST", "localhost")
	v.SetDefault("SMTP_PORT", 1025)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("MAIL_TREAT_ERRORS_AS_SENT", false)
	v.SetDefault("SCAN_INTERVAL", "1m")
	v.SetDefault("DISPATCH_TIMEOUT", "30s")
	v.SetDefault("DISPATCH_WORKERS", 1)
	v.SetDefault("RETRY_MAX_ATTEMPTS", 0)
	v.SetDefault("RETRY_DELAY", "5m")
	v.SetDefault("STATUS_UPDATE_INTERVAL", "1h")
	v.SetDefault("SHARE_DEFAULT_EXPIRY_DAYS", 30)
	return v
}

func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:         v.GetString("APP_ENV"),
		Port:        v.GetString("PORT"),
		AppURL:      strings.TrimRight(v.GetString("APP_URL"), "/"),
		FrontendURL: strings.TrimRight(v.GetString("FRONTEND_URL"), "/"),
		LogLevel:    v.GetString("LOG_LEVEL"),

		DatabaseDriver: v.GetString("DATABASE_DRIVER"),
		DatabaseURL:    v.GetString("DATABASE_URL"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    v.GetDuration("JWT_TTL"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),

		Mail: MailConfig{
			Driver:            v.GetString("MAIL_DRIVER"),
			From:              v.GetString("MAIL_FROM"),
			FromName:          v.GetString("MAIL_FROM_NAME"),
			SMTPHost:          v.GetString("SMTP_HOST"),
			SMTPPort:          v.GetInt("SMTP_PORT"),
			SMTPUsername:      v.GetString("SMTP_USERNAME"),
			SMTPPassword:      v.GetString("SMTP_PASSWORD"),
			AWSRegion:         v.GetString("AWS_REGION"),
			TreatErrorsAsSent: v.GetBool("MAIL_TREAT_ERRORS_AS_SENT"),
		},

		ScanInterval:          v.GetDuration("SCAN_INTERVAL"),
		DispatchTimeout:       v.GetDuration("DISPATCH_TIMEOUT"),
		DispatchWorkers:       v.GetInt("DISPATCH_WORKERS"),
		RetryMaxAttempts:      v.GetInt("RETRY_MAX_ATTEMPTS"),
		RetryDelay:            v.GetDuration("RETRY_DELAY"),
		StatusUpdateInterval:  v.GetDuration("STATUS_UPDATE_INTERVAL"),
		ShareDefaultExpiryDay: v.GetInt("SHARE_DEFAULT_EXPIRY_DAYS"),
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, ErrMissingJWTSecret
		}
		cfg.JWTSecret = "dev-secret-change-in-production"
		log.Warn("using default JWT_SECRET, set one before deploying")
	}
	if cfg.DispatchWorkers < 1 {
		cfg.DispatchWorkers = 1
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env != "development" && c.Env != "test"
}

func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// ParseLogLevel maps LOG_LEVEL onto gommon levels, defaulting to INFO.
func ParseLogLevel(level string) log.Lvl {
	switch strings.ToLower(level) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
