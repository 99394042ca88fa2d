package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// Storage drivers
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Auth modes
const (
	AuthFirebase = "firebase"
	AuthHMAC     = "hmac"
)

// Delivery providers
const (
	ProviderLog    = "log"
	ProviderFCM    = "fcm"
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// Config holds all configuration for the application
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	Port        string `mapstructure:"PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	// Storage configuration
	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	DatabaseURL      string `mapstructure:"DATABASE_URL"`
	DatabaseHost     string `mapstructure:"DB_HOST"`
	DatabasePort     string `mapstructure:"DB_PORT"`
	DatabaseUser     string `mapstructure:"DB_USER"`
	DatabasePassword string `mapstructure:"DB_PASSWORD"`
	DatabaseName     string `mapstructure:"DB_NAME"`
	DatabaseSSLMode  string `mapstructure:"DB_SSL_MODE"`
	SQLitePath       string `mapstructure:"SQLITE_PATH"`

	// Identity configuration
	AuthMode          string `mapstructure:"AUTH_MODE"`
	FirebaseProjectID string `mapstructure:"FIREBASE_PROJECT_ID"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`

	// CORS configuration
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	// Push configuration
	PushProvider       string `mapstructure:"PUSH_PROVIDER"`
	FCMCredentialsFile string `mapstructure:"FCM_CREDENTIALS_FILE"`

	// Email configuration
	EmailProvider string `mapstructure:"EMAIL_PROVIDER"`
	SMTPHost      string `mapstructure:"SMTP_HOST"`
	SMTPPort      int    `mapstructure:"SMTP_PORT"`
	SMTPUsername  string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword  string `mapstructure:"SMTP_PASSWORD"`
	EmailFrom     string `mapstructure:"EMAIL_FROM"`
	ResendAPIKey  string `mapstructure:"RESEND_API_KEY"`

	// Dispatcher configuration
	NotifyTimeout        time.Duration `mapstructure:"NOTIFY_TIMEOUT"`
	NotifyMaxConcurrency int           `mapstructure:"NOTIFY_MAX_CONCURRENCY"`
	ReminderCooldown     time.Duration `mapstructure:"REMINDER_COOLDOWN"`
	RedisURL             string        `mapstructure:"REDIS_URL"`

	// Request rate limiting, 0 disables
	RateLimitRPS   float64 `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `mapstructure:"RATE_LIMIT_BURST"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	config.AllowedOrigins = splitOrigins(config.AllowedOrigins)

	// Build database URL if not provided
	if config.DatabaseURL == "" {
		config.DatabaseURL = buildDatabaseURL(&config)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")

	// Storage defaults
	v.SetDefault("STORAGE_DRIVER", StorageMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "expensely")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("SQLITE_PATH", "expensely.db")

	// Identity defaults
	v.SetDefault("AUTH_MODE", AuthHMAC)
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("JWT_SECRET", defaultJWTSecret)

	// CORS defaults
	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:8081", "http://localhost:19006"})

	// Delivery defaults
	v.SetDefault("PUSH_PROVIDER", ProviderLog)
	v.SetDefault("FCM_CREDENTIALS_FILE", "")
	v.SetDefault("EMAIL_PROVIDER", ProviderLog)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "")
	v.SetDefault("SMTP_PASSWORD", "")
	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("RESEND_API_KEY", "")

	// Dispatcher defaults
	v.SetDefault("NOTIFY_TIMEOUT", 5*time.Second)
	v.SetDefault("NOTIFY_MAX_CONCURRENCY", 8)
	v.SetDefault("REMINDER_COOLDOWN", 0)
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("RATE_LIMIT_RPS", 0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	var out []string
	for _, item := range in {
		for _, origin := range strings.Split(item, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				out = append(out, origin)
			}
		}
	}
	return out
}

func buildDatabaseURL(config *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		config.DatabaseUser,
		config.DatabasePassword,
		config.DatabaseHost,
		config.DatabasePort,
		config.DatabaseName,
		config.DatabaseSSLMode,
	)
}

func validate(config *Config) error {
	if !slices.Contains([]string{StorageMemory, StoragePostgres, StorageSQLite}, config.StorageDriver) {
		return fmt.Errorf("unknown STORAGE_DRIVER %q", config.StorageDriver)
	}
	if config.StorageDriver == StorageSQLite && config.SQLitePath == "" {
		return fmt.Errorf("SQLITE_PATH is required for the sqlite driver")
	}

	switch config.AuthMode {
	case AuthFirebase:
		if config.FirebaseProjectID == "" {
			return fmt.Errorf("FIREBASE_PROJECT_ID is required for firebase auth")
		}
	case AuthHMAC:
		if config.IsProduction() && config.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if config.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for hmac auth")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", config.AuthMode)
	}

	switch config.PushProvider {
	case ProviderLog:
	case ProviderFCM:
		if config.FCMCredentialsFile == "" {
			return fmt.Errorf("FCM_CREDENTIALS_FILE is required for the fcm push provider")
		}
	default:
		return fmt.Errorf("unknown PUSH_PROVIDER %q", config.PushProvider)
	}

	switch config.EmailProvider {
	case ProviderLog:
	case ProviderSMTP:
		if config.SMTPHost == "" || config.EmailFrom == "" {
			return fmt.Errorf("SMTP_HOST and EMAIL_FROM are required for the smtp email provider")
		}
	case ProviderResend:
		if config.ResendAPIKey == "" || config.EmailFrom == "" {
			return fmt.Errorf("RESEND_API_KEY and EMAIL_FROM are required for the resend email provider")
		}
	default:
		return fmt.Errorf("unknown EMAIL_PROVIDER %q", config.EmailProvider)
	}

	if config.NotifyTimeout <= 0 {
		return fmt.Errorf("NOTIFY_TIMEOUT must be positive")
	}
	if config.NotifyMaxConcurrency <= 0 {
		return fmt.Errorf("NOTIFY_MAX_CONCURRENCY must be positive")
	}
	if config.ReminderCooldown < 0 {
		return fmt.Errorf("REMINDER_COOLDOWN must not be negative")
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
