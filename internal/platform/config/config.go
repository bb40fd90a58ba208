package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/SscSPs/club_ledger/internal/core/domain"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers understood by the repository layer.
const (
	DriverPostgres = "postgres"
	DriverBolt     = "bolt"
	DriverRedis    = "redis"
)

// Config holds application configuration.
type Config struct {
	Port          string
	IsProduction  bool
	StorageDriver string

	DatabaseURL    string
	EnableDBCheck  bool
	MigrationsPath string

	BoltPath string

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	Ledger LedgerConfig

	RateLimit          string
	CORSAllowedOrigins []string
}

// LedgerConfig tunes the balance applier.
type LedgerConfig struct {
	MaxRetries            uint64
	RetryInitialInterval  time.Duration
	RetryMaxInterval      time.Duration
	BankAllowNegative     bool
	CashAllowNegative     bool
	CategoryAllowNegative bool
}

// BalancePolicy builds the per-kind negative balance policy.
func (l LedgerConfig) BalancePolicy() domain.BalancePolicy {
	return domain.BalancePolicy{AllowNegative: map[domain.AccountKind]bool{
		domain.AccountKindBank:     l.BankAllowNegative,
		domain.AccountKindCash:     l.CashAllowNegative,
		domain.AccountKindCategory: l.CategoryAllowNegative,
	}}
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("STORAGE_DRIVER", DriverBolt)
	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("BOLT_PATH", "data/club_ledger.db")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_KEY_PREFIX", "club:")
	v.SetDefault("LEDGER_MAX_RETRIES", 5)
	v.SetDefault("LEDGER_RETRY_INITIAL_INTERVAL", "50ms")
	v.SetDefault("LEDGER_RETRY_MAX_INTERVAL", "1s")
	v.SetDefault("BANK_ALLOW_NEGATIVE", false)
	v.SetDefault("CASH_ALLOW_NEGATIVE", false)
	v.SetDefault("CATEGORY_ALLOW_NEGATIVE", true)
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		StorageDriver:  strings.ToLower(strings.TrimSpace(v.GetString("STORAGE_DRIVER"))),
		DatabaseURL:    v.GetString("PGSQL_URL"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		BoltPath:       v.GetString("BOLT_PATH"),
		RedisAddr:      v.GetString("REDIS_ADDR"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisDB:        v.GetInt("REDIS_DB"),
		RedisKeyPrefix: v.GetString("REDIS_KEY_PREFIX"),
		RateLimit:      v.GetString("RATE_LIMIT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}

	switch cfg.StorageDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL must be set when STORAGE_DRIVER is %s", DriverPostgres)
		}
	case DriverBolt:
		if cfg.BoltPath == "" {
			return nil, fmt.Errorf("BOLT_PATH must be set when STORAGE_DRIVER is %s", DriverBolt)
		}
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("REDIS_ADDR must be set when STORAGE_DRIVER is %s", DriverRedis)
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q (want %s, %s or %s)", cfg.StorageDriver, DriverPostgres, DriverBolt, DriverRedis)
	}

	maxRetries := v.GetInt("LEDGER_MAX_RETRIES")
	if maxRetries < 0 {
		log.Printf("Warning: Invalid value for LEDGER_MAX_RETRIES (%d). Defaulting to 5.\n", maxRetries)
		maxRetries = 5
	}
	cfg.Ledger.MaxRetries = uint64(maxRetries)
	cfg.Ledger.RetryInitialInterval = durationOrDefault(v, "LEDGER_RETRY_INITIAL_INTERVAL", 50*time.Millisecond)
	cfg.Ledger.RetryMaxInterval = durationOrDefault(v, "LEDGER_RETRY_MAX_INTERVAL", time.Second)
	if cfg.Ledger.RetryMaxInterval < cfg.Ledger.RetryInitialInterval {
		log.Printf("Warning: LEDGER_RETRY_MAX_INTERVAL (%s) is below the initial interval. Using %s.\n",
			cfg.Ledger.RetryMaxInterval, cfg.Ledger.RetryInitialInterval)
		cfg.Ledger.RetryMaxInterval = cfg.Ledger.RetryInitialInterval
	}
	cfg.Ledger.BankAllowNegative = v.GetBool("BANK_ALLOW_NEGATIVE")
	cfg.Ledger.CashAllowNegative = v.GetBool("CASH_ALLOW_NEGATIVE")
	cfg.Ledger.CategoryAllowNegative = v.GetBool("CATEGORY_ALLOW_NEGATIVE")

	for _, origin := range strings.Split(v.GetString("CORS_ALLOWED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, origin)
		}
	}

	return cfg, nil
}

func durationOrDefault(v *viper.Viper, key string, def time.Duration) time.Duration {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}
