// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Platform    PlatformConfig
	Payment     PaymentConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey      string
	AccessTokenTTL int // in hours
}

// PlatformConfig holds the ledger's reserved accounts and seed values.
// FeeBps is only the value seeded on first start; the live rate is a
// platform setting read at settlement time.
type PlatformConfig struct {
	FeeBps          int64
	FeeAccount      uuid.UUID
	EscrowAccount   uuid.UUID
	AdminKeyHash    string // bcrypt hash of the admin capability key
	EventFeedLimit  int
	MaxQueryResults int
}

type PaymentConfig struct {
	StripeSecretKey string
	MinimumDeposit  int64
	MinimumPayout   int64
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	feeAccount, err := uuid.Parse(getEnv("PLATFORM_FEE_ACCOUNT", "00000000-0000-0000-0000-00000000fee5"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_ACCOUNT: %w", err)
	}
	escrowAccount, err := uuid.Parse(getEnv("PLATFORM_ESCROW_ACCOUNT", "00000000-0000-0000-0000-0000000e5c60"))
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_ESCROW_ACCOUNT: %w", err)
	}

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "assetledger"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL: getEnvAsInt("JWT_ACCESS_TTL", 24),
		},
		Platform: PlatformConfig{
			FeeBps:          int64(getEnvAsInt("PLATFORM_FEE_BPS", 250)),
			FeeAccount:      feeAccount,
			EscrowAccount:   escrowAccount,
			AdminKeyHash:    getEnv("ADMIN_KEY_HASH", ""),
			EventFeedLimit:  getEnvAsInt("EVENT_FEED_LIMIT", 500),
			MaxQueryResults: getEnvAsInt("MAX_QUERY_RESULTS", 100),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			MinimumDeposit:  int64(getEnvAsInt("MINIMUM_DEPOSIT", 100)),
			MinimumPayout:   int64(getEnvAsInt("MINIMUM_PAYOUT", 1000)),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Platform.AdminKeyHash == "" && c.Environment == "production" {
		return fmt.Errorf("ADMIN_KEY_HASH is required in production")
	}

	if c.Platform.FeeBps < 0 || c.Platform.FeeBps > 1000 {
		return fmt.Errorf("PLATFORM_FEE_BPS must be between 0 and 1000")
	}

	if c.Platform.FeeAccount == c.Platform.EscrowAccount {
		return fmt.Errorf("fee and escrow accounts must be distinct")
	}

	return nil
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
