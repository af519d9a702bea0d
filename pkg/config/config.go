package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EngineAccounts names the ledger accounts the engines post against. These
// reference rows in the accounts table; the server refuses postings against
// unknown accounts, so misconfiguration surfaces on first use.
type EngineAccounts struct {
	Receivable     string
	Income         string
	Cash           string
	CustomerCredit string
	Payable        string
	Expense        string
	VendorCredit   string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL     string
	Port            string
	IsProduction    bool
	RedisURL        string
	KafkaBrokers    []string
	LockWaitTimeout time.Duration
	RateLimit       string
	Accounts        EngineAccounts
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("LOCK_WAIT_TIMEOUT", "5s")
	viper.SetDefault("RATE_LIMIT", "100-S")

	viper.SetDefault("AR_ACCOUNT_ID", "")
	viper.SetDefault("INCOME_ACCOUNT_ID", "")
	viper.SetDefault("CASH_ACCOUNT_ID", "")
	viper.SetDefault("CUSTOMER_CREDIT_ACCOUNT_ID", "")
	viper.SetDefault("AP_ACCOUNT_ID", "")
	viper.SetDefault("EXPENSE_ACCOUNT_ID", "")
	viper.SetDefault("VENDOR_CREDIT_ACCOUNT_ID", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set; falling back to the in-memory store.")
	}

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.RateLimit = viper.GetString("RATE_LIMIT")

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	lockWaitStr := viper.GetString("LOCK_WAIT_TIMEOUT")
	lockWait, err := time.ParseDuration(lockWaitStr)
	if err != nil {
		lockWait = 5 * time.Second
		log.Printf("Warning: Invalid value for LOCK_WAIT_TIMEOUT ('%s'). Defaulting to %s.\n", lockWaitStr, lockWait)
	}
	cfg.LockWaitTimeout = lockWait

	cfg.Accounts = EngineAccounts{
		Receivable:     viper.GetString("AR_ACCOUNT_ID"),
		Income:         viper.GetString("INCOME_ACCOUNT_ID"),
		Cash:           viper.GetString("CASH_ACCOUNT_ID"),
		CustomerCredit: viper.GetString("CUSTOMER_CREDIT_ACCOUNT_ID"),
		Payable:        viper.GetString("AP_ACCOUNT_ID"),
		Expense:        viper.GetString("EXPENSE_ACCOUNT_ID"),
		VendorCredit:   viper.GetString("VENDOR_CREDIT_ACCOUNT_ID"),
	}

	return cfg, nil
}
