package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	ProviderRazorpay = "razorpay"
	ProviderStripe   = "stripe"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    string

	MongoDBURI      string
	MongoDBPassword string
	MongoDBDatabase string

	LedgerRPCURL    string
	ContractAddress string
	LedgerChainID   int64 // 0 means ask the node
	KeystoreDir     string
	SessionTTL      time.Duration
	SessionSecret   string

	PaymentProvider   string
	RazorpayKeyID     string
	RazorpayKeySecret string
	StripeSecretKey   string
	PaymentCurrency   string

	RabbitMQURL    string
	BrokerExchange string

	CORSOrigins []string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8080"),
		Environment:       getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:          getEnvWithDefault("LOG_LEVEL", "info"),
		MongoDBURI:        os.Getenv("MONGODB_URI"),
		MongoDBPassword:   os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:   getEnvWithDefault("MONGODB_DATABASE", "festora"),
		LedgerRPCURL:      os.Getenv("LEDGER_RPC_URL"),
		ContractAddress:   os.Getenv("CONTRACT_ADDRESS"),
		KeystoreDir:       getEnvWithDefault("KEYSTORE_DIR", "./keystore"),
		SessionSecret:     os.Getenv("SESSION_SECRET"),
		PaymentProvider:   strings.ToLower(getEnvWithDefault("PAYMENT_PROVIDER", ProviderRazorpay)),
		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		StripeSecretKey:   os.Getenv("STRIPE_SECRET_KEY"),
		PaymentCurrency:   getEnvWithDefault("PAYMENT_CURRENCY", "INR"),
		RabbitMQURL:       os.Getenv("RABBITMQ_URL"),
		BrokerExchange:    getEnvWithDefault("BROKER_EXCHANGE", "festora"),
		CORSOrigins:       splitList(getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")),
	}

	ttl, err := time.ParseDuration(getEnvWithDefault("WALLET_SESSION_TTL", "1h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("WALLET_SESSION_TTL must be a positive duration")
	}
	cfg.SessionTTL = ttl

	if raw := os.Getenv("LEDGER_CHAIN_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("LEDGER_CHAIN_ID must be a positive integer")
		}
		cfg.LedgerChainID = id
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if strings.Contains(cfg.MongoDBURI, "<password>") && cfg.MongoDBPassword == "" {
		return nil, fmt.Errorf("MONGODB_PASSWORD is required")
	}
	if cfg.LedgerRPCURL == "" {
		return nil, fmt.Errorf("LEDGER_RPC_URL is required")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return nil, fmt.Errorf("CONTRACT_ADDRESS must be a hex address")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET is required")
	}

	switch cfg.PaymentProvider {
	case ProviderRazorpay:
		if cfg.RazorpayKeyID == "" || cfg.RazorpayKeySecret == "" {
			return nil, fmt.Errorf("RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET are required")
		}
	case ProviderStripe:
		if cfg.StripeSecretKey == "" {
			return nil, fmt.Errorf("STRIPE_SECRET_KEY is required")
		}
	default:
		return nil, fmt.Errorf("unsupported PAYMENT_PROVIDER: %s (expected razorpay or stripe)", cfg.PaymentProvider)
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// MongoURI returns the connection string with the password placeholder filled in.
func (c *Config) MongoURI() string {
	return strings.Replace(c.MongoDBURI, "<password>", c.MongoDBPassword, 1)
}
