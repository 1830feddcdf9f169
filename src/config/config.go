package config

import (
	"log"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	Env         string
	LogLevel    string
	DatabaseURL string
	Aggregator  AggregatorConfig
	Ethereum    EthereumConfig
	Approval    ApprovalConfig
}

type AggregatorConfig struct {
	BaseURL            string
	Source             string
	Timeout            time.Duration
	DefaultGasEstimate uint64
}

type EthereumConfig struct {
	RPCURL         string
	ChainID        *big.Int
	SignerKey      string
	NativeSymbol   string
	NativeDecimals int
}

type ApprovalConfig struct {
	MaxAttempts  int
	PollInterval time.Duration
	StaleAfter   time.Duration
}

// LoadFromEnv reads configuration from environment variables with fallback defaults.
// It also loads `.env` if present (for local development).
func LoadFromEnv() *Config {
	// Load .env if exists, ignore error if no file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required")
	}
	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		log.Fatal("[FATAL] RPC_URL is required")
	}

	var chainID *big.Int
	if s := os.Getenv("CHAIN_ID"); s != "" {
		id, ok := new(big.Int).SetString(s, 10)
		if !ok || id.Sign() <= 0 {
			log.Fatalf("[FATAL] Invalid CHAIN_ID: %q", s)
		}
		chainID = id
	}

	nativeDecimals := getInt("NATIVE_DECIMALS", 18)
	if nativeDecimals < 0 || nativeDecimals > 36 {
		log.Fatalf("[FATAL] NATIVE_DECIMALS out of range: %d", nativeDecimals)
	}

	return &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		Env:         getEnv("ENV", "dev"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: databaseURL,
		Aggregator: AggregatorConfig{
			BaseURL:            getEnv("AGGREGATOR_BASE_URL", "https://api.kuru.io"),
			Source:             getEnv("AGGREGATOR_SOURCE", "megaswap"),
			Timeout:            getDuration("AGGREGATOR_TIMEOUT", 10*time.Second),
			DefaultGasEstimate: uint64(getInt("DEFAULT_GAS_ESTIMATE", 200000)),
		},
		Ethereum: EthereumConfig{
			RPCURL:         rpcURL,
			ChainID:        chainID,
			SignerKey:      os.Getenv("SIGNER_PRIVATE_KEY"),
			NativeSymbol:   getEnv("NATIVE_SYMBOL", "MON"),
			NativeDecimals: nativeDecimals,
		},
		Approval: ApprovalConfig{
			MaxAttempts:  getInt("APPROVAL_MAX_ATTEMPTS", 30),
			PollInterval: getDuration("APPROVAL_POLL_INTERVAL", 2*time.Second),
			StaleAfter:   getDuration("APPROVAL_STALE_AFTER", 30*time.Minute),
		},
	}
}

// helper to get env with default fallback
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return fallback
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		log.Fatalf("[FATAL] Invalid %s: %q", key, s)
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	s, ok := os.LookupEnv(key)
	if !ok || s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Fatalf("[FATAL] Invalid %s duration: %v", key, err)
	}
	return d
}
