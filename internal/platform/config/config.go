package config

import (
	"os"
	"strconv"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean. The ledger (RPC endpoint + contract address) is the source of
// truth for all credential state; everything else here is plumbing.
type Config struct {
	Addr string

	// Ledger connection.
	RPCURL          string
	ContractAddress string
	ChainID         int64

	// Wallet keystore. Passphrase, when set, allows silent session restore.
	KeystoreDir        string
	KeystorePassphrase string

	// Document store (Pinata-compatible pinning endpoint).
	PinEndpoint     string
	PinJWT          string
	IPFSGatewayHost string

	// Base URL embedded in shareable verification links.
	VerifyBaseURL string

	// Optional infrastructure. Empty disables the feature.
	RedisURL    string
	PostgresDSN string

	// API session tokens for the issuer/admin HTTP surface.
	APITokenKey string
	APITokenTTL time.Duration

	// University display-name cache retention.
	NameCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	return Config{
		Addr:               envOr("CREDCHAIN_ADDR", ":8080"),
		RPCURL:             envOr("CREDCHAIN_RPC_URL", "http://127.0.0.1:8545"),
		ContractAddress:    os.Getenv("CREDCHAIN_CONTRACT_ADDRESS"),
		ChainID:            envInt64("CREDCHAIN_CHAIN_ID", 31337),
		KeystoreDir:        envOr("CREDCHAIN_KEYSTORE_DIR", "keystore"),
		KeystorePassphrase: os.Getenv("CREDCHAIN_KEYSTORE_PASSPHRASE"),
		PinEndpoint:        envOr("CREDCHAIN_PIN_ENDPOINT", "https://api.pinata.cloud/pinning/pinFileToIPFS"),
		PinJWT:             os.Getenv("CREDCHAIN_PIN_JWT"),
		IPFSGatewayHost:    envOr("CREDCHAIN_IPFS_GATEWAY", "ipfs.io"),
		VerifyBaseURL:      envOr("CREDCHAIN_VERIFY_BASE_URL", "http://localhost:5173"),
		RedisURL:           os.Getenv("CREDCHAIN_REDIS_URL"),
		PostgresDSN:        os.Getenv("CREDCHAIN_POSTGRES_DSN"),
		APITokenKey:        envOr("CREDCHAIN_API_TOKEN_KEY", "dev-secret-key-change-in-production"),
		APITokenTTL:        envDuration("CREDCHAIN_API_TOKEN_TTL", time.Hour),
		NameCacheTTL:       envDuration("CREDCHAIN_NAME_CACHE_TTL", 5*time.Minute),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
