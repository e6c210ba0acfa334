package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/database"
	"github.com/UdaySingh131105/Raffle-Lottery-SmartContract-VRF-V2-5/domain/entities"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// Raffle served by this process
	RaffleID int64

	// Construction parameters used by the deploy command
	EntranceFee                int64
	Interval                   time.Duration
	KeyHash                    string
	SubscriptionID             string
	CallbackGasLimit           uint32
	RequestConfirmations       uint16
	OwnerAddress               string
	CoordinatorAddress         string
	ResetTimestampOnAdminReset bool

	// Automation
	UpkeepPollInterval time.Duration

	// HTTP API
	APIListenAddr string

	// Randomness oracle
	OraclePrivateKey   string
	UseMockCoordinator bool

	// Discord announcements, disabled when DiscordToken is empty
	DiscordToken    string
	RaffleChannelID string

	// OpenTelemetry
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// RaffleConfig builds the construction parameters for a new raffle
func (c *Config) RaffleConfig() (entities.RaffleConfig, error) {
	subID, ok := new(big.Int).SetString(c.SubscriptionID, 10)
	if !ok {
		return entities.RaffleConfig{}, fmt.Errorf("RAFFLE_SUBSCRIPTION_ID %q is not a decimal integer", c.SubscriptionID)
	}
	if !common.IsHexAddress(c.OwnerAddress) {
		return entities.RaffleConfig{}, fmt.Errorf("RAFFLE_OWNER %q is not an address", c.OwnerAddress)
	}
	if !common.IsHexAddress(c.CoordinatorAddress) {
		return entities.RaffleConfig{}, fmt.Errorf("RAFFLE_COORDINATOR %q is not an address", c.CoordinatorAddress)
	}

	return entities.RaffleConfig{
		EntranceFee:                c.EntranceFee,
		Interval:                   c.Interval,
		KeyHash:                    common.HexToHash(c.KeyHash),
		SubscriptionID:             subID,
		CallbackGasLimit:           c.CallbackGasLimit,
		RequestConfirmations:       c.RequestConfirmations,
		Owner:                      common.HexToAddress(c.OwnerAddress),
		Coordinator:                common.HexToAddress(c.CoordinatorAddress),
		ResetTimestampOnAdminReset: c.ResetTimestampOnAdminReset,
	}, nil
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		RaffleID: 1,

		// Defaults mirror the local development deployment
		EntranceFee:          10_000_000_000_000_000, // 0.01 ether in wei
		Interval:             30 * time.Second,
		KeyHash:              getEnvWithDefault("RAFFLE_KEY_HASH", "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c"),
		SubscriptionID:       os.Getenv("RAFFLE_SUBSCRIPTION_ID"),
		CallbackGasLimit:     500000,
		RequestConfirmations: entities.DefaultRequestConfirmations,
		OwnerAddress:         os.Getenv("RAFFLE_OWNER"),
		CoordinatorAddress:   os.Getenv("RAFFLE_COORDINATOR"),

		UpkeepPollInterval: 5 * time.Second,

		APIListenAddr: getEnvWithDefault("API_LISTEN_ADDR", ":8080"),

		OraclePrivateKey: os.Getenv("ORACLE_PRIVATE_KEY"),

		DiscordToken:    os.Getenv("DISCORD_TOKEN"),
		RaffleChannelID: os.Getenv("RAFFLE_CHANNEL_ID"),

		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "raffle"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "none"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 60000,

		Environment: os.Getenv("ENVIRONMENT"),
	}

	var err error
	if config.RaffleID, err = getInt64("RAFFLE_ID", config.RaffleID); err != nil {
		return nil, err
	}
	if config.EntranceFee, err = getInt64("RAFFLE_ENTRANCE_FEE", config.EntranceFee); err != nil {
		return nil, err
	}
	if config.Interval, err = getDuration("RAFFLE_INTERVAL", config.Interval); err != nil {
		return nil, err
	}
	if config.UpkeepPollInterval, err = getDuration("UPKEEP_POLL_INTERVAL", config.UpkeepPollInterval); err != nil {
		return nil, err
	}
	if v := os.Getenv("RAFFLE_CALLBACK_GAS_LIMIT"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid RAFFLE_CALLBACK_GAS_LIMIT: %w", err)
		}
		config.CallbackGasLimit = uint32(parsed)
	}
	if v := os.Getenv("RAFFLE_REQUEST_CONFIRMATIONS"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("invalid RAFFLE_REQUEST_CONFIRMATIONS: %w", err)
		}
		config.RequestConfirmations = uint16(parsed)
	}
	config.ResetTimestampOnAdminReset = getBool("RAFFLE_RESET_TIMESTAMP_ON_ADMIN_RESET", false)
	config.UseMockCoordinator = getBool("USE_MOCK_COORDINATOR", false)
	config.OTelEnabled = getBool("OTEL_ENABLED", false)
	if v := os.Getenv("OTEL_EXPORT_INTERVAL_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			config.OTelExportIntervalMillis = parsed
		}
	}

	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
		if config.UpkeepPollInterval <= 0 {
			return nil, fmt.Errorf("UPKEEP_POLL_INTERVAL must be positive")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getDuration accepts Go duration strings ("30s") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		RaffleID:             1,
		EntranceFee:          10,
		Interval:             30 * time.Second,
		KeyHash:              "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c",
		SubscriptionID:       "1",
		CallbackGasLimit:     500000,
		RequestConfirmations: entities.DefaultRequestConfirmations,
		OwnerAddress:         "0x00000000000000000000000000000000000000a1",
		CoordinatorAddress:   "0x00000000000000000000000000000000000000c0",
		UpkeepPollInterval:   time.Second,
		APIListenAddr:        ":0",
		OTelExporterType:     "none",
	}
}
