// Package config loads the service configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Testnet deployment used when no override is configured.
const (
	DefaultNetwork        = "testnet"
	DefaultRpcUrl         = "https://fullnode.testnet.sui.io:443"
	DefaultEventPackageID = "0x3743b6e4b471ec0c878c3e9a243e3c97392ed0824402dd27f6084fd2ae558bc1"
	DefaultTokenPackageID = "0x2d1bd20b3021e396cdac5a92e7ab060bcc602dd828f10ec85ba9d6abf59b0e32"
	DefaultTokenVaultID   = "0x30d735d8842c57c8a420cb79b89eec761ef6acca9129a33cacc7ba3be48cdafa"
	DefaultTokenPriceID   = "0xfb5be84fd5fd97a929487f1d5b39bfaf5a231964cf6c50b3d634aadf187b3eb1"
	DefaultTokenStateID   = "0xd6de053b64a02ce43b07bd492c10dc8629d633f2fdc5ddf886b0986b26be9044"
	DefaultEventModule    = "event"
	DefaultTokenModule    = "life_token"
	DefaultTokenStruct    = "RUN_TOKEN"
	DefaultHTTPAddr       = ":8080"
)

// Config holds the service configuration.
type Config struct {
	Chain       *types.ChainConfig
	HTTPAddr    string
	DatabaseURL string
	LogLevel    string
	LogFormat   string
}

// Load reads the configuration from the environment, falling back to the testnet deployment.
//
// Returns:
// - *Config: the configuration.
// - error: an error if a numeric variable is malformed or the deployment is incomplete.
func Load() (*Config, error) {
	rate, err := getEnvAsUint64("TOKEN_RATE", types.DefaultTokenRate)
	if err != nil {
		return nil, err
	}
	fee, err := getEnvAsUint64("EVENT_FEE", types.DefaultCreationFee)
	if err != nil {
		return nil, err
	}
	gasBudget, err := getEnvAsUint64("SUI_GAS_BUDGET", 0)
	if err != nil {
		return nil, err
	}

	network := getEnv("SUI_NETWORK", DefaultNetwork)
	deployment := &types.Deployment{
		EventPackageID: getEnv("EVENT_PACKAGE_ID", DefaultEventPackageID),
		TokenPackageID: getEnv("TOKEN_PACKAGE_ID", DefaultTokenPackageID),
		EventModule:    getEnv("EVENT_MODULE", DefaultEventModule),
		TokenModule:    getEnv("TOKEN_MODULE", DefaultTokenModule),
		TokenStruct:    getEnv("TOKEN_STRUCT", DefaultTokenStruct),
		TokenVaultID:   getEnv("TOKEN_VAULT_ID", DefaultTokenVaultID),
		TokenPriceID:   getEnv("TOKEN_PRICE_ID", DefaultTokenPriceID),
		TokenStateID:   getEnv("TOKEN_STATE_ID", DefaultTokenStateID),
		TokenRate:      rate,
		PriceRateField: getEnv("TOKEN_PRICE_FIELD", types.DefaultPriceRateField),
		CreationFee:    fee,
	}
	if err := deployment.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Chain: &types.ChainConfig{
			Name:       "Sui " + network,
			ChainType:  types.SUI,
			Network:    network,
			RpcUrl:     getEnv("SUI_RPC_URL", DefaultRpcUrl),
			PrivateKey: os.Getenv("SUI_PRIVATE_KEY"),
			GasBudget:  gasBudget,
			Deployment: deployment,
		},
		HTTPAddr:    getEnv("HTTP_ADDR", DefaultHTTPAddr),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
	}, nil
}

// NewLogger builds the logger described by the configuration.
func (c *Config) NewLogger() (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, errors.Wrap(err, "invalid LOG_LEVEL")
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsUint64(key string, defaultVal uint64) (uint64, error) {
	valStr := strings.TrimSpace(os.Getenv(key))
	if valStr == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseUint(valStr, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", key)
	}
	return val, nil
}
