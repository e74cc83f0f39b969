package config

import (
	"testing"

	"github.com/ClipFinance/quest-lib/common/types"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SUI_NETWORK", "SUI_RPC_URL", "SUI_PRIVATE_KEY", "SUI_GAS_BUDGET", "EVENT_PACKAGE_ID",
		"TOKEN_RATE", "EVENT_FEE", "HTTP_ADDR", "DATABASE_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DefaultNetwork, cfg.Chain.Network)
	require.Equal(t, types.SUI, cfg.Chain.ChainType)
	require.Equal(t, DefaultRpcUrl, cfg.Chain.RpcUrl)
	require.Empty(t, cfg.Chain.PrivateKey)
	require.Zero(t, cfg.Chain.GasBudget)
	require.Equal(t, DefaultEventPackageID, cfg.Chain.Deployment.EventPackageID)
	require.Equal(t, types.DefaultTokenRate, cfg.Chain.Deployment.TokenRate)
	require.Equal(t, types.DefaultCreationFee, cfg.Chain.Deployment.CreationFee)
	require.Equal(t, types.DefaultPriceRateField, cfg.Chain.Deployment.PriceRateField)
	require.Equal(t, DefaultHTTPAddr, cfg.HTTPAddr)
	require.Empty(t, cfg.DatabaseURL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SUI_NETWORK", "devnet")
	t.Setenv("SUI_RPC_URL", "http://localhost:9000")
	t.Setenv("SUI_GAS_BUDGET", "50000000")
	t.Setenv("TOKEN_RATE", "250")
	t.Setenv("EVENT_FEE", "1")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "devnet", cfg.Chain.Network)
	require.Equal(t, "Sui devnet", cfg.Chain.Name)
	require.Equal(t, "http://localhost:9000", cfg.Chain.RpcUrl)
	require.Equal(t, uint64(50_000_000), cfg.Chain.GasBudget)
	require.Equal(t, uint64(250), cfg.Chain.Deployment.TokenRate)
	require.Equal(t, uint64(1), cfg.Chain.Deployment.CreationFee)
	require.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("TOKEN_RATE", "lots")
	_, err := Load()
	require.ErrorContains(t, err, "TOKEN_RATE")

	t.Setenv("TOKEN_RATE", "0")
	_, err = Load()
	require.ErrorContains(t, err, "token rate")
}

func TestNewLogger(t *testing.T) {
	cfg := &Config{LogLevel: "debug", LogFormat: "JSON"}
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
	require.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg.LogLevel = "loud"
	_, err = cfg.NewLogger()
	require.Error(t, err)
}
