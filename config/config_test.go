package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultRPCURL, cfg.Chain.RPCURL)
	assert.Equal(t, int64(DefaultChainID), cfg.Chain.ChainID)
	assert.Equal(t, DefaultContractAddress, cfg.Chain.ContractAddress)
	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.False(t, cfg.HasRelayerKey())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[chain]
rpc_url = "http://10.0.0.5:8545"
chain_id = 11155111
contract_address = "0x5FbDB2315678afecb367f032d93F642f64180aa3"

[server]
port = 8080
allowed_origins = ["https://pixels.example.org"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8545", cfg.Chain.RPCURL)
	assert.Equal(t, int64(11155111), cfg.Chain.ChainID)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"https://pixels.example.org"}, cfg.Server.AllowedOrigins)
	// Defaults still apply for sections the file omits.
	assert.Equal(t, DefaultRelayRatePerMin, cfg.Server.RelayRatePerMin)
}

func TestValidateRejectsBadContractAddress(t *testing.T) {
	cfg := &Config{
		Chain: ChainConfig{
			RPCURL:          DefaultRPCURL,
			ChainID:         DefaultChainID,
			ContractAddress: "not-an-address",
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contract_address")
}

func TestValidateRejectsBadChainID(t *testing.T) {
	cfg := &Config{
		Chain: ChainConfig{
			RPCURL:          DefaultRPCURL,
			ChainID:         0,
			ContractAddress: DefaultContractAddress,
		},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chain_id")
}

func TestRelayerKeyFromEnv(t *testing.T) {
	Reset()
	t.Cleanup(Reset)
	t.Setenv("XSZC_RELAYER_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.HasRelayerKey())
}
