// Package config loads xszc configuration from TOML files and environment
// variables, with precedence env > project file > user file > defaults.
package config

// Config represents the full xszc configuration
type Config struct {
	Chain   ChainConfig   `mapstructure:"chain"`
	Relayer RelayerConfig `mapstructure:"relayer"`
	Server  ServerConfig  `mapstructure:"server"`
	Canvas  CanvasConfig  `mapstructure:"canvas"`
}

// ChainConfig configures the connection to the pixel contract
type ChainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`          // JSON-RPC endpoint
	ChainID         int64  `mapstructure:"chain_id"`         // EIP-712 domain chain id
	ContractAddress string `mapstructure:"contract_address"` // verifying contract
}

// RelayerConfig configures the fee-paying relayer account.
// The private key is env-only (XSZC_RELAYER_PRIVATE_KEY); it is never read
// from or written to a config file.
type RelayerConfig struct {
	PrivateKey string `mapstructure:"private_key"`
}

// ServerConfig configures the relay HTTP server
type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RelayRatePerMin int      `mapstructure:"relay_rate_per_min"` // per-IP relay submissions per minute
}

// CanvasConfig configures client-side canvas behaviour for the CLI tools
type CanvasConfig struct {
	RelayURL string `mapstructure:"relay_url"` // relay endpoint used by `xszc place`
}

// Default values. The chain defaults match a local Anvil node with the
// contract at its first deterministic deployment address.
const (
	DefaultRPCURL          = "http://127.0.0.1:8545"
	DefaultChainID         = 31337
	DefaultContractAddress = "0x5FbDB2315678afecb367f032d93F642f64180aa3"
	DefaultServerPort      = 3000
	DefaultRelayRatePerMin = 6
	DefaultRelayURL        = "http://localhost:3000/api/relay-signature"
)
