package config

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/w3hc/xszc/errors"
)

// Validate checks configuration invariants that would otherwise surface as
// confusing chain errors much later.
func (c *Config) Validate() error {
	if c.Chain.RPCURL == "" {
		return errors.New("chain.rpc_url must not be empty")
	}
	if c.Chain.ChainID <= 0 {
		return errors.Newf("chain.chain_id must be positive, got %d", c.Chain.ChainID)
	}
	if !common.IsHexAddress(c.Chain.ContractAddress) {
		return errors.Newf("chain.contract_address %q is not a valid address", c.Chain.ContractAddress)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.Newf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.RelayRatePerMin < 0 {
		return errors.Newf("server.relay_rate_per_min must not be negative, got %d", c.Server.RelayRatePerMin)
	}
	return nil
}

// HasRelayerKey reports whether a relayer private key is configured.
// The relay handler treats a missing key as its own failure class, returned
// before any chain interaction is attempted.
func (c *Config) HasRelayerKey() bool {
	return c.Relayer.PrivateKey != ""
}
