// Package wallet defines the key/signing capability the placement flow
// consumes. The production signer is an external passkey-based SDK that may
// require out-of-band user interaction with unbounded latency; this package
// depends only on the two operations the flow actually uses and provides a
// local secp256k1 implementation for the CLI and tests.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/w3hc/xszc/errors"
)

// DerivationMode selects which derived account the signer exposes.
type DerivationMode string

const (
	// ModeStandard is the default account derivation.
	ModeStandard DerivationMode = "STANDARD"
)

// MainTag is the default derivation tag.
const MainTag = "MAIN"

// Signer is the narrow signing capability. Implementations may block on
// user interaction (biometric prompt); callers must treat a context
// cancellation or an ErrSigning-wrapped failure as "user declined" and
// leave all local state untouched.
type Signer interface {
	// Address resolves the acting account.
	Address(ctx context.Context, mode DerivationMode, tag string) (common.Address, error)
	// SignTypedData signs an EIP-712 payload and returns the 65-byte
	// signature.
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)
}

// Local is a Signer backed by an in-process secp256k1 key. Used by the
// `xszc place` CLI and by tests; it never prompts.
type Local struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

var _ Signer = (*Local)(nil)

// NewLocal builds a local signer from a hex-encoded private key.
func NewLocal(privateKeyHex string) (*Local, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrSigning, err.Error()), "parsing private key")
	}
	return &Local{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// NewLocalFromKey wraps an existing key, mainly for tests.
func NewLocalFromKey(key *ecdsa.PrivateKey) *Local {
	return &Local{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// Address implements Signer. The local signer has a single account; mode
// and tag are accepted for interface compatibility.
func (l *Local) Address(ctx context.Context, mode DerivationMode, tag string) (common.Address, error) {
	return l.addr, nil
}

// SignTypedData implements Signer.
func (l *Local) SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrSigning, err.Error()), "signing cancelled")
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrSigning, err.Error()), "hashing typed data")
	}
	sig, err := crypto.Sign(hash, l.key)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrSigning, err.Error()), "signing digest")
	}
	return sig, nil
}
