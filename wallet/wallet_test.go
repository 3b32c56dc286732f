package wallet

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/errors"
)

// Anvil's first deterministic dev account.
const anvilKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
const anvilAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestNewLocalDerivesAddress(t *testing.T) {
	signer, err := NewLocal(anvilKey)
	require.NoError(t, err)

	addr, err := signer.Address(context.Background(), ModeStandard, MainTag)
	require.NoError(t, err)
	assert.Equal(t, anvilAddr, addr.Hex())
}

func TestNewLocalAcceptsHexPrefix(t *testing.T) {
	signer, err := NewLocal("0x" + anvilKey)
	require.NoError(t, err)

	addr, err := signer.Address(context.Background(), ModeStandard, MainTag)
	require.NoError(t, err)
	assert.Equal(t, anvilAddr, addr.Hex())
}

func TestNewLocalRejectsGarbage(t *testing.T) {
	_, err := NewLocal("not-a-key")
	require.Error(t, err)
	assert.True(t, errors.IsSigningError(err))
}

func TestSignTypedDataRecovers(t *testing.T) {
	signer, err := NewLocal(anvilKey)
	require.NoError(t, err)

	addr, err := signer.Address(context.Background(), ModeStandard, MainTag)
	require.NoError(t, err)

	td := chain.SetPixelTypedData(31337,
		crypto.CreateAddress(addr, 0), addr, 0, 0, 1, big.NewInt(2_000_000_000))
	sig, err := signer.SignTypedData(context.Background(), td)
	require.NoError(t, err)
	require.Len(t, sig, 65)

	hash, err := chain.HashTypedData(td)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, addr, crypto.PubkeyToAddress(*pub),
		"the contract recovers the author from exactly this digest")
}

func TestSignTypedDataHonorsCancellation(t *testing.T) {
	signer, err := NewLocal(anvilKey)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = signer.SignTypedData(ctx, chain.SetPixelTypedData(31337,
		signer.addr, signer.addr, 0, 0, 1, big.NewInt(2_000_000_000)))
	require.Error(t, err)
	assert.True(t, errors.IsSigningError(err))
}
