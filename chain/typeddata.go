package chain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/w3hc/xszc/errors"
)

// EIP-712 domain constants. These must match the contract's domain
// separator exactly or signature recovery fails on-chain.
const (
	DomainName    = "XiangsuZhongchuang"
	DomainVersion = "1"
)

// PlacementValidity is how far in the future a placement deadline is set.
// Deliberately enormous: the signature is created and consumed in the same
// relay call, never stored for later redemption, and a tight window would
// only manufacture clock-skew failures. The flip side is that a leaked
// signature stays replayable until the contract's own checks reject it.
const PlacementValidity = 10 * 365 * 24 * time.Hour

// PlacementDeadline returns the deadline for a placement signed at now.
func PlacementDeadline(now time.Time) *big.Int {
	return big.NewInt(now.Add(PlacementValidity).Unix())
}

// SetPixelTypes is the EIP-712 type set for a pixel placement.
var SetPixelTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"SetPixel": {
		{Name: "author", Type: "address"},
		{Name: "x", Type: "int256"},
		{Name: "y", Type: "int256"},
		{Name: "colorIndex", Type: "uint8"},
		{Name: "deadline", Type: "uint256"},
	},
}

// SetPixelTypedData builds the canonical typed payload a user signs to
// authorize one pixel placement.
func SetPixelTypedData(chainID int64, contract common.Address, author common.Address, x, y int64, colorIndex uint8, deadline *big.Int) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       SetPixelTypes,
		PrimaryType: "SetPixel",
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           math.NewHexOrDecimal256(chainID),
			VerifyingContract: contract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"author":     author.Hex(),
			"x":          (*math.HexOrDecimal256)(big.NewInt(x)),
			"y":          (*math.HexOrDecimal256)(big.NewInt(y)),
			"colorIndex": (*math.HexOrDecimal256)(new(big.Int).SetUint64(uint64(colorIndex))),
			"deadline":   (*math.HexOrDecimal256)(deadline),
		},
	}
}

// HashTypedData returns the EIP-712 digest that gets signed.
func HashTypedData(td apitypes.TypedData) ([]byte, error) {
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, errors.Wrap(err, "hashing typed data")
	}
	return hash, nil
}

// SplitSignature decomposes a 65-byte signature into its canonical
// (v, r, s) components, normalizing v to {27, 28} as the contract expects.
func SplitSignature(sig []byte) (v uint8, r, s [32]byte, err error) {
	if len(sig) != 65 {
		return 0, r, s, errors.NewValidationError("signature must be 65 bytes, got %d", len(sig))
	}
	copy(r[:], sig[:32])
	copy(s[:], sig[32:64])
	v = sig[64]
	if v < 27 {
		v += 27
	}
	return v, r, s, nil
}
