// Package chain consumes the pixel contract through narrow read/write
// capabilities and builds the EIP-712 payloads that authorize gasless
// placements. The contract itself is external; this package treats it as a
// fixed ABI and the single source of truth for grid state.
package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Reader is the contract-read capability. Implementations must be safe for
// concurrent use.
type Reader interface {
	// Max returns the grid half-width; the full side length is 2*max+1.
	Max(ctx context.Context) (int64, error)
	// AllPixels returns the full pixel matrix, rows from y=max down to
	// y=-max, columns from x=-max up to x=max.
	AllPixels(ctx context.Context) ([][]uint8, error)
	// Pixel returns the color index at (x, y).
	Pixel(ctx context.Context, x, y int64) (uint8, error)
	// PixelAuthor returns the address that last set (x, y).
	PixelAuthor(ctx context.Context, x, y int64) (common.Address, error)
	// CanSetPixel reports whether the address is outside its cooldown.
	CanSetPixel(ctx context.Context, author common.Address) (bool, error)
	// RemainingCooldown returns the seconds until the address may place
	// again; zero when it may place now.
	RemainingCooldown(ctx context.Context, author common.Address) (uint64, error)
	// ShouldExpandGrid reports whether the expansion threshold is met.
	ShouldExpandGrid(ctx context.Context) (bool, error)
	// LastPixelTime returns the unix timestamp of the address's last
	// placement.
	LastPixelTime(ctx context.Context, author common.Address) (uint64, error)
	// CooldownPeriod returns the contract's cooldown interval in seconds.
	CooldownPeriod(ctx context.Context) (uint64, error)
	// PixelCount returns how many pixels the address has placed.
	PixelCount(ctx context.Context, author common.Address) (uint64, error)
}

// Receipt carries the settlement facts the relay reports back to clients.
type Receipt struct {
	TxHash      common.Hash
	BlockNumber uint64
}

// Writer is the contract-write capability held by the relayer only: it
// submits the user-signed placement with the relayer's fee-paying key and
// blocks until the transaction is mined.
type Writer interface {
	SetPixelWithSignature(ctx context.Context, author common.Address, x, y int64, colorIndex uint8, deadline *big.Int, v uint8, r, s [32]byte) (*Receipt, error)
}
