// Package chaintest provides an in-memory pixel contract implementing the
// chain Reader and Writer capabilities. It enforces the same rules the
// on-chain contract does (signature recovery, deadline, bounds, cooldown)
// so handler and flow tests exercise realistic accept/reject paths without
// a node.
package chaintest

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/errors"
)

// DefaultCooldown mirrors the contract's per-address placement cooldown.
const DefaultCooldown = 60 * time.Second

// Grid is the fake contract. The zero value is not usable; use NewGrid.
type Grid struct {
	mu            sync.Mutex
	max           int64
	pixels        [][]uint8
	authors       map[string]common.Address
	lastPlacement map[common.Address]time.Time
	counts        map[common.Address]uint64
	cooldown      time.Duration
	shouldExpand  bool
	blockNumber   uint64

	// failWith, when set, makes the next write fail with that error.
	failWith error

	now func() time.Time
}

var _ chain.Reader = (*Grid)(nil)
var _ chain.Writer = (*Grid)(nil)

// NewGrid creates an empty fake grid with the given half-width.
func NewGrid(max int64) *Grid {
	g := &Grid{
		max:           max,
		authors:       make(map[string]common.Address),
		lastPlacement: make(map[common.Address]time.Time),
		counts:        make(map[common.Address]uint64),
		cooldown:      DefaultCooldown,
		blockNumber:   1,
		now:           time.Now,
	}
	g.pixels = emptyMatrix(max)
	return g
}

func emptyMatrix(max int64) [][]uint8 {
	side := int(2*max + 1)
	m := make([][]uint8, side)
	for i := range m {
		m[i] = make([]uint8, side)
	}
	return m
}

// SetNow overrides the clock, for cooldown tests.
func (g *Grid) SetNow(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// SetCooldown overrides the cooldown period.
func (g *Grid) SetCooldown(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cooldown = d
}

// SetShouldExpand sets the expansion-threshold flag returned to readers.
func (g *Grid) SetShouldExpand(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shouldExpand = v
}

// FailNextWrite makes the next SetPixelWithSignature fail with err, then
// clears the injection.
func (g *Grid) FailNextWrite(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

// Seed places a pixel directly, bypassing signature and cooldown checks.
func (g *Grid) Seed(x, y int64, colorIndex uint8, author common.Address) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pixels[g.max-y][x+g.max] = colorIndex
	g.authors[cellKey(x, y)] = author
}

func cellKey(x, y int64) string {
	return big.NewInt(x).String() + "," + big.NewInt(y).String()
}

// Max implements chain.Reader.
func (g *Grid) Max(ctx context.Context) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max, nil
}

// AllPixels implements chain.Reader.
func (g *Grid) AllPixels(ctx context.Context) ([][]uint8, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([][]uint8, len(g.pixels))
	for i, row := range g.pixels {
		out[i] = append([]uint8(nil), row...)
	}
	return out, nil
}

// Pixel implements chain.Reader.
func (g *Grid) Pixel(ctx context.Context, x, y int64) (uint8, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.onGrid(x, y) {
		return 0, errors.New("coordinates out of bounds")
	}
	return g.pixels[g.max-y][x+g.max], nil
}

// PixelAuthor implements chain.Reader.
func (g *Grid) PixelAuthor(ctx context.Context, x, y int64) (common.Address, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authors[cellKey(x, y)], nil
}

// CanSetPixel implements chain.Reader.
func (g *Grid) CanSetPixel(ctx context.Context, author common.Address) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining(author) == 0, nil
}

// RemainingCooldown implements chain.Reader.
func (g *Grid) RemainingCooldown(ctx context.Context, author common.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining(author), nil
}

func (g *Grid) remaining(author common.Address) uint64 {
	last, ok := g.lastPlacement[author]
	if !ok {
		return 0
	}
	elapsed := g.now().Sub(last)
	if elapsed >= g.cooldown {
		return 0
	}
	return uint64((g.cooldown - elapsed).Seconds())
}

// ShouldExpandGrid implements chain.Reader.
func (g *Grid) ShouldExpandGrid(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.shouldExpand, nil
}

// LastPixelTime implements chain.Reader.
func (g *Grid) LastPixelTime(ctx context.Context, author common.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	last, ok := g.lastPlacement[author]
	if !ok {
		return 0, nil
	}
	return uint64(last.Unix()), nil
}

// CooldownPeriod implements chain.Reader.
func (g *Grid) CooldownPeriod(ctx context.Context) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return uint64(g.cooldown.Seconds()), nil
}

// PixelCount implements chain.Reader.
func (g *Grid) PixelCount(ctx context.Context, author common.Address) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counts[author], nil
}

func (g *Grid) onGrid(x, y int64) bool {
	return x >= -g.max && x < g.max && y >= -g.max && y < g.max
}

// SetPixelWithSignature implements chain.Writer with the contract's
// checks: the (v, r, s) signature must recover to author over the
// canonical SetPixel digest, the deadline must be in the future, the cell
// must be in bounds and the author's cooldown elapsed.
func (g *Grid) SetPixelWithSignature(ctx context.Context, author common.Address, x, y int64, colorIndex uint8, deadline *big.Int, v uint8, r, s [32]byte) (*chain.Receipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		err := g.failWith
		g.failWith = nil
		return nil, err
	}

	if deadline.Cmp(big.NewInt(g.now().Unix())) <= 0 {
		return nil, errors.New("execution reverted: signature expired")
	}
	if !g.onGrid(x, y) {
		return nil, errors.New("execution reverted: coordinates out of bounds")
	}
	if colorIndex > 3 {
		return nil, errors.New("execution reverted: invalid color")
	}
	if g.remaining(author) > 0 {
		return nil, errors.New("execution reverted: cooldown active")
	}

	td := chain.SetPixelTypedData(ChainID, ContractAddress, author, x, y, colorIndex, deadline)
	digest, err := chain.HashTypedData(td)
	if err != nil {
		return nil, err
	}
	sig := make([]byte, 65)
	copy(sig[:32], r[:])
	copy(sig[32:64], s[:])
	sig[64] = v - 27
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return nil, errors.Wrap(err, "recovering signer")
	}
	if crypto.PubkeyToAddress(*pub) != author {
		return nil, errors.New("execution reverted: invalid signature")
	}

	g.pixels[g.max-y][x+g.max] = colorIndex
	g.authors[cellKey(x, y)] = author
	g.lastPlacement[author] = g.now()
	g.counts[author]++
	g.blockNumber++

	return &chain.Receipt{
		TxHash:      common.BytesToHash(crypto.Keccak256(sig)),
		BlockNumber: g.blockNumber,
	}, nil
}

// ChainID and ContractAddress pin the EIP-712 domain the fake verifies
// against; they match the local development chain defaults.
const ChainID = int64(31337)

// ContractAddress is the address the fake uses in its EIP-712 domain.
var ContractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
