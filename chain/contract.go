package chain

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/w3hc/xszc/errors"
)

// pixelABI covers only the contract surface this system consumes.
const pixelABI = `[
  {"type":"function","name":"max","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"int256"}]},
  {"type":"function","name":"getAllPixels","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8[][]"}]},
  {"type":"function","name":"getPixel","stateMutability":"view","inputs":[{"name":"x","type":"int256"},{"name":"y","type":"int256"}],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"getPixelAuthor","stateMutability":"view","inputs":[{"name":"x","type":"int256"},{"name":"y","type":"int256"}],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"canSetPixel","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"getRemainingCooldown","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"shouldExpandGrid","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"lastPixelTime","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"COOLDOWN_PERIOD","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getPixelCount","stateMutability":"view","inputs":[{"name":"author","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"setPixelWithSignature","stateMutability":"nonpayable","inputs":[{"name":"author","type":"address"},{"name":"x","type":"int256"},{"name":"y","type":"int256"},{"name":"colorIndex","type":"uint8"},{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]}
]`

var parsedABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(pixelABI))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// Contract implements Reader (and, when a relayer key is supplied, Writer)
// over a live JSON-RPC connection.
type Contract struct {
	address common.Address
	bound   *bind.BoundContract
	backend *ethclient.Client

	relayer     *bind.TransactOpts
	relayerAddr common.Address
}

var _ Reader = (*Contract)(nil)
var _ Writer = (*Contract)(nil)

// Dial connects to the JSON-RPC endpoint and binds the pixel contract for
// reads. Call EnableRelayer to add the write capability.
func Dial(ctx context.Context, rpcURL string, address common.Address) (*Contract, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "dialing %s", rpcURL)
	}
	return &Contract{
		address: address,
		bound:   bind.NewBoundContract(address, parsedABI, client, client, client),
		backend: client,
	}, nil
}

// EnableRelayer equips the contract with the fee-paying relayer key used
// for setPixelWithSignature submissions.
func (c *Contract) EnableRelayer(privateKeyHex string, chainID int64) error {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return errors.Wrap(errors.Wrap(errors.ErrConfiguration, err.Error()), "parsing relayer key")
	}
	opts, err := bind.NewKeyedTransactorWithChainID(key, big.NewInt(chainID))
	if err != nil {
		return errors.Wrap(err, "building relayer transactor")
	}
	c.relayer = opts
	c.relayerAddr = crypto.PubkeyToAddress(key.PublicKey)
	return nil
}

// RelayerAddress returns the relayer account, zero when not configured.
func (c *Contract) RelayerAddress() common.Address {
	return c.relayerAddr
}

// CanRelay reports whether the write capability is available.
func (c *Contract) CanRelay() bool {
	return c.relayer != nil
}

// Close releases the underlying RPC connection.
func (c *Contract) Close() {
	c.backend.Close()
}

func (c *Contract) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	opts := &bind.CallOpts{Context: ctx}
	if err := c.bound.Call(opts, &out, method, args...); err != nil {
		return nil, errors.Wrapf(err, "calling %s", method)
	}
	return out, nil
}

// Max implements Reader.
func (c *Contract) Max(ctx context.Context) (int64, error) {
	out, err := c.call(ctx, "max")
	if err != nil {
		return 0, err
	}
	max := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return max.Int64(), nil
}

// AllPixels implements Reader.
func (c *Contract) AllPixels(ctx context.Context) ([][]uint8, error) {
	out, err := c.call(ctx, "getAllPixels")
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([][]uint8)).(*[][]uint8), nil
}

// Pixel implements Reader.
func (c *Contract) Pixel(ctx context.Context, x, y int64) (uint8, error) {
	out, err := c.call(ctx, "getPixel", big.NewInt(x), big.NewInt(y))
	if err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// PixelAuthor implements Reader.
func (c *Contract) PixelAuthor(ctx context.Context, x, y int64) (common.Address, error) {
	out, err := c.call(ctx, "getPixelAuthor", big.NewInt(x), big.NewInt(y))
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

// CanSetPixel implements Reader.
func (c *Contract) CanSetPixel(ctx context.Context, author common.Address) (bool, error) {
	out, err := c.call(ctx, "canSetPixel", author)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// RemainingCooldown implements Reader.
func (c *Contract) RemainingCooldown(ctx context.Context, author common.Address) (uint64, error) {
	return c.callUint64(ctx, "getRemainingCooldown", author)
}

// ShouldExpandGrid implements Reader.
func (c *Contract) ShouldExpandGrid(ctx context.Context) (bool, error) {
	out, err := c.call(ctx, "shouldExpandGrid")
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// LastPixelTime implements Reader.
func (c *Contract) LastPixelTime(ctx context.Context, author common.Address) (uint64, error) {
	return c.callUint64(ctx, "lastPixelTime", author)
}

// CooldownPeriod implements Reader.
func (c *Contract) CooldownPeriod(ctx context.Context) (uint64, error) {
	return c.callUint64(ctx, "COOLDOWN_PERIOD")
}

// PixelCount implements Reader.
func (c *Contract) PixelCount(ctx context.Context, author common.Address) (uint64, error) {
	return c.callUint64(ctx, "getPixelCount", author)
}

func (c *Contract) callUint64(ctx context.Context, method string, args ...interface{}) (uint64, error) {
	out, err := c.call(ctx, method, args...)
	if err != nil {
		return 0, err
	}
	val := *abi.ConvertType(out[0], new(*big.Int)).(**big.Int)
	return val.Uint64(), nil
}

// SetPixelWithSignature implements Writer. The relayer pays gas; the user's
// signature is the authorization evidence the contract checks against the
// claimed author. Blocks until the transaction is mined.
func (c *Contract) SetPixelWithSignature(ctx context.Context, author common.Address, x, y int64, colorIndex uint8, deadline *big.Int, v uint8, r, s [32]byte) (*Receipt, error) {
	if c.relayer == nil {
		return nil, errors.Wrap(errors.ErrConfiguration, "no relayer key")
	}

	opts := *c.relayer
	opts.Context = ctx
	tx, err := c.bound.Transact(&opts, "setPixelWithSignature",
		author, big.NewInt(x), big.NewInt(y), colorIndex, deadline, v, r, s)
	if err != nil {
		return nil, errors.Wrap(err, "submitting setPixelWithSignature")
	}

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "waiting for tx %s", tx.Hash().Hex())
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, errors.Newf("transaction %s reverted", tx.Hash().Hex())
	}

	return &Receipt{
		TxHash:      tx.Hash(),
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}
