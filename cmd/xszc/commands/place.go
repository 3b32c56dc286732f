package commands

import (
	"context"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/config"
	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/relay"
	"github.com/w3hc/xszc/wallet"
)

// PlaceCmd signs a placement locally and submits it through a relay
var PlaceCmd = &cobra.Command{
	Use:   "place",
	Short: "Sign a pixel placement and submit it via the relay",
	Long: `Sign a pixel placement with a local key and submit it to a relay
endpoint. The relay pays gas; the command blocks until the transaction is
confirmed on-chain.

The signing key is read from XSZC_USER_PRIVATE_KEY. Colors:
  0 empty, 1 purple, 2 blue, 3 white`,
	RunE: runPlace,
}

var (
	placeX        int64
	placeY        int64
	placeColor    uint8
	placeRelayURL string
)

func init() {
	PlaceCmd.Flags().Int64Var(&placeX, "x", 0, "Cell x coordinate")
	PlaceCmd.Flags().Int64Var(&placeY, "y", 0, "Cell y coordinate")
	PlaceCmd.Flags().Uint8Var(&placeColor, "color", 0, "Color index (0-3)")
	PlaceCmd.Flags().StringVar(&placeRelayURL, "relay", "", "Relay endpoint URL (overrides config)")
	PlaceCmd.MarkFlagRequired("x")
	PlaceCmd.MarkFlagRequired("y")
	PlaceCmd.MarkFlagRequired("color")
}

func runPlace(cmd *cobra.Command, args []string) error {
	if placeColor > 3 {
		return errors.NewValidationError("color index must be 0-3, got %d", placeColor)
	}

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	relayURL := cfg.Canvas.RelayURL
	if placeRelayURL != "" {
		relayURL = placeRelayURL
	}

	keyHex := os.Getenv("XSZC_USER_PRIVATE_KEY")
	if keyHex == "" {
		return errors.Wrap(errors.ErrConfiguration, "XSZC_USER_PRIVATE_KEY not set")
	}
	signer, err := wallet.NewLocal(keyHex)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	author, err := signer.Address(ctx, wallet.ModeStandard, wallet.MainTag)
	if err != nil {
		return err
	}

	deadline := chain.PlacementDeadline(time.Now())
	td := chain.SetPixelTypedData(cfg.Chain.ChainID,
		common.HexToAddress(cfg.Chain.ContractAddress),
		author, placeX, placeY, placeColor, deadline)
	sig, err := signer.SignTypedData(ctx, td)
	if err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Submitting placement via relay...")
	resp, err := relay.NewClient(relayURL).Submit(ctx, relay.PlacementRequest{
		Signature:  hexutil.Encode(sig),
		Author:     author.Hex(),
		X:          placeX,
		Y:          placeY,
		ColorIndex: placeColor,
		Deadline:   deadline.String(),
	})
	if err != nil {
		spinner.Fail("Placement failed")
		return err
	}
	spinner.Success("Placement confirmed")

	pterm.Success.Printf("Pixel (%d, %d) set to color %d\n", placeX, placeY, placeColor)
	pterm.Info.Printf("Transaction: %s (block %d)\n", resp.TransactionHash, resp.BlockNumber)
	return nil
}

// withTimeout wraps a context for one-shot CLI chain reads.
func withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
