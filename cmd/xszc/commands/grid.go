package commands

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/config"
	"github.com/w3hc/xszc/errors"
)

// GridCmd groups grid inspection subcommands
var GridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Inspect the on-chain grid",
}

var gridShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Render the current grid in the terminal",
	RunE:  runGridShow,
}

var gridStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cooldown and placement stats for an address",
	RunE:  runGridStats,
}

var statsAddress string

func init() {
	gridStatsCmd.Flags().StringVar(&statsAddress, "address", "", "Author address")
	gridStatsCmd.MarkFlagRequired("address")

	GridCmd.AddCommand(gridShowCmd)
	GridCmd.AddCommand(gridStatsCmd)
}

// palette mirrors the contract's color indices.
var palette = []pterm.RGB{
	{R: 0x33, G: 0x33, B: 0x33}, // empty, rendered dim so the grid is visible
	{R: 0x8c, G: 0x1c, B: 0x84}, // purple
	{R: 0x45, G: 0xa2, B: 0xf8}, // blue
	{R: 0xff, G: 0xff, B: 0xff}, // white
}

func dialReader(cmd *cobra.Command, cfg *config.Config) (*chain.Contract, error) {
	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()
	contract, err := chain.Dial(ctx, cfg.Chain.RPCURL, common.HexToAddress(cfg.Chain.ContractAddress))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to chain")
	}
	return contract, nil
}

func runGridShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	contract, err := dialReader(cmd, cfg)
	if err != nil {
		return err
	}
	defer contract.Close()

	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	max, err := contract.Max(ctx)
	if err != nil {
		return err
	}
	pixels, err := contract.AllPixels(ctx)
	if err != nil {
		return err
	}

	pterm.Info.Printf("Grid half-width %d (%d rows)\n", max, len(pixels))
	painted := 0
	for _, row := range pixels {
		line := ""
		for _, c := range row {
			idx := int(c)
			if idx >= len(palette) {
				idx = 0
			}
			if c != 0 {
				painted++
			}
			line += palette[idx].Sprint("██")
		}
		pterm.Println(line)
	}
	pterm.Info.Printf("%d painted cells\n", painted)
	return nil
}

func runGridStats(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(statsAddress) {
		return errors.NewValidationError("invalid address %q", statsAddress)
	}
	author := common.HexToAddress(statsAddress)

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	contract, err := dialReader(cmd, cfg)
	if err != nil {
		return err
	}
	defer contract.Close()

	ctx, cancel := withTimeout(cmd.Context())
	defer cancel()

	canSet, err := contract.CanSetPixel(ctx, author)
	if err != nil {
		return err
	}
	remaining, err := contract.RemainingCooldown(ctx, author)
	if err != nil {
		return err
	}
	lastTime, err := contract.LastPixelTime(ctx, author)
	if err != nil {
		return err
	}
	count, err := contract.PixelCount(ctx, author)
	if err != nil {
		return err
	}

	last := "never"
	if lastTime > 0 {
		last = time.Unix(int64(lastTime), 0).Format(time.RFC3339)
	}

	pterm.DefaultSection.Printf("Stats for %s\n", author.Hex())
	pterm.DefaultBulletList.WithItems([]pterm.BulletListItem{
		{Level: 0, Text: pterm.Sprintf("Pixels placed:   %d", count)},
		{Level: 0, Text: pterm.Sprintf("Can place now:   %t", canSet)},
		{Level: 0, Text: pterm.Sprintf("Cooldown left:   %ds", remaining)},
		{Level: 0, Text: pterm.Sprintf("Last placement:  %s", last)},
	}).Render()
	return nil
}
