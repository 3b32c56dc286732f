package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/w3hc/xszc/chain"
	"github.com/w3hc/xszc/config"
	"github.com/w3hc/xszc/errors"
	"github.com/w3hc/xszc/server"
	"github.com/w3hc/xszc/version"
)

// ServerCmd starts the relay and grid API server
var ServerCmd = &cobra.Command{
	Use:     "server",
	Aliases: []string{"serve"},
	Short:   "Start the relay and grid API server",
	Long: `Launch the relay server. It exposes the gasless placement endpoint,
the grid read API, and a WebSocket feed of confirmed pixels. The relayer
private key is read from XSZC_RELAYER_PRIVATE_KEY; without it the server
runs read-only and relay requests fail with a configuration error.`,
	RunE: runServer,
}

var (
	serverPort    int
	serverDevMode bool
)

func init() {
	ServerCmd.Flags().IntVar(&serverPort, "port", 0, "Listen port (overrides config)")
	ServerCmd.Flags().BoolVar(&serverDevMode, "dev", false, "Enable development mode (relaxed CORS)")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	contract, err := chain.Dial(ctx, cfg.Chain.RPCURL, common.HexToAddress(cfg.Chain.ContractAddress))
	if err != nil {
		return errors.Wrap(err, "connecting to chain")
	}
	defer contract.Close()

	var writer chain.Writer
	if cfg.HasRelayerKey() {
		if err := contract.EnableRelayer(cfg.Relayer.PrivateKey, cfg.Chain.ChainID); err != nil {
			return errors.Wrap(err, "enabling relayer")
		}
		writer = contract
	}

	printServerBanner(cfg, contract, writer != nil)

	srv := server.New(cfg, contract, writer)
	srv.SetDevMode(serverDevMode)

	if err := srv.Run(ctx); err != nil {
		return err
	}
	pterm.Success.Println("Server stopped cleanly")
	return nil
}

func printServerBanner(cfg *config.Config, contract *chain.Contract, relayEnabled bool) {
	info := version.Get()

	pterm.DefaultSection.Println("xszc relay server")
	items := []pterm.BulletListItem{
		{Level: 0, Text: "Version:  " + info.Version + " (" + info.Short() + ")"},
		{Level: 0, Text: "RPC:      " + cfg.Chain.RPCURL},
		{Level: 0, Text: "Contract: " + cfg.Chain.ContractAddress},
	}
	if relayEnabled {
		items = append(items, pterm.BulletListItem{
			Level: 0, Text: "Relayer:  " + contract.RelayerAddress().Hex(),
		})
	} else {
		items = append(items, pterm.BulletListItem{
			Level: 0, Text: "Relayer:  disabled (set XSZC_RELAYER_PRIVATE_KEY)",
		})
	}
	pterm.DefaultBulletList.WithItems(items).Render()

	if !relayEnabled {
		pterm.Warning.Println("Running read-only: relay submissions will be rejected")
	}
}
