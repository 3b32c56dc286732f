package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/w3hc/xszc/cmd/xszc/commands"
	"github.com/w3hc/xszc/logger"
)

var rootCmd = &cobra.Command{
	Use:   "xszc",
	Short: "xszc - collaborative on-chain pixel canvas relay and tools",
	Long: `xszc - collaborative on-chain pixel canvas.

Users sign pixel placements with EIP-712; the relay submits them on-chain
and pays gas. This binary runs the relay server and provides tooling to
place pixels and inspect the grid.

Available commands:
  server  - Start the relay and grid API server
  place   - Sign a pixel placement locally and submit it via a relay
  grid    - Inspect the on-chain grid (show, stats)
  version - Show version information

Examples:
  xszc server                    # Start the relay server
  xszc place --x 3 --y -2 --color 2
  xszc grid show                 # Render the current grid
  xszc grid stats --address 0xf39F...2266`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		if err := logger.Initialize(jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json-logs", false, "Emit structured JSON logs instead of console output")

	rootCmd.AddCommand(commands.ServerCmd)
	rootCmd.AddCommand(commands.PlaceCmd)
	rootCmd.AddCommand(commands.GridCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
