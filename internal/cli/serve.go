package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/workstake-network/workstake/internal/daemon"
)

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to listen on (overrides config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveEphemeral, "ephemeral", false, "Run without persistence")
	rootCmd.AddCommand(serveCmd)
}

var (
	serveHost      string
	servePort      int
	serveEphemeral bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Workstake API server",
	Long:  `Start the marketplace HTTP API at localhost:9370.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := daemon.LoadConfig()
	if err != nil {
		return err
	}

	// Override config from flags
	if serveHost != "" {
		cfg.API.Host = serveHost
	}
	if servePort > 0 {
		cfg.API.Port = servePort
	}
	if serveEphemeral {
		cfg.Storage.Ephemeral = true
	}

	d, err := daemon.NewWithConfig(cfg, cliVersion)
	if err != nil {
		return err
	}

	return d.Serve(context.Background())
}
