package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoPolymarket/vesu-deployer/internal/config"
	"github.com/GoPolymarket/vesu-deployer/internal/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	network string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "vesu-deployer <command>",
	Short:         "Deploy and operate Vesu lending pools on Starknet",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.Log.Level)
		if network == "" {
			network = cfg.Network
		}
		if network == "" {
			return fmt.Errorf("no network: set NETWORK or pass --network")
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&network, "network", "n", "", "target network (must match NETWORK)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "deploy", Title: "Deployment:"},
		&cobra.Group{ID: "ops", Title: "Pool operations:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)
	rootCmd.AddCommand(deployCmd, poolCmd, oracleCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
