package main

import (
	"fmt"
	"strings"

	"github.com/GoPolymarket/vesu-deployer/internal/service"
	"github.com/spf13/cobra"
)

var createGenesisPool bool

var deployCmd = &cobra.Command{
	Use:     "deploy",
	Short:   "Deploy protocol contracts",
	GroupID: "deploy",
}

var deployEnvAndProtocolCmd = &cobra.Command{
	Use:   "env-and-protocol",
	Short: "Deploy mock assets, mock Pragma, the pool factory and oracle (devnet)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeployer(cmd.Context(), true, func(d *service.Deployer) error {
			protocol, err := d.DeployEnvAndProtocol(cmd.Context())
			if err != nil {
				return err
			}
			if !createGenesisPool {
				return nil
			}
			first, err := protocol.LoadPool("")
			if err != nil {
				return err
			}
			pool, _, err := protocol.CreatePool(cmd.Context(), first.Params.Name, service.CreatePoolOptions{DevnetEnv: true})
			if err != nil {
				return err
			}
			if err := protocol.AddAssetsToOracle(cmd.Context(), pool.Params.OracleParams); err != nil {
				return err
			}
			protocol.LogAddresses("Deployed:")
			return nil
		})
	},
}

var deployProtocolCmd = &cobra.Command{
	Use:   "protocol",
	Short: "Deploy the pool factory and oracle against the configured Pragma contracts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeployer(cmd.Context(), true, func(d *service.Deployer) error {
			_, err := d.DeployProtocol(cmd.Context())
			return err
		})
	},
}

var deployEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "Deploy mock assets and mock Pragma contracts only",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeployer(cmd.Context(), true, func(d *service.Deployer) error {
			env, txHash, err := d.DeployEnv(cmd.Context())
			if err != nil {
				return err
			}
			out := d.Out()
			fmt.Fprintf(out, "Deployed env (tx %s):\n", txHash)
			for _, a := range env.Assets {
				fmt.Fprintf(out, "  %s: %s\n", a.Name, a)
			}
			fmt.Fprintf(out, "  pragma.oracle: %s\n  pragma.summary_stats: %s\n", env.Pragma.Oracle, env.Pragma.SummaryStats)
			return nil
		})
	},
}

var deployPeripheryCmd = &cobra.Command{
	Use:   "periphery <kind>",
	Short: "Deploy a periphery contract (" + strings.Join(service.PeripheryKinds(), ", ") + ")",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeployer(cmd.Context(), false, func(d *service.Deployer) error {
			_, err := d.DeployPeriphery(cmd.Context(), args[0])
			return err
		})
	},
}

func init() {
	deployEnvAndProtocolCmd.Flags().BoolVar(&createGenesisPool, "create-pool", false, "also create the configured pool against the mocks and register its oracle feeds")
	deployCmd.AddCommand(deployEnvAndProtocolCmd, deployProtocolCmd, deployEnvCmd, deployPeripheryCmd)
}
