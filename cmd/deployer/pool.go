package main

import (
	"encoding/json"
	"fmt"

	"github.com/GoPolymarket/vesu-deployer/internal/service"
	"github.com/spf13/cobra"
)

var (
	devnetEnv   bool
	printParams bool
)

var poolCmd = &cobra.Command{
	Use:     "pool",
	Short:   "Create and inspect lending pools",
	GroupID: "ops",
}

var poolCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create the configured pool and register its assets with the oracle",
	Long: `Create the configured pool and register its assets with the oracle.

With --devnet-env a fresh mock environment and protocol are deployed first and
the pool is created against the mock assets.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withDeployer(ctx, true, func(d *service.Deployer) error {
			var (
				protocol *service.Protocol
				err      error
			)
			if devnetEnv {
				protocol, err = d.DeployEnvAndProtocol(ctx)
			} else {
				protocol, err = d.LoadProtocol(ctx)
			}
			if err != nil {
				return err
			}

			pool, txHash, err := protocol.CreatePool(ctx, args[0], service.CreatePoolOptions{
				DevnetEnv:   devnetEnv,
				PrintParams: printParams,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(d.Out(), "Created pool %s (tx %s)\n", pool.Params.Name, txHash)

			if err := protocol.AddAssetsToOracle(ctx, pool.Params.OracleParams); err != nil {
				return err
			}
			protocol.LogAddresses("Deployed:")
			return nil
		})
	},
}

var poolRatesCmd = &cobra.Command{
	Use:   "rates <pool> <asset>",
	Short: "Print the current borrow and supply APR of an asset",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withDeployer(ctx, false, func(d *service.Deployer) error {
			protocol, err := d.LoadProtocol(ctx)
			if err != nil {
				return err
			}
			rates, err := protocol.Rates(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(rates, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(d.Out(), string(data))
			return nil
		})
	},
}

var oracleCmd = &cobra.Command{
	Use:     "oracle",
	Short:   "Manage the protocol oracle",
	GroupID: "ops",
}

var oracleAddAssetsCmd = &cobra.Command{
	Use:   "add-assets <pool>",
	Short: "Register the Pragma feeds of a configured pool with the oracle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withDeployer(ctx, false, func(d *service.Deployer) error {
			protocol, err := d.LoadProtocol(ctx)
			if err != nil {
				return err
			}
			pool, err := protocol.LoadPool(args[0])
			if err != nil {
				return err
			}
			return protocol.AddAssetsToOracle(ctx, pool.Params.OracleParams)
		})
	},
}

func init() {
	poolCreateCmd.Flags().BoolVar(&devnetEnv, "devnet-env", false, "deploy mocks and protocol first and use the mock assets")
	poolCreateCmd.Flags().BoolVar(&printParams, "print-params", false, "print the final pool params (with --devnet-env)")
	poolCmd.AddCommand(poolCreateCmd, poolRatesCmd)
	oracleCmd.AddCommand(oracleAddAssetsCmd)
}
