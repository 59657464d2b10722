package main

import (
	"fmt"
	"os"

	"github.com/GoPolymarket/vesu-deployer/internal/config"
	"github.com/GoPolymarket/vesu-deployer/internal/poolconfig"
	"github.com/GoPolymarket/vesu-deployer/internal/service"
	"github.com/spf13/cobra"
)

// inspector 打印解析后的池参数, no node needed.
func main() {
	var network string

	cmd := &cobra.Command{
		Use:           "inspector [pool]",
		Short:         "Print the resolved create_pool params of a configured pool",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if network == "" {
				network = cfg.Network
			}
			netCfg, ok := cfg.Networks[network]
			if !ok {
				return fmt.Errorf("invalid network %q", network)
			}

			poolCfg, err := poolconfig.Load(network, netCfg.ConfigPath, service.DeploymentPath(cfg, netCfg), netCfg.PoolName)
			if err != nil {
				return err
			}
			name := netCfg.PoolName
			if len(args) == 1 {
				name = args[0]
			}
			if name == "" {
				name = poolconfig.DefaultPoolName
			}
			pool, ok := poolCfg.Pools[name]
			if !ok {
				return fmt.Errorf("pool %q is not configured for %s", name, network)
			}

			fmt.Printf("Network: %s\n", network)
			fmt.Printf("Protocol: poolFactory=%s oracle=%s pool=%s\n",
				poolCfg.Protocol.PoolFactory, poolCfg.Protocol.Oracle, poolCfg.Protocol.Pool)
			return service.PrintParams(os.Stdout, &pool.Params)
		},
	}
	cmd.Flags().StringVarP(&network, "network", "n", "", "network to inspect (defaults to NETWORK)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
