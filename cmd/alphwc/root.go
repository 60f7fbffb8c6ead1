package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Execute runs the alphwc CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "alphwc",
		Short:         "Alephium WalletConnect session tool",
		Long:          "alphwc exercises the Alephium WalletConnect provider: it negotiates sessions, inspects the permitted network/group scope, and runs signing round-trips against a built-in development wallet.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.Uint32("network", 4, "network id to negotiate (0=mainnet, 1=testnet, 4=devnet)")
	flags.Int32("group", -1, "shard group to scope the session to, -1 for all groups")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.Duration("timeout", 0, "transport round-trip timeout, 0 for the default")

	v := viper.New()
	v.SetEnvPrefix("ALPHWC")
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	rootCmd.AddCommand(
		newVersionCmd(),
		newDemoCmd(v),
		newChainsCmd(v),
	)
	return rootCmd
}
