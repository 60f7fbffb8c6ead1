package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/permission"
	"github.com/alephium-go/walletconnect/types"
)

func newChainsCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "chains [identifier...]",
		Short: "Reduce chain identifiers into the permitted scope they negotiate",
		Long:  "Parses the given chain identifiers (e.g. alephium:4/0 alephium:4/-1), reduces them into the permitted groups per network, and prints the scope a session proposal would carry. With no arguments, uses the --network and --group flags.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChains(cmd, v, args)
		},
	}
}

func runChains(cmd *cobra.Command, v *viper.Viper, args []string) error {
	out := cmd.OutOrStdout()

	var pairs []types.ChainID
	if len(args) == 0 {
		group, err := groupFromFlag(v.GetInt32("group"))
		if err != nil {
			return err
		}
		pairs = []types.ChainID{{Network: types.NetworkID(v.GetUint32("network")), Group: group}}
	} else {
		decoded, err := codec.DecodeChains(args)
		if err != nil {
			return err
		}
		pairs = decoded
	}

	table := permission.Reduce(pairs)
	for _, chain := range table.Chains() {
		fmt.Fprintln(out, chain)
	}
	return nil
}
