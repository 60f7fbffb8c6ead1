package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	walletconnect "github.com/alephium-go/walletconnect"
	"github.com/alephium-go/walletconnect/keys"
	"github.com/alephium-go/walletconnect/logger"
	"github.com/alephium-go/walletconnect/signer"
	"github.com/alephium-go/walletconnect/transport"
	"github.com/alephium-go/walletconnect/types"
)

func newDemoCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a full session round-trip against a built-in development wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd, v)
		},
	}
}

func runDemo(cmd *cobra.Command, v *viper.Viper) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	group, err := groupFromFlag(v.GetInt32("group"))
	if err != nil {
		return err
	}
	log := logger.NewZapLogger(v.GetString("log-level"))

	dappEnd, walletEnd := transport.NewMemoryPair()

	pair, err := keys.GeneratePair()
	if err != nil {
		return fmt.Errorf("generate wallet key: %w", err)
	}
	walletSigner, err := signer.NewLocal(pair)
	if err != nil {
		return err
	}
	responder := walletconnect.NewResponder(walletEnd, walletSigner, walletconnect.WithLogger(log))
	go responder.Run(ctx)

	provider, err := walletconnect.New(types.SessionConfig{
		NetworkID:    types.NetworkID(v.GetUint32("network")),
		AddressGroup: group,
		Metadata:     types.SessionMetadata{Name: "alphwc demo"},
		Timeout:      v.GetDuration("timeout"),
	}, dappEnd, walletconnect.WithLogger(log))
	if err != nil {
		return err
	}
	defer provider.Close()

	go func() {
		for ev := range provider.Events() {
			if uri, ok := ev.(types.DisplayURIEvent); ok {
				fmt.Fprintln(out, "pairing URI:", uri.URI)
			}
		}
	}()

	if err := provider.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	account, ok := provider.SelectedAccount()
	if !ok {
		return fmt.Errorf("no account selected after connect")
	}
	fmt.Fprintf(out, "connected, selected account %s (group %d)\n", account.Address, account.Group)

	signed, err := provider.SignMessage(ctx, &types.SignMessageParams{
		SignerAddress: account.Address,
		Message:       "alphwc demo message",
	})
	if err != nil {
		return fmt.Errorf("sign message: %w", err)
	}
	fmt.Fprintln(out, "message signature:", signed.Signature)

	return provider.Disconnect(ctx)
}

func groupFromFlag(v int32) (types.ChainGroup, error) {
	if v == types.AnyGroupWire {
		return types.GroupAny, nil
	}
	return types.NewChainGroup(v)
}
