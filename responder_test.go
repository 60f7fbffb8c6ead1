package walletconnect

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/keys"
	"github.com/alephium-go/walletconnect/signer"
	"github.com/alephium-go/walletconnect/transport"
	"github.com/alephium-go/walletconnect/types"
)

func newLocalSigner(t *testing.T, group uint32) (*signer.Local, types.Account) {
	t.Helper()
	pair, err := keys.GeneratePairForGroup(group)
	require.NoError(t, err)
	local, err := signer.NewLocal(pair)
	require.NoError(t, err)
	account, err := local.GetSelectedAccount()
	require.NoError(t, err)
	return local, account
}

func TestResponderRejectsIncompatibleScope(t *testing.T) {
	dappEnd, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { dappEnd.Close() })
	t.Cleanup(func() { walletEnd.Close() })

	local, account := newLocalSigner(t, 1)
	responder := NewResponder(walletEnd, local)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go responder.Run(ctx)

	// The proposal only asks for a group the wallet's account is not in.
	otherGroup := (account.Group + 1) % types.GroupCount
	pairing, err := dappEnd.Connect(ctx, types.ProposalNamespace{
		Chains: []string{fmt.Sprintf("alephium:4/%d", otherGroup)},
	}, types.SessionMetadata{})
	require.NoError(t, err)

	result := <-pairing.Approval
	require.Error(t, result.Err)
	assert.True(t, types.HasCode(result.Err, types.ErrProposalRejected))
}

func TestResponderRejectsEmptyChainList(t *testing.T) {
	dappEnd, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { dappEnd.Close() })
	t.Cleanup(func() { walletEnd.Close() })

	local, _ := newLocalSigner(t, 0)
	responder := NewResponder(walletEnd, local)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go responder.Run(ctx)

	pairing, err := dappEnd.Connect(ctx, types.ProposalNamespace{}, types.SessionMetadata{})
	require.NoError(t, err)

	result := <-pairing.Approval
	require.Error(t, result.Err)
	assert.True(t, types.HasCode(result.Err, types.ErrProposalRejected))
}

func TestResponderApprovalEncodesUnderPermittedChain(t *testing.T) {
	dappEnd, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { dappEnd.Close() })
	t.Cleanup(func() { walletEnd.Close() })

	local, account := newLocalSigner(t, 2)
	responder := NewResponder(walletEnd, local)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go responder.Run(ctx)

	pairing, err := dappEnd.Connect(ctx, types.ProposalNamespace{
		Chains: []string{"alephium:4/2"},
	}, types.SessionMetadata{})
	require.NoError(t, err)

	result := <-pairing.Approval
	require.NoError(t, result.Err)
	require.Len(t, result.Session.Namespace.Accounts, 1)
	assert.Equal(t, "alephium:4/2:"+account.PublicKey, result.Session.Namespace.Accounts[0])

	decoded, chainID, err := codec.DecodeAccount(result.Session.Namespace.Accounts[0], keys.Deriver{})
	require.NoError(t, err)
	assert.Equal(t, account.Address, decoded.Address)
	assert.Equal(t, uint32(2), chainID.Group.Index())
}

func TestResponderPublishWithoutSession(t *testing.T) {
	_, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { walletEnd.Close() })

	local, account := newLocalSigner(t, 0)
	responder := NewResponder(walletEnd, local)

	err := responder.PublishAccounts(context.Background(), []types.Account{account})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrInvalidState))

	err = responder.NotifyNetworkChanged(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrInvalidState))

	// Disconnecting without a session is harmless.
	assert.NoError(t, responder.Disconnect(context.Background(), "nothing to do"))
}

type staticAPIHandler struct {
	lastPath string
}

func (h *staticAPIHandler) Do(_ context.Context, params *types.NodeAPIParams) (json.RawMessage, error) {
	h.lastPath = params.Path
	return json.RawMessage(`{"height":1024}`), nil
}

func TestResponderAPIPassthrough(t *testing.T) {
	dappEnd, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { walletEnd.Close() })

	local, _ := newLocalSigner(t, 0)
	api := &staticAPIHandler{}
	responder := NewResponder(walletEnd, local, WithAPIHandler(api))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go responder.Run(ctx)

	provider, err := New(types.SessionConfig{NetworkID: 4, AddressGroup: types.GroupAny}, dappEnd)
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	require.NoError(t, provider.Connect(context.Background()))

	result, err := provider.RequestNodeAPI(context.Background(), &types.NodeAPIParams{
		Path:   "/blockflow/chain-info",
		Method: "GET",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"height":1024}`, string(result))
	assert.Equal(t, "/blockflow/chain-info", api.lastPath)
}

func TestResponderAPIPassthroughDisabled(t *testing.T) {
	dappEnd, walletEnd := transport.NewMemoryPair()
	t.Cleanup(func() { walletEnd.Close() })

	local, _ := newLocalSigner(t, 0)
	responder := NewResponder(walletEnd, local)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go responder.Run(ctx)

	provider, err := New(types.SessionConfig{NetworkID: 4, AddressGroup: types.GroupAny}, dappEnd)
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	require.NoError(t, provider.Connect(context.Background()))

	_, err = provider.RequestNodeAPI(context.Background(), &types.NodeAPIParams{
		Path:   "/infos/node",
		Method: "GET",
	})
	require.Error(t, err)
	assert.True(t, types.HasCode(err, types.ErrRequestFailed))
}
