package signer

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/alephium-go/walletconnect/keys"
	"github.com/alephium-go/walletconnect/types"
)

func newLocal(t *testing.T) (*Local, types.Account) {
	t.Helper()
	pair, err := keys.GeneratePair()
	require.NoError(t, err)
	local, err := NewLocal(pair)
	require.NoError(t, err)
	account, err := local.GetSelectedAccount()
	require.NoError(t, err)
	return local, account
}

func TestSignTransferTx(t *testing.T) {
	local, account := newLocal(t)
	destPair, err := keys.GeneratePairForGroup(3)
	require.NoError(t, err)
	dest, err := destPair.Account()
	require.NoError(t, err)

	result, err := local.SignTransferTx(context.Background(), &types.SignTransferTxParams{
		SignerAddress: account.Address,
		Destinations: []types.Destination{
			{Address: dest.Address, AttoAlphAmount: "1000000000000000000"},
		},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.TxID)
	assert.Equal(t, account.Group, result.FromGroup)
	assert.Equal(t, uint32(3), result.ToGroup)
	assert.Equal(t, uint64(20000), result.GasAmount)
	assert.Equal(t, "100000000000", result.GasPrice)

	digest, err := hex.DecodeString(result.TxID)
	require.NoError(t, err)
	ok, err := keys.VerifySignature(account.PublicKey, result.Signature, digest)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignTransferTxRejectsBadAmount(t *testing.T) {
	local, account := newLocal(t)

	_, err := local.SignTransferTx(context.Background(), &types.SignTransferTxParams{
		SignerAddress: account.Address,
		Destinations: []types.Destination{
			{Address: account.Address, AttoAlphAmount: "1.5"},
		},
	})
	assert.Error(t, err)
}

func TestSignDeployContractTx(t *testing.T) {
	local, account := newLocal(t)

	result, err := local.SignDeployContractTx(context.Background(), &types.SignDeployContractTxParams{
		SignerAddress: account.Address,
		Bytecode:      "00ff12",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ContractAddress)
	assert.NotEmpty(t, result.ContractID)
	assert.Equal(t, account.Group, result.FromGroup)
}

func TestSignUnsignedTx(t *testing.T) {
	local, account := newLocal(t)
	unsignedTx := hex.EncodeToString([]byte("raw tx bytes"))

	result, err := local.SignUnsignedTx(context.Background(), &types.SignUnsignedTxParams{
		SignerAddress: account.Address,
		UnsignedTx:    unsignedTx,
	})
	require.NoError(t, err)
	assert.Equal(t, unsignedTx, result.UnsignedTx)

	expected := blake2b.Sum256([]byte("raw tx bytes"))
	assert.Equal(t, hex.EncodeToString(expected[:]), result.TxID)

	_, err = local.SignUnsignedTx(context.Background(), &types.SignUnsignedTxParams{
		SignerAddress: account.Address,
		UnsignedTx:    "not-hex",
	})
	assert.Error(t, err)
}

func TestSignMessage(t *testing.T) {
	local, account := newLocal(t)

	result, err := local.SignMessage(context.Background(), &types.SignMessageParams{
		SignerAddress: account.Address,
		Message:       "hello alephium",
	})
	require.NoError(t, err)

	digest, err := keys.HashMessage("hello alephium", "alephium")
	require.NoError(t, err)
	ok, err := keys.VerifySignature(account.PublicKey, result.Signature, digest[:])
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = local.SignMessage(context.Background(), &types.SignMessageParams{
		SignerAddress: account.Address,
		Message:       "hello",
		MessageHasher: "md5",
	})
	assert.Error(t, err)
}
