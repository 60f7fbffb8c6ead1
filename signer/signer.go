// Package signer defines the wallet signing collaborator consumed by the
// responder, plus a deterministic local implementation backed by a real
// secp256k1 key for demos and end-to-end tests.
package signer

import (
	"context"

	"github.com/alephium-go/walletconnect/types"
)

// Signer executes signing operations for its selected account. Transaction
// construction and submission live behind this interface.
type Signer interface {
	SignTransferTx(ctx context.Context, params *types.SignTransferTxParams) (*types.SignTransferTxResult, error)
	SignDeployContractTx(ctx context.Context, params *types.SignDeployContractTxParams) (*types.SignDeployContractTxResult, error)
	SignExecuteScriptTx(ctx context.Context, params *types.SignExecuteScriptTxParams) (*types.SignExecuteScriptTxResult, error)
	SignUnsignedTx(ctx context.Context, params *types.SignUnsignedTxParams) (*types.SignUnsignedTxResult, error)
	SignMessage(ctx context.Context, params *types.SignMessageParams) (*types.SignMessageResult, error)
	GetSelectedAccount() (types.Account, error)
}
