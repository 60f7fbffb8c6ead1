package signer

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/alephium-go/walletconnect/keys"
	"github.com/alephium-go/walletconnect/types"
)

// Local is a development signer: it produces real secp256k1 signatures
// over deterministic digests of the request params, without building or
// submitting actual chain transactions. Suitable for demos and tests, not
// for funds.
type Local struct {
	pair    *keys.Pair
	account types.Account
}

// NewLocal wraps a key pair as a Signer.
func NewLocal(pair *keys.Pair) (*Local, error) {
	account, err := pair.Account()
	if err != nil {
		return nil, err
	}
	return &Local{pair: pair, account: account}, nil
}

func (l *Local) GetSelectedAccount() (types.Account, error) {
	return l.account, nil
}

func (l *Local) SignTransferTx(ctx context.Context, params *types.SignTransferTxParams) (*types.SignTransferTxResult, error) {
	for _, dest := range params.Destinations {
		if _, err := types.ParseAmount(dest.AttoAlphAmount); err != nil {
			return nil, fmt.Errorf("destination %s: %w", dest.Address, err)
		}
	}
	toGroup, err := keys.GroupOfAddress(params.Destinations[0].Address)
	if err != nil {
		return nil, fmt.Errorf("destination address: %w", err)
	}
	unsignedTx, digest, err := l.digest(params)
	if err != nil {
		return nil, err
	}
	signature, err := l.pair.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &types.SignTransferTxResult{
		TxID:       hex.EncodeToString(digest[:]),
		UnsignedTx: unsignedTx,
		Signature:  signature,
		GasAmount:  orDefaultGas(params.GasAmount),
		GasPrice:   orDefaultGasPrice(params.GasPrice),
		FromGroup:  l.account.Group,
		ToGroup:    toGroup,
	}, nil
}

func (l *Local) SignDeployContractTx(ctx context.Context, params *types.SignDeployContractTxParams) (*types.SignDeployContractTxResult, error) {
	if params.InitialAttoAlphAmount != "" {
		if _, err := types.ParseAmount(params.InitialAttoAlphAmount); err != nil {
			return nil, err
		}
	}
	unsignedTx, digest, err := l.digest(params)
	if err != nil {
		return nil, err
	}
	signature, err := l.pair.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &types.SignDeployContractTxResult{
		TxID:            hex.EncodeToString(digest[:]),
		UnsignedTx:      unsignedTx,
		Signature:       signature,
		ContractAddress: keys.ContractAddress(digest),
		ContractID:      hex.EncodeToString(digest[:]),
		GasAmount:       orDefaultGas(params.GasAmount),
		GasPrice:        orDefaultGasPrice(params.GasPrice),
		FromGroup:       l.account.Group,
		ToGroup:         l.account.Group,
	}, nil
}

func (l *Local) SignExecuteScriptTx(ctx context.Context, params *types.SignExecuteScriptTxParams) (*types.SignExecuteScriptTxResult, error) {
	if params.AttoAlphAmount != "" {
		if _, err := types.ParseAmount(params.AttoAlphAmount); err != nil {
			return nil, err
		}
	}
	unsignedTx, digest, err := l.digest(params)
	if err != nil {
		return nil, err
	}
	signature, err := l.pair.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &types.SignExecuteScriptTxResult{
		TxID:       hex.EncodeToString(digest[:]),
		UnsignedTx: unsignedTx,
		Signature:  signature,
		GasAmount:  orDefaultGas(params.GasAmount),
		GasPrice:   orDefaultGasPrice(params.GasPrice),
		FromGroup:  l.account.Group,
		ToGroup:    l.account.Group,
	}, nil
}

func (l *Local) SignUnsignedTx(ctx context.Context, params *types.SignUnsignedTxParams) (*types.SignUnsignedTxResult, error) {
	raw, err := hex.DecodeString(params.UnsignedTx)
	if err != nil {
		return nil, fmt.Errorf("unsignedTx is not hex: %w", err)
	}
	digest := blake2b.Sum256(raw)
	signature, err := l.pair.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &types.SignUnsignedTxResult{
		TxID:       hex.EncodeToString(digest[:]),
		UnsignedTx: params.UnsignedTx,
		Signature:  signature,
	}, nil
}

func (l *Local) SignMessage(ctx context.Context, params *types.SignMessageParams) (*types.SignMessageResult, error) {
	digest, err := keys.HashMessage(params.Message, params.MessageHasher)
	if err != nil {
		return nil, err
	}
	signature, err := l.pair.Sign(digest[:])
	if err != nil {
		return nil, err
	}
	return &types.SignMessageResult{Signature: signature}, nil
}

// digest canonicalizes params as JSON and hashes them, standing in for
// real transaction serialization.
func (l *Local) digest(params any) (string, [32]byte, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return "", [32]byte{}, err
	}
	return hex.EncodeToString(encoded), blake2b.Sum256(encoded), nil
}

const (
	defaultGasAmount = 20000
	defaultGasPrice  = "100000000000"
)

func orDefaultGas(v uint64) uint64 {
	if v == 0 {
		return defaultGasAmount
	}
	return v
}

func orDefaultGasPrice(v string) string {
	if v == "" {
		return defaultGasPrice
	}
	return v
}

var _ Signer = (*Local)(nil)
