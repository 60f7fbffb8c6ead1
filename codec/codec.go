// Package codec converts between structured chain/account values and their
// wire string identifiers. It is a leaf package: address and group
// derivation is delegated to an AddressDeriver so the wire group digit is
// never trusted.
package codec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alephium-go/walletconnect/types"
)

// AddressDeriver recomputes the address and shard group of a public key.
// Implemented by the keys package; tests use a stub.
type AddressDeriver interface {
	Derive(publicKeyHex string) (address string, group uint32, err error)
}

// EncodeChain renders a chain identifier, e.g. "alephium:4/-1".
func EncodeChain(id types.ChainID) string {
	return fmt.Sprintf("%s:%d/%d", types.Namespace, uint32(id.Network), id.Group.Wire())
}

// DecodeChain parses a wire chain identifier. Only "-1" or a non-negative
// integer is a legal group.
func DecodeChain(s string) (types.ChainID, error) {
	ns, rest, ok := strings.Cut(s, ":")
	if !ok || ns != types.Namespace {
		return types.ChainID{}, malformed(s, "missing namespace")
	}
	networkPart, groupPart, ok := strings.Cut(rest, "/")
	if !ok {
		return types.ChainID{}, malformed(s, "missing group separator")
	}
	network, err := strconv.ParseUint(networkPart, 10, 32)
	if err != nil {
		return types.ChainID{}, malformed(s, "network id must be a non-negative integer")
	}
	groupWire, err := strconv.ParseInt(groupPart, 10, 32)
	if err != nil {
		return types.ChainID{}, malformed(s, "group must be an integer")
	}
	group, err := types.ChainGroupFromWire(int32(groupWire))
	if err != nil {
		return types.ChainID{}, malformed(s, "group must be -1 or non-negative")
	}
	return types.ChainID{Network: types.NetworkID(network), Group: group}, nil
}

// EncodeAccount renders an account identifier as "<chainId>:<publicKeyHex>".
// Public keys are hex, so the ":" separator cannot occur inside them; a key
// containing a separator is rejected rather than escaped.
func EncodeAccount(chainID string, account types.Account) (string, error) {
	if account.PublicKey == "" {
		return "", &types.WCError{
			Code:    types.ErrMalformedIdentifier,
			Message: "account public key is empty",
		}
	}
	if strings.ContainsAny(account.PublicKey, ":/") {
		return "", &types.WCError{
			Code:    types.ErrMalformedIdentifier,
			Message: fmt.Sprintf("public key contains reserved separator: %s", account.PublicKey),
		}
	}
	return chainID + ":" + account.PublicKey, nil
}

// DecodeAccount parses an account identifier and rebuilds the Account from
// its public key. The group embedded in the chain part is remote-supplied
// and is ignored in favour of the derived one, so a peer cannot claim
// membership in a group it does not control.
func DecodeAccount(s string, deriver AddressDeriver) (types.Account, types.ChainID, error) {
	idx := strings.LastIndex(s, ":")
	if idx <= 0 || idx == len(s)-1 {
		return types.Account{}, types.ChainID{}, malformed(s, "missing public key part")
	}
	chainPart, publicKey := s[:idx], s[idx+1:]

	chainID, err := DecodeChain(chainPart)
	if err != nil {
		return types.Account{}, types.ChainID{}, err
	}
	address, group, err := deriver.Derive(publicKey)
	if err != nil {
		return types.Account{}, types.ChainID{}, &types.WCError{
			Code:    types.ErrMalformedIdentifier,
			Message: fmt.Sprintf("cannot derive address from public key in %q: %v", s, err),
		}
	}
	account := types.Account{Address: address, PublicKey: publicKey, Group: group}
	return account, chainID, nil
}

// DecodeChains parses a list of chain identifiers, failing on the first
// malformed entry.
func DecodeChains(ids []string) ([]types.ChainID, error) {
	out := make([]types.ChainID, 0, len(ids))
	for _, id := range ids {
		chain, err := DecodeChain(id)
		if err != nil {
			return nil, err
		}
		out = append(out, chain)
	}
	return out, nil
}

func malformed(input, reason string) error {
	return &types.WCError{
		Code:    types.ErrMalformedIdentifier,
		Message: fmt.Sprintf("malformed identifier %q: %s", input, reason),
	}
}
