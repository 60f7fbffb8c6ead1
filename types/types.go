// Package types defines the shared data model for the Alephium
// WalletConnect provider layer: chain identifiers, accounts, session
// namespaces and the error taxonomy used across packages.
package types

import (
	"fmt"
	"time"
)

// Namespace is the CAIP-2 namespace literal used for every Alephium chain
// identifier on the wire.
const Namespace = "alephium"

// GroupCount is the number of shard groups on an Alephium network.
const GroupCount = 4

// AnyGroupWire is the wire sentinel meaning "all groups".
const AnyGroupWire int32 = -1

// NetworkID identifies a logical Alephium network (mainnet, testnet,
// devnet). Wire form is a non-negative decimal integer.
type NetworkID uint32

func (n NetworkID) String() string {
	return fmt.Sprintf("%d", uint32(n))
}

// ChainGroup is a tagged variant: either a fixed shard group index (>= 0)
// or the "any group" scope. The -1 wire sentinel exists only at the codec
// boundary; a ChainGroup can never hold a negative index.
type ChainGroup struct {
	index uint32
	any   bool
}

// GroupAny matches every group on a network.
var GroupAny = ChainGroup{any: true}

// NewChainGroup constructs a fixed group. Negative indices are a
// construction error, not a sentinel.
func NewChainGroup(index int32) (ChainGroup, error) {
	if index < 0 {
		return ChainGroup{}, &WCError{
			Code:    ErrInvalidGroup,
			Message: fmt.Sprintf("group index must be >= 0, got %d", index),
		}
	}
	return ChainGroup{index: uint32(index)}, nil
}

// MustChainGroup is NewChainGroup for statically known indices.
func MustChainGroup(index int32) ChainGroup {
	g, err := NewChainGroup(index)
	if err != nil {
		panic(err)
	}
	return g
}

// ChainGroupFromWire maps the wire integer to a ChainGroup. -1 becomes the
// any-group scope; anything below -1 is malformed.
func ChainGroupFromWire(v int32) (ChainGroup, error) {
	if v == AnyGroupWire {
		return GroupAny, nil
	}
	if v < AnyGroupWire {
		return ChainGroup{}, &WCError{
			Code:    ErrMalformedIdentifier,
			Message: fmt.Sprintf("group wire value must be -1 or >= 0, got %d", v),
		}
	}
	return ChainGroup{index: uint32(v)}, nil
}

// IsAny reports whether the group is the any-group scope.
func (g ChainGroup) IsAny() bool {
	return g.any
}

// Index returns the fixed group index. It is only meaningful when IsAny is
// false; for the any-group scope it returns 0.
func (g ChainGroup) Index() uint32 {
	return g.index
}

// Wire returns the integer marshalled into chain identifiers.
func (g ChainGroup) Wire() int32 {
	if g.any {
		return AnyGroupWire
	}
	return int32(g.index)
}

func (g ChainGroup) String() string {
	return fmt.Sprintf("%d", g.Wire())
}

// ChainID is the structured form of a wire chain identifier. Values are
// immutable; a "change" is a new value.
type ChainID struct {
	Network NetworkID
	Group   ChainGroup
}

// NewChainID builds a ChainID from a raw group index, treating negative
// indices as a construction error.
func NewChainID(network NetworkID, groupIndex int32) (ChainID, error) {
	g, err := NewChainGroup(groupIndex)
	if err != nil {
		return ChainID{}, err
	}
	return ChainID{Network: network, Group: g}, nil
}

// AnyGroupChainID builds the identifier addressing every group on a network.
func AnyGroupChainID(network NetworkID) ChainID {
	return ChainID{Network: network, Group: GroupAny}
}

// Account is a wallet account. Address and Group are always derived from
// PublicKey by the crypto layer, never taken verbatim from the wire.
type Account struct {
	Address   string `json:"address"`
	PublicKey string `json:"publicKey"`
	Group     uint32 `json:"group"`
}

// ProposalNamespace is the dapp side of the handshake: the chains, methods
// and events it requires the wallet to grant.
type ProposalNamespace struct {
	Chains  []string `json:"chains"`
	Methods []string `json:"methods"`
	Events  []string `json:"events"`
}

// SessionNamespace is the wallet side of the handshake and the payload of
// session updates: granted accounts in wire form plus methods and events.
type SessionNamespace struct {
	Chains   []string `json:"chains,omitempty"`
	Accounts []string `json:"accounts"`
	Methods  []string `json:"methods"`
	Events   []string `json:"events"`
}

// SessionConfig carries the caller-supplied negotiation inputs for a
// provider instance.
type SessionConfig struct {
	NetworkID NetworkID
	// AddressGroup scopes the session to one group; GroupAny requests all
	// groups on the network.
	AddressGroup ChainGroup
	Methods      []string
	// Metadata shown to the wallet during pairing.
	Metadata SessionMetadata
	// Timeout bounds each transport round-trip. Zero means DefaultTimeout.
	Timeout time.Duration
}

// SessionMetadata describes the requesting application.
type SessionMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// DefaultTimeout bounds transport round-trips when the caller does not set
// one.
const DefaultTimeout = 30 * time.Second
