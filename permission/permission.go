// Package permission derives and queries the permitted-groups-per-network
// table negotiated for a session. The table is recomputed from the
// authoritative chain list on every negotiation or update; it is never
// edited in place.
package permission

import (
	"sort"

	"github.com/alephium-go/walletconnect/codec"
	"github.com/alephium-go/walletconnect/types"
)

// Table maps a network id to its ordered, duplicate-free list of permitted
// groups. If the any-group scope is present it is the only entry for that
// network.
type Table map[types.NetworkID][]types.ChainGroup

// Reduce collapses the requested chain pairs into the minimal table.
// Per network, in input order: any-group absorbs everything that follows
// and discards everything collected before it; concrete groups accumulate
// with set semantics.
func Reduce(pairs []types.ChainID) Table {
	table := make(Table, len(pairs))
	for _, pair := range pairs {
		groups := table[pair.Network]
		if len(groups) == 1 && groups[0].IsAny() {
			continue
		}
		if pair.Group.IsAny() {
			table[pair.Network] = []types.ChainGroup{types.GroupAny}
			continue
		}
		if containsGroup(groups, pair.Group) {
			continue
		}
		table[pair.Network] = append(groups, pair.Group)
	}
	return table
}

// Resolve returns the wire chain identifier to address the given network
// and group under this table, or false when not permitted. Networks granted
// the any-group scope always resolve to the generic "-1" identifier, never
// to the concrete group's one.
func (t Table) Resolve(network types.NetworkID, group types.ChainGroup) (string, bool) {
	groups, ok := t[network]
	if !ok {
		return "", false
	}
	if len(groups) == 1 && groups[0].IsAny() {
		return codec.EncodeChain(types.AnyGroupChainID(network)), true
	}
	if !containsGroup(groups, group) {
		return "", false
	}
	return codec.EncodeChain(types.ChainID{Network: network, Group: group}), true
}

// IsCompatible reports whether a concrete group is authorized by a
// permitted-groups list: true when the list holds the any-group scope or
// the exact group.
func IsCompatible(group types.ChainGroup, permitted []types.ChainGroup) bool {
	for _, g := range permitted {
		if g.IsAny() || g == group {
			return true
		}
	}
	return false
}

// Allows reports whether an account's group is authorized on the given
// network.
func (t Table) Allows(network types.NetworkID, account types.Account) bool {
	group, err := types.NewChainGroup(int32(account.Group))
	if err != nil {
		return false
	}
	return IsCompatible(group, t[network])
}

// Chains renders the table back into wire chain identifiers, one per
// permitted (network, group) entry, ordered by network id. Useful for
// echoing the negotiated scope into a session namespace.
func (t Table) Chains() []string {
	networks := make([]types.NetworkID, 0, len(t))
	for network := range t {
		networks = append(networks, network)
	}
	sort.Slice(networks, func(i, j int) bool { return networks[i] < networks[j] })

	var out []string
	for _, network := range networks {
		for _, g := range t[network] {
			out = append(out, codec.EncodeChain(types.ChainID{Network: network, Group: g}))
		}
	}
	return out
}

// Clone returns a deep copy, so reconciler snapshots cannot alias live
// state.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for network, groups := range t {
		copied := make([]types.ChainGroup, len(groups))
		copy(copied, groups)
		out[network] = copied
	}
	return out
}

func containsGroup(groups []types.ChainGroup, g types.ChainGroup) bool {
	for _, existing := range groups {
		if existing == g {
			return true
		}
	}
	return false
}
