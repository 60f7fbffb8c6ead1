package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alephium-go/walletconnect/types"
)

func chain(network types.NetworkID, group int32) types.ChainID {
	if group < 0 {
		return types.AnyGroupChainID(network)
	}
	return types.ChainID{Network: network, Group: types.MustChainGroup(group)}
}

func TestReduceEmpty(t *testing.T) {
	table := Reduce(nil)
	assert.Empty(t, table)
}

func TestReduceConcreteGroups(t *testing.T) {
	table := Reduce([]types.ChainID{
		chain(1, 1),
		chain(1, 2),
		chain(1, 1), // duplicate
	})
	require.Len(t, table, 1)
	assert.Equal(t, []types.ChainGroup{types.MustChainGroup(1), types.MustChainGroup(2)}, table[1])
}

func TestReduceAnyAbsorbs(t *testing.T) {
	// Any replaces previously collected concrete groups.
	table := Reduce([]types.ChainID{
		chain(4, 0),
		chain(4, 2),
		chain(4, -1),
	})
	assert.Equal(t, []types.ChainGroup{types.GroupAny}, table[4])

	// And swallows concrete groups arriving after it.
	table = Reduce([]types.ChainID{
		chain(4, -1),
		chain(4, 3),
	})
	assert.Equal(t, []types.ChainGroup{types.GroupAny}, table[4])
}

func TestReduceMultipleNetworks(t *testing.T) {
	table := Reduce([]types.ChainID{
		chain(1, 1),
		chain(1, 2),
		chain(4, -1),
	})
	require.Len(t, table, 2)
	assert.Equal(t, []types.ChainGroup{types.MustChainGroup(1), types.MustChainGroup(2)}, table[1])
	assert.Equal(t, []types.ChainGroup{types.GroupAny}, table[4])
}

func TestResolve(t *testing.T) {
	table := Reduce([]types.ChainID{
		chain(1, 1),
		chain(1, 2),
		chain(4, -1),
	})

	wire, ok := table.Resolve(1, types.MustChainGroup(2))
	require.True(t, ok)
	assert.Equal(t, "alephium:1/2", wire)

	// Any-scoped networks resolve to the generic identifier regardless of
	// the concrete group asked for.
	wire, ok = table.Resolve(4, types.MustChainGroup(2))
	require.True(t, ok)
	assert.Equal(t, "alephium:4/-1", wire)

	_, ok = table.Resolve(1, types.MustChainGroup(3))
	assert.False(t, ok)

	_, ok = table.Resolve(9, types.MustChainGroup(0))
	assert.False(t, ok)
}

func TestIsCompatible(t *testing.T) {
	concrete := []types.ChainGroup{types.MustChainGroup(1), types.MustChainGroup(2)}
	assert.True(t, IsCompatible(types.MustChainGroup(1), concrete))
	assert.False(t, IsCompatible(types.MustChainGroup(0), concrete))

	anyScoped := []types.ChainGroup{types.GroupAny}
	assert.True(t, IsCompatible(types.MustChainGroup(0), anyScoped))
	assert.True(t, IsCompatible(types.MustChainGroup(3), anyScoped))

	assert.False(t, IsCompatible(types.MustChainGroup(0), nil))
}

func TestAllows(t *testing.T) {
	table := Reduce([]types.ChainID{chain(4, 1)})
	assert.True(t, table.Allows(4, types.Account{Group: 1}))
	assert.False(t, table.Allows(4, types.Account{Group: 2}))
	assert.False(t, table.Allows(1, types.Account{Group: 1}))
}

func TestChains(t *testing.T) {
	table := Reduce([]types.ChainID{
		chain(4, -1),
		chain(1, 2),
		chain(1, 0),
	})
	assert.Equal(t, []string{"alephium:1/2", "alephium:1/0", "alephium:4/-1"}, table.Chains())
}

func TestClone(t *testing.T) {
	table := Reduce([]types.ChainID{chain(1, 0), chain(1, 1)})
	clone := table.Clone()
	clone[1][0] = types.GroupAny
	assert.Equal(t, types.MustChainGroup(0), table[1][0])
}
