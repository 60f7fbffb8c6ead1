package keys

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/alephium-go/walletconnect/types"
)

func TestAccountDerivationIsDeterministic(t *testing.T) {
	pair, err := GeneratePair()
	require.NoError(t, err)

	a, err := pair.Account()
	require.NoError(t, err)
	b, err := pair.Account()
	require.NoError(t, err)
	assert.Equal(t, a, b)

	assert.NotEmpty(t, a.Address)
	assert.Len(t, a.PublicKey, 2*33)
	assert.Less(t, a.Group, uint32(types.GroupCount))

	// The group is a pure function of the address.
	group, err := GroupOfAddress(a.Address)
	require.NoError(t, err)
	assert.Equal(t, a.Group, group)
}

func TestGeneratePairForGroup(t *testing.T) {
	for group := uint32(0); group < types.GroupCount; group++ {
		pair, err := GeneratePairForGroup(group)
		require.NoError(t, err)
		account, err := pair.Account()
		require.NoError(t, err)
		assert.Equal(t, group, account.Group)
	}

	_, err := GeneratePairForGroup(4)
	assert.Error(t, err)
}

func TestPairFromHexRoundTrip(t *testing.T) {
	pair, err := GeneratePair()
	require.NoError(t, err)
	restored, err := PairFromHex(hex.EncodeToString(crypto.FromECDSA(pair.priv)))
	require.NoError(t, err)
	assert.Equal(t, pair.PublicKeyHex(), restored.PublicKeyHex())
}

func TestAddressFromPublicKeyRejectsBadInput(t *testing.T) {
	_, err := AddressFromPublicKey("not-hex")
	assert.Error(t, err)

	_, err = AddressFromPublicKey("02abcd")
	assert.Error(t, err)

	// Right length, not a curve point.
	_, err = AddressFromPublicKey("02" + hex.EncodeToString(make([]byte, 32)))
	assert.Error(t, err)
}

func TestGroupOfAddressRejectsBadInput(t *testing.T) {
	_, err := GroupOfAddress("0")
	assert.Error(t, err)

	_, err = GroupOfAddress("!!!not base58!!!")
	assert.Error(t, err)
}

func TestSignAndVerify(t *testing.T) {
	pair, err := GeneratePair()
	require.NoError(t, err)

	digest := blake2b.Sum256([]byte("payload"))
	sig, err := pair.Sign(digest[:])
	require.NoError(t, err)
	assert.Len(t, sig, 2*64)

	ok, err := VerifySignature(pair.PublicKeyHex(), sig, digest[:])
	require.NoError(t, err)
	assert.True(t, ok)

	other := blake2b.Sum256([]byte("other payload"))
	ok, err = VerifySignature(pair.PublicKeyHex(), sig, other[:])
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = pair.Sign([]byte("short"))
	assert.Error(t, err)
}

func TestHashMessage(t *testing.T) {
	prefixed, err := HashMessage("hello", "")
	require.NoError(t, err)
	defaulted, err := HashMessage("hello", "alephium")
	require.NoError(t, err)
	assert.Equal(t, prefixed, defaulted)

	raw, err := HashMessage("hello", "blake2b")
	require.NoError(t, err)
	assert.NotEqual(t, prefixed, raw)
	assert.Equal(t, blake2b.Sum256([]byte("hello")), raw)

	_, err = HashMessage("hello", "sha256")
	require.NoError(t, err)

	digest := blake2b.Sum256([]byte("x"))
	identity, err := HashMessage(hex.EncodeToString(digest[:]), "identity")
	require.NoError(t, err)
	assert.Equal(t, digest, identity)

	_, err = HashMessage("hello", "identity")
	assert.Error(t, err)

	_, err = HashMessage("hello", "md5")
	assert.Error(t, err)
}

func TestDeriverMatchesAccount(t *testing.T) {
	pair, err := GeneratePair()
	require.NoError(t, err)
	account, err := pair.Account()
	require.NoError(t, err)

	address, group, err := Deriver{}.Derive(account.PublicKey)
	require.NoError(t, err)
	assert.Equal(t, account.Address, address)
	assert.Equal(t, account.Group, group)
}
