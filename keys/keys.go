// Package keys implements Alephium account cryptography: P2PKH address
// derivation from secp256k1 public keys, shard group computation, and key
// generation for wallets and tests.
package keys

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"

	"github.com/alephium-go/walletconnect/types"
)

// p2pkhPrefix tags a pay-to-public-key-hash address in its base58 payload.
const p2pkhPrefix byte = 0x00

// compressedPubKeyLen is the length of a compressed secp256k1 public key.
const compressedPubKeyLen = 33

// AddressFromPublicKey derives the P2PKH address of a compressed secp256k1
// public key: base58(0x00 || blake2b-256(publicKey)).
func AddressFromPublicKey(publicKeyHex string) (string, error) {
	raw, err := parsePublicKey(publicKeyHex)
	if err != nil {
		return "", err
	}
	hash := blake2b.Sum256(raw)
	payload := make([]byte, 0, 1+len(hash))
	payload = append(payload, p2pkhPrefix)
	payload = append(payload, hash[:]...)
	return base58.Encode(payload), nil
}

// GroupOfAddress computes the shard group an address belongs to. The group
// is a pure function of the address bytes, so it can always be recomputed
// instead of trusted from the wire.
func GroupOfAddress(address string) (uint32, error) {
	payload := base58.Decode(address)
	if len(payload) < 2 {
		return 0, fmt.Errorf("invalid address %q: not base58 or too short", address)
	}
	if payload[0] != p2pkhPrefix {
		return 0, fmt.Errorf("invalid address %q: unsupported address type %#x", address, payload[0])
	}
	hint := djbHash(payload[1:]) | 1
	return uint32(xorByte(hint)) % types.GroupCount, nil
}

// p2cPrefix tags a pay-to-contract address in its base58 payload.
const p2cPrefix byte = 0x03

// ContractAddress renders a contract id digest as a P2C address.
func ContractAddress(id [32]byte) string {
	payload := make([]byte, 0, 1+len(id))
	payload = append(payload, p2cPrefix)
	payload = append(payload, id[:]...)
	return base58.Encode(payload)
}

// Deriver implements codec.AddressDeriver with the real derivation.
type Deriver struct{}

// Derive recomputes the address and group of a public key.
func (Deriver) Derive(publicKeyHex string) (string, uint32, error) {
	address, err := AddressFromPublicKey(publicKeyHex)
	if err != nil {
		return "", 0, err
	}
	group, err := GroupOfAddress(address)
	if err != nil {
		return "", 0, err
	}
	return address, group, nil
}

// Pair is a secp256k1 key pair.
type Pair struct {
	priv *ecdsa.PrivateKey
}

// GeneratePair creates a fresh random key pair.
func GeneratePair() (*Pair, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Pair{priv: priv}, nil
}

// GeneratePairForGroup keeps generating keys until the derived address
// lands in the requested group. With four groups this takes a handful of
// attempts on average.
func GeneratePairForGroup(group uint32) (*Pair, error) {
	if group >= types.GroupCount {
		return nil, fmt.Errorf("group %d out of range, networks have %d groups", group, types.GroupCount)
	}
	for {
		pair, err := GeneratePair()
		if err != nil {
			return nil, err
		}
		account, err := pair.Account()
		if err != nil {
			return nil, err
		}
		if account.Group == group {
			return pair, nil
		}
	}
}

// PairFromHex restores a key pair from a hex-encoded private key.
func PairFromHex(privateKeyHex string) (*Pair, error) {
	priv, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return &Pair{priv: priv}, nil
}

// PublicKeyHex returns the compressed public key in hex.
func (p *Pair) PublicKeyHex() string {
	return hex.EncodeToString(crypto.CompressPubkey(&p.priv.PublicKey))
}

// Account derives the full account of this key pair.
func (p *Pair) Account() (types.Account, error) {
	publicKey := p.PublicKeyHex()
	address, group, err := Deriver{}.Derive(publicKey)
	if err != nil {
		return types.Account{}, err
	}
	return types.Account{Address: address, PublicKey: publicKey, Group: group}, nil
}

// Sign produces a hex-encoded 64-byte r||s signature over a 32-byte digest.
func (p *Pair) Sign(digest []byte) (string, error) {
	if len(digest) != 32 {
		return "", fmt.Errorf("digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := crypto.Sign(digest, p.priv)
	if err != nil {
		return "", fmt.Errorf("sign digest: %w", err)
	}
	// Drop the recovery byte; Alephium signatures are plain r||s.
	return hex.EncodeToString(sig[:64]), nil
}

// VerifySignature checks a hex r||s signature against a public key and
// digest.
func VerifySignature(publicKeyHex, signatureHex string, digest []byte) (bool, error) {
	pub, err := parsePublicKey(publicKeyHex)
	if err != nil {
		return false, err
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil || len(sig) != 64 {
		return false, fmt.Errorf("signature must be 64 hex-encoded bytes")
	}
	return crypto.VerifySignature(pub, digest, sig), nil
}

// HashMessage digests a message for alph_signMessage according to the
// requested hasher. The default "alephium" hasher prefixes the message
// before hashing so signed messages can never collide with transactions.
func HashMessage(message, hasher string) ([32]byte, error) {
	switch hasher {
	case "", "alephium":
		return blake2b.Sum256([]byte("Alephium Signed Message: " + message)), nil
	case "blake2b":
		return blake2b.Sum256([]byte(message)), nil
	case "sha256":
		return sha256.Sum256([]byte(message)), nil
	case "identity":
		var out [32]byte
		raw, err := hex.DecodeString(message)
		if err != nil || len(raw) != 32 {
			return out, fmt.Errorf("identity hasher requires a 32-byte hex message")
		}
		copy(out[:], raw)
		return out, nil
	default:
		var out [32]byte
		return out, fmt.Errorf("unknown message hasher %q", hasher)
	}
}

func parsePublicKey(publicKeyHex string) ([]byte, error) {
	raw, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return nil, fmt.Errorf("public key is not hex: %w", err)
	}
	if len(raw) != compressedPubKeyLen {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", compressedPubKeyLen, len(raw))
	}
	if _, err := crypto.DecompressPubkey(raw); err != nil {
		return nil, fmt.Errorf("public key is not a valid secp256k1 point: %w", err)
	}
	return raw, nil
}

func djbHash(b []byte) uint32 {
	h := uint32(5381)
	for _, c := range b {
		h = (h << 5) + h + uint32(c)
	}
	return h
}

func xorByte(v uint32) byte {
	return byte(v>>24) ^ byte(v>>16) ^ byte(v>>8) ^ byte(v)
}
