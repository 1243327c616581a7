package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
)

var b64 = base64.StdEncoding.Strict()

// VerifyingKey is the public half of a signing keypair tagged with the
// algorithm it verifies under. The raw bytes are kept exactly as supplied.
type VerifyingKey struct {
	Algorithm Algorithm
	Bytes     []byte
}

// NewVerifyingKey checks that b is a secp256k1 point (33 byte compressed or
// 65 byte uncompressed) and tags it with the given algorithm.
func NewVerifyingKey(algorithm Algorithm, b []byte) (VerifyingKey, error) {
	if !algorithm.valid() {
		return VerifyingKey{}, fmt.Errorf("%w: unknown algorithm %q", ErrKeyFormat, algorithm)
	}
	if _, err := btcec.ParsePubKey(b); err != nil {
		return VerifyingKey{}, fmt.Errorf("%w: %s", ErrKeyFormat, err.Error())
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return VerifyingKey{Algorithm: algorithm, Bytes: raw}, nil
}

// DecodeVerifyingKey decodes standard base64 key material.
func DecodeVerifyingKey(encoded string, algorithm Algorithm) (VerifyingKey, error) {
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return VerifyingKey{}, fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}
	return NewVerifyingKey(algorithm, raw)
}

// String returns the base64 encoding of the raw key bytes.
func (k VerifyingKey) String() string {
	return b64.EncodeToString(k.Bytes)
}

func (k VerifyingKey) Equal(other VerifyingKey) bool {
	return k.Algorithm == other.Algorithm && bytes.Equal(k.Bytes, other.Bytes)
}

func (k VerifyingKey) IsZero() bool {
	return k.Algorithm == "" && len(k.Bytes) == 0
}

// Verify checks sig over message. A mismatch is reported as
// ErrInvalidSignature; unusable key material as ErrKeyFormat.
func (k VerifyingKey) Verify(message []byte, sig Signature) error {
	pub, err := btcec.ParsePubKey(k.Bytes)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrKeyFormat, err.Error())
	}
	var digest []byte
	switch k.Algorithm {
	case Secp256k1:
		h := sha256.Sum256(message)
		digest = h[:]
	case CosmosAdr36:
		digest, err = adr36Digest(message, pub, AddressPrefix)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown algorithm %q", ErrKeyFormat, k.Algorithm)
	}
	parsed, err := sig.toECDSA()
	if err != nil {
		return err
	}
	if !parsed.Verify(digest, pub) {
		return fmt.Errorf("%w: signature does not match key %s", ErrInvalidSignature, k.String())
	}
	return nil
}

// CosmosAddress is the bech32 account address of the key.
func (k VerifyingKey) CosmosAddress(prefix string) (string, error) {
	pub, err := btcec.ParsePubKey(k.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrKeyFormat, err.Error())
	}
	return cosmosAddress(pub, prefix)
}
