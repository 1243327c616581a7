package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

// SigningKey is a secp256k1 private key. Signatures are deterministic
// (RFC6979), so the same key and message always produce the same bytes.
type SigningKey struct {
	priv *btcec.PrivateKey
}

func GenerateSigningKey() (*SigningKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &SigningKey{priv: priv}, nil
}

func SigningKeyFromHex(privateKey string) (*SigningKey, error) {
	b, err := hex.DecodeString(privateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}
	if len(b) != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrKeyFormat, btcec.PrivKeyBytesLen)
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return &SigningKey{priv: priv}, nil
}

func (k *SigningKey) Hex() string {
	return hex.EncodeToString(k.priv.Serialize())
}

// VerifyingKey returns the compressed public key tagged with algorithm.
func (k *SigningKey) VerifyingKey(algorithm Algorithm) VerifyingKey {
	return VerifyingKey{Algorithm: algorithm, Bytes: k.priv.PubKey().SerializeCompressed()}
}

// Sign produces a signature that verifies under VerifyingKey(algorithm).
func (k *SigningKey) Sign(message []byte, algorithm Algorithm) (Signature, error) {
	var digest []byte
	switch algorithm {
	case Secp256k1:
		h := sha256.Sum256(message)
		digest = h[:]
	case CosmosAdr36:
		d, err := adr36Digest(message, k.priv.PubKey(), AddressPrefix)
		if err != nil {
			return Signature{}, err
		}
		digest = d
	default:
		return Signature{}, fmt.Errorf("%w: unknown algorithm %q", ErrKeyFormat, algorithm)
	}
	compact, err := ecdsa.SignCompact(k.priv, digest, true)
	if err != nil {
		return Signature{}, fmt.Errorf("sign: %w", err)
	}
	// drop the recovery byte
	return NewSignature(Secp256k1, compact[1:])
}

// SignBundle signs message and pairs the signature with the matching key.
func (k *SigningKey) SignBundle(message []byte, algorithm Algorithm) (SignatureBundle, error) {
	sig, err := k.Sign(message, algorithm)
	if err != nil {
		return SignatureBundle{}, err
	}
	return NewSignatureBundle(k.VerifyingKey(algorithm), sig), nil
}
