package keys

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
)

const SignatureSize = 64

type Signature struct {
	Algorithm Algorithm
	Bytes     []byte
}

// NewSignature accepts only compact 64 byte secp256k1 signatures.
func NewSignature(algorithm Algorithm, b []byte) (Signature, error) {
	if algorithm != Secp256k1 {
		return Signature{}, fmt.Errorf("%w: signatures must be %s, got %q", ErrKeyFormat, Secp256k1, algorithm)
	}
	if len(b) != SignatureSize {
		return Signature{}, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrKeyFormat, SignatureSize, len(b))
	}
	raw := make([]byte, len(b))
	copy(raw, b)
	return Signature{Algorithm: algorithm, Bytes: raw}, nil
}

func DecodeSignature(encoded string, algorithm Algorithm) (Signature, error) {
	raw, err := b64.DecodeString(encoded)
	if err != nil {
		return Signature{}, fmt.Errorf("%w: %s", ErrDecode, err.Error())
	}
	return NewSignature(algorithm, raw)
}

func (s Signature) String() string {
	return b64.EncodeToString(s.Bytes)
}

func (s Signature) toECDSA() (*ecdsa.Signature, error) {
	if s.Algorithm != Secp256k1 {
		return nil, fmt.Errorf("%w: unsupported signature algorithm %q", ErrInvalidSignature, s.Algorithm)
	}
	if len(s.Bytes) != SignatureSize {
		return nil, fmt.Errorf("%w: signature must be %d bytes", ErrInvalidSignature, SignatureSize)
	}
	var r, sv btcec.ModNScalar
	if overflow := r.SetByteSlice(s.Bytes[:32]); overflow || r.IsZero() {
		return nil, fmt.Errorf("%w: r out of range", ErrInvalidSignature)
	}
	if overflow := sv.SetByteSlice(s.Bytes[32:]); overflow || sv.IsZero() {
		return nil, fmt.Errorf("%w: s out of range", ErrInvalidSignature)
	}
	// high S values are malleable copies of a valid signature
	if sv.IsOverHalfOrder() {
		return nil, fmt.Errorf("%w: non-canonical s", ErrInvalidSignature)
	}
	return ecdsa.NewSignature(&r, &sv), nil
}
