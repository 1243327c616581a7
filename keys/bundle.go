package keys

import "fmt"

// SignatureBundle asserts that VerifyingKey produced Signature over some message.
type SignatureBundle struct {
	VerifyingKey VerifyingKey
	Signature    Signature
}

func NewSignatureBundle(vk VerifyingKey, sig Signature) SignatureBundle {
	return SignatureBundle{VerifyingKey: vk, Signature: sig}
}

// DecodeSignatureBundle always reads the key as CosmosAdr36 and the
// signature as Secp256k1, whatever the client claims.
func DecodeSignatureBundle(verifyingKey, signature string) (SignatureBundle, error) {
	vk, err := DecodeVerifyingKey(verifyingKey, CosmosAdr36)
	if err != nil {
		return SignatureBundle{}, fmt.Errorf("verifying_key: %w", err)
	}
	sig, err := DecodeSignature(signature, Secp256k1)
	if err != nil {
		return SignatureBundle{}, fmt.Errorf("signature: %w", err)
	}
	return NewSignatureBundle(vk, sig), nil
}

func (b SignatureBundle) Verify(message []byte) error {
	return b.VerifyingKey.Verify(message, b.Signature)
}
