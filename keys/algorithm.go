package keys

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDecode           = errors.New("malformed base64")
	ErrKeyFormat        = errors.New("invalid key material")
	ErrInvalidSignature = errors.New("invalid signature")
)

type Algorithm string

const (
	CosmosAdr36 Algorithm = "cosmos_adr36"
	Secp256k1   Algorithm = "secp256k1"
)

// ParseAlgorithm accepts the canonical names and the CamelCase forms used by
// other implementations ("CosmosAdr36", "Secp256k1").
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "cosmosadr36":
		return CosmosAdr36, nil
	case "secp256k1":
		return Secp256k1, nil
	}
	return "", fmt.Errorf("%w: unknown algorithm %q", ErrKeyFormat, s)
}

func (a Algorithm) valid() bool {
	return a == CosmosAdr36 || a == Secp256k1
}

func (a Algorithm) String() string {
	return string(a)
}
