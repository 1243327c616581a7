package library

import (
	"crypto/sha256"
	"fmt"
)

func Sha256Sum(data interface{}) Sha256 {
	return fmt.Sprintf("%x", Sha256Bytes(data))
}

// Sha256Bytes hashes a string or []byte. Anything else hashes as empty input.
func Sha256Bytes(data interface{}) []byte {
	var b []byte
	switch d := data.(type) {
	case string:
		b = []byte(d)
	case []byte:
		b = d
	default:
		LogCLI("attempted to hash non-string or non-[]byte", 1)
	}
	h := sha256.Sum256(b)
	return h[:]
}
