package accounts

import (
	"errors"
	"time"

	"keyledger/engine/library"
	"keyledger/keys"
)

var ErrExists = errors.New("account already exists")

// Record is what the account map holds for an id. Keys and data live in
// their own sequences.
type Record struct {
	ID         library.Account
	InitialKey keys.VerifyingKey
	CreatedAt  time.Time
	// ledger transaction that created the account
	CreationTx library.Sha256
}

// DataEntry is an attached blob together with the bundle that attests to it.
type DataEntry struct {
	Data      []byte
	Signature keys.SignatureBundle
}
