package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"keyledger/engine/library"
	"keyledger/keys"
)

var (
	ErrUnknownAccount = errors.New("account unknown to the ledger")
	ErrRejected       = errors.New("transaction rejected")
	ErrStopped        = errors.New("ledger stopped")

	// ErrAccountExists is a rejection: errors.Is(ErrAccountExists, ErrRejected) holds
	ErrAccountExists = fmt.Errorf("%w: account exists", ErrRejected)
)

// Ledger orders and confirms account transactions and owns account nonces.
type Ledger interface {
	// Submit blocks until tx is confirmed, rejected, or ctx ends. A tx whose
	// ctx ended before it was picked up is never applied.
	Submit(ctx context.Context, tx Transaction) (Receipt, error)
	Account(ctx context.Context, id library.Account) (State, error)
}

type OpKind string

const (
	OpRegisterService OpKind = "register_service"
	OpCreateAccount   OpKind = "create_account"
	OpAddKey          OpKind = "add_key"
	OpAddData         OpKind = "add_data"
)

// Operation is the unsigned body of a transaction. Which fields are used
// depends on Kind.
type Operation struct {
	Kind OpKind
	// account id, or the service id for OpRegisterService
	ID library.Account
	// OpCreateAccount only
	ServiceID        string
	ServiceChallenge keys.Signature
	// the key being registered or added
	Key           keys.VerifyingKey
	Data          []byte
	DataSignature keys.SignatureBundle
}

// Payload is the exact byte string the transaction signer signs.
func (o Operation) Payload() ([]byte, error) {
	switch o.Kind {
	case OpRegisterService:
		return RegisterServicePayload(o.ID, o.Key), nil
	case OpCreateAccount:
		return CreateAccountPayload(o.ID, o.ServiceID, o.Key, o.ServiceChallenge), nil
	case OpAddKey:
		return AddKeyPayload(o.ID, o.Key), nil
	case OpAddData:
		return AddDataPayload(o.ID, o.Data, o.DataSignature), nil
	}
	return nil, fmt.Errorf("%w: unknown operation %q", ErrRejected, o.Kind)
}

type Transaction struct {
	Operation Operation
	Signer    keys.SignatureBundle
}

// ID is the sha256 of the signed payload and signature.
func (t Transaction) ID() library.Sha256 {
	p, err := t.Operation.Payload()
	if err != nil {
		return library.Sha256Sum(string(t.Operation.Kind))
	}
	return library.Sha256Sum(append(p, t.Signer.Signature.Bytes...))
}

type Receipt struct {
	TxID   library.Sha256
	Height uint64
	// account nonce after the tx was applied
	Nonce uint64
}

// State is the ledger's confirmed view of one account.
type State struct {
	ID        library.Account
	Keys      []keys.VerifyingKey
	DataCount int
	Nonce     uint64
}

type Epoch struct {
	Height      uint64
	TxIDs       []library.Sha256
	StateRoot   library.Sha256
	CommittedAt time.Time
}
