package ops

import (
	"context"
	"errors"
	"fmt"

	"keyledger/keys"
	"keyledger/ledger"
)

// Every failure an operation returns wraps exactly one of these.
var (
	ErrDecode            = keys.ErrDecode
	ErrKeyFormat         = keys.ErrKeyFormat
	ErrInvalidSignature  = keys.ErrInvalidSignature
	ErrUnauthorizedKey   = errors.New("key is not authorized for this account")
	ErrAccountNotFound   = errors.New("account not found")
	ErrIdInUse           = errors.New("account id already in use")
	ErrInvalidID         = errors.New("invalid account id")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrLedgerRejected    = errors.New("ledger rejected the transaction")
)

// Retryable reports whether the caller may retry the same request.
func Retryable(err error) bool {
	return errors.Is(err, ErrLedgerUnavailable)
}

func ledgerError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ledger.ErrAccountExists):
		return fmt.Errorf("%w: %s", ErrIdInUse, err.Error())
	case errors.Is(err, ledger.ErrUnknownAccount):
		return fmt.Errorf("%w: %s", ErrAccountNotFound, err.Error())
	case errors.Is(err, ledger.ErrRejected):
		return fmt.Errorf("%w: %s", ErrLedgerRejected, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: timed out", ErrLedgerUnavailable)
	}
	return fmt.Errorf("%w: %s", ErrLedgerUnavailable, err.Error())
}
