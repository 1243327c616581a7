package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"keyledger/engine/library"
	"keyledger/keys"
	"keyledger/ledger"
	"keyledger/state/accounts"
)

const maxIDLength = 256

func validID(id library.Account) error {
	if len(strings.TrimSpace(id)) == 0 {
		return fmt.Errorf("%w: id is empty", ErrInvalidID)
	}
	if len(id) > maxIDLength {
		return fmt.Errorf("%w: id is longer than %d bytes", ErrInvalidID, maxIDLength)
	}
	return nil
}

// createOperation builds the create transaction body for (id, key). The
// service challenge is deterministic, so the same inputs always give the
// same payload.
func (e *Engine) createOperation(id library.Account, key keys.VerifyingKey) (ledger.Operation, error) {
	challenge, err := e.service.Sign(ledger.ServiceChallengeMessage(id, e.cfg.ServiceID, key), keys.Secp256k1)
	if err != nil {
		return ledger.Operation{}, err
	}
	return ledger.Operation{
		Kind:             ledger.OpCreateAccount,
		ID:               id,
		ServiceID:        e.cfg.ServiceID,
		ServiceChallenge: challenge,
		Key:              key,
	}, nil
}

// RequestCreateAccount returns the bytes candidate must sign to create id.
// Nothing is stored. A creation still in flight does not block a request,
// since it may fail and free the id.
func (e *Engine) RequestCreateAccount(ctx context.Context, id library.Account, candidate keys.VerifyingKey) ([]byte, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	if e.store.HasAccount(id) {
		return nil, fmt.Errorf("%w: %s", ErrIdInUse, id)
	}
	op, err := e.createOperation(id, candidate)
	if err != nil {
		return nil, err
	}
	return op.Payload()
}

// SendCreateAccount creates id with the bundle's key if the bundle signs the
// challenge RequestCreateAccount issued for that key. At most one call per id
// ever succeeds.
func (e *Engine) SendCreateAccount(ctx context.Context, id library.Account, bundle keys.SignatureBundle) (Account, error) {
	if err := validID(id); err != nil {
		return Account{}, err
	}
	if e.store.HasAccount(id) || e.isPending(id) {
		return Account{}, fmt.Errorf("%w: %s", ErrIdInUse, id)
	}
	op, err := e.createOperation(id, bundle.VerifyingKey)
	if err != nil {
		return Account{}, err
	}
	payload, err := op.Payload()
	if err != nil {
		return Account{}, err
	}
	if err := bundle.Verify(payload); err != nil {
		return Account{}, err
	}
	if err := e.reserve(id); err != nil {
		return Account{}, err
	}
	defer e.release(id)

	receipt, err := e.submit(ctx, ledger.Transaction{Operation: op, Signer: bundle})
	if err != nil {
		return Account{}, err
	}
	e.recordNonce(id, receipt.Nonce)
	// key first so a listed account is never keyless
	e.store.AddKeyIfAbsent(id, bundle.VerifyingKey)
	record := accounts.Record{
		InitialKey: bundle.VerifyingKey,
		CreatedAt:  time.Now(),
		CreationTx: receipt.TxID,
	}
	if err := e.store.CreateAccount(id, record); err != nil {
		if errors.Is(err, accounts.ErrExists) {
			return Account{}, fmt.Errorf("%w: %s", ErrIdInUse, id)
		}
		return Account{}, err
	}
	library.LogCLI(fmt.Sprintf("account %s created in ledger height %d", id, receipt.Height), 4)
	record.ID = id
	return project(e.store, record, receipt.Nonce), nil
}

// reserve marks id as being created. The presence check and the mark happen
// under one lock so racing creators of the same id cannot both pass.
func (e *Engine) reserve(id library.Account) error {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	if _, inFlight := e.pending[id]; inFlight || e.store.HasAccount(id) {
		return fmt.Errorf("%w: %s", ErrIdInUse, id)
	}
	e.pending[id] = struct{}{}
	return nil
}

func (e *Engine) release(id library.Account) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	delete(e.pending, id)
}

func (e *Engine) isPending(id library.Account) bool {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()
	_, ok := e.pending[id]
	return ok
}
