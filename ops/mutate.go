package ops

import (
	"context"
	"fmt"

	"keyledger/engine/library"
	"keyledger/keys"
	"keyledger/ledger"
	"keyledger/state/accounts"
)

// authorize checks that bundle signs message and belongs to the account.
func (e *Engine) authorize(id library.Account, bundle keys.SignatureBundle, message []byte) error {
	if err := bundle.Verify(message); err != nil {
		return err
	}
	if !e.store.HasKey(id, bundle.VerifyingKey) {
		return fmt.Errorf("%w: %s is not a key of %s", ErrUnauthorizedKey, bundle.VerifyingKey.String(), id)
	}
	return nil
}

// AddKey attaches newKey to id. The authorizing bundle must sign the add_key
// payload for (id, newKey) with a key already on the account. Adding a key
// the account already has changes nothing.
func (e *Engine) AddKey(ctx context.Context, id library.Account, newKey keys.VerifyingKey, authorizing keys.SignatureBundle) (Account, error) {
	record, ok := e.store.GetAccount(id)
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	if err := e.authorize(id, authorizing, ledger.AddKeyPayload(id, newKey)); err != nil {
		return Account{}, err
	}
	lock := e.keyLock(id)
	lock.Lock()
	defer lock.Unlock()
	if e.store.HasKey(id, newKey) {
		return project(e.store, record, e.lastNonce(id)), nil
	}
	op := ledger.Operation{Kind: ledger.OpAddKey, ID: id, Key: newKey}
	receipt, err := e.submit(ctx, ledger.Transaction{Operation: op, Signer: authorizing})
	if err != nil {
		return Account{}, err
	}
	e.recordNonce(id, receipt.Nonce)
	e.store.AddKeyIfAbsent(id, newKey)
	library.LogCLI(fmt.Sprintf("key %s added to %s", newKey.String(), id), 4)
	return project(e.store, record, e.lastNonce(id)), nil
}

// AddData attaches data to id. dataSignature must sign the raw data and
// authorizing must sign the add_data payload, both with keys on the account.
func (e *Engine) AddData(ctx context.Context, id library.Account, data []byte, dataSignature, authorizing keys.SignatureBundle) (Account, error) {
	record, ok := e.store.GetAccount(id)
	if !ok {
		return Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	if err := e.authorize(id, dataSignature, data); err != nil {
		return Account{}, fmt.Errorf("data signature: %w", err)
	}
	if err := e.authorize(id, authorizing, ledger.AddDataPayload(id, data, dataSignature)); err != nil {
		return Account{}, err
	}
	blob := make([]byte, len(data))
	copy(blob, data)
	op := ledger.Operation{Kind: ledger.OpAddData, ID: id, Data: blob, DataSignature: dataSignature}
	receipt, err := e.submit(ctx, ledger.Transaction{Operation: op, Signer: authorizing})
	if err != nil {
		return Account{}, err
	}
	e.recordNonce(id, receipt.Nonce)
	e.store.AppendData(id, accounts.DataEntry{Data: blob, Signature: dataSignature})
	library.LogCLI(fmt.Sprintf("%d bytes of data added to %s", len(blob), id), 4)
	return project(e.store, record, e.lastNonce(id)), nil
}
