package ops

import (
	"context"
	"fmt"

	"keyledger/engine/library"
	"keyledger/keys"
	"keyledger/ledger"
)

// RegisterService announces the service id and wallet key to the ledger so
// it accepts the service challenges carried by create transactions.
func (e *Engine) RegisterService(ctx context.Context) error {
	key := e.service.VerifyingKey(keys.Secp256k1)
	op := ledger.Operation{Kind: ledger.OpRegisterService, ID: e.cfg.ServiceID, Key: key}
	payload, err := op.Payload()
	if err != nil {
		return err
	}
	signer, err := e.service.SignBundle(payload, keys.Secp256k1)
	if err != nil {
		return err
	}
	if _, err := e.submit(ctx, ledger.Transaction{Operation: op, Signer: signer}); err != nil {
		return fmt.Errorf("register service %s: %w", e.cfg.ServiceID, err)
	}
	library.LogCLI(fmt.Sprintf("service %s registered with key %s", e.cfg.ServiceID, key.String()), 4)
	return nil
}
