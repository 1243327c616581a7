package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keyledger/keys"
)

type fixture struct {
	prover  *MemoryProver
	service *keys.SigningKey
	user    *keys.SigningKey
}

func startProver(t *testing.T, interval time.Duration) *MemoryProver {
	t.Helper()
	p := NewMemoryProver(interval)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return p
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	service, err := keys.GenerateSigningKey()
	require.NoError(t, err)
	user, err := keys.GenerateSigningKey()
	require.NoError(t, err)
	f := fixture{prover: startProver(t, 5*time.Millisecond), service: service, user: user}
	_, err = f.prover.Submit(context.Background(), f.registerTx(t, "svc", service))
	require.NoError(t, err)
	return f
}

func (f fixture) registerTx(t *testing.T, serviceID string, sk *keys.SigningKey) Transaction {
	op := Operation{Kind: OpRegisterService, ID: serviceID, Key: sk.VerifyingKey(keys.Secp256k1)}
	p, _ := op.Payload()
	signer, err := sk.SignBundle(p, keys.Secp256k1)
	require.NoError(t, err)
	return Transaction{Operation: op, Signer: signer}
}

func (f fixture) createTx(t *testing.T, id string, user *keys.SigningKey) Transaction {
	key := user.VerifyingKey(keys.CosmosAdr36)
	challenge, err := f.service.Sign(ServiceChallengeMessage(id, "svc", key), keys.Secp256k1)
	require.NoError(t, err)
	op := Operation{Kind: OpCreateAccount, ID: id, ServiceID: "svc", ServiceChallenge: challenge, Key: key}
	p, _ := op.Payload()
	signer, err := user.SignBundle(p, keys.CosmosAdr36)
	require.NoError(t, err)
	return Transaction{Operation: op, Signer: signer}
}

func signed(t *testing.T, op Operation, by *keys.SigningKey) Transaction {
	p, err := op.Payload()
	require.NoError(t, err)
	signer, err := by.SignBundle(p, keys.CosmosAdr36)
	require.NoError(t, err)
	return Transaction{Operation: op, Signer: signer}
}

func TestCreateThenMutateIncrementsNonce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.prover.Submit(ctx, f.createTx(t, "alice", f.user))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Nonce)
	assert.NotEmpty(t, r.TxID)

	second, _ := keys.GenerateSigningKey()
	r, err = f.prover.Submit(ctx, signed(t, Operation{Kind: OpAddKey, ID: "alice", Key: second.VerifyingKey(keys.CosmosAdr36)}, f.user))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), r.Nonce)

	data := []byte("blob")
	dataSig, _ := second.SignBundle(data, keys.CosmosAdr36)
	r, err = f.prover.Submit(ctx, signed(t, Operation{Kind: OpAddData, ID: "alice", Data: data, DataSignature: dataSig}, second))
	require.NoError(t, err)
	assert.Equal(t, uint64(3), r.Nonce)

	st, err := f.prover.Account(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, st.Keys, 2)
	assert.Equal(t, 1, st.DataCount)
	assert.Equal(t, uint64(3), st.Nonce)
	assert.GreaterOrEqual(t, f.prover.Height(), uint64(3))
	assert.NotEmpty(t, f.prover.Epochs()[0].StateRoot)
}

func TestRejectsDuplicateCreate(t *testing.T) {
	f := newFixture(t)
	_, err := f.prover.Submit(context.Background(), f.createTx(t, "bob", f.user))
	require.NoError(t, err)
	other, _ := keys.GenerateSigningKey()
	_, err = f.prover.Submit(context.Background(), f.createTx(t, "bob", other))
	assert.ErrorIs(t, err, ErrAccountExists)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestRejectsUnregisteredServiceAndForeignSigner(t *testing.T) {
	f := newFixture(t)
	tx := f.createTx(t, "carol", f.user)
	tx.Operation.ServiceID = "other"
	tx = signed(t, tx.Operation, f.user)
	_, err := f.prover.Submit(context.Background(), tx)
	assert.ErrorIs(t, err, ErrRejected)

	_, err = f.prover.Submit(context.Background(), f.createTx(t, "carol", f.user))
	require.NoError(t, err)
	stranger, _ := keys.GenerateSigningKey()
	_, err = f.prover.Submit(context.Background(), signed(t, Operation{Kind: OpAddKey, ID: "carol", Key: stranger.VerifyingKey(keys.CosmosAdr36)}, stranger))
	assert.ErrorIs(t, err, ErrRejected)

	_, err = f.prover.Submit(context.Background(), signed(t, Operation{Kind: OpAddKey, ID: "nobody", Key: stranger.VerifyingKey(keys.CosmosAdr36)}, stranger))
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestServiceReRegistration(t *testing.T) {
	f := newFixture(t)
	_, err := f.prover.Submit(context.Background(), f.registerTx(t, "svc", f.service))
	assert.NoError(t, err)
	_, err = f.prover.Submit(context.Background(), f.registerTx(t, "svc", f.user))
	assert.ErrorIs(t, err, ErrRejected)
}

func TestTimedOutSubmitIsNeverApplied(t *testing.T) {
	// batches far slower than the caller is willing to wait
	p := startProver(t, time.Hour)
	service, _ := keys.GenerateSigningKey()
	f := fixture{prover: p, service: service}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := p.Submit(ctx, f.registerTx(t, "svc", service))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	p.commitBatch()
	assert.Equal(t, uint64(0), p.Height())
}

func TestAccountUnknown(t *testing.T) {
	p := NewMemoryProver(time.Millisecond)
	_, err := p.Account(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestSubmitAfterStop(t *testing.T) {
	p := NewMemoryProver(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))
	service, _ := keys.GenerateSigningKey()
	_, err := p.Submit(context.Background(), fixture{}.registerTx(t, "svc", service))
	assert.ErrorIs(t, err, ErrStopped)
}

func TestAddingPresentKeyLeavesNonce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.prover.Submit(ctx, f.createTx(t, "alice", f.user))
	require.NoError(t, err)

	second, _ := keys.GenerateSigningKey()
	tx := signed(t, Operation{Kind: OpAddKey, ID: "alice", Key: second.VerifyingKey(keys.CosmosAdr36)}, f.user)
	for i := 0; i < 3; i++ {
		r, err := f.prover.Submit(ctx, tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), r.Nonce)
	}
	st, err := f.prover.Account(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, st.Keys, 2)
	assert.Equal(t, uint64(2), st.Nonce)
}
