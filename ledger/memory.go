package ledger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keyledger/engine/library"
	"keyledger/keys"
)

type result struct {
	receipt Receipt
	err     error
}

type pending struct {
	tx        Transaction
	done      chan result
	processed bool
	cancelled bool
}

type accountState struct {
	keys      []keys.VerifyingKey
	dataCount int
	nonce     uint64
}

// MemoryProver is a single-process stand-in for the global prover. Submitted
// transactions wait in a FIFO mempool until the batcher commits them into
// the next epoch.
type MemoryProver struct {
	mu       *deadlock.Mutex
	mempool  *library.Stack[*pending]
	accounts map[library.Account]*accountState
	services map[string]keys.VerifyingKey
	epochs   []Epoch
	stopped  bool

	batchInterval time.Duration
}

func NewMemoryProver(batchInterval time.Duration) *MemoryProver {
	if batchInterval <= 0 {
		batchInterval = 250 * time.Millisecond
	}
	return &MemoryProver{
		mu:            &deadlock.Mutex{},
		mempool:       library.NewStack[*pending](16),
		accounts:      make(map[library.Account]*accountState),
		services:      make(map[string]keys.VerifyingKey),
		batchInterval: batchInterval,
	}
}

// Run commits a batch every batchInterval until ctx ends. Transactions still
// waiting at shutdown fail with ErrStopped.
func (p *MemoryProver) Run(ctx context.Context) error {
	library.LogCLI("Prover has started", 4)
	ticker := time.NewTicker(p.batchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.stop()
			library.LogCLI("Prover has shut down", 4)
			return nil
		case <-ticker.C:
			p.commitBatch()
		}
	}
}

func (p *MemoryProver) stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	for {
		pend, ok := p.mempool.Pop()
		if !ok {
			return
		}
		pend.processed = true
		pend.done <- result{err: ErrStopped}
	}
}

func (p *MemoryProver) Submit(ctx context.Context, tx Transaction) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	pend := &pending{tx: tx, done: make(chan result, 1)}
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return Receipt{}, ErrStopped
	}
	p.mempool.Push(pend)
	p.mu.Unlock()

	select {
	case r := <-pend.done:
		return r.receipt, r.err
	case <-ctx.Done():
		p.mu.Lock()
		if !pend.processed {
			pend.cancelled = true
			p.mu.Unlock()
			return Receipt{}, ctx.Err()
		}
		p.mu.Unlock()
		// it was applied while we were giving up, report what happened
		r := <-pend.done
		return r.receipt, r.err
	}
}

func (p *MemoryProver) Account(ctx context.Context, id library.Account) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.accounts[id]
	if !ok {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
	}
	return State{ID: id, Keys: slices.Clone(a.keys), DataCount: a.dataCount, Nonce: a.nonce}, nil
}

// Height is the number of committed epochs.
func (p *MemoryProver) Height() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return uint64(len(p.epochs))
}

func (p *MemoryProver) Epochs() []Epoch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.epochs)
}

func (p *MemoryProver) commitBatch() {
	sane := library.ValidateSaneExecutionTime()
	defer sane()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mempool.Len() == 0 {
		return
	}
	height := uint64(len(p.epochs)) + 1
	var committed []library.Sha256
	for {
		pend, ok := p.mempool.Pop()
		if !ok {
			break
		}
		if pend.cancelled {
			continue
		}
		pend.processed = true
		nonce, err := p.apply(pend.tx)
		if err != nil {
			library.LogCLI(fmt.Sprintf("prover rejected %s: %s", pend.tx.Operation.Kind, err.Error()), 3)
			pend.done <- result{err: err}
			continue
		}
		id := pend.tx.ID()
		committed = append(committed, id)
		pend.done <- result{receipt: Receipt{TxID: id, Height: height, Nonce: nonce}}
	}
	if len(committed) == 0 {
		return
	}
	p.epochs = append(p.epochs, Epoch{
		Height:      height,
		TxIDs:       committed,
		StateRoot:   p.stateRoot(),
		CommittedAt: time.Now(),
	})
	library.LogCLI(fmt.Sprintf("epoch %d committed with %d transactions", height, len(committed)), 3)
}

// apply validates tx against confirmed state and mutates it. Callers hold p.mu.
func (p *MemoryProver) apply(tx Transaction) (uint64, error) {
	op := tx.Operation
	payload, err := op.Payload()
	if err != nil {
		return 0, err
	}
	if err := tx.Signer.Verify(payload); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrRejected, err.Error())
	}
	switch op.Kind {
	case OpRegisterService:
		if !tx.Signer.VerifyingKey.Equal(op.Key) {
			return 0, fmt.Errorf("%w: service %s must sign its own registration", ErrRejected, op.ID)
		}
		if existing, ok := p.services[op.ID]; ok {
			if existing.Equal(op.Key) {
				return 0, nil
			}
			return 0, fmt.Errorf("%w: service %s is registered with another key", ErrRejected, op.ID)
		}
		p.services[op.ID] = op.Key
		return 0, nil
	case OpCreateAccount:
		if _, exists := p.accounts[op.ID]; exists {
			return 0, fmt.Errorf("%w: %s", ErrAccountExists, op.ID)
		}
		serviceKey, ok := p.services[op.ServiceID]
		if !ok {
			return 0, fmt.Errorf("%w: service %s is not registered", ErrRejected, op.ServiceID)
		}
		if err := serviceKey.Verify(ServiceChallengeMessage(op.ID, op.ServiceID, op.Key), op.ServiceChallenge); err != nil {
			return 0, fmt.Errorf("%w: service challenge: %s", ErrRejected, err.Error())
		}
		if !tx.Signer.VerifyingKey.Equal(op.Key) {
			return 0, fmt.Errorf("%w: account must be created by its first key", ErrRejected)
		}
		p.accounts[op.ID] = &accountState{keys: []keys.VerifyingKey{op.Key}, nonce: 1}
		return 1, nil
	case OpAddKey, OpAddData:
		a, ok := p.accounts[op.ID]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownAccount, op.ID)
		}
		if !hasKey(a.keys, tx.Signer.VerifyingKey) {
			return 0, fmt.Errorf("%w: signer is not a key of %s", ErrRejected, op.ID)
		}
		if op.Kind == OpAddKey {
			if hasKey(a.keys, op.Key) {
				return a.nonce, nil
			}
			a.keys = append(a.keys, op.Key)
		} else {
			if !hasKey(a.keys, op.DataSignature.VerifyingKey) {
				return 0, fmt.Errorf("%w: data signer is not a key of %s", ErrRejected, op.ID)
			}
			if err := op.DataSignature.Verify(op.Data); err != nil {
				return 0, fmt.Errorf("%w: data signature: %s", ErrRejected, err.Error())
			}
			a.dataCount++
		}
		a.nonce++
		return a.nonce, nil
	}
	return 0, fmt.Errorf("%w: unknown operation %q", ErrRejected, op.Kind)
}

// stateRoot hashes every account digest in descending id order. Callers hold p.mu.
func (p *MemoryProver) stateRoot() library.Sha256 {
	ids := maps.Keys(p.accounts)
	slices.Sort(ids)
	b := bytes.Buffer{}
	for i := len(ids) - 1; i >= 0; i-- {
		a := p.accounts[ids[i]]
		w := library.NewPayloadWriter("account").String(ids[i]).Uint64(a.nonce).Uint64(uint64(a.dataCount))
		for _, k := range a.keys {
			w.Bytes(k.Bytes)
		}
		b.Write(library.Sha256Bytes(w.Payload()))
	}
	return library.Sha256Sum(b.Bytes())
}

func hasKey(set []keys.VerifyingKey, k keys.VerifyingKey) bool {
	return slices.IndexFunc(set, k.Equal) >= 0
}
