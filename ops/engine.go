package ops

import (
	"context"
	"time"

	"github.com/sasha-s/go-deadlock"
	"keyledger/engine/library"
	"keyledger/keys"
	"keyledger/ledger"
	"keyledger/state/accounts"
)

// Store is the slice of the account store the engine needs.
type Store interface {
	CreateAccount(id library.Account, record accounts.Record) error
	GetAccount(id library.Account) (accounts.Record, bool)
	HasAccount(id library.Account) bool
	ListAccountIDs() []library.Account
	AddKeyIfAbsent(id library.Account, key keys.VerifyingKey) bool
	HasKey(id library.Account, key keys.VerifyingKey) bool
	ListKeys(id library.Account) []keys.VerifyingKey
	AppendData(id library.Account, entry accounts.DataEntry)
	ListData(id library.Account) []accounts.DataEntry
	AccountsForKey(key keys.VerifyingKey) []library.Account
}

type Config struct {
	ServiceID        string
	LedgerTimeout    time.Duration
	QueryConcurrency int
}

// Account is the read projection of an account.
type Account struct {
	ID        library.Account
	Keys      []keys.VerifyingKey
	Data      []accounts.DataEntry
	Nonce     uint64
	CreatedAt time.Time
}

// Engine authorizes and applies every account mutation. The store is only
// written after the ledger has confirmed the matching transaction.
type Engine struct {
	store   Store
	ledger  ledger.Ledger
	service *keys.SigningKey
	cfg     Config

	// ids with a creation in flight
	pending   map[library.Account]struct{}
	pendingMu *deadlock.Mutex

	// last nonce each receipt or ledger read reported
	nonces   map[library.Account]uint64
	noncesMu *deadlock.Mutex

	// serializes the de-dup check and submit of add_key per account
	keyLocks   map[library.Account]*deadlock.Mutex
	keyLocksMu *deadlock.Mutex
}

func NewEngine(store Store, l ledger.Ledger, service *keys.SigningKey, cfg Config) *Engine {
	if cfg.LedgerTimeout <= 0 {
		cfg.LedgerTimeout = 5 * time.Second
	}
	return &Engine{
		store:     store,
		ledger:    l,
		service:   service,
		cfg:       cfg,
		pending:   make(map[library.Account]struct{}),
		pendingMu: &deadlock.Mutex{},
		nonces:    make(map[library.Account]uint64),
		noncesMu:  &deadlock.Mutex{},

		keyLocks:   make(map[library.Account]*deadlock.Mutex),
		keyLocksMu: &deadlock.Mutex{},
	}
}

func (e *Engine) keyLock(id library.Account) *deadlock.Mutex {
	e.keyLocksMu.Lock()
	defer e.keyLocksMu.Unlock()
	l, ok := e.keyLocks[id]
	if !ok {
		l = &deadlock.Mutex{}
		e.keyLocks[id] = l
	}
	return l
}

func (e *Engine) ServiceID() string {
	return e.cfg.ServiceID
}

// submit sends tx to the ledger under the configured timeout.
func (e *Engine) submit(ctx context.Context, tx ledger.Transaction) (ledger.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.LedgerTimeout)
	defer cancel()
	receipt, err := e.ledger.Submit(ctx, tx)
	if err != nil {
		library.LogCLI("ledger did not confirm "+string(tx.Operation.Kind)+" for "+tx.Operation.ID+": "+err.Error(), 2)
		return ledger.Receipt{}, ledgerError(err)
	}
	return receipt, nil
}

func (e *Engine) recordNonce(id library.Account, nonce uint64) {
	e.noncesMu.Lock()
	defer e.noncesMu.Unlock()
	if nonce > e.nonces[id] {
		e.nonces[id] = nonce
	}
}

func (e *Engine) lastNonce(id library.Account) uint64 {
	e.noncesMu.Lock()
	defer e.noncesMu.Unlock()
	return e.nonces[id]
}

// GetAccount returns the projection for id. The nonce comes from the ledger;
// if the ledger cannot answer in time the last known nonce is used.
func (e *Engine) GetAccount(ctx context.Context, id library.Account) (Account, error) {
	record, ok := e.store.GetAccount(id)
	if !ok {
		return Account{}, ErrAccountNotFound
	}
	lctx, cancel := context.WithTimeout(ctx, e.cfg.LedgerTimeout)
	defer cancel()
	if st, err := e.ledger.Account(lctx, id); err == nil {
		e.recordNonce(id, st.Nonce)
	} else {
		library.LogCLI("serving stale nonce for "+id+": "+err.Error(), 3)
	}
	return project(e.store, record, e.lastNonce(id)), nil
}

func project(store Store, record accounts.Record, nonce uint64) Account {
	a := Account{
		ID:        record.ID,
		Keys:      store.ListKeys(record.ID),
		Data:      store.ListData(record.ID),
		Nonce:     nonce,
		CreatedAt: record.CreatedAt,
	}
	if a.Keys == nil {
		a.Keys = []keys.VerifyingKey{}
	}
	if a.Data == nil {
		a.Data = []accounts.DataEntry{}
	}
	return a
}
