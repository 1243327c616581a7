package ops

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"keyledger/engine/library"
	"keyledger/keys"
	"keyledger/ledger"
)

// Query builds read-only projections from the store.
type Query struct {
	store       Store
	ledger      ledger.Ledger
	timeout     time.Duration
	concurrency int
}

func NewQuery(store Store, l ledger.Ledger, cfg Config) *Query {
	q := &Query{store: store, ledger: l, timeout: cfg.LedgerTimeout, concurrency: cfg.QueryConcurrency}
	if q.timeout <= 0 {
		q.timeout = 5 * time.Second
	}
	if q.concurrency <= 0 {
		q.concurrency = 8
	}
	return q
}

// ListAccounts returns every account id, sorted.
func (q *Query) ListAccounts() []library.Account {
	ids := q.store.ListAccountIDs()
	if ids == nil {
		return []library.Account{}
	}
	return ids
}

// ListAccountsWithDetail projects every account the ledger confirms. Accounts
// the ledger does not know, or cannot answer for in time, are left out.
func (q *Query) ListAccountsWithDetail(ctx context.Context) []Account {
	ids := q.store.ListAccountIDs()
	found := make([]*Account, len(ids))
	g := errgroup.Group{}
	g.SetLimit(q.concurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			record, ok := q.store.GetAccount(id)
			if !ok {
				return nil
			}
			lctx, cancel := context.WithTimeout(ctx, q.timeout)
			defer cancel()
			st, err := q.ledger.Account(lctx, id)
			if err != nil {
				library.LogCLI("skipping "+id+" in listing: "+err.Error(), 3)
				return nil
			}
			a := project(q.store, record, st.Nonce)
			found[i] = &a
			return nil
		})
	}
	_ = g.Wait()
	out := make([]Account, 0, len(found))
	for _, a := range found {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// ListKeys returns the keys on id, empty for unknown ids.
func (q *Query) ListKeys(id library.Account) []keys.VerifyingKey {
	k := q.store.ListKeys(id)
	if k == nil {
		return []keys.VerifyingKey{}
	}
	return k
}

// AccountsForKey lists the accounts key controls.
func (q *Query) AccountsForKey(key keys.VerifyingKey) []library.Account {
	ids := q.store.AccountsForKey(key)
	if ids == nil {
		return []library.Account{}
	}
	return ids
}
