package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keyledger/keys"
	"keyledger/ledger"
	"keyledger/ops"
	"keyledger/server"
	"keyledger/state/accounts"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	prover := ledger.NewMemoryProver(2 * time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = prover.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	service, err := keys.GenerateSigningKey()
	require.NoError(t, err)
	cfg := ops.Config{ServiceID: "client-test", LedgerTimeout: time.Second}
	store := accounts.NewStore()
	engine := ops.NewEngine(store, prover, service, cfg)
	require.NoError(t, engine.RegisterService(context.Background()))

	ts := httptest.NewServer(server.New(engine, ops.NewQuery(store, prover, cfg), 1<<20).Router())
	t.Cleanup(ts.Close)
	return New(ts.URL, ts.Client())
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	owner, err := keys.GenerateSigningKey()
	require.NoError(t, err)
	second, err := keys.GenerateSigningKey()
	require.NoError(t, err)

	a, err := c.CreateAccount(ctx, "tool-user", owner)
	require.NoError(t, err)
	assert.Equal(t, "tool-user", a.ID)

	_, err = c.AddKey(ctx, "tool-user", owner, second.VerifyingKey(keys.CosmosAdr36))
	require.NoError(t, err)
	a, err = c.AddData(ctx, "tool-user", second, []byte("note"))
	require.NoError(t, err)
	assert.Len(t, a.Keys, 2)
	assert.Len(t, a.Data, 1)

	a, err = c.GetAccount(ctx, "tool-user")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), a.Nonce)

	ids, err := c.ListAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-user"}, ids)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	c := newTestClient(t)
	owner, err := keys.GenerateSigningKey()
	require.NoError(t, err)

	_, err = c.GetAccount(context.Background(), "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.False(t, apiErr.Retryable())

	_, err = c.CreateAccount(context.Background(), "dup", owner)
	require.NoError(t, err)
	_, err = c.CreateAccount(context.Background(), "dup", owner)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
}
