package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keyledger/client"
	"keyledger/engine/actors"
	"keyledger/keys"
	"keyledger/ledger"
	"keyledger/ops"
	"keyledger/server"
	"keyledger/state/accounts"
)

func testService(t *testing.T) *client.Client {
	t.Helper()
	conf := viper.New()
	conf.Set("rootDir", t.TempDir()+"/")
	actors.SetDefaults(conf)
	actors.SetConfig(conf)

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
	cfg := ops.Config{ServiceID: "tool-test", LedgerTimeout: time.Second}
	store := accounts.NewStore()
	engine := ops.NewEngine(store, prover, service, cfg)
	require.NoError(t, engine.RegisterService(context.Background()))
	ts := httptest.NewServer(server.New(engine, ops.NewQuery(store, prover, cfg), 1<<20).Router())
	t.Cleanup(ts.Close)
	return client.New(ts.URL, ts.Client())
}

func execute(t *testing.T, c *client.Client, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := RootCommand("http://unused", func(string) *client.Client { return c })
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestToolCommands(t *testing.T) {
	c := testService(t)

	out, err := execute(t, c, "keygen", "--name", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "Address: cosmos1")
	_, err = execute(t, c, "keygen", "-n", "alice")
	assert.Error(t, err, "names are not reused")
	_, err = execute(t, c, "keygen", "--name", "laptop")
	require.NoError(t, err)

	_, err = execute(t, c, "create", "--name", "alice", "--id", "acct")
	require.NoError(t, err)
	_, err = execute(t, c, "add-key", "--name", "alice", "--id", "acct", "--new", "laptop")
	require.NoError(t, err)
	_, err = execute(t, c, "add-data", "-n", "laptop", "-i", "acct", "-d", "written from the laptop")
	require.NoError(t, err)

	out, err = execute(t, c, "get", "--id", "acct")
	require.NoError(t, err)
	assert.Contains(t, out, `"nonce": 3`)

	out, err = execute(t, c, "list")
	require.NoError(t, err)
	assert.Equal(t, "acct\n", out)

	_, err = execute(t, c, "create", "--name", "nobody", "--id", "other")
	assert.Error(t, err)
	_, err = execute(t, c, "add-key", "--name", "alice", "--id", "acct")
	assert.Error(t, err, "--new is required")
	_, err = execute(t, c, "frobnicate")
	assert.Error(t, err)
}

func TestToolReportsConflicts(t *testing.T) {
	c := testService(t)
	_, err := execute(t, c, "keygen")
	require.NoError(t, err)
	_, err = execute(t, c, "create", "--id", "dup")
	require.NoError(t, err)

	_, err = execute(t, c, "create", "--id", "dup")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
}
