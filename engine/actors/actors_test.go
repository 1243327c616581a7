package actors

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keyledger/keys"
)

func testConfig(t *testing.T) {
	t.Helper()
	c := viper.New()
	c.Set("rootDir", t.TempDir()+"/")
	SetDefaults(c)
	SetConfig(c)
	resetWallet()
	t.Cleanup(resetWallet)
}

func TestWalletPersistsAcrossRestarts(t *testing.T) {
	testConfig(t)
	first, err := MyWallet()
	require.NoError(t, err)
	require.NotEmpty(t, first.SeedWords)

	resetWallet()
	second, err := MyWallet()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	sk, err := ServiceSigningKey()
	require.NoError(t, err)
	assert.Equal(t, first.Account, sk.VerifyingKey(keys.Secp256k1).String())
}

func TestWriteThenOpen(t *testing.T) {
	testConfig(t)
	_, ok := Open("mind", "db")
	assert.False(t, ok)
	require.NoError(t, Write("mind", "db", []byte("hello")))
	f, ok := Open("mind", "db")
	require.True(t, ok)
	defer f.Close()
	buf := make([]byte, 5)
	_, err := f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf))
}

func TestCurrentSettingsDefaults(t *testing.T) {
	testConfig(t)
	s := CurrentSettings()
	assert.Equal(t, "keyledger-service", s.ServiceID)
	assert.Equal(t, "5s", s.LedgerTimeout.String())
	assert.Equal(t, 8, s.QueryConcurrency)
	assert.Equal(t, int64(1<<20), s.MaxBodyBytes)
}

func TestTerminateClosesOnce(t *testing.T) {
	term := make(chan struct{})
	SetTerminateChan(term)
	t.Cleanup(func() { SetTerminateChan(nil) })
	Terminate()
	Terminate()
	_, open := <-term
	assert.False(t, open)
}
