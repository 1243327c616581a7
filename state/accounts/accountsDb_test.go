package accounts

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"keyledger/keys"
)

func newKey(t *testing.T) keys.VerifyingKey {
	t.Helper()
	sk, err := keys.GenerateSigningKey()
	require.NoError(t, err)
	return sk.VerifyingKey(keys.CosmosAdr36)
}

func TestGetAccountMissing(t *testing.T) {
	s := NewStore()
	_, ok := s.GetAccount("nobody")
	assert.False(t, ok)
	assert.Empty(t, s.ListKeys("nobody"))
	assert.Empty(t, s.ListData("nobody"))
	assert.Empty(t, s.ListAccountIDs())
}

func TestCreateAccountIsInsertIfAbsent(t *testing.T) {
	s := NewStore()
	k := newKey(t)
	require.NoError(t, s.CreateAccount("alice", Record{InitialKey: k}))
	assert.ErrorIs(t, s.CreateAccount("alice", Record{}), ErrExists)

	r, ok := s.GetAccount("alice")
	require.True(t, ok)
	assert.Equal(t, "alice", r.ID)
	assert.True(t, r.InitialKey.Equal(k))
}

func TestInsertAccountOverwrites(t *testing.T) {
	s := NewStore()
	s.InsertAccount("alice", Record{CreationTx: "a"})
	s.InsertAccount("alice", Record{CreationTx: "b"})
	r, _ := s.GetAccount("alice")
	assert.Equal(t, "b", r.CreationTx)
	assert.Equal(t, []string{"alice"}, s.ListAccountIDs())
}

func TestKeysAndReverseIndex(t *testing.T) {
	s := NewStore()
	k1, k2 := newKey(t), newKey(t)
	s.AppendKey("alice", k1)
	s.AppendKey("alice", k2)
	s.AppendKey("bob", k2)

	got := s.ListKeys("alice")
	require.Len(t, got, 2)
	assert.True(t, got[0].Equal(k1))
	assert.True(t, got[1].Equal(k2))
	assert.True(t, s.HasKey("bob", k2))
	assert.False(t, s.HasKey("bob", k1))
	assert.Equal(t, []string{"alice", "bob"}, s.AccountsForKey(k2))

	// snapshots are copies
	got[0] = k2
	assert.True(t, s.ListKeys("alice")[0].Equal(k1))
}

func TestConcurrentAppends(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("acct-%d", i%5)
			s.InsertAccount(id, Record{})
			s.AppendData(id, DataEntry{Data: []byte{byte(i)}})
			_ = s.ListData(id)
			_ = s.ListAccountIDs()
		}(i)
	}
	wg.Wait()
	total := 0
	for _, id := range s.ListAccountIDs() {
		total += len(s.ListData(id))
	}
	assert.Equal(t, 50, total)
	assert.Len(t, s.ListAccountIDs(), 5)
}

func TestAddKeyIfAbsent(t *testing.T) {
	s := NewStore()
	k := newKey(t)
	assert.True(t, s.AddKeyIfAbsent("alice", k))
	assert.False(t, s.AddKeyIfAbsent("alice", k))
	assert.Len(t, s.ListKeys("alice"), 1)
	assert.True(t, s.AddKeyIfAbsent("bob", k))
	assert.Equal(t, []string{"alice", "bob"}, s.AccountsForKey(k))
}
