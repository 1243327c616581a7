package accounts

import (
	"github.com/sasha-s/go-deadlock"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"keyledger/engine/library"
	"keyledger/keys"
)

// Store is the volatile account cache. The account map, the key sequences and
// the data sequences are each guarded by their own lock, so a reader never
// sees a torn append but may see one field change before another.
type Store struct {
	accounts   map[library.Account]Record
	accountsMu *deadlock.RWMutex

	keys map[library.Account][]keys.VerifyingKey
	// reverse index, algorithm+base64 key -> accounts holding it
	owners map[string][]library.Account
	keysMu *deadlock.RWMutex

	data   map[library.Account][]DataEntry
	dataMu *deadlock.RWMutex
}

func NewStore() *Store {
	return &Store{
		accounts:   make(map[library.Account]Record),
		accountsMu: &deadlock.RWMutex{},
		keys:       make(map[library.Account][]keys.VerifyingKey),
		owners:     make(map[string][]library.Account),
		keysMu:     &deadlock.RWMutex{},
		data:       make(map[library.Account][]DataEntry),
		dataMu:     &deadlock.RWMutex{},
	}
}

// InsertAccount inserts or overwrites the record for id.
func (s *Store) InsertAccount(id library.Account, record Record) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()
	record.ID = id
	s.accounts[id] = record
}

// CreateAccount inserts the record only if id is absent.
func (s *Store) CreateAccount(id library.Account, record Record) error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()
	if _, exists := s.accounts[id]; exists {
		return ErrExists
	}
	record.ID = id
	s.accounts[id] = record
	return nil
}

func (s *Store) GetAccount(id library.Account) (Record, bool) {
	s.accountsMu.RLock()
	defer s.accountsMu.RUnlock()
	r, ok := s.accounts[id]
	return r, ok
}

func (s *Store) HasAccount(id library.Account) bool {
	_, ok := s.GetAccount(id)
	return ok
}

// ListAccountIDs returns every id, sorted.
func (s *Store) ListAccountIDs() []library.Account {
	s.accountsMu.RLock()
	ids := maps.Keys(s.accounts)
	s.accountsMu.RUnlock()
	slices.Sort(ids)
	return ids
}

func (s *Store) AppendKey(id library.Account, key keys.VerifyingKey) {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	s.keys[id] = append(s.keys[id], key)
	idx := indexKey(key)
	if !slices.Contains(s.owners[idx], id) {
		s.owners[idx] = append(s.owners[idx], id)
	}
}

// AddKeyIfAbsent appends key unless the account already holds it, and
// reports whether it was appended.
func (s *Store) AddKeyIfAbsent(id library.Account, key keys.VerifyingKey) bool {
	s.keysMu.Lock()
	defer s.keysMu.Unlock()
	if slices.IndexFunc(s.keys[id], key.Equal) >= 0 {
		return false
	}
	s.keys[id] = append(s.keys[id], key)
	idx := indexKey(key)
	if !slices.Contains(s.owners[idx], id) {
		s.owners[idx] = append(s.owners[idx], id)
	}
	return true
}

// ListKeys returns a copy of the key sequence for id, empty if unknown.
func (s *Store) ListKeys(id library.Account) []keys.VerifyingKey {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return slices.Clone(s.keys[id])
}

// HasKey reports whether key is currently on the account.
func (s *Store) HasKey(id library.Account, key keys.VerifyingKey) bool {
	s.keysMu.RLock()
	defer s.keysMu.RUnlock()
	return slices.IndexFunc(s.keys[id], key.Equal) >= 0
}

// AccountsForKey lists the accounts key is attached to, sorted.
func (s *Store) AccountsForKey(key keys.VerifyingKey) []library.Account {
	s.keysMu.RLock()
	owners := slices.Clone(s.owners[indexKey(key)])
	s.keysMu.RUnlock()
	slices.Sort(owners)
	return owners
}

func (s *Store) AppendData(id library.Account, entry DataEntry) {
	s.dataMu.Lock()
	defer s.dataMu.Unlock()
	s.data[id] = append(s.data[id], entry)
}

// ListData returns a copy of the data sequence for id, empty if unknown.
func (s *Store) ListData(id library.Account) []DataEntry {
	s.dataMu.RLock()
	defer s.dataMu.RUnlock()
	return slices.Clone(s.data[id])
}

func indexKey(key keys.VerifyingKey) string {
	return key.Algorithm.String() + ":" + key.String()
}
