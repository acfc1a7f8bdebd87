package ledger

import (
	"github.com/sasha-s/go-deadlock"

	"bountyboard/engine/library"
)

// MemoryStore keeps every account in a map. Writers hold the lock for the whole Update so
// operations on the store are serialised.
type MemoryStore struct {
	data  map[library.Account][]byte
	mutex *deadlock.RWMutex
	// afterCommit runs with the write lock still held.
	afterCommit func(map[library.Account][]byte) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[library.Account][]byte),
		mutex: &deadlock.RWMutex{},
	}
}

type mapReader map[library.Account][]byte

func (m mapReader) Get(address library.Account) ([]byte, bool, error) {
	b, ok := m[address]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), b...), true, nil
}

func (s *MemoryStore) View(fn func(r Reader) error) error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return fn(mapReader(s.data))
}

func (s *MemoryStore) Update(fn func(txn *Txn) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	txn := newTxn(mapReader(s.data))
	if err := fn(txn); err != nil {
		return err
	}
	staged := txn.staged()
	if len(staged) == 0 {
		return nil
	}
	previous := make(map[library.Account][]byte, len(staged))
	for _, w := range staged {
		if old, ok := s.data[w.address]; ok {
			previous[w.address] = old
		}
		s.data[w.address] = w.data
	}
	if s.afterCommit != nil {
		if err := s.afterCommit(s.data); err != nil {
			// could not persist, put the map back the way it was
			for _, w := range staged {
				if old, ok := previous[w.address]; ok {
					s.data[w.address] = old
				} else {
					delete(s.data, w.address)
				}
			}
			return err
		}
	}
	return nil
}

// Snapshot returns a copy of every account, keyed by address.
func (s *MemoryStore) Snapshot() map[library.Account][]byte {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	m := make(map[library.Account][]byte, len(s.data))
	for address, b := range s.data {
		m[address] = append([]byte(nil), b...)
	}
	return m
}
