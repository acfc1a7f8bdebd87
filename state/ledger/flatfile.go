package ledger

import (
	"encoding/json"
	"fmt"

	"bountyboard/engine/actors"
	"bountyboard/engine/library"
)

const (
	flatFileMind = "ledger"
	flatFileDb   = "accounts"
)

// FlatFileStore is a MemoryStore whose full contents are written to disk after every commit.
type FlatFileStore struct {
	*MemoryStore
	dir string
}

// OpenFlatFileStore restores the snapshot under dir, if there is one.
func OpenFlatFileStore(dir string) (*FlatFileStore, error) {
	s := &FlatFileStore{MemoryStore: NewMemoryStore(), dir: dir}
	f, ok, err := actors.Open(dir, flatFileMind, flatFileDb)
	if err != nil {
		return nil, err
	}
	if ok {
		defer f.Close()
		var data map[library.Account][]byte
		if err = json.NewDecoder(f).Decode(&data); err != nil {
			if err.Error() != "EOF" {
				return nil, fmt.Errorf("could not restore ledger from disk: %s", err.Error())
			}
		}
		if data != nil {
			s.data = data
		}
		actors.LogCLI(fmt.Sprintf("Ledger restored %d accounts from disk", len(s.data)), 4)
	}
	s.afterCommit = s.persistToDisk
	return s, nil
}

func (s *FlatFileStore) persistToDisk(data map[library.Account][]byte) error {
	b, err := json.MarshalIndent(data, "", " ")
	if err != nil {
		return err
	}
	return actors.Write(s.dir, flatFileMind, flatFileDb, b)
}
