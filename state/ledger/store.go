package ledger

import (
	"encoding/json"
	"fmt"
	"sort"

	"bountyboard/engine/library"
)

// Reader gives read access to committed account data.
type Reader interface {
	Get(address library.Account) ([]byte, bool, error)
}

// Store is the durable key-value account store. Update is the atomic execution unit: everything
// written through the Txn is committed together if fn returns nil and discarded otherwise.
// Implementations serialise writers.
type Store interface {
	View(fn func(r Reader) error) error
	Update(fn func(txn *Txn) error) error
}

// Txn stages writes on top of a Reader.
type Txn struct {
	base    Reader
	writes  map[library.Account][]byte
	created map[library.Account]struct{}
}

func newTxn(base Reader) *Txn {
	return &Txn{
		base:    base,
		writes:  make(map[library.Account][]byte),
		created: make(map[library.Account]struct{}),
	}
}

func (t *Txn) Get(address library.Account) ([]byte, bool, error) {
	if b, ok := t.writes[address]; ok {
		return b, true, nil
	}
	return t.base.Get(address)
}

func (t *Txn) Exists(address library.Account) (bool, error) {
	_, ok, err := t.Get(address)
	return ok, err
}

// Create writes data to an address that must not hold anything yet.
func (t *Txn) Create(address library.Account, data []byte) error {
	if !library.ValidAccount(address) {
		return fmt.Errorf("%w: cannot create account at %q", library.ErrInvalidAccountConfig, address)
	}
	exists, err := t.Exists(address)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", library.ErrAlreadyInitialized, address)
	}
	t.writes[address] = append([]byte(nil), data...)
	t.created[address] = struct{}{}
	return nil
}

// Put overwrites an existing address.
func (t *Txn) Put(address library.Account, data []byte) error {
	exists, err := t.Exists(address)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", library.ErrAccountNotFound, address)
	}
	t.writes[address] = append([]byte(nil), data...)
	return nil
}

type write struct {
	address library.Account
	data    []byte
	created bool
}

// staged returns the writes in address order so that every backend commits them deterministically.
func (t *Txn) staged() []write {
	var w []write
	for address, data := range t.writes {
		_, created := t.created[address]
		w = append(w, write{address: address, data: data, created: created})
	}
	sort.Slice(w, func(i, j int) bool {
		return w[i].address < w[j].address
	})
	return w
}

// GetRecord decodes the JSON record stored at address into v.
func GetRecord(r Reader, address library.Account, kind string, v any) error {
	b, ok, err := r.Get(address)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", library.ErrAccountNotFound, address)
	}
	if k := RecordKind(b); k != kind {
		return fmt.Errorf("%w: %s holds a %q record, expected %q", library.ErrInvalidAccountConfig, address, k, kind)
	}
	if err = json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %s could not be decoded: %s", library.ErrInvalidAccountConfig, address, err.Error())
	}
	return nil
}

func encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// CreateRecord stores v as a new JSON record.
func CreateRecord(t *Txn, address library.Account, v any) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return t.Create(address, b)
}

// PutRecord replaces the JSON record at address.
func PutRecord(t *Txn, address library.Account, v any) error {
	b, err := encode(v)
	if err != nil {
		return err
	}
	return t.Put(address, b)
}

// RecordKind returns the "kind" field of a JSON record, or "" if there is none.
func RecordKind(b []byte) string {
	var header struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(b, &header); err != nil {
		return ""
	}
	return header.Kind
}
