package vault

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/mendnet/mend/src/coin"
	cm "github.com/mendnet/mend/src/common"
	"github.com/ugorji/go/codec"
)

const coinPrefix = "coin"

// diskRecord is the persisted form of a vault record.
type diskRecord struct {
	Denomination int8   `json:"denomination"`
	Serial       uint32 `json:"serial"`
	Value        []byte `json:"value"`
	Updated      int64  `json:"updated"`
}

// Marshal - json encoding of diskRecord
func (rec *diskRecord) Marshal() ([]byte, error) {
	b := new(bytes.Buffer)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	enc := codec.NewEncoder(b, jh)

	if err := enc.Encode(rec); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// Unmarshal - json decoding of diskRecord
func (rec *diskRecord) Unmarshal(data []byte) error {
	b := bytes.NewBuffer(data)
	jh := new(codec.JsonHandle)
	jh.Canonical = true
	dec := codec.NewDecoder(b, jh)

	return dec.Decode(rec)
}

// BadgerStore wraps an InmemStore with write-behind persistence. Every write
// lands in memory first and is marked dirty; Flush batches dirty records into
// a Badger database. Reads never touch disk after startup.
type BadgerStore struct {
	inmemStore    *InmemStore
	db            *badger.DB
	path          string
	needBootstrap bool

	dirtyMu sync.Mutex
	dirty   map[coin.Ref]bool
}

// NewBadgerStore creates a brand new vault with a new database.
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(),
		db:         handle,
		path:       path,
		dirty:      make(map[coin.Ref]bool),
	}

	store.inmemStore.dirtyHook = store.markDirty

	return store, nil
}

// LoadBadgerStore creates a vault from an existing database.
func LoadBadgerStore(path string) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore:    NewInmemStore(),
		db:            handle,
		path:          path,
		needBootstrap: true,
		dirty:         make(map[coin.Ref]bool),
	}

	if err := store.dbLoadRecords(store.inmemStore); err != nil {
		handle.Close()
		return nil, err
	}

	store.inmemStore.dirtyHook = store.markDirty

	return store, nil
}

// LoadOrCreateBadgerStore loads an existing vault or creates a new one.
func LoadOrCreateBadgerStore(path string) (*BadgerStore, error) {
	store, err := LoadBadgerStore(path)

	if err != nil {
		store, err = NewBadgerStore(path)

		if err != nil {
			return nil, err
		}
	}

	return store, nil
}

// NeedBootstrap reports whether the vault was loaded from an existing
// database.
func (s *BadgerStore) NeedBootstrap() bool {
	return s.needBootstrap
}

// Acquire implements the Store interface.
func (s *BadgerStore) Acquire(ref coin.Ref) (*Record, error) {
	return s.inmemStore.Acquire(ref)
}

// Add implements the Store interface.
func (s *BadgerStore) Add(ref coin.Ref, value coin.AuthValue) error {
	return s.inmemStore.Add(ref, value)
}

// Count implements the Store interface.
func (s *BadgerStore) Count() int {
	return s.inmemStore.Count()
}

// Flush implements the Store interface. It writes every record marked dirty
// since the last flush. Failed batches are re-queued.
func (s *BadgerStore) Flush() error {
	s.dirtyMu.Lock()
	pending := s.dirty
	s.dirty = make(map[coin.Ref]bool)
	s.dirtyMu.Unlock()

	if len(pending) == 0 {
		return nil
	}

	recs := make([]diskRecord, 0, len(pending))
	for ref := range pending {
		r, err := s.inmemStore.Acquire(ref)
		if err != nil {
			return err
		}

		value := r.AuthValue()
		updated := r.Updated()
		r.Release()

		recs = append(recs, diskRecord{
			Denomination: ref.Denomination,
			Serial:       ref.Serial,
			Value:        value[:],
			Updated:      updated.Unix(),
		})
	}

	if err := s.dbSetRecords(recs); err != nil {
		s.dirtyMu.Lock()
		for ref := range pending {
			s.dirty[ref] = true
		}
		s.dirtyMu.Unlock()
		return err
	}

	return nil
}

// Close implements the Store interface. It flushes pending records and closes
// the database.
func (s *BadgerStore) Close() error {
	if err := s.Flush(); err != nil {
		s.db.Close()
		return err
	}

	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

func (s *BadgerStore) markDirty(ref coin.Ref) {
	s.dirtyMu.Lock()
	s.dirty[ref] = true
	s.dirtyMu.Unlock()
}

//==============================================================================
//Keys

func recordKey(ref coin.Ref) []byte {
	return []byte(fmt.Sprintf("%s_%d_%010d", coinPrefix, ref.Denomination, ref.Serial))
}

//==============================================================================
//DB Methods

func (s *BadgerStore) dbGetRecord(ref coin.Ref) (diskRecord, error) {
	var rec diskRecord

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(ref))
		if err != nil {
			return err
		}

		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}

		return rec.Unmarshal(val)
	})

	if err == badger.ErrKeyNotFound {
		return rec, cm.NewStoreErr("DiskRecord", cm.KeyNotFound, ref.String())
	}

	return rec, err
}

func (s *BadgerStore) dbSetRecords(recs []diskRecord) error {
	tx := s.db.NewTransaction(true)

	for _, rec := range recs {
		val, err := rec.Marshal()
		if err != nil {
			tx.Discard()
			return err
		}

		key := recordKey(coin.Ref{Denomination: rec.Denomination, Serial: rec.Serial})

		err = tx.Set(key, val)
		if err == badger.ErrTxnTooBig {
			if err = tx.Commit(); err != nil {
				return err
			}
			tx = s.db.NewTransaction(true)
			err = tx.Set(key, val)
		}
		if err != nil {
			tx.Discard()
			return err
		}
	}

	return tx.Commit()
}

func (s *BadgerStore) dbLoadRecords(inmem *InmemStore) error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(coinPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			rec := new(diskRecord)
			if err := rec.Unmarshal(val); err != nil {
				return err
			}

			var value coin.AuthValue
			copy(value[:], rec.Value)

			ref := coin.Ref{Denomination: rec.Denomination, Serial: rec.Serial}
			if err := inmem.add(ref, value, time.Unix(rec.Updated, 0)); err != nil {
				return err
			}
		}

		return nil
	})
}
