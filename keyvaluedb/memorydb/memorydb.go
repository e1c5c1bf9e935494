package memorydb

import (
	"fmt"
	"sync"

	"github.com/alphabill-org/pregenesis/keyvaluedb"
	"github.com/alphabill-org/pregenesis/types"
)

type (
	EncodeFn func(v any) ([]byte, error)
	DecodeFn func(data []byte, v any) error

	MemoryDB struct {
		db       map[string][]byte
		encoder  EncodeFn
		decoder  DecodeFn
		writeErr error
		lock     sync.RWMutex
	}
)

// New creates in-memory key value db, values are encoded the same way as in the Bolt DB.
func New() *MemoryDB {
	return &MemoryDB{
		db:      make(map[string][]byte),
		encoder: types.Cbor.Marshal,
		decoder: types.Cbor.Unmarshal,
	}
}

// Empty returns true if no values are stored in db
func (db *MemoryDB) Empty() bool {
	db.lock.RLock()
	defer db.lock.RUnlock()
	return len(db.db) == 0
}

// Read retrieves the given key if it's present in the key-value store.
func (db *MemoryDB) Read(key []byte, value any) (bool, error) {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return false, err
	}
	db.lock.RLock()
	defer db.lock.RUnlock()
	if data, ok := db.db[string(key)]; ok {
		return true, db.decoder(data, value)
	}
	return false, nil
}

// Write inserts the given value into the key-value store.
func (db *MemoryDB) Write(key []byte, value any) error {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return err
	}
	b, err := db.encoder(value)
	if err != nil {
		return err
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	if db.writeErr != nil {
		return db.writeErr
	}
	db.db[string(key)] = b
	return nil
}

// Delete removes the key from the key-value store.
func (db *MemoryDB) Delete(key []byte) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	delete(db.db, string(key))
	return nil
}

// First returns forward iterator to the first element in DB
func (db *MemoryDB) First() keyvaluedb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	it := newIterator(db.db, db.decoder)
	it.first()
	return it
}

// Find returns the closest binary search match
func (db *MemoryDB) Find(key []byte) keyvaluedb.Iterator {
	db.lock.RLock()
	defer db.lock.RUnlock()
	it := newIterator(db.db, db.decoder)
	it.seek(key)
	return it
}

func (db *MemoryDB) StartTx() (keyvaluedb.DBTransaction, error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	tx, err := newMapTx(db)
	if err != nil {
		return nil, fmt.Errorf("failed to start memdb tx, %w", err)
	}
	return tx, nil
}

func (db *MemoryDB) Close() error {
	return nil
}

// MockWriteError makes all the following writes fail with "err", nil restores normal behavior.
func (db *MemoryDB) MockWriteError(err error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	db.writeErr = err
}
