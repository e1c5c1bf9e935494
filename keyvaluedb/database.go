package keyvaluedb

import (
	"bytes"
	"errors"
)

type (
	// KeyValueDB stores CBOR encoded values by binary keys.
	KeyValueDB interface {
		ReadWriter
		// First returns iterator positioned at the smallest key, the iterator
		// is not valid when the DB is empty.
		First() Iterator
		// Find returns iterator positioned at the smallest key which is not
		// less than "key".
		Find(key []byte) Iterator
		// StartTx begins read-write transaction. Only one such transaction can
		// be active at a time so it must be finished with Commit or Rollback.
		StartTx() (DBTransaction, error)
		Close() error
	}

	ReadWriter interface {
		// Read decodes the value stored under the key into "value", returns
		// false when there is no such key.
		Read(key []byte, value any) (bool, error)
		Write(key []byte, value any) error
		Delete(key []byte) error
	}

	DBTransaction interface {
		ReadWriter
		Commit() error
		Rollback() error
	}

	/*
	Iterator walks the keys in ascending byte order. It holds a read lock
	on the DB so it must be closed before the next write, Close can be called
	multiple times.
	*/
	Iterator interface {
		Next()
		Valid() bool
		// Key of the current item, nil when the iterator is not valid.
		Key() []byte
		// Value decodes the current item into "value".
		Value(value any) error
		Close() error
	}

	// Iterable is the read side of KeyValueDB needed by IsEmpty and ForEach.
	Iterable interface {
		First() Iterator
		Find(key []byte) Iterator
	}
)

// IsEmpty returns true when there are no items in the DB.
func IsEmpty(db Iterable) (empty bool, err error) {
	if db == nil {
		return true, errors.New("db is nil")
	}
	it := db.First()
	defer func() { err = errors.Join(err, it.Close()) }()
	return !it.Valid(), nil
}

/*
ForEach calls "f" for every item whose key starts with "prefix", in key order.
Iteration stops on the first error returned by "f".
*/
func ForEach(db Iterable, prefix []byte, f func(key []byte, it Iterator) error) (err error) {
	it := db.Find(prefix)
	defer func() { err = errors.Join(err, it.Close()) }()
	for ; it.Valid() && bytes.HasPrefix(it.Key(), prefix); it.Next() {
		if err := f(it.Key(), it); err != nil {
			return err
		}
	}
	return nil
}
