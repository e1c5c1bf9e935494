package boltdb

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

/*
Iterator walks the bucket with a cursor of read-only transaction. The
transaction is kept open until Close is called.
*/
type Iterator struct {
	tx      *bolt.Tx
	cursor  *bolt.Cursor
	decoder DecodeFn
	key     []byte
	value   []byte
	err     error
}

func newIterator(db *bolt.DB, bucket []byte, d DecodeFn) *Iterator {
	it := &Iterator{decoder: d}
	tx, err := db.Begin(false)
	if err != nil {
		it.err = err
		return it
	}
	it.tx = tx
	b := tx.Bucket(bucket)
	if b == nil {
		it.err = fmt.Errorf("bucket %q not found", bucket)
		return it
	}
	it.cursor = b.Cursor()
	return it
}

func (it *Iterator) first() {
	if it.cursor != nil {
		it.key, it.value = it.cursor.First()
	}
}

func (it *Iterator) seek(key []byte) {
	if it.cursor != nil {
		it.key, it.value = it.cursor.Seek(key)
	}
}

func (it *Iterator) Next() {
	if !it.Valid() {
		return
	}
	it.key, it.value = it.cursor.Next()
}

func (it *Iterator) Valid() bool {
	return it.cursor != nil && it.key != nil
}

func (it *Iterator) Key() []byte {
	if !it.Valid() {
		return nil
	}
	return it.key
}

func (it *Iterator) Value(v any) error {
	if !it.Valid() {
		return errors.Join(errors.New("iterator invalid"), it.err)
	}
	return it.decoder(it.value, v)
}

func (it *Iterator) Close() error {
	it.cursor = nil
	it.key, it.value = nil, nil
	if it.tx == nil {
		return it.err
	}
	tx := it.tx
	it.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, bolt.ErrTxClosed) {
		return err
	}
	return it.err
}
