package boltdb

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/alphabill-org/pregenesis/keyvaluedb"
)

var errTxClosed = errors.New("tx closed")

// Tx is read-write transaction on the bucket of the BoltDB.
type Tx struct {
	tx  *bolt.Tx
	b   *bolt.Bucket
	enc EncodeFn
	dec DecodeFn
}

func newTx(db *bolt.DB, bucket []byte, enc EncodeFn, dec DecodeFn) (*Tx, error) {
	if db == nil {
		return nil, errors.New("db is nil")
	}
	tx, err := db.Begin(true)
	if err != nil {
		return nil, err
	}
	b := tx.Bucket(bucket)
	if b == nil {
		return nil, errors.Join(fmt.Errorf("bucket %q not found", bucket), tx.Rollback())
	}
	return &Tx{tx: tx, b: b, enc: enc, dec: dec}, nil
}

// closed returns error when the transaction has been committed or rolled back.
func (t *Tx) closed() error {
	if t.tx.DB() == nil {
		return errTxClosed
	}
	return nil
}

func (t *Tx) Read(key []byte, value any) (bool, error) {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return false, err
	}
	if err := t.closed(); err != nil {
		return false, fmt.Errorf("reading key %x: %w", key, err)
	}
	data := t.b.Get(key)
	if data == nil {
		return false, nil
	}
	return true, t.dec(data, value)
}

func (t *Tx) Write(key []byte, value any) error {
	if err := keyvaluedb.CheckKeyAndValue(key, value); err != nil {
		return err
	}
	if err := t.closed(); err != nil {
		return fmt.Errorf("writing key %x: %w", key, err)
	}
	data, err := t.enc(value)
	if err != nil {
		return fmt.Errorf("encoding value of key %x: %w", key, err)
	}
	return t.b.Put(key, data)
}

func (t *Tx) Delete(key []byte) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	if err := t.closed(); err != nil {
		return fmt.Errorf("deleting key %x: %w", key, err)
	}
	return t.b.Delete(key)
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}

func (t *Tx) Commit() error {
	return t.tx.Commit()
}
