package boltdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/alphabill-org/pregenesis/keyvaluedb"
	"github.com/alphabill-org/pregenesis/types"
	"github.com/alphabill-org/pregenesis/util"
)

// all the data is kept in single bucket, use separate db files for unrelated data
const defaultBucket = "default"

type (
	EncodeFn func(v any) ([]byte, error)
	DecodeFn func(data []byte, v any) error

	BoltDB struct {
		db      *bolt.DB
		bucket  []byte
		encoder EncodeFn
		decoder DecodeFn
	}

	Options struct {
		// how long to wait for the file lock held by another process
		LockTimeout time.Duration
		ReadOnly    bool
	}
)

/*
New opens (creates when it doesn't exist) the Bolt DB in "dbFile". Values
are stored in the canonical CBOR encoding.

When the database file is locked by another process opening is retried
until options.LockTimeout elapses.
*/
func New(dbFile string, options *Options) (*BoltDB, error) {
	if options == nil {
		options = &Options{LockTimeout: 3 * time.Second}
	}
	var db *bolt.DB
	err := util.RetryUntil(context.Background(), time.Now().Add(options.LockTimeout), util.LinearBackoff(50*time.Millisecond),
		func(ctx context.Context) (bool, error) {
			var err error
			db, err = bolt.Open(dbFile, 0600, &bolt.Options{Timeout: 50 * time.Millisecond, ReadOnly: options.ReadOnly})
			switch {
			case err == nil:
				return true, nil
			case errors.Is(err, bolt.ErrTimeout):
				return false, nil
			default:
				return false, err
			}
		})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db %s: %w", dbFile, err)
	}
	s := &BoltDB{
		db:      db,
		bucket:  []byte(defaultBucket),
		encoder: types.Cbor.Marshal,
		decoder: types.Cbor.Unmarshal,
	}
	if !options.ReadOnly {
		if err = s.createBuckets(); err != nil {
			return nil, errors.Join(err, db.Close())
		}
	}
	return s, nil
}

// Path of the database file.
func (db *BoltDB) Path() string {
	return db.db.Path()
}

func (db *BoltDB) createBuckets() error {
	return db.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(db.bucket)
		return err
	})
}

func (db *BoltDB) update(f func(b *bolt.Bucket) error) error {
	return db.db.Update(func(tx *bolt.Tx) error { return f(tx.Bucket(db.bucket)) })
}

func (db *BoltDB) Read(key []byte, v any) (found bool, err error) {
	if err := keyvaluedb.CheckKeyAndValue(key, v); err != nil {
		return false, err
	}
	err = db.db.View(func(tx *bolt.Tx) error {
		var data []byte
		if b := tx.Bucket(db.bucket); b != nil {
			data = b.Get(key)
		}
		if found = data != nil; !found {
			return nil
		}
		return db.decoder(data, v)
	})
	if err != nil {
		return found, fmt.Errorf("reading key %x: %w", key, err)
	}
	return found, nil
}

func (db *BoltDB) Write(key []byte, v any) error {
	if err := keyvaluedb.CheckKeyAndValue(key, v); err != nil {
		return err
	}
	data, err := db.encoder(v)
	if err != nil {
		return fmt.Errorf("encoding value of key %x: %w", key, err)
	}
	if err := db.update(func(b *bolt.Bucket) error { return b.Put(key, data) }); err != nil {
		return fmt.Errorf("writing key %x: %w", key, err)
	}
	return nil
}

func (db *BoltDB) Delete(key []byte) error {
	if err := keyvaluedb.CheckKey(key); err != nil {
		return err
	}
	if err := db.update(func(b *bolt.Bucket) error { return b.Delete(key) }); err != nil {
		return fmt.Errorf("deleting key %x: %w", key, err)
	}
	return nil
}

func (db *BoltDB) First() keyvaluedb.Iterator {
	it := newIterator(db.db, db.bucket, db.decoder)
	it.first()
	return it
}

func (db *BoltDB) Find(key []byte) keyvaluedb.Iterator {
	it := newIterator(db.db, db.bucket, db.decoder)
	it.seek(key)
	return it
}

func (db *BoltDB) StartTx() (keyvaluedb.DBTransaction, error) {
	tx, err := newTx(db.db, db.bucket, db.encoder, db.decoder)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

func (db *BoltDB) Close() error {
	if db.db == nil {
		return nil
	}
	return db.db.Close()
}
