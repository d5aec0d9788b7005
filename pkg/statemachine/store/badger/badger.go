// Package badger provides a durable, single-node Backend for
// pkg/statemachine backed by an embedded BadgerDB instance.
package badger

import (
	"context"
	"encoding/binary"
	"fmt"

	badgerdb "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "sm:"

func key(k string) []byte {
	return []byte(keyPrefix + k)
}

// Backend implements statemachine.Backend over a *badger.DB.
type Backend struct {
	db *badgerdb.DB
}

// Open returns a Backend backed by the BadgerDB instance at dir.
func Open(dir string) (*Backend, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger state machine store at %q: %w", dir, err)
	}
	return &Backend{db: db}, nil
}

// Close releases the underlying database handle.
func (b *Backend) Close() error {
	return b.db.Close()
}

func (b *Backend) Get(ctx context.Context, k string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var out []byte
	err := b.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key(k))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get %q: %w", k, err)
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (b *Backend) Set(ctx context.Context, k string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(key(k), value)
	})
}

func (b *Backend) Delete(ctx context.Context, k string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(txn *badgerdb.Txn) error {
		err := txn.Delete(key(k))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

func (b *Backend) Increment(ctx context.Context, k string, delta int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var result int64
	err := b.db.Update(func(txn *badgerdb.Txn) error {
		var current int64
		item, err := txn.Get(key(k))
		switch {
		case err == badgerdb.ErrKeyNotFound:
			current = 0
		case err != nil:
			return fmt.Errorf("get %q for increment: %w", k, err)
		default:
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					current = int64(binary.BigEndian.Uint64(val))
				}
				return nil
			}); err != nil {
				return err
			}
		}

		current += delta
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(current))
		if err := txn.Set(key(k), buf); err != nil {
			return fmt.Errorf("set %q for increment: %w", k, err)
		}
		result = current
		return nil
	})
	return result, err
}

func (b *Backend) Snapshot(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]byte)
	err := b.db.View(func(txn *badgerdb.Txn) error {
		it := txn.NewIterator(badgerdb.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			k := string(item.KeyCopy(nil)[len(keyPrefix):])
			if err := item.Value(func(val []byte) error {
				out[k] = append([]byte(nil), val...)
				return nil
			}); err != nil {
				return fmt.Errorf("read %q during snapshot: %w", k, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
