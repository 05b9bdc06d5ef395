package state

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
)

var ErrTxnClosed = errors.New("transaction is already closed")

// Txn buffers writes in a leveldb batch and serves reads from its own pending
// writes first. A nil entry in writes marks a pending delete.
type Txn struct {
	store  *Store
	writes map[string][]byte
	batch  *leveldb.Batch
	closed bool
}

func (t *Txn) Get(key []byte) ([]byte, error) {
	if val, ok := t.writes[string(key)]; ok {
		if val == nil {
			return nil, nil
		}
		return append([]byte(nil), val...), nil
	}
	return t.store.Get(key)
}

func (t *Txn) Put(key, value []byte) {
	val := append(make([]byte, 0, len(value)), value...)
	t.writes[string(key)] = val
	t.batch.Put(key, val)
}

func (t *Txn) Delete(key []byte) {
	t.writes[string(key)] = nil
	t.batch.Delete(key)
}

// Len is the number of pending batch operations.
func (t *Txn) Len() int {
	return t.batch.Len()
}

func (t *Txn) Commit() error {
	if t.closed {
		return ErrTxnClosed
	}
	t.closed = true
	if t.batch.Len() == 0 {
		return nil
	}
	if err := t.store.write(t.batch); err != nil {
		return fmt.Errorf("can't commit state batch: %w", err)
	}
	return nil
}

func (t *Txn) Discard() {
	t.closed = true
	t.writes = nil
	t.batch.Reset()
}
