package state

import (
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

type Reader interface {
	// Get returns nil without an error for missing keys.
	Get(key []byte) ([]byte, error)
}

type ReadWriter interface {
	Reader
	Put(key, value []byte)
	Delete(key []byte)
}

// Store is the durable key/value state of a single bridge instance.
type Store struct {
	db   *leveldb.DB
	sync bool
}

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("can't open leveldb state at %s: %w", path, err)
	}
	return &Store{db: db, sync: true}, nil
}

// OpenMemory opens a non-persistent store, used by tests and dry runs.
func OpenMemory() (*Store, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, fmt.Errorf("can't open in-memory leveldb state: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	return val, err
}

// Keys lists the stored keys under the given prefix in ascending order.
func (s *Store) Keys(prefix []byte) ([][]byte, error) {
	it := s.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()
	var keys [][]byte
	for it.Next() {
		keys = append(keys, append([]byte(nil), it.Key()...))
	}
	return keys, it.Error()
}

// Begin starts a transaction. Nothing reaches the database until Commit.
func (s *Store) Begin() *Txn {
	return &Txn{
		store:  s,
		writes: make(map[string][]byte),
		batch:  new(leveldb.Batch),
	}
}

func (s *Store) write(batch *leveldb.Batch) error {
	return s.db.Write(batch, &opt.WriteOptions{Sync: s.sync})
}
