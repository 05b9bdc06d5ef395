package state

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

var ErrOverflow = fmt.Errorf("%w: uint256 overflow", bridgeerr.ErrValidation)

// Key joins a namespace with the raw key parts, separated by '/'.
func Key(namespace string, parts ...[]byte) []byte {
	size := len(namespace)
	for _, p := range parts {
		size += 1 + len(p)
	}
	key := make([]byte, 0, size)
	key = append(key, namespace...)
	for _, p := range parts {
		key = append(key, '/')
		key = append(key, p...)
	}
	return key
}

func Uint64Bytes(n uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], n)
	return b[:]
}

// GetBig reads a 32 byte big-endian word, missing keys read as zero.
func GetBig(r Reader, key []byte) (*big.Int, error) {
	val, err := r.Get(key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(val), nil
}

func PutBig(w ReadWriter, key []byte, value *big.Int) error {
	if value.Sign() < 0 || value.BitLen() > 256 {
		return ErrOverflow
	}
	if value.Sign() == 0 {
		w.Delete(key)
		return nil
	}
	w.Put(key, math.PaddedBigBytes(value, 32))
	return nil
}

// AddBig adds delta, which may be negative, to the stored word and returns the
// new value. Results outside of the uint256 range are rejected.
func AddBig(rw ReadWriter, key []byte, delta *big.Int) (*big.Int, error) {
	cur, err := GetBig(rw, key)
	if err != nil {
		return nil, err
	}
	cur.Add(cur, delta)
	if err = PutBig(rw, key, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

func GetBool(r Reader, key []byte) (bool, error) {
	val, err := r.Get(key)
	if err != nil {
		return false, err
	}
	return len(val) == 1 && val[0] == 1, nil
}

func PutBool(w ReadWriter, key []byte, value bool) {
	if value {
		w.Put(key, []byte{1})
	} else {
		w.Delete(key)
	}
}

// GetRLP decodes the record stored at key into dest and reports whether it existed.
func GetRLP(r Reader, key []byte, dest interface{}) (bool, error) {
	val, err := r.Get(key)
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, nil
	}
	if err = rlp.DecodeBytes(val, dest); err != nil {
		return false, fmt.Errorf("can't decode record %q: %w", key, err)
	}
	return true, nil
}

func PutRLP(w ReadWriter, key []byte, record interface{}) error {
	val, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("can't encode record %q: %w", key, err)
	}
	w.Put(key, val)
	return nil
}
