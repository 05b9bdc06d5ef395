package ledger

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/state"
)

// StoreSignature appends a collected signature, kept in submission order.
func (l *Ledger) StoreSignature(hash common.Hash, sig []byte) error {
	sigs, err := l.Signatures(hash)
	if err != nil {
		return err
	}
	return state.PutRLP(l.rw, state.Key(nsSignature, hash.Bytes()), append(sigs, sig))
}

func (l *Ledger) Signatures(hash common.Hash) ([][]byte, error) {
	var sigs [][]byte
	if _, err := state.GetRLP(l.rw, state.Key(nsSignature, hash.Bytes()), &sigs); err != nil {
		return nil, err
	}
	return sigs, nil
}

// StoreMessage keeps the first encoded message seen for the hash.
func (l *Ledger) StoreMessage(hash common.Hash, msg []byte) error {
	key := state.Key(nsMessage, hash.Bytes())
	stored, err := l.rw.Get(key)
	if err != nil {
		return err
	}
	if stored == nil {
		l.rw.Put(key, msg)
	}
	return nil
}

// Message returns nil when nothing was stored for the hash.
func (l *Ledger) Message(hash common.Hash) ([]byte, error) {
	return l.rw.Get(state.Key(nsMessage, hash.Bytes()))
}
