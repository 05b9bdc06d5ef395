package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/state"
)

// RecordSentMessage remembers who paid for an outbound message, so that its
// value can be refunded when the other side fails to execute it.
func (l *Ledger) RecordSentMessage(messageID common.Hash, sender common.Address, value *big.Int) error {
	key := state.Key(nsSent, messageID.Bytes())
	existing, err := l.rw.Get(key)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%s: %w", messageID, ErrMessageRecorded)
	}
	return state.PutRLP(l.rw, key, &SentMessage{Sender: sender, Value: new(big.Int).Set(value)})
}

func (l *Ledger) SentMessage(messageID common.Hash) (*SentMessage, error) {
	msg := new(SentMessage)
	found, err := state.GetRLP(l.rw, state.Key(nsSent, messageID.Bytes()), msg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%s: %w", messageID, ErrUnknownMessage)
	}
	return msg, nil
}

// MarkFixed flags a sent message as refunded and returns its record.
func (l *Ledger) MarkFixed(messageID common.Hash) (*SentMessage, error) {
	msg, err := l.SentMessage(messageID)
	if err != nil {
		return nil, err
	}
	if msg.Fixed {
		return nil, fmt.Errorf("%s: %w", messageID, ErrAlreadyFixed)
	}
	msg.Fixed = true
	if err = state.PutRLP(l.rw, state.Key(nsSent, messageID.Bytes()), msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (l *Ledger) MarkFailed(messageID common.Hash) {
	state.PutBool(l.rw, state.Key(nsFailed, messageID.Bytes()), true)
}

func (l *Ledger) IsFailed(messageID common.Hash) (bool, error) {
	return state.GetBool(l.rw, state.Key(nsFailed, messageID.Bytes()))
}
