package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ledger"
	"github.com/omni/tokenbridge-core/limits"
)

// Call is the context of a single invocation, as provided by the host chain.
type Call struct {
	From      common.Address
	TxHash    common.Hash
	Timestamp uint64
	// Value is the native amount attached to the call.
	Value *big.Int
}

type Event struct {
	Name string
	Args []interface{}
	Log  *entity.Log
}

type Result struct {
	Events []*Event
	// MessageID is set when the call sent a message through the transport.
	MessageID *common.Hash
	// Outcome is set when the call reached the execution limits.
	Outcome *limits.Outcome
	// Vote is set for affirmations and submitted signatures.
	Vote *ledger.VoteResult
}

func (r *Result) Event(name string) *Event {
	for _, e := range r.Events {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func (r *Result) EventNames() []string {
	names := make([]string, len(r.Events))
	for i, e := range r.Events {
		names[i] = e.Name
	}
	return names
}
