package ledger

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/state"
)

var (
	ErrAlreadyVoted      = fmt.Errorf("%w: validator already voted for this message", bridgeerr.ErrReplay)
	ErrAlreadyFixed      = fmt.Errorf("%w: message is already fixed", bridgeerr.ErrReplay)
	ErrUnknownMessage    = fmt.Errorf("%w: unknown message", bridgeerr.ErrValidation)
	ErrMessageRecorded   = fmt.Errorf("%w: message is already recorded", bridgeerr.ErrReplay)
	ErrInvalidQuorumSize = fmt.Errorf("%w: required votes must be positive", bridgeerr.ErrValidation)
)

const (
	nsExecuted        = "executed"
	nsAffirmation     = "affirmation"
	nsAffirmationVote = "affirmation_vote"
	nsCollection      = "collection"
	nsCollectionVote  = "collection_vote"
	nsSignature       = "signature"
	nsMessage         = "message"
	nsSent            = "sent"
	nsFailed          = "failed"
)

type VoteResult int

const (
	Pending VoteResult = iota
	QuorumReached
	AlreadyFinalized
)

func (r VoteResult) String() string {
	switch r {
	case Pending:
		return "pending"
	case QuorumReached:
		return "quorum_reached"
	case AlreadyFinalized:
		return "already_finalized"
	default:
		return "unknown"
	}
}

// Affirmation is the vote counter of a single message. VoteCount keeps growing
// after Finalized is set, late votes are still recorded.
type Affirmation struct {
	VoteCount uint64
	Finalized bool
}

type SentMessage struct {
	Sender common.Address
	Value  *big.Int
	Fixed  bool
}

// Ledger is the replay protection bookkeeping of one bridge instance.
type Ledger struct {
	rw state.ReadWriter
}

func New(rw state.ReadWriter) *Ledger {
	return &Ledger{rw: rw}
}

// TryExecute marks the source transaction as executed. Only the first call per
// hash returns true, whatever message carried it.
func (l *Ledger) TryExecute(txHash common.Hash) (bool, error) {
	key := state.Key(nsExecuted, txHash.Bytes())
	executed, err := state.GetBool(l.rw, key)
	if err != nil {
		return false, err
	}
	if executed {
		return false, nil
	}
	state.PutBool(l.rw, key, true)
	return true, nil
}

func (l *Ledger) IsExecuted(txHash common.Hash) (bool, error) {
	return state.GetBool(l.rw, state.Key(nsExecuted, txHash.Bytes()))
}

// Vote records an affirmation vote of the validator for the message hash.
func (l *Ledger) Vote(validator common.Address, hash common.Hash, required uint64) (VoteResult, error) {
	return l.vote(nsAffirmation, nsAffirmationVote, validator, hash, required)
}

func (l *Ledger) Affirmation(hash common.Hash) (*Affirmation, error) {
	return l.counter(nsAffirmation, hash)
}

func (l *Ledger) HasVoted(validator common.Address, hash common.Hash) (bool, error) {
	return state.GetBool(l.rw, state.Key(nsAffirmationVote, validator.Bytes(), hash.Bytes()))
}

// SignatureVote counts a submitted signature in the collection namespace,
// which is independent of affirmation votes for the same hash.
func (l *Ledger) SignatureVote(validator common.Address, hash common.Hash, required uint64) (VoteResult, error) {
	return l.vote(nsCollection, nsCollectionVote, validator, hash, required)
}

func (l *Ledger) Collection(hash common.Hash) (*Affirmation, error) {
	return l.counter(nsCollection, hash)
}

func (l *Ledger) HasSigned(validator common.Address, hash common.Hash) (bool, error) {
	return state.GetBool(l.rw, state.Key(nsCollectionVote, validator.Bytes(), hash.Bytes()))
}

func (l *Ledger) vote(ns, votedNs string, validator common.Address, hash common.Hash, required uint64) (VoteResult, error) {
	if required == 0 {
		return Pending, ErrInvalidQuorumSize
	}
	votedKey := state.Key(votedNs, validator.Bytes(), hash.Bytes())
	voted, err := state.GetBool(l.rw, votedKey)
	if err != nil {
		return Pending, err
	}
	if voted {
		return Pending, ErrAlreadyVoted
	}
	counter, err := l.counter(ns, hash)
	if err != nil {
		return Pending, err
	}
	state.PutBool(l.rw, votedKey, true)
	counter.VoteCount++

	res := Pending
	switch {
	case counter.Finalized:
		res = AlreadyFinalized
	case counter.VoteCount >= required:
		counter.Finalized = true
		res = QuorumReached
	}
	if err = state.PutRLP(l.rw, state.Key(ns, hash.Bytes()), counter); err != nil {
		return Pending, err
	}
	return res, nil
}

func (l *Ledger) counter(ns string, hash common.Hash) (*Affirmation, error) {
	counter := new(Affirmation)
	if _, err := state.GetRLP(l.rw, state.Key(ns, hash.Bytes()), counter); err != nil {
		return nil, err
	}
	return counter, nil
}
