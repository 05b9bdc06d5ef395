package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/ledger"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/utils"
	"github.com/omni/tokenbridge-core/validator"
)

var (
	ErrWrongExecutor = fmt.Errorf("%w: message is addressed to another bridge", bridgeerr.ErrValidation)
	ErrWrongSigner   = fmt.Errorf("%w: signature is not made by the caller", bridgeerr.ErrAuthorization)
)

// ExecuteSignatures executes a message signed by a quorum of validators.
func (b *Bridge) ExecuteSignatures(ctx context.Context, call *Call, encoded, signatures []byte) (*Result, error) {
	return b.execute(ctx, "execute_signatures", call, true, func(o *op) error {
		if err := o.requireSide(config.BridgeSideForeign); err != nil {
			return err
		}
		msg, err := message.Decode(encoded)
		if err != nil {
			return err
		}
		if msg.Executor != b.cfg.Address {
			return fmt.Errorf("%s: %w", msg.Executor, ErrWrongExecutor)
		}
		signers, err := validator.NewVerifier(o.registry).Verify(encoded, signatures)
		if err != nil {
			return err
		}
		ok, err := o.ledger.TryExecute(msg.TxHash)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: %w", msg.TxHash, ErrAlreadyExecuted)
		}
		b.logger.WithField("msg_hash", msg.TxHash).WithField("signers", len(signers)).Debug("verified signatures")
		return o.executeInbound(msg.Recipient, msg.Value, msg.TxHash, nil, func(net *big.Int) error {
			return o.emit("RelayedMessage", msg.Recipient, net, msg.TxHash)
		})
	})
}

// ExecuteAffirmation records the caller's vote for a message and executes it
// once the quorum is reached.
func (b *Bridge) ExecuteAffirmation(ctx context.Context, call *Call, recipient common.Address, value *big.Int, txHash common.Hash) (*Result, error) {
	return b.execute(ctx, "execute_affirmation", call, true, func(o *op) error {
		if err := o.requireSide(config.BridgeSideHome); err != nil {
			return err
		}
		if err := o.requireValidator(); err != nil {
			return err
		}
		if !message.IsUint256(value) {
			return message.ErrInvalidValue
		}
		required, err := o.registry.RequiredSignatures()
		if err != nil {
			return err
		}
		hash := message.AffirmationHash(recipient, value, txHash)
		vote, err := o.ledger.Vote(call.From, hash, required)
		if err != nil {
			return err
		}
		o.result.Vote = &vote
		if err = o.emit("SignedForAffirmation", call.From, hash); err != nil {
			return err
		}
		if vote != ledger.QuorumReached {
			return nil
		}
		return o.executeInbound(recipient, value, txHash, nil, func(net *big.Int) error {
			return o.emit("AffirmationCompleted", recipient, net, txHash)
		})
	})
}

// SubmitSignature collects the caller's signature of a message relayed to the
// other side.
func (b *Bridge) SubmitSignature(ctx context.Context, call *Call, signature, encoded []byte) (*Result, error) {
	return b.execute(ctx, "submit_signature", call, true, func(o *op) error {
		if err := o.requireSide(config.BridgeSideHome); err != nil {
			return err
		}
		if err := o.requireValidator(); err != nil {
			return err
		}
		msg, err := message.Decode(encoded)
		if err != nil {
			return err
		}
		if msg.Executor != b.cfg.OtherSideAddress {
			return fmt.Errorf("%s: %w", msg.Executor, ErrWrongExecutor)
		}
		if _, err = message.SignatureFromBytes(signature); err != nil {
			return err
		}
		signer, err := utils.RestoreSignerAddress(encoded, signature)
		if err != nil {
			return fmt.Errorf("%s: %w", err, validator.ErrInvalidSignature)
		}
		if signer != call.From {
			return fmt.Errorf("%s: %w", signer, ErrWrongSigner)
		}
		required, err := o.registry.RequiredSignatures()
		if err != nil {
			return err
		}
		hash := crypto.Keccak256Hash(encoded)
		vote, err := o.ledger.SignatureVote(call.From, hash, required)
		if err != nil {
			return err
		}
		o.result.Vote = &vote
		if err = o.ledger.StoreMessage(hash, encoded); err != nil {
			return err
		}
		if err = o.ledger.StoreSignature(hash, signature); err != nil {
			return err
		}
		if err = o.emit("SignedForUserRequest", call.From, hash); err != nil {
			return err
		}
		if vote != ledger.QuorumReached {
			return nil
		}
		return o.emit("CollectedSignatures", call.From, hash, new(big.Int).SetUint64(required))
	})
}

// executeInbound applies the execution limits to a finalized message and either
// releases it or queues it for the owner. complete emits the completion event
// for the released net amount.
func (o *op) executeInbound(recipient common.Address, wireValue *big.Int, key common.Hash, data []byte, complete func(net *big.Int) error) error {
	if recipient == (common.Address{}) {
		return fmt.Errorf("recipient: %w", ErrZeroAddress)
	}
	amount := utils.ShiftValue(wireValue, o.settings.decimalShift())
	outcome, err := o.limits.CheckExecution(amount, o.day(), key, recipient)
	if err != nil {
		return err
	}
	o.result.Outcome = &outcome
	if outcome == limits.Deferred {
		return o.emit("AmountLimitExceeded", recipient, amount, key)
	}
	net, err := o.release(recipient, amount, data)
	if err != nil {
		return err
	}
	return complete(net)
}
