package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/contract/abi"
)

var (
	ErrNotTransport       = fmt.Errorf("%w: caller is not the transport", bridgeerr.ErrAuthorization)
	ErrUnsupportedPayload = fmt.Errorf("%w: unsupported message payload", bridgeerr.ErrMalformedInput)
	ErrNotFailed          = fmt.Errorf("%w: message is not recorded as failed", bridgeerr.ErrValidation)
	ErrBridgedToken       = fmt.Errorf("%w: bridged token can't be claimed", bridgeerr.ErrValidation)
	ErrAboveMaxPerTx      = fmt.Errorf("%w: released value is above max per tx", bridgeerr.ErrValidation)
)

// OnReceive handles a message delivered by the transport from the other side.
func (b *Bridge) OnReceive(ctx context.Context, call *Call, messageID common.Hash, payload []byte) (*Result, error) {
	return b.execute(ctx, "on_receive", call, true, func(o *op) error {
		if call.From != b.cfg.TransportAddress {
			return fmt.Errorf("%s: %w", call.From, ErrNotTransport)
		}
		method, args, err := abi.BridgeABI.DecodeCall(payload)
		if err != nil {
			return fmt.Errorf("%s: %w", err, ErrUnsupportedPayload)
		}
		switch method {
		case "handleBridgedTokens":
			recipient, _ := args[0].(common.Address)
			value, _ := args[1].(*big.Int)
			data, _ := args[2].([]byte)
			return o.handleBridgedTokens(messageID, recipient, value, data)
		case "fixFailedMessage":
			failed, _ := args[0].([32]byte)
			return o.fixFailedMessage(failed)
		default:
			return fmt.Errorf("%s: %w", method, ErrUnsupportedPayload)
		}
	})
}

func (o *op) handleBridgedTokens(messageID common.Hash, recipient common.Address, value *big.Int, data []byte) error {
	ok, err := o.ledger.TryExecute(messageID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", messageID, ErrAlreadyExecuted)
	}
	err = o.executeInbound(recipient, value, messageID, data, func(net *big.Int) error {
		return o.emit("TokensBridged", o.b.cfg.TokenAddress, recipient, net, messageID)
	})
	if !errors.Is(err, bridgeerr.ErrExecutionLimit) && !errors.Is(err, ErrZeroAddress) {
		return err
	}
	// The message is consumed, the sender recovers it with RequestFailedMessageFix
	// on the other side.
	o.b.logger.WithError(err).WithField("msg_hash", messageID).Warn("bridged tokens can't be executed")
	o.ledger.MarkFailed(messageID)
	return o.emit("TokensBridgingFailed", messageID, recipient, value)
}

func (o *op) fixFailedMessage(messageID common.Hash) error {
	token := o.b.deps.Token
	if token == nil {
		return fmt.Errorf("token: %w", ErrMissingCollaborator)
	}
	sent, err := o.ledger.MarkFixed(messageID)
	if err != nil {
		return err
	}
	o.effect(func(ctx context.Context) error {
		return token.Mint(ctx, sent.Sender, sent.Value)
	})
	return o.emit("FailedMessageFixed", messageID, o.b.cfg.TokenAddress, sent.Sender, sent.Value)
}

// RequestFailedMessageFix asks the other side to refund a message this side
// could not execute.
func (b *Bridge) RequestFailedMessageFix(ctx context.Context, call *Call, messageID common.Hash) (*Result, error) {
	return b.execute(ctx, "request_failed_message_fix", call, true, func(o *op) error {
		transport := b.deps.Transport
		if transport == nil {
			return fmt.Errorf("transport: %w", ErrMissingCollaborator)
		}
		failed, err := o.ledger.IsFailed(messageID)
		if err != nil {
			return err
		}
		if !failed {
			return fmt.Errorf("%s: %w", messageID, ErrNotFailed)
		}
		payload, err := abi.BridgeABI.Pack("fixFailedMessage", messageID)
		if err != nil {
			return fmt.Errorf("can't encode fix message: %w", err)
		}
		o.effect(func(ctx context.Context) error {
			id, err := transport.Send(ctx, payload)
			if err != nil {
				return fmt.Errorf("can't send message: %w", err)
			}
			o.result.MessageID = &id
			return nil
		})
		return nil
	})
}

// FixAssetsAboveLimits takes value out of the excess queued for txHash. With
// release set the value is relayed back to the recipient on the other side.
func (b *Bridge) FixAssetsAboveLimits(ctx context.Context, call *Call, txHash common.Hash, release bool, value *big.Int) (*Result, error) {
	return b.execute(ctx, "fix_assets_above_limits", call, true, func(o *op) error {
		if err := o.requireOwner(); err != nil {
			return err
		}
		if value == nil || value.Sign() <= 0 {
			return ErrZeroValue
		}
		if release {
			cfg, err := o.limits.Config()
			if err != nil {
				return err
			}
			if value.Cmp(cfg.MaxPerTx) > 0 {
				return fmt.Errorf("%s > %s: %w", value, cfg.MaxPerTx, ErrAboveMaxPerTx)
			}
		}
		prev, err := o.limits.FixAssetsAboveLimits(txHash, value)
		if err != nil {
			return err
		}
		remaining := new(big.Int).Sub(prev.Value, value)
		if err = o.emit("AssetAboveLimitsFixed", txHash, value, remaining); err != nil {
			return err
		}
		if !release {
			return nil
		}
		return o.relayOut(prev.Recipient, prev.Recipient, value, nil, new(big.Int))
	})
}

// ClaimTokens moves the whole balance of a token sent to the bridge by mistake.
func (b *Bridge) ClaimTokens(ctx context.Context, call *Call, token, to common.Address) (*Result, error) {
	return b.execute(ctx, "claim_tokens", call, true, func(o *op) error {
		if err := o.requireOwner(); err != nil {
			return err
		}
		erc20 := b.deps.ERC20
		if erc20 == nil {
			return fmt.Errorf("erc20: %w", ErrMissingCollaborator)
		}
		if token == (common.Address{}) || to == (common.Address{}) {
			return ErrZeroAddress
		}
		if token == b.cfg.TokenAddress {
			return fmt.Errorf("%s: %w", token, ErrBridgedToken)
		}
		balance, err := erc20.BalanceOf(o.ctx, token, b.cfg.Address)
		if err != nil {
			return fmt.Errorf("can't get token balance: %w", err)
		}
		if balance.Sign() == 0 {
			return fmt.Errorf("token %s balance: %w", token, ErrZeroValue)
		}
		o.effect(func(ctx context.Context) error {
			return erc20.Transfer(ctx, token, to, balance)
		})
		return o.emit("ClaimedTokens", token, to, balance)
	})
}
