package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

var ErrNotToken = fmt.Errorf("%w: caller is not the bridged token", bridgeerr.ErrAuthorization)

// Deposit relays the native value attached to the call.
func (b *Bridge) Deposit(ctx context.Context, call *Call, receiver common.Address) (*Result, error) {
	return b.execute(ctx, "deposit", call, true, func(o *op) error {
		if !b.nativeSide() {
			return fmt.Errorf("native deposit: %w", ErrWrongSide)
		}
		return o.deposit(call.From, receiver, call.Value, nil, false)
	})
}

// RelayTokens relays tokens the caller approved to the bridge.
func (b *Bridge) RelayTokens(ctx context.Context, call *Call, receiver common.Address, value *big.Int) (*Result, error) {
	return b.execute(ctx, "relay_tokens", call, true, func(o *op) error {
		if b.nativeSide() {
			return fmt.Errorf("token deposit: %w", ErrWrongSide)
		}
		return o.deposit(call.From, receiver, value, nil, true)
	})
}

// OnTokenTransfer is the token callback of transferAndCall. The first 20 bytes
// of data, when present, name the receiver, the rest is forwarded.
func (b *Bridge) OnTokenTransfer(ctx context.Context, call *Call, from common.Address, value *big.Int, data []byte) (*Result, error) {
	return b.execute(ctx, "on_token_transfer", call, true, func(o *op) error {
		if b.nativeSide() {
			return fmt.Errorf("token deposit: %w", ErrWrongSide)
		}
		if call.From != b.cfg.TokenAddress {
			return fmt.Errorf("%s: %w", call.From, ErrNotToken)
		}
		receiver := from
		var rest []byte
		if len(data) >= common.AddressLength {
			receiver = common.BytesToAddress(data[:common.AddressLength])
			rest = data[common.AddressLength:]
		}
		return o.deposit(from, receiver, value, rest, true)
	})
}

func (o *op) deposit(sender, receiver common.Address, value *big.Int, data []byte, burn bool) error {
	if receiver == (common.Address{}) {
		return fmt.Errorf("receiver: %w", ErrZeroAddress)
	}
	if receiver == o.b.cfg.OtherSideAddress {
		return fmt.Errorf("%s: %w", receiver, ErrSelfLoop)
	}
	if value == nil || value.Sign() <= 0 {
		return ErrZeroValue
	}
	if err := o.limits.CheckDeposit(value, o.day()); err != nil {
		return err
	}
	if burn {
		token := o.b.deps.Token
		if token == nil {
			return fmt.Errorf("token: %w", ErrMissingCollaborator)
		}
		gross := new(big.Int).Set(value)
		o.effect(func(ctx context.Context) error {
			return token.Burn(ctx, gross)
		})
	}
	o.b.logger.WithField("receiver", receiver).WithField("value", value.String()).Debug("accepted deposit")
	return o.relayOut(sender, receiver, value, data, o.settings.HomeFee)
}
