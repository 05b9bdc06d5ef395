package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/fees"
	"github.com/omni/tokenbridge-core/utils"
)

var (
	ErrZeroValue       = fmt.Errorf("%w: zero value", bridgeerr.ErrValidation)
	ErrSelfLoop        = fmt.Errorf("%w: receiver is the bridge on the other side", bridgeerr.ErrValidation)
	ErrAlreadyExecuted = fmt.Errorf("%w: message is already executed", bridgeerr.ErrReplay)
)

// payFees distributes fee shares to the reward accounts, through the reward
// sink when one is configured.
func (o *op) payFees(shares []fees.Share) error {
	total := fees.Total(shares)
	if total.Sign() == 0 {
		return nil
	}
	rewards, token := o.b.deps.Rewards, o.b.deps.Token
	if rewards == nil && token == nil {
		return fmt.Errorf("reward sink: %w", ErrMissingCollaborator)
	}
	for _, share := range shares {
		if share.Amount.Sign() == 0 {
			continue
		}
		account, amount := share.Account, share.Amount
		o.effect(func(ctx context.Context) error {
			if rewards != nil {
				return rewards.Notify(ctx, account, amount)
			}
			return token.Mint(ctx, account, amount)
		})
	}
	return o.emit("FeeDistributed", total, o.call.TxHash)
}

func (o *op) split(value, fraction *big.Int) (*big.Int, error) {
	if fraction.Sign() == 0 {
		return new(big.Int).Set(value), nil
	}
	accounts, err := o.registry.RewardAccounts()
	if err != nil {
		return nil, err
	}
	net, shares, err := fees.Split(value, fraction, accounts)
	if err != nil {
		return nil, err
	}
	if err = o.payFees(shares); err != nil {
		return nil, err
	}
	return net, nil
}

// relayOut sends value, expressed in this side's precision, to the receiver on
// the other side.
func (o *op) relayOut(sender, receiver common.Address, value *big.Int, data []byte, feeFraction *big.Int) error {
	transport := o.b.deps.Transport
	if transport == nil {
		return fmt.Errorf("transport: %w", ErrMissingCollaborator)
	}
	net, err := o.split(value, feeFraction)
	if err != nil {
		return err
	}
	wireValue := utils.UnshiftValue(net, o.settings.decimalShift())
	if wireValue.Sign() == 0 {
		return fmt.Errorf("net value %s is lost to the decimal shift: %w", net, ErrZeroValue)
	}

	request := "UserRequestForAffirmation"
	if o.b.cfg.Side == config.BridgeSideHome {
		request = "UserRequestForSignature"
	}
	if err = o.emit(request, receiver, wireValue); err != nil {
		return err
	}

	if data == nil {
		data = []byte{}
	}
	payload, err := abi.BridgeABI.Pack("handleBridgedTokens", receiver, wireValue, data)
	if err != nil {
		return fmt.Errorf("can't encode bridged tokens message: %w", err)
	}
	o.effect(func(ctx context.Context) error {
		messageID, err := transport.Send(ctx, payload)
		if err != nil {
			return fmt.Errorf("can't send message: %w", err)
		}
		o.result.MessageID = &messageID
		if err = o.ledger.RecordSentMessage(messageID, sender, net); err != nil {
			return err
		}
		return o.emit("TokensBridgingInitiated", o.b.cfg.TokenAddress, sender, net, messageID)
	})
	return nil
}

// release moves an inbound amount, already in this side's precision, to the
// recipient and returns the amount left after fees.
func (o *op) release(recipient common.Address, amount *big.Int, data []byte) (*big.Int, error) {
	token := o.b.deps.Token
	if token == nil {
		return nil, fmt.Errorf("token: %w", ErrMissingCollaborator)
	}
	if recipient == (common.Address{}) {
		return nil, fmt.Errorf("recipient: %w", ErrZeroAddress)
	}
	net, err := o.split(amount, o.settings.ForeignFee)
	if err != nil {
		return nil, err
	}
	if net.Sign() == 0 {
		return net, nil
	}
	self := o.b.cfg.Address
	o.effect(func(ctx context.Context) error {
		if len(data) == 0 {
			return token.Mint(ctx, recipient, net)
		}
		if err := token.Mint(ctx, self, net); err != nil {
			return err
		}
		return token.TransferAndCall(ctx, recipient, net, data)
	})
	return net, nil
}
