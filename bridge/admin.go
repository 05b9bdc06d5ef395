package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/fees"
	"github.com/omni/tokenbridge-core/limits"
)

var (
	homeFeeType    = feeType("home-fee")
	foreignFeeType = feeType("foreign-fee")
)

func feeType(name string) [32]byte {
	var t [32]byte
	copy(t[:], name)
	return t
}

// admin runs an owner-only state transition.
func (b *Bridge) admin(ctx context.Context, name string, call *Call, fn func(o *op) error) (*Result, error) {
	return b.execute(ctx, name, call, true, func(o *op) error {
		if err := o.requireOwner(); err != nil {
			return err
		}
		return fn(o)
	})
}

func (b *Bridge) AddValidator(ctx context.Context, call *Call, validator, rewardAddress common.Address) (*Result, error) {
	return b.admin(ctx, "add_validator", call, func(o *op) error {
		if err := o.registry.AddValidator(validator, rewardAddress); err != nil {
			return err
		}
		return o.emit("ValidatorAdded", validator)
	})
}

func (b *Bridge) RemoveValidator(ctx context.Context, call *Call, validator common.Address) (*Result, error) {
	return b.admin(ctx, "remove_validator", call, func(o *op) error {
		if err := o.registry.RemoveValidator(validator); err != nil {
			return err
		}
		return o.emit("ValidatorRemoved", validator)
	})
}

func (b *Bridge) SetRequiredSignatures(ctx context.Context, call *Call, required uint64) (*Result, error) {
	return b.admin(ctx, "set_required_signatures", call, func(o *op) error {
		if err := o.registry.SetRequiredSignatures(required); err != nil {
			return err
		}
		return o.emit("RequiredSignaturesChanged", new(big.Int).SetUint64(required))
	})
}

func (b *Bridge) SetDailyLimit(ctx context.Context, call *Call, limit *big.Int) (*Result, error) {
	return b.admin(ctx, "set_daily_limit", call, func(o *op) error {
		if err := o.limits.SetDailyLimit(limit); err != nil {
			return err
		}
		return o.emit("DailyLimitChanged", limit)
	})
}

func (b *Bridge) SetMaxPerTx(ctx context.Context, call *Call, value *big.Int) (*Result, error) {
	return b.setLimit(ctx, "set_max_per_tx", call, (*limits.Enforcer).SetMaxPerTx, value)
}

func (b *Bridge) SetMinPerTx(ctx context.Context, call *Call, value *big.Int) (*Result, error) {
	return b.setLimit(ctx, "set_min_per_tx", call, (*limits.Enforcer).SetMinPerTx, value)
}

func (b *Bridge) SetExecutionMaxPerTx(ctx context.Context, call *Call, value *big.Int) (*Result, error) {
	return b.setLimit(ctx, "set_execution_max_per_tx", call, (*limits.Enforcer).SetExecutionMaxPerTx, value)
}

func (b *Bridge) SetExecutionDailyLimit(ctx context.Context, call *Call, limit *big.Int) (*Result, error) {
	return b.admin(ctx, "set_execution_daily_limit", call, func(o *op) error {
		if err := o.limits.SetExecutionDailyLimit(limit); err != nil {
			return err
		}
		return o.emit("ExecutionDailyLimitChanged", limit)
	})
}

func (b *Bridge) setLimit(ctx context.Context, name string, call *Call, set func(*limits.Enforcer, *big.Int) error, value *big.Int) (*Result, error) {
	return b.admin(ctx, name, call, func(o *op) error {
		return set(o.limits, value)
	})
}

func (b *Bridge) SetHomeFee(ctx context.Context, call *Call, fee *big.Int) (*Result, error) {
	return b.admin(ctx, "set_home_fee", call, func(o *op) error {
		if err := fees.ValidateFee(fee); err != nil {
			return err
		}
		s := *o.settings
		s.HomeFee = new(big.Int).Set(fee)
		if err := o.saveSettings(&s); err != nil {
			return err
		}
		return o.emit("FeeUpdated", homeFeeType, fee)
	})
}

func (b *Bridge) SetForeignFee(ctx context.Context, call *Call, fee *big.Int) (*Result, error) {
	return b.admin(ctx, "set_foreign_fee", call, func(o *op) error {
		if err := fees.ValidateFee(fee); err != nil {
			return err
		}
		s := *o.settings
		s.ForeignFee = new(big.Int).Set(fee)
		if err := o.saveSettings(&s); err != nil {
			return err
		}
		return o.emit("FeeUpdated", foreignFeeType, fee)
	})
}

func (b *Bridge) TransferOwnership(ctx context.Context, call *Call, newOwner common.Address) (*Result, error) {
	return b.admin(ctx, "transfer_ownership", call, func(o *op) error {
		if newOwner == (common.Address{}) {
			return fmt.Errorf("new owner: %w", ErrZeroAddress)
		}
		prev := o.settings.Owner
		s := *o.settings
		s.Owner = newOwner
		if err := o.saveSettings(&s); err != nil {
			return err
		}
		return o.emit("OwnershipTransferred", prev, newOwner)
	})
}

// TransferTokenOwnership hands the bridged token over, e.g. to a new bridge.
func (b *Bridge) TransferTokenOwnership(ctx context.Context, call *Call, newOwner common.Address) (*Result, error) {
	return b.admin(ctx, "transfer_token_ownership", call, func(o *op) error {
		token := b.deps.Token
		if token == nil {
			return fmt.Errorf("token: %w", ErrMissingCollaborator)
		}
		if newOwner == (common.Address{}) {
			return fmt.Errorf("new owner: %w", ErrZeroAddress)
		}
		o.effect(func(ctx context.Context) error {
			return token.TransferOwnership(ctx, newOwner)
		})
		return nil
	})
}
