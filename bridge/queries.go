package bridge

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/ledger"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/validator"
)

// Status is a snapshot of the owner-managed configuration and the
// out-of-limit queue.
type Status struct {
	ID                 string
	Mode               [4]byte
	Owner              common.Address
	Limits             *limits.Config
	HomeFee            *big.Int
	ForeignFee         *big.Int
	DecimalShift       int
	RequiredSignatures uint64
	OutOfLimitAmount   *big.Int
	PendingExcess      uint64
}

func (b *Bridge) Initialized() bool {
	return b.view(func(o *op) error { return nil }) == nil
}

func (b *Bridge) Status() (*Status, error) {
	status := &Status{ID: b.cfg.ID, Mode: b.Mode()}
	err := b.view(func(o *op) error {
		var err error
		status.Owner = o.settings.Owner
		status.HomeFee = o.settings.HomeFee
		status.ForeignFee = o.settings.ForeignFee
		status.DecimalShift = o.settings.decimalShift()
		if status.Limits, err = o.limits.Config(); err != nil {
			return err
		}
		if status.RequiredSignatures, err = o.registry.RequiredSignatures(); err != nil {
			return err
		}
		if status.OutOfLimitAmount, err = o.limits.OutOfLimitAmount(); err != nil {
			return err
		}
		status.PendingExcess, err = o.limits.PendingExcessCount()
		return err
	})
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (b *Bridge) Owner() (owner common.Address, err error) {
	err = b.view(func(o *op) error {
		owner = o.settings.Owner
		return nil
	})
	return
}

func (b *Bridge) Limits() (cfg *limits.Config, err error) {
	err = b.view(func(o *op) error {
		cfg, err = o.limits.Config()
		return err
	})
	return
}

// Fees returns the home and foreign fee fractions, scaled by 1e18.
func (b *Bridge) Fees() (home, foreign *big.Int, err error) {
	err = b.view(func(o *op) error {
		home, foreign = o.settings.HomeFee, o.settings.ForeignFee
		return nil
	})
	return
}

func (b *Bridge) Validators() (validators []validator.Validator, err error) {
	err = b.view(func(o *op) error {
		validators, err = o.registry.Validators()
		return err
	})
	return
}

func (b *Bridge) RequiredSignatures() (required uint64, err error) {
	err = b.view(func(o *op) error {
		required, err = o.registry.RequiredSignatures()
		return err
	})
	return
}

func (b *Bridge) IsValidator(addr common.Address) (ok bool, err error) {
	err = b.view(func(o *op) error {
		ok, err = o.registry.IsValidator(addr)
		return err
	})
	return
}

func (b *Bridge) OutOfLimitAmount() (amount *big.Int, err error) {
	err = b.view(func(o *op) error {
		amount, err = o.limits.OutOfLimitAmount()
		return err
	})
	return
}

func (b *Bridge) Excess(txHash common.Hash) (excess *limits.Excess, err error) {
	err = b.view(func(o *op) error {
		excess, err = o.limits.Excess(txHash)
		return err
	})
	return
}

func (b *Bridge) TotalSpentPerDay(day uint64) (spent *big.Int, err error) {
	err = b.view(func(o *op) error {
		spent, err = o.limits.TotalSpentPerDay(day)
		return err
	})
	return
}

func (b *Bridge) TotalExecutedPerDay(day uint64) (spent *big.Int, err error) {
	err = b.view(func(o *op) error {
		spent, err = o.limits.TotalExecutedPerDay(day)
		return err
	})
	return
}

func (b *Bridge) IsExecuted(key common.Hash) (executed bool, err error) {
	err = b.view(func(o *op) error {
		executed, err = o.ledger.IsExecuted(key)
		return err
	})
	return
}

func (b *Bridge) IsFailed(messageID common.Hash) (failed bool, err error) {
	err = b.view(func(o *op) error {
		failed, err = o.ledger.IsFailed(messageID)
		return err
	})
	return
}

// Affirmation returns the vote counter of an affirmation message hash.
func (b *Bridge) Affirmation(hash common.Hash) (a *ledger.Affirmation, err error) {
	err = b.view(func(o *op) error {
		a, err = o.ledger.Affirmation(hash)
		return err
	})
	return
}

// Collection returns the signature counter of a message hash.
func (b *Bridge) Collection(hash common.Hash) (a *ledger.Affirmation, err error) {
	err = b.view(func(o *op) error {
		a, err = o.ledger.Collection(hash)
		return err
	})
	return
}

func (b *Bridge) Signatures(hash common.Hash) (sigs [][]byte, err error) {
	err = b.view(func(o *op) error {
		sigs, err = o.ledger.Signatures(hash)
		return err
	})
	return
}

func (b *Bridge) Message(hash common.Hash) (msg []byte, err error) {
	err = b.view(func(o *op) error {
		msg, err = o.ledger.Message(hash)
		return err
	})
	return
}

// UpdateMetrics refreshes the state gauges.
func (b *Bridge) UpdateMetrics() error {
	status, err := b.Status()
	if err != nil {
		return err
	}
	validators, err := b.Validators()
	if err != nil {
		return err
	}
	amount, _ := new(big.Float).SetInt(status.OutOfLimitAmount).Float64()
	OutOfLimitAmount.WithLabelValues(b.cfg.ID).Set(amount)
	PendingExcess.WithLabelValues(b.cfg.ID).Set(float64(status.PendingExcess))
	RequiredSignatures.WithLabelValues(b.cfg.ID).Set(float64(status.RequiredSignatures))
	Validators.WithLabelValues(b.cfg.ID).Set(float64(len(validators)))
	return nil
}
