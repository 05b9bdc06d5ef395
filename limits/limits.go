package limits

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/message"
	"github.com/omni/tokenbridge-core/state"
)

const SecondsPerDay = 86400

var (
	ErrBelowMinPerTx          = fmt.Errorf("%w: value is below min per tx", bridgeerr.ErrDepositLimit)
	ErrAboveMaxPerTx          = fmt.Errorf("%w: value is above max per tx", bridgeerr.ErrDepositLimit)
	ErrDailyLimitExceeded     = fmt.Errorf("%w: daily limit exceeded", bridgeerr.ErrDepositLimit)
	ErrAboveExecutionMaxPerTx = fmt.Errorf("%w: value is above execution max per tx", bridgeerr.ErrExecutionLimit)
	ErrInvalidLimits          = fmt.Errorf("%w: invalid limits", bridgeerr.ErrValidation)
	ErrInsufficientExcess     = fmt.Errorf("%w: value exceeds recorded excess", bridgeerr.ErrValidation)
	ErrExcessRecipient        = fmt.Errorf("%w: excess is already recorded for another recipient", bridgeerr.ErrValidation)
	ErrNotInitialized         = fmt.Errorf("%w: limits are not initialized", bridgeerr.ErrValidation)
)

const (
	nsDepositSpent   = "deposit_spent"
	nsExecutionSpent = "execution_spent"
	nsExcess         = "excess"
)

var (
	configKey         = []byte("limits")
	outOfLimitKey     = []byte("out_of_limit_amount")
	outOfLimitCounter = []byte("out_of_limit_count")
)

// Day is the limit window the timestamp belongs to.
func Day(timestamp uint64) uint64 {
	return timestamp / SecondsPerDay
}

// Config holds both directions' limits. Zero daily limits mean unlimited.
type Config struct {
	DailyLimit          *big.Int
	MaxPerTx            *big.Int
	MinPerTx            *big.Int
	ExecutionDailyLimit *big.Int
	ExecutionMaxPerTx   *big.Int
}

func (c *Config) Validate() error {
	for _, v := range []*big.Int{c.DailyLimit, c.MaxPerTx, c.MinPerTx, c.ExecutionDailyLimit, c.ExecutionMaxPerTx} {
		if !message.IsUint256(v) {
			return fmt.Errorf("limit is not a valid uint256: %w", ErrInvalidLimits)
		}
	}
	if c.MinPerTx.Cmp(c.MaxPerTx) > 0 {
		return fmt.Errorf("min per tx %s > max per tx %s: %w", c.MinPerTx, c.MaxPerTx, ErrInvalidLimits)
	}
	if c.DailyLimit.Sign() != 0 && c.MaxPerTx.Cmp(c.DailyLimit) > 0 {
		return fmt.Errorf("max per tx %s > daily limit %s: %w", c.MaxPerTx, c.DailyLimit, ErrInvalidLimits)
	}
	if c.ExecutionDailyLimit.Sign() != 0 && c.ExecutionMaxPerTx.Cmp(c.ExecutionDailyLimit) > 0 {
		return fmt.Errorf("execution max per tx %s > execution daily limit %s: %w", c.ExecutionMaxPerTx, c.ExecutionDailyLimit, ErrInvalidLimits)
	}
	return nil
}

type Outcome int

const (
	Released Outcome = iota
	Deferred
)

func (o Outcome) String() string {
	if o == Deferred {
		return "deferred"
	}
	return "released"
}

// Excess is the part of a message's value waiting for a manual release.
type Excess struct {
	Recipient common.Address
	Value     *big.Int
}

type Enforcer struct {
	rw state.ReadWriter
}

func New(rw state.ReadWriter) *Enforcer {
	return &Enforcer{rw: rw}
}

func (e *Enforcer) Init(cfg *Config) error {
	return e.save(cfg)
}

func (e *Enforcer) Config() (*Config, error) {
	cfg := new(Config)
	found, err := state.GetRLP(e.rw, configKey, cfg)
	if err != nil {
		return nil, fmt.Errorf("can't load limits: %w", err)
	}
	if !found {
		return nil, ErrNotInitialized
	}
	return cfg, nil
}

func (e *Enforcer) save(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	return state.PutRLP(e.rw, configKey, cfg)
}

func (e *Enforcer) update(f func(cfg *Config, v *big.Int), value *big.Int) error {
	if value == nil {
		return ErrInvalidLimits
	}
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	f(cfg, new(big.Int).Set(value))
	return e.save(cfg)
}

func (e *Enforcer) SetDailyLimit(v *big.Int) error {
	return e.update(func(cfg *Config, v *big.Int) { cfg.DailyLimit = v }, v)
}

func (e *Enforcer) SetMaxPerTx(v *big.Int) error {
	return e.update(func(cfg *Config, v *big.Int) { cfg.MaxPerTx = v }, v)
}

func (e *Enforcer) SetMinPerTx(v *big.Int) error {
	return e.update(func(cfg *Config, v *big.Int) { cfg.MinPerTx = v }, v)
}

func (e *Enforcer) SetExecutionDailyLimit(v *big.Int) error {
	return e.update(func(cfg *Config, v *big.Int) { cfg.ExecutionDailyLimit = v }, v)
}

func (e *Enforcer) SetExecutionMaxPerTx(v *big.Int) error {
	return e.update(func(cfg *Config, v *big.Int) { cfg.ExecutionMaxPerTx = v }, v)
}

func (e *Enforcer) TotalSpentPerDay(day uint64) (*big.Int, error) {
	return state.GetBig(e.rw, state.Key(nsDepositSpent, state.Uint64Bytes(day)))
}

func (e *Enforcer) TotalExecutedPerDay(day uint64) (*big.Int, error) {
	return state.GetBig(e.rw, state.Key(nsExecutionSpent, state.Uint64Bytes(day)))
}

func (e *Enforcer) OutOfLimitAmount() (*big.Int, error) {
	return state.GetBig(e.rw, outOfLimitKey)
}

// PendingExcessCount is the number of messages with a non-zero excess.
func (e *Enforcer) PendingExcessCount() (uint64, error) {
	n, err := state.GetBig(e.rw, outOfLimitCounter)
	if err != nil {
		return 0, err
	}
	return n.Uint64(), nil
}

// Excess returns a zero value entry for hashes that never exceeded the limit.
func (e *Enforcer) Excess(txHash common.Hash) (*Excess, error) {
	excess := &Excess{Value: new(big.Int)}
	if _, err := state.GetRLP(e.rw, state.Key(nsExcess, txHash.Bytes()), excess); err != nil {
		return nil, err
	}
	return excess, nil
}

// WithinLimit reports whether a deposit of value would pass CheckDeposit.
func (e *Enforcer) WithinLimit(value *big.Int, day uint64) (bool, error) {
	cfg, err := e.Config()
	if err != nil {
		return false, err
	}
	spent, err := e.TotalSpentPerDay(day)
	if err != nil {
		return false, err
	}
	return checkDeposit(cfg, spent, value) == nil, nil
}

// WithinExecutionLimit reports whether an execution of value would be released.
func (e *Enforcer) WithinExecutionLimit(value *big.Int, day uint64) (bool, error) {
	cfg, err := e.Config()
	if err != nil {
		return false, err
	}
	spent, err := e.TotalExecutedPerDay(day)
	if err != nil {
		return false, err
	}
	return value.Cmp(cfg.ExecutionMaxPerTx) <= 0 && !exceeds(spent, value, cfg.ExecutionDailyLimit), nil
}

func exceeds(spent, value, limit *big.Int) bool {
	if limit.Sign() == 0 {
		return false
	}
	return new(big.Int).Add(spent, value).Cmp(limit) > 0
}

func checkDeposit(cfg *Config, spent, value *big.Int) error {
	if value.Cmp(cfg.MinPerTx) < 0 {
		return fmt.Errorf("%s < %s: %w", value, cfg.MinPerTx, ErrBelowMinPerTx)
	}
	if value.Cmp(cfg.MaxPerTx) > 0 {
		return fmt.Errorf("%s > %s: %w", value, cfg.MaxPerTx, ErrAboveMaxPerTx)
	}
	if exceeds(spent, value, cfg.DailyLimit) {
		return fmt.Errorf("%s + %s > %s: %w", spent, value, cfg.DailyLimit, ErrDailyLimitExceeded)
	}
	return nil
}

// CheckDeposit accounts value against the deposit limits of the day.
func (e *Enforcer) CheckDeposit(value *big.Int, day uint64) error {
	cfg, err := e.Config()
	if err != nil {
		return err
	}
	key := state.Key(nsDepositSpent, state.Uint64Bytes(day))
	spent, err := state.GetBig(e.rw, key)
	if err != nil {
		return err
	}
	if err = checkDeposit(cfg, spent, value); err != nil {
		return err
	}
	_, err = state.AddBig(e.rw, key, value)
	return err
}

// CheckExecution accounts value against the execution limits of the day.
// Values over the per-tx cap are rejected; values over the daily limit are
// queued as excess of txHash and reported as Deferred.
func (e *Enforcer) CheckExecution(value *big.Int, day uint64, txHash common.Hash, recipient common.Address) (Outcome, error) {
	cfg, err := e.Config()
	if err != nil {
		return Released, err
	}
	if value.Cmp(cfg.ExecutionMaxPerTx) > 0 {
		return Released, fmt.Errorf("%s > %s: %w", value, cfg.ExecutionMaxPerTx, ErrAboveExecutionMaxPerTx)
	}
	key := state.Key(nsExecutionSpent, state.Uint64Bytes(day))
	spent, err := state.GetBig(e.rw, key)
	if err != nil {
		return Released, err
	}
	if exceeds(spent, value, cfg.ExecutionDailyLimit) {
		if err = e.addExcess(txHash, recipient, value); err != nil {
			return Released, err
		}
		return Deferred, nil
	}
	if _, err = state.AddBig(e.rw, key, value); err != nil {
		return Released, err
	}
	return Released, nil
}

func (e *Enforcer) addExcess(txHash common.Hash, recipient common.Address, value *big.Int) error {
	excess, err := e.Excess(txHash)
	if err != nil {
		return err
	}
	if excess.Value.Sign() != 0 && excess.Recipient != recipient {
		return fmt.Errorf("%s: %w", txHash, ErrExcessRecipient)
	}
	if excess.Value.Sign() == 0 {
		if _, err = state.AddBig(e.rw, outOfLimitCounter, common.Big1); err != nil {
			return err
		}
	}
	excess.Recipient = recipient
	excess.Value.Add(excess.Value, value)
	if !message.IsUint256(excess.Value) {
		return state.ErrOverflow
	}
	if _, err = state.AddBig(e.rw, outOfLimitKey, value); err != nil {
		return err
	}
	return state.PutRLP(e.rw, state.Key(nsExcess, txHash.Bytes()), excess)
}

// FixAssetsAboveLimits takes value out of the excess recorded for txHash and
// returns the entry as it was before the reduction. Moving the funds is up to
// the caller.
func (e *Enforcer) FixAssetsAboveLimits(txHash common.Hash, value *big.Int) (*Excess, error) {
	excess, err := e.Excess(txHash)
	if err != nil {
		return nil, err
	}
	if value.Sign() <= 0 || excess.Value.Cmp(value) < 0 {
		return nil, fmt.Errorf("releasing %s of %s: %w", value, excess.Value, ErrInsufficientExcess)
	}
	if _, err = state.AddBig(e.rw, outOfLimitKey, new(big.Int).Neg(value)); err != nil {
		return nil, err
	}
	rest := &Excess{Recipient: excess.Recipient, Value: new(big.Int).Sub(excess.Value, value)}
	key := state.Key(nsExcess, txHash.Bytes())
	if rest.Value.Sign() == 0 {
		e.rw.Delete(key)
		if _, err = state.AddBig(e.rw, outOfLimitCounter, big.NewInt(-1)); err != nil {
			return nil, err
		}
	} else if err = state.PutRLP(e.rw, key, rest); err != nil {
		return nil, err
	}
	return excess, nil
}
