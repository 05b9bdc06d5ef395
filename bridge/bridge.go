package bridge

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/fees"
	"github.com/omni/tokenbridge-core/ledger"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/state"
	"github.com/omni/tokenbridge-core/utils"
	"github.com/omni/tokenbridge-core/validator"
)

var (
	ErrNotInitialized      = fmt.Errorf("%w: bridge is not initialized", bridgeerr.ErrValidation)
	ErrAlreadyInitialized  = fmt.Errorf("%w: bridge is already initialized", bridgeerr.ErrValidation)
	ErrZeroAddress         = fmt.Errorf("%w: zero address", bridgeerr.ErrMalformedInput)
	ErrInvalidDecimalShift = fmt.Errorf("%w: decimal shift out of range", bridgeerr.ErrValidation)
	ErrNotOwner            = fmt.Errorf("%w: caller is not the owner", bridgeerr.ErrAuthorization)
	ErrNotValidator        = fmt.Errorf("%w: caller is not a validator", bridgeerr.ErrAuthorization)
	ErrWrongSide           = fmt.Errorf("%w: operation is not supported on this side", bridgeerr.ErrValidation)
	ErrMissingCollaborator = fmt.Errorf("%w: collaborator is not configured", bridgeerr.ErrValidation)
)

var modeNames = map[config.BridgeMode]string{
	config.BridgeModeArbitraryMessage: "arbitrary-message-bridge-core",
	config.BridgeModeErcToNative:      "erc-to-native-core",
	config.BridgeModeErcToErc:         "erc-to-erc-core",
	config.BridgeModeNativeToErc:      "native-to-erc-core",
}

// ModeID is the 4 byte bridge variant identifier relayers query through Mode.
func ModeID(mode config.BridgeMode) [4]byte {
	var id [4]byte
	copy(id[:], crypto.Keccak256([]byte(modeNames[mode])))
	return id
}

// Params are the one-time initialization parameters.
type Params struct {
	Owner              common.Address
	Validators         []validator.Validator
	RequiredSignatures uint64
	Limits             *limits.Config
	HomeFee            *big.Int
	ForeignFee         *big.Int
	DecimalShift       int
}

func ParamsFromConfig(cfg *config.BridgeConfig) *Params {
	validators := make([]validator.Validator, len(cfg.Validators))
	for i, v := range cfg.Validators {
		validators[i] = validator.Validator{Address: v.Address, RewardAddress: v.RewardAddress}
	}
	return &Params{
		Owner:              cfg.Owner,
		Validators:         validators,
		RequiredSignatures: cfg.RequiredSignatures,
		Limits: &limits.Config{
			DailyLimit:          cfg.Limits.DailyLimit.Value(),
			MaxPerTx:            cfg.Limits.MaxPerTx.Value(),
			MinPerTx:            cfg.Limits.MinPerTx.Value(),
			ExecutionDailyLimit: cfg.Limits.ExecutionDailyLimit.Value(),
			ExecutionMaxPerTx:   cfg.Limits.ExecutionMaxPerTx.Value(),
		},
		HomeFee:      cfg.Fees.HomeFee.Value(),
		ForeignFee:   cfg.Fees.ForeignFee.Value(),
		DecimalShift: cfg.DecimalShift,
	}
}

var settingsKey = []byte("settings")

// settings is the owner-managed configuration persisted next to the
// validator set and the limits.
type settings struct {
	Owner         common.Address
	HomeFee       *big.Int
	ForeignFee    *big.Int
	ShiftAbs      uint64
	ShiftNegative bool
}

func (s *settings) decimalShift() int {
	if s.ShiftNegative {
		return -int(s.ShiftAbs)
	}
	return int(s.ShiftAbs)
}

func (s *settings) setDecimalShift(shift int) {
	s.ShiftNegative = shift < 0
	if shift < 0 {
		shift = -shift
	}
	s.ShiftAbs = uint64(shift)
}

type Bridge struct {
	mu     sync.Mutex
	cfg    *config.BridgeConfig
	store  *state.Store
	deps   Collaborators
	logger logging.Logger
}

func New(cfg *config.BridgeConfig, store *state.Store, deps Collaborators, logger logging.Logger) *Bridge {
	return &Bridge{
		cfg:    cfg,
		store:  store,
		deps:   deps,
		logger: logger,
	}
}

func (b *Bridge) ID() string {
	return b.cfg.ID
}

func (b *Bridge) Side() config.BridgeSide {
	return b.cfg.Side
}

func (b *Bridge) Address() common.Address {
	return b.cfg.Address
}

func (b *Bridge) Mode() [4]byte {
	return ModeID(b.cfg.BridgeMode)
}

// nativeSide reports whether deposits on this side are made in the native coin.
func (b *Bridge) nativeSide() bool {
	switch b.cfg.BridgeMode {
	case config.BridgeModeNativeToErc, config.BridgeModeErcToNative:
		return b.cfg.Side == config.BridgeSideHome
	default:
		return false
	}
}

// Initialize configures the bridge once.
func (b *Bridge) Initialize(ctx context.Context, call *Call, params *Params) (*Result, error) {
	return b.execute(ctx, "initialize", call, false, func(o *op) error {
		if o.settings != nil {
			return ErrAlreadyInitialized
		}
		for _, addr := range []common.Address{b.cfg.Address, b.cfg.OtherSideAddress, b.cfg.TokenAddress, b.cfg.TransportAddress, params.Owner} {
			if addr == (common.Address{}) {
				return fmt.Errorf("collaborator address: %w", ErrZeroAddress)
			}
		}
		if params.DecimalShift < -utils.MaxDecimalShift || params.DecimalShift > utils.MaxDecimalShift {
			return fmt.Errorf("%d: %w", params.DecimalShift, ErrInvalidDecimalShift)
		}
		if params.Limits == nil {
			return limits.ErrInvalidLimits
		}
		if err := fees.ValidateFee(params.HomeFee); err != nil {
			return fmt.Errorf("home fee: %w", err)
		}
		if err := fees.ValidateFee(params.ForeignFee); err != nil {
			return fmt.Errorf("foreign fee: %w", err)
		}
		if err := o.limits.Init(params.Limits); err != nil {
			return err
		}
		if err := o.registry.Init(params.Validators, params.RequiredSignatures); err != nil {
			return err
		}
		s := &settings{
			Owner:      params.Owner,
			HomeFee:    new(big.Int).Set(params.HomeFee),
			ForeignFee: new(big.Int).Set(params.ForeignFee),
		}
		s.setDecimalShift(params.DecimalShift)
		if err := o.saveSettings(s); err != nil {
			return err
		}

		if err := o.emit("OwnershipTransferred", common.Address{}, params.Owner); err != nil {
			return err
		}
		for _, v := range params.Validators {
			if err := o.emit("ValidatorAdded", v.Address); err != nil {
				return err
			}
		}
		if err := o.emit("RequiredSignaturesChanged", new(big.Int).SetUint64(params.RequiredSignatures)); err != nil {
			return err
		}
		if err := o.emit("DailyLimitChanged", params.Limits.DailyLimit); err != nil {
			return err
		}
		return o.emit("ExecutionDailyLimitChanged", params.Limits.ExecutionDailyLimit)
	})
}

// op is the working set of one state transition. Effects run after the
// transition logic succeeded and before the state is committed.
type op struct {
	ctx      context.Context
	b        *Bridge
	call     *Call
	tx       *state.Txn
	registry *validator.Registry
	ledger   *ledger.Ledger
	limits   *limits.Enforcer
	settings *settings
	result   *Result
	effects  []func(ctx context.Context) error
}

func (o *op) saveSettings(s *settings) error {
	if err := state.PutRLP(o.tx, settingsKey, s); err != nil {
		return err
	}
	o.settings = s
	return nil
}

func (o *op) day() uint64 {
	return limits.Day(o.call.Timestamp)
}

func (o *op) effect(f func(ctx context.Context) error) {
	o.effects = append(o.effects, f)
}

func (o *op) emit(name string, args ...interface{}) error {
	log, err := abi.BridgeABI.EncodeLog(o.b.cfg.Address, name, args...)
	if err != nil {
		return fmt.Errorf("can't encode %s event: %w", name, err)
	}
	log.BridgeID = o.b.cfg.ID
	log.TransactionHash = o.call.TxHash
	log.LogIndex = uint(len(o.result.Events))
	log.Timestamp = o.call.Timestamp
	o.result.Events = append(o.result.Events, &Event{Name: name, Args: args, Log: log})
	return nil
}

func (o *op) requireOwner() error {
	if o.call.From != o.settings.Owner {
		return fmt.Errorf("%s: %w", o.call.From, ErrNotOwner)
	}
	return nil
}

func (o *op) requireValidator() error {
	ok, err := o.registry.IsValidator(o.call.From)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: %w", o.call.From, ErrNotValidator)
	}
	return nil
}

func (o *op) requireSide(side config.BridgeSide) error {
	if o.b.cfg.Side != side {
		return fmt.Errorf("%s side: %w", o.b.cfg.Side, ErrWrongSide)
	}
	return nil
}

func (b *Bridge) newOp(ctx context.Context, call *Call, tx *state.Txn) (*op, error) {
	o := &op{
		ctx:      ctx,
		b:        b,
		call:     call,
		tx:       tx,
		registry: validator.NewRegistry(tx),
		ledger:   ledger.New(tx),
		limits:   limits.New(tx),
		result:   new(Result),
	}
	s := new(settings)
	found, err := state.GetRLP(tx, settingsKey, s)
	if err != nil {
		return nil, fmt.Errorf("can't load bridge settings: %w", err)
	}
	if found {
		o.settings = s
	}
	return o, nil
}

// execute runs fn as one atomic state transition. Nothing is persisted unless
// fn, every registered effect and the event journal succeed.
func (b *Bridge) execute(ctx context.Context, name string, call *Call, initialized bool, fn func(o *op) error) (*Result, error) {
	defer ObserveDuration(b.cfg.ID, name)()
	b.mu.Lock()
	defer b.mu.Unlock()

	logger := b.logger.WithFields(logrus.Fields{
		"operation": name,
		"tx_hash":   call.TxHash,
		"from":      call.From,
	})

	res, err := b.transition(ctx, call, initialized, fn)
	ObserveOperation(b.cfg.ID, name, err)
	if err != nil {
		logger.WithError(err).Warn("rejected bridge call")
		return nil, fmt.Errorf("can't %s: %w", name, err)
	}
	logger.WithField("events", res.EventNames()).Info("committed bridge call")
	return res, nil
}

func (b *Bridge) transition(ctx context.Context, call *Call, initialized bool, fn func(o *op) error) (*Result, error) {
	tx := b.store.Begin()
	defer tx.Discard()

	o, err := b.newOp(ctx, call, tx)
	if err != nil {
		return nil, err
	}
	if initialized && o.settings == nil {
		return nil, ErrNotInitialized
	}
	if err = fn(o); err != nil {
		return nil, err
	}
	apply := func(ctx context.Context) error {
		for _, f := range o.effects {
			if err := f(ctx); err != nil {
				return fmt.Errorf("can't apply side effect: %w", err)
			}
		}
		if b.deps.Journal != nil && len(o.result.Events) > 0 {
			logs := make([]*entity.Log, len(o.result.Events))
			for i, e := range o.result.Events {
				logs[i] = e.Log
			}
			if err := b.deps.Journal.Ensure(ctx, logs...); err != nil {
				return fmt.Errorf("can't journal events: %w", err)
			}
		}
		return tx.Commit()
	}
	if b.deps.Transactor != nil {
		err = b.deps.Transactor.RunInTransaction(ctx, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		return nil, err
	}
	return o.result, nil
}

// view runs a read-only function against the current state.
func (b *Bridge) view(fn func(o *op) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx := b.store.Begin()
	defer tx.Discard()
	o, err := b.newOp(context.Background(), new(Call), tx)
	if err != nil {
		return err
	}
	if o.settings == nil {
		return ErrNotInitialized
	}
	return fn(o)
}
