package validator

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/state"
)

var (
	ErrZeroAddress               = fmt.Errorf("%w: zero address", bridgeerr.ErrMalformedInput)
	ErrValidatorExists           = fmt.Errorf("%w: validator already exists", bridgeerr.ErrValidation)
	ErrValidatorNotFound         = fmt.Errorf("%w: validator not found", bridgeerr.ErrValidation)
	ErrLastValidator             = fmt.Errorf("%w: can't remove the last validator", bridgeerr.ErrValidation)
	ErrInvalidRequiredSignatures = fmt.Errorf("%w: required signatures out of range", bridgeerr.ErrValidation)
	ErrNotInitialized            = fmt.Errorf("%w: validator set is not initialized", bridgeerr.ErrValidation)
)

var setKey = []byte("validator_set")

type Validator struct {
	Address       common.Address
	RewardAddress common.Address
}

type validatorSet struct {
	Validators []Validator
	Required   uint64
}

func (s *validatorSet) indexOf(addr common.Address) int {
	for i, v := range s.Validators {
		if v.Address == addr {
			return i
		}
	}
	return -1
}

func (s *validatorSet) validate() error {
	if s.Required < 1 || s.Required > uint64(len(s.Validators)) {
		return fmt.Errorf("%d of %d: %w", s.Required, len(s.Validators), ErrInvalidRequiredSignatures)
	}
	return nil
}

// Registry is the ordered validator set and its signature quorum. Every read
// goes to the underlying state, so callers always observe the current set.
type Registry struct {
	rw state.ReadWriter
}

func NewRegistry(rw state.ReadWriter) *Registry {
	return &Registry{rw: rw}
}

func (r *Registry) load() (*validatorSet, error) {
	set := new(validatorSet)
	found, err := state.GetRLP(r.rw, setKey, set)
	if err != nil {
		return nil, fmt.Errorf("can't load validator set: %w", err)
	}
	if !found {
		return nil, ErrNotInitialized
	}
	return set, nil
}

func (r *Registry) save(set *validatorSet) error {
	if err := set.validate(); err != nil {
		return err
	}
	return state.PutRLP(r.rw, setKey, set)
}

// Init replaces the whole set, used once on bridge initialization.
func (r *Registry) Init(validators []Validator, required uint64) error {
	set := &validatorSet{Required: required}
	for _, v := range validators {
		if v.Address == (common.Address{}) || v.RewardAddress == (common.Address{}) {
			return ErrZeroAddress
		}
		if set.indexOf(v.Address) >= 0 {
			return fmt.Errorf("%s: %w", v.Address, ErrValidatorExists)
		}
		set.Validators = append(set.Validators, v)
	}
	return r.save(set)
}

func (r *Registry) AddValidator(addr, rewardAddr common.Address) error {
	if addr == (common.Address{}) || rewardAddr == (common.Address{}) {
		return ErrZeroAddress
	}
	set, err := r.load()
	if err != nil {
		return err
	}
	if set.indexOf(addr) >= 0 {
		return fmt.Errorf("%s: %w", addr, ErrValidatorExists)
	}
	set.Validators = append(set.Validators, Validator{Address: addr, RewardAddress: rewardAddr})
	return r.save(set)
}

func (r *Registry) RemoveValidator(addr common.Address) error {
	set, err := r.load()
	if err != nil {
		return err
	}
	i := set.indexOf(addr)
	if i < 0 {
		return fmt.Errorf("%s: %w", addr, ErrValidatorNotFound)
	}
	if len(set.Validators) == 1 {
		return ErrLastValidator
	}
	set.Validators = append(set.Validators[:i], set.Validators[i+1:]...)
	return r.save(set)
}

func (r *Registry) SetRequiredSignatures(n uint64) error {
	set, err := r.load()
	if err != nil {
		return err
	}
	set.Required = n
	return r.save(set)
}

func (r *Registry) IsValidator(addr common.Address) (bool, error) {
	set, err := r.load()
	if err != nil {
		return false, err
	}
	return set.indexOf(addr) >= 0, nil
}

func (r *Registry) RequiredSignatures() (uint64, error) {
	set, err := r.load()
	if err != nil {
		return 0, err
	}
	return set.Required, nil
}

func (r *Registry) Validators() ([]Validator, error) {
	set, err := r.load()
	if err != nil {
		return nil, err
	}
	return set.Validators, nil
}

// RewardAccounts lists the reward addresses in validator order.
func (r *Registry) RewardAccounts() ([]common.Address, error) {
	set, err := r.load()
	if err != nil {
		return nil, err
	}
	res := make([]common.Address, len(set.Validators))
	for i, v := range set.Validators {
		res[i] = v.RewardAddress
	}
	return res, nil
}

func (r *Registry) RewardAddress(addr common.Address) (common.Address, error) {
	set, err := r.load()
	if err != nil {
		return common.Address{}, err
	}
	i := set.indexOf(addr)
	if i < 0 {
		return common.Address{}, fmt.Errorf("%s: %w", addr, ErrValidatorNotFound)
	}
	return set.Validators[i].RewardAddress, nil
}
