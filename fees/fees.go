package fees

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

var (
	ErrInvalidFee       = fmt.Errorf("%w: fee must be below 100%%", bridgeerr.ErrValidation)
	ErrNoRewardAccounts = fmt.Errorf("%w: no reward accounts to distribute fee", bridgeerr.ErrValidation)
)

// Scale is the fixed-point denominator of fee fractions, 1e18 is 100%.
var Scale = big.NewInt(1e18)

type Share struct {
	Account common.Address
	Amount  *big.Int
}

func ValidateFee(fraction *big.Int) error {
	if fraction == nil || fraction.Sign() < 0 || fraction.Cmp(Scale) >= 0 {
		return ErrInvalidFee
	}
	return nil
}

// CalculateFee rounds down.
func CalculateFee(value, fraction *big.Int) *big.Int {
	fee := new(big.Int).Mul(value, fraction)
	return fee.Quo(fee, Scale)
}

// Split deducts the fee from gross and spreads it over the accounts. Every
// account gets fee / len(accounts); the remaining units go one each to the
// first accounts in the given order.
func Split(gross, fraction *big.Int, accounts []common.Address) (*big.Int, []Share, error) {
	if err := ValidateFee(fraction); err != nil {
		return nil, nil, err
	}
	fee := CalculateFee(gross, fraction)
	net := new(big.Int).Sub(gross, fee)
	if fee.Sign() == 0 {
		return net, nil, nil
	}
	if len(accounts) == 0 {
		return nil, nil, ErrNoRewardAccounts
	}
	base, remainder := new(big.Int).QuoRem(fee, big.NewInt(int64(len(accounts))), new(big.Int))
	extra := remainder.Int64()

	shares := make([]Share, len(accounts))
	for i, account := range accounts {
		amount := new(big.Int).Set(base)
		if int64(i) < extra {
			amount.Add(amount, common.Big1)
		}
		shares[i] = Share{Account: account, Amount: amount}
	}
	return net, shares, nil
}

// Total sums the shares.
func Total(shares []Share) *big.Int {
	total := new(big.Int)
	for _, s := range shares {
		total.Add(total, s.Amount)
	}
	return total
}
