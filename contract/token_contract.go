package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/ethclient"
)

var ErrUnexpectedResult = errors.New("unexpected call result")

type TokenContract struct {
	*Contract
}

func NewTokenContract(client ethclient.Client, addr common.Address) *TokenContract {
	return &TokenContract{NewContract(client, addr, abi.ERC20ABI)}
}

func (c *TokenContract) BalanceOf(ctx context.Context, owner common.Address) (*big.Int, error) {
	values, err := c.CallAndUnpack(ctx, "balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("cannot obtain token balance: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("balanceOf returned %d values: %w", len(values), ErrUnexpectedResult)
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned %T: %w", values[0], ErrUnexpectedResult)
	}
	return balance, nil
}
