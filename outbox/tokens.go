package outbox

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/contract"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/ethclient"
)

var ErrNoChainClient = errors.New("no chain client configured")

type operations struct {
	bridgeID string
	repo     entity.TokenOperationsRepo
}

func (o *operations) queue(ctx context.Context, token common.Address, operation string, recipient *common.Address, amount *big.Int, data []byte) error {
	op := &entity.TokenOperation{
		BridgeID:  o.bridgeID,
		Token:     token,
		Operation: operation,
		Recipient: recipient,
		Data:      data,
	}
	if amount != nil {
		s := amount.String()
		op.Amount = &s
	}
	if err := o.repo.Insert(ctx, op); err != nil {
		return fmt.Errorf("can't queue %s operation: %w", operation, err)
	}
	TokenOperations.WithLabelValues(o.bridgeID, operation).Inc()
	return nil
}

// Token records mints and burns of the bridged token for the chain side
// worker that submits them.
type Token struct {
	operations
	token common.Address
}

func NewToken(bridgeID string, token common.Address, repo entity.TokenOperationsRepo) *Token {
	return &Token{
		operations: operations{bridgeID: bridgeID, repo: repo},
		token:      token,
	}
}

func (t *Token) Mint(ctx context.Context, to common.Address, amount *big.Int) error {
	return t.queue(ctx, t.token, entity.TokenOperationMint, &to, amount, nil)
}

func (t *Token) Burn(ctx context.Context, amount *big.Int) error {
	return t.queue(ctx, t.token, entity.TokenOperationBurn, nil, amount, nil)
}

func (t *Token) TransferAndCall(ctx context.Context, to common.Address, amount *big.Int, data []byte) error {
	return t.queue(ctx, t.token, entity.TokenOperationTransferAndCall, &to, amount, data)
}

func (t *Token) TransferOwnership(ctx context.Context, newOwner common.Address) error {
	return t.queue(ctx, t.token, entity.TokenOperationTransferOwnership, &newOwner, nil, nil)
}

// Rewards accrues fee shares to reward accounts.
type Rewards struct {
	operations
	token common.Address
}

func NewRewards(bridgeID string, token common.Address, repo entity.TokenOperationsRepo) *Rewards {
	return &Rewards{
		operations: operations{bridgeID: bridgeID, repo: repo},
		token:      token,
	}
}

func (r *Rewards) Notify(ctx context.Context, account common.Address, amount *big.Int) error {
	return r.queue(ctx, r.token, entity.TokenOperationReward, &account, amount, nil)
}

// ERC20 reads balances from the chain and queues transfers of stray tokens.
type ERC20 struct {
	operations
	client ethclient.Client
}

// NewERC20 accepts a nil client, balances are unavailable then.
func NewERC20(bridgeID string, client ethclient.Client, repo entity.TokenOperationsRepo) *ERC20 {
	return &ERC20{
		operations: operations{bridgeID: bridgeID, repo: repo},
		client:     client,
	}
}

func (e *ERC20) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	if e.client == nil {
		return nil, ErrNoChainClient
	}
	return contract.NewTokenContract(e.client, token).BalanceOf(ctx, owner)
}

func (e *ERC20) Transfer(ctx context.Context, token, to common.Address, amount *big.Int) error {
	return e.queue(ctx, token, entity.TokenOperationTransfer, &to, amount, nil)
}
