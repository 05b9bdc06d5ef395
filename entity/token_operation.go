package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	TokenOperationMint              = "mint"
	TokenOperationBurn              = "burn"
	TokenOperationTransfer          = "transfer"
	TokenOperationTransferAndCall   = "transfer_and_call"
	TokenOperationTransferOwnership = "transfer_ownership"
	TokenOperationReward            = "reward"
)

// TokenOperation is a queued call to a token contract. Amount is a decimal
// string, NUMERIC(78) in the database.
type TokenOperation struct {
	ID        uint            `db:"id"`
	BridgeID  string          `db:"bridge_id"`
	Token     common.Address  `db:"token"`
	Operation string          `db:"operation"`
	Recipient *common.Address `db:"recipient"`
	Amount    *string         `db:"amount"`
	Data      []byte          `db:"data"`
	CreatedAt *time.Time      `db:"created_at"`
	UpdatedAt *time.Time      `db:"updated_at"`
}

type TokenOperationsRepo interface {
	Insert(ctx context.Context, ops ...*TokenOperation) error
	FindByBridgeID(ctx context.Context, bridgeID string, limit uint64) ([]*TokenOperation, error)
}
