package bridge

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/entity"
)

// MintableToken is the bridged token, or the native coin capability on native sides.
type MintableToken interface {
	Mint(ctx context.Context, to common.Address, amount *big.Int) error
	Burn(ctx context.Context, amount *big.Int) error
	TransferAndCall(ctx context.Context, to common.Address, amount *big.Int, data []byte) error
	TransferOwnership(ctx context.Context, newOwner common.Address) error
}

// Transport carries payloads to the bridge on the other side, where they
// arrive through Bridge.OnReceive.
type Transport interface {
	Send(ctx context.Context, payload []byte) (common.Hash, error)
}

// RewardSink receives fee shares instead of minting them, when configured.
type RewardSink interface {
	Notify(ctx context.Context, account common.Address, amount *big.Int) error
}

// ERC20 moves arbitrary tokens held by the bridge.
type ERC20 interface {
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)
	Transfer(ctx context.Context, token, to common.Address, amount *big.Int) error
}

type Collaborators struct {
	Token     MintableToken
	Transport Transport
	Rewards   RewardSink
	ERC20     ERC20
	Journal   entity.LogsRepo
	// Transactor, when set, makes the effects and the journal of a call
	// persist together with its state or not at all.
	Transactor entity.Transactor
}
