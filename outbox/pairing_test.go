package outbox_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/outbox"
	"github.com/omni/tokenbridge-core/state"
	"github.com/omni/tokenbridge-core/validator"
)

func newPairedBridge(t *testing.T, cfg *config.BridgeConfig, messages *memMessages, ops *memOperations) *bridge.Bridge {
	t.Helper()
	store, err := state.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	b := bridge.New(cfg, store, bridge.Collaborators{
		Token:     outbox.NewToken(cfg.ID, cfg.TokenAddress, ops),
		Transport: outbox.NewTransport(cfg.ID, messages),
		ERC20:     outbox.NewERC20(cfg.ID, nil, ops),
	}, logging.Discard())

	maxPerTx := big.NewInt(1e18)
	params := &bridge.Params{
		Owner: common.HexToAddress("0x00000000000000000000000000000000000000a1"),
		Validators: []validator.Validator{{
			Address:       common.HexToAddress("0x00000000000000000000000000000000000000f1"),
			RewardAddress: common.HexToAddress("0x00000000000000000000000000000000000000f2"),
		}},
		RequiredSignatures: 1,
		Limits: &limits.Config{
			DailyLimit:          new(big.Int).Mul(maxPerTx, big.NewInt(10)),
			MaxPerTx:            maxPerTx,
			MinPerTx:            big.NewInt(1),
			ExecutionDailyLimit: new(big.Int).Mul(maxPerTx, big.NewInt(10)),
			ExecutionMaxPerTx:   maxPerTx,
		},
		HomeFee:    new(big.Int),
		ForeignFee: new(big.Int),
	}
	_, err = b.Initialize(context.Background(), &bridge.Call{From: params.Owner, Timestamp: 1_700_000_000}, params)
	require.NoError(t, err)
	return b
}

func TestDeliverer_PairedBridges(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	messages := new(memMessages)
	homeOps := new(memOperations)
	foreignOps := new(memOperations)

	homeCfg := &config.BridgeConfig{
		ID:               "home",
		BridgeMode:       config.BridgeModeErcToErc,
		Side:             config.BridgeSideHome,
		Address:          common.HexToAddress("0x00000000000000000000000000000000000000b1"),
		OtherSideAddress: common.HexToAddress("0x00000000000000000000000000000000000000b2"),
		TokenAddress:     tokenAddress,
		TransportAddress: common.HexToAddress("0x00000000000000000000000000000000000000d1"),
		OtherSideBridge:  "foreign",
	}
	foreignCfg := &config.BridgeConfig{
		ID:               "foreign",
		BridgeMode:       config.BridgeModeErcToErc,
		Side:             config.BridgeSideForeign,
		Address:          homeCfg.OtherSideAddress,
		OtherSideAddress: homeCfg.Address,
		TokenAddress:     common.HexToAddress("0x00000000000000000000000000000000000000c2"),
		TransportAddress: common.HexToAddress("0x00000000000000000000000000000000000000d2"),
		OtherSideBridge:  "home",
	}
	home := newPairedBridge(t, homeCfg, messages, homeOps)
	foreign := newPairedBridge(t, foreignCfg, messages, foreignOps)

	receiver := common.HexToAddress("0x00000000000000000000000000000000000000e2")
	res, err := home.RelayTokens(ctx, &bridge.Call{
		From:      userAddress,
		TxHash:    common.HexToHash("0x01"),
		Timestamp: 1_700_000_000,
	}, receiver, big.NewInt(1e17))
	require.NoError(t, err)
	require.NotNil(t, res.MessageID)

	deliverer := outbox.NewDeliverer("home", foreignCfg.TransportAddress, foreign, messages, logging.Discard())
	n, err := deliverer.DeliverPending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	executed, err := foreign.IsExecuted(*res.MessageID)
	require.NoError(t, err)
	require.True(t, executed)

	homeQueued, err := homeOps.FindByBridgeID(ctx, "home", 10)
	require.NoError(t, err)
	require.Len(t, homeQueued, 1)
	require.Equal(t, entity.TokenOperationBurn, homeQueued[0].Operation)
	require.Equal(t, "100000000000000000", *homeQueued[0].Amount)

	foreignQueued, err := foreignOps.FindByBridgeID(ctx, "foreign", 10)
	require.NoError(t, err)
	require.Len(t, foreignQueued, 1)
	require.Equal(t, entity.TokenOperationMint, foreignQueued[0].Operation)
	require.Equal(t, receiver, *foreignQueued[0].Recipient)
	require.Equal(t, "100000000000000000", *foreignQueued[0].Amount)

	// Delivered messages are not picked up again.
	n, err = deliverer.DeliverPending(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}
