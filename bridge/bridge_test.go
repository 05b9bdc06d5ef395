package bridge_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/config"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/fees"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/validator"
)

func TestModeID(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Mode config.BridgeMode
		Name string
	}{
		{config.BridgeModeArbitraryMessage, "arbitrary-message-bridge-core"},
		{config.BridgeModeErcToNative, "erc-to-native-core"},
		{config.BridgeModeErcToErc, "erc-to-erc-core"},
		{config.BridgeModeNativeToErc, "native-to-erc-core"},
	} {
		id := bridge.ModeID(test.Mode)
		require.Equal(t, crypto.Keccak256([]byte(test.Name))[:4], id[:], test.Name)
	}
}

func TestBridge_Initialize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tb := newTestBridge(t, bridgeOptions{skipInit: true})
	require.False(t, tb.Initialized())

	_, err := tb.RelayTokens(ctx, newCall(userAddress), receiverAddress, ether(t, "0.1"))
	require.ErrorIs(t, err, bridge.ErrNotInitialized)
	_, err = tb.Owner()
	require.ErrorIs(t, err, bridge.ErrNotInitialized)

	params := defaultParams(t, tb.validators)
	for _, test := range []struct {
		Name   string
		Modify func(p *bridge.Params)
		Err    error
	}{
		{"Zero owner", func(p *bridge.Params) { p.Owner = common.Address{} }, bridge.ErrZeroAddress},
		{"Decimal shift too large", func(p *bridge.Params) { p.DecimalShift = 39 }, bridge.ErrInvalidDecimalShift},
		{"Min above max", func(p *bridge.Params) {
			l := *p.Limits
			l.MinPerTx = ether(t, "1.5")
			p.Limits = &l
		}, limits.ErrInvalidLimits},
		{"Execution max above execution daily", func(p *bridge.Params) {
			l := *p.Limits
			l.ExecutionDailyLimit = ether(t, "0.5")
			p.Limits = &l
		}, limits.ErrInvalidLimits},
		{"Fee of 100%", func(p *bridge.Params) { p.HomeFee = new(big.Int).Set(fees.Scale) }, fees.ErrInvalidFee},
		{"Quorum above validators", func(p *bridge.Params) { p.RequiredSignatures = 4 }, validator.ErrInvalidRequiredSignatures},
	} {
		p := *params
		test.Modify(&p)
		_, err = tb.Initialize(ctx, newCall(ownerAddress), &p)
		require.ErrorIs(t, err, test.Err, test.Name)
		require.False(t, tb.Initialized(), test.Name)
	}

	res, err := tb.Initialize(ctx, newCall(ownerAddress), params)
	require.NoError(t, err)
	require.Equal(t, []string{
		"OwnershipTransferred",
		"ValidatorAdded",
		"ValidatorAdded",
		"ValidatorAdded",
		"RequiredSignaturesChanged",
		"DailyLimitChanged",
		"ExecutionDailyLimitChanged",
	}, res.EventNames())
	require.True(t, tb.Initialized())

	_, err = tb.Initialize(ctx, newCall(ownerAddress), params)
	require.ErrorIs(t, err, bridge.ErrAlreadyInitialized)
	require.ErrorIs(t, err, bridgeerr.ErrValidation)

	status, err := tb.Status()
	require.NoError(t, err)
	require.Equal(t, ownerAddress, status.Owner)
	require.Equal(t, bridge.ModeID(config.BridgeModeErcToErc), status.Mode)
	require.Equal(t, uint64(2), status.RequiredSignatures)
	require.Equal(t, "0", status.OutOfLimitAmount.String())
	require.Equal(t, ether(t, "2").String(), status.Limits.DailyLimit.String())
}

func TestBridge_JournalsDecodableEvents(t *testing.T) {
	t.Parallel()

	tb := newTestBridge(t, bridgeOptions{})
	require.Len(t, tb.journal.logs, 7)

	added := tb.journal.logs[1]
	require.Equal(t, "test", added.BridgeID)
	require.Equal(t, bridgeAddress, added.Address)
	require.Equal(t, uint(1), added.LogIndex)
	require.Equal(t, uint64(testTimestamp), added.Timestamp)

	event, data, err := abi.BridgeABI.ParseLog(added)
	require.NoError(t, err)
	require.Equal(t, abi.ValidatorAdded, event)
	require.Equal(t, tb.validators[0].address, data["validator"])
}

func TestBridge_Admin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	tb := newTestBridge(t, bridgeOptions{})
	stranger := common.HexToAddress("0x0f")
	newOwner := common.HexToAddress("0xa2")

	for _, test := range []struct {
		Name string
		Run  func(call *bridge.Call) (*bridge.Result, error)
	}{
		{"SetDailyLimit", func(c *bridge.Call) (*bridge.Result, error) { return tb.SetDailyLimit(ctx, c, ether(t, "3")) }},
		{"SetMaxPerTx", func(c *bridge.Call) (*bridge.Result, error) { return tb.SetMaxPerTx(ctx, c, ether(t, "0.5")) }},
		{"SetHomeFee", func(c *bridge.Call) (*bridge.Result, error) { return tb.SetHomeFee(ctx, c, big.NewInt(1)) }},
		{"AddValidator", func(c *bridge.Call) (*bridge.Result, error) {
			return tb.AddValidator(ctx, c, stranger, stranger)
		}},
		{"TransferOwnership", func(c *bridge.Call) (*bridge.Result, error) { return tb.TransferOwnership(ctx, c, stranger) }},
		{"FixAssetsAboveLimits", func(c *bridge.Call) (*bridge.Result, error) {
			return tb.FixAssetsAboveLimits(ctx, c, common.Hash{}, false, big.NewInt(1))
		}},
	} {
		_, err := test.Run(newCall(stranger))
		require.ErrorIs(t, err, bridge.ErrNotOwner, test.Name)
		require.ErrorIs(t, err, bridgeerr.ErrAuthorization, test.Name)
	}

	_, err := tb.SetMinPerTx(ctx, newCall(ownerAddress), ether(t, "1.5"))
	require.ErrorIs(t, err, limits.ErrInvalidLimits)

	res, err := tb.SetExecutionDailyLimit(ctx, newCall(ownerAddress), ether(t, "20"))
	require.NoError(t, err)
	require.Equal(t, []string{"ExecutionDailyLimitChanged"}, res.EventNames())
	cfg, err := tb.Limits()
	require.NoError(t, err)
	require.Equal(t, ether(t, "20").String(), cfg.ExecutionDailyLimit.String())

	_, err = tb.SetForeignFee(ctx, newCall(ownerAddress), new(big.Int).Set(fees.Scale))
	require.ErrorIs(t, err, fees.ErrInvalidFee)
	res, err = tb.SetForeignFee(ctx, newCall(ownerAddress), big.NewInt(2e15))
	require.NoError(t, err)
	require.Equal(t, "2000000000000000", res.Event("FeeUpdated").Args[1].(*big.Int).String())
	home, foreign, err := tb.Fees()
	require.NoError(t, err)
	require.Equal(t, "0", home.String())
	require.Equal(t, "2000000000000000", foreign.String())

	_, err = tb.RemoveValidator(ctx, newCall(ownerAddress), tb.validators[0].address)
	require.NoError(t, err)
	_, err = tb.RemoveValidator(ctx, newCall(ownerAddress), tb.validators[1].address)
	require.ErrorIs(t, err, validator.ErrInvalidRequiredSignatures)
	_, err = tb.SetRequiredSignatures(ctx, newCall(ownerAddress), 1)
	require.NoError(t, err)
	required, err := tb.RequiredSignatures()
	require.NoError(t, err)
	require.Equal(t, uint64(1), required)
	ok, err := tb.IsValidator(tb.validators[0].address)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = tb.TransferTokenOwnership(ctx, newCall(ownerAddress), newOwner)
	require.NoError(t, err)
	require.Equal(t, newOwner, tb.token.owner)

	res, err = tb.TransferOwnership(ctx, newCall(ownerAddress), newOwner)
	require.NoError(t, err)
	require.Equal(t, []interface{}{ownerAddress, newOwner}, res.Event("OwnershipTransferred").Args)
	_, err = tb.SetDailyLimit(ctx, newCall(ownerAddress), ether(t, "3"))
	require.ErrorIs(t, err, bridge.ErrNotOwner)
	_, err = tb.SetDailyLimit(ctx, newCall(newOwner), ether(t, "3"))
	require.NoError(t, err)
}
