package contract_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/contract"
	"github.com/omni/tokenbridge-core/contract/abi"
)

type fakeClient struct {
	calls []ethereum.CallMsg
	res   []byte
	err   error
}

func (c *fakeClient) BlockNumber(context.Context) (uint, error) {
	return 0, nil
}

func (c *fakeClient) BalanceAt(context.Context, common.Address) (*big.Int, error) {
	return new(big.Int), nil
}

func (c *fakeClient) CallContract(_ context.Context, msg ethereum.CallMsg) ([]byte, error) {
	c.calls = append(c.calls, msg)
	return c.res, c.err
}

func TestTokenContract_BalanceOf(t *testing.T) {
	t.Parallel()

	token := common.HexToAddress("0x5a")
	owner := common.HexToAddress("0xb1")
	res, err := abi.ERC20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(42))
	require.NoError(t, err)
	client := &fakeClient{res: res}

	balance, err := contract.NewTokenContract(client, token).BalanceOf(context.Background(), owner)
	require.NoError(t, err)
	require.Equal(t, "42", balance.String())
	require.Len(t, client.calls, 1)
	require.Equal(t, token, *client.calls[0].To)

	method, args, err := abi.ERC20ABI.DecodeCall(client.calls[0].Data)
	require.NoError(t, err)
	require.Equal(t, "balanceOf", method)
	require.Equal(t, []interface{}{owner}, args)

	client.err = errors.New("connection refused")
	_, err = contract.NewTokenContract(client, token).BalanceOf(context.Background(), owner)
	require.ErrorIs(t, err, client.err)

	client.err, client.res = nil, []byte{0x01}
	_, err = contract.NewTokenContract(client, token).BalanceOf(context.Background(), owner)
	require.Error(t, err)
}
