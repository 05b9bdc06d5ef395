package message_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/message"
)

var (
	recipient = common.HexToAddress("0x7301CFA0e1756B71869E93d4e4Dca5c7d0eb0AA6")
	executor  = common.HexToAddress("0x4aa42145Aa6Ebf72e164C9bBC74fbD3788045016")
	txHash    = common.HexToHash("0x1f3b3f0e52fa6a0dcd3f8bbcd0c2c5e4b1f8f8e5d3c2b1a0f9e8d7c6b5a49382")
)

func TestMessage_EncodeLayout(t *testing.T) {
	t.Parallel()

	msg, err := message.New(recipient, big.NewInt(0x0102), txHash, executor)
	require.NoError(t, err)
	data, err := msg.Encode()
	require.NoError(t, err)
	require.Len(t, data, message.Length)
	require.Equal(t, recipient.Bytes(), data[0:20])
	require.Equal(t, append(bytes.Repeat([]byte{0}, 30), 0x01, 0x02), data[20:52])
	require.Equal(t, txHash.Bytes(), data[52:84])
	require.Equal(t, executor.Bytes(), data[84:104])

	decoded, err := message.Decode(data)
	require.NoError(t, err)
	require.Equal(t, recipient, decoded.Recipient)
	require.Equal(t, "258", decoded.Value.String())
	require.Equal(t, txHash, decoded.TxHash)
	require.Equal(t, executor, decoded.Executor)
}

func TestMessage_DecodeInvalidLength(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name string
		Data []byte
	}{
		{"Empty", nil},
		{"Too short", make([]byte, message.Length-1)},
		{"Too long", make([]byte, message.Length+1)},
		{"Legacy AMB header", make([]byte, 105)},
	} {
		_, err := message.Decode(test.Data)
		require.ErrorIs(t, err, message.ErrInvalidLength, test.Name)
		require.ErrorIs(t, err, bridgeerr.ErrMalformedInput, test.Name)
	}
}

func TestMessage_InvalidValue(t *testing.T) {
	t.Parallel()

	_, err := message.New(recipient, big.NewInt(-1), txHash, executor)
	require.ErrorIs(t, err, message.ErrInvalidValue)

	tooBig := new(big.Int).Add(math.MaxBig256, big.NewInt(1))
	_, err = message.New(recipient, tooBig, txHash, executor)
	require.ErrorIs(t, err, message.ErrInvalidValue)

	msg := &message.Message{Recipient: recipient, Value: tooBig, TxHash: txHash, Executor: executor}
	_, err = msg.Encode()
	require.ErrorIs(t, err, message.ErrInvalidValue)

	_, err = message.New(recipient, math.MaxBig256, txHash, executor)
	require.NoError(t, err)
}

func TestAffirmationHash(t *testing.T) {
	t.Parallel()

	value := big.NewInt(1e18)
	expected := crypto.Keccak256Hash(recipient.Bytes(), common.BigToHash(value).Bytes(), txHash.Bytes())
	require.Equal(t, expected, message.AffirmationHash(recipient, value, txHash))
	require.NotEqual(t, expected, message.AffirmationHash(recipient, big.NewInt(1), txHash))
}

func TestSigningHash(t *testing.T) {
	t.Parallel()

	data := make([]byte, message.Length)
	prefixed := append([]byte("\x19Ethereum Signed Message:\n104"), data...)
	require.Equal(t, crypto.Keccak256Hash(prefixed), message.SigningHash(data))
}
