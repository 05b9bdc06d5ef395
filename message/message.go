package message

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/bridgeerr"
)

// Length of the encoded relay message:
// recipient(20) || value(32) || txHash(32) || executor(20).
const Length = 20 + 32 + 32 + 20

var (
	ErrInvalidLength = fmt.Errorf("%w: invalid relay message length", bridgeerr.ErrMalformedInput)
	ErrInvalidValue  = fmt.Errorf("%w: value is not a valid uint256", bridgeerr.ErrMalformedInput)
)

type Message struct {
	Recipient common.Address
	Value     *big.Int
	TxHash    common.Hash
	Executor  common.Address
}

func New(recipient common.Address, value *big.Int, txHash common.Hash, executor common.Address) (*Message, error) {
	if !IsUint256(value) {
		return nil, ErrInvalidValue
	}
	return &Message{
		Recipient: recipient,
		Value:     new(big.Int).Set(value),
		TxHash:    txHash,
		Executor:  executor,
	}, nil
}

func Decode(data []byte) (*Message, error) {
	if len(data) != Length {
		return nil, fmt.Errorf("expected %d bytes, got %d: %w", Length, len(data), ErrInvalidLength)
	}
	return &Message{
		Recipient: common.BytesToAddress(data[0:20]),
		Value:     new(big.Int).SetBytes(data[20:52]),
		TxHash:    common.BytesToHash(data[52:84]),
		Executor:  common.BytesToAddress(data[84:104]),
	}, nil
}

func (m *Message) Encode() ([]byte, error) {
	if !IsUint256(m.Value) {
		return nil, ErrInvalidValue
	}
	data := make([]byte, 0, Length)
	data = append(data, m.Recipient.Bytes()...)
	data = append(data, math.PaddedBigBytes(m.Value, 32)...)
	data = append(data, m.TxHash.Bytes()...)
	data = append(data, m.Executor.Bytes()...)
	return data, nil
}

// SigningHash is the EIP-191 personal message hash validators sign for the
// encoded message.
func SigningHash(encoded []byte) common.Hash {
	return common.BytesToHash(accounts.TextHash(encoded))
}

// AffirmationHash identifies an affirmation by its whole payload, unlike the
// signature flow that is keyed by the source transaction hash only.
func AffirmationHash(recipient common.Address, value *big.Int, txHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(recipient.Bytes(), math.PaddedBigBytes(value, 32), txHash.Bytes())
}

func IsUint256(v *big.Int) bool {
	return v != nil && v.Sign() >= 0 && v.Cmp(math.MaxBig256) <= 0
}
