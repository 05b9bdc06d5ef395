package presenter

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Amounts are decimal strings, they do not fit into JSON numbers.

type LimitsResult struct {
	DailyLimit          string
	MaxPerTx            string
	MinPerTx            string
	ExecutionDailyLimit string
	ExecutionMaxPerTx   string
}

type StatusResult struct {
	BridgeID           string
	Mode               hexutil.Bytes
	Owner              common.Address
	Limits             *LimitsResult
	HomeFee            string
	ForeignFee         string
	DecimalShift       int
	RequiredSignatures uint64
	OutOfLimitAmount   string
	PendingExcess      uint64
}

type ValidatorInfo struct {
	Address       common.Address
	RewardAddress common.Address
}

type ValidatorsResult struct {
	BridgeID           string
	RequiredSignatures uint64
	Validators         []*ValidatorInfo
}

type DailyTotalsResult struct {
	Day           uint64
	TotalSpent    string
	TotalExecuted string
}

type ExcessResult struct {
	TxHash    common.Hash
	Recipient common.Address
	Value     string
}

type ExecutionResult struct {
	Key      common.Hash
	Executed bool
	Failed   bool
}

type VoteResult struct {
	MsgHash   common.Hash
	VoteCount uint64
	Finalized bool
}

type SignaturesResult struct {
	VoteResult
	Message    hexutil.Bytes   `json:",omitempty"`
	Signatures []hexutil.Bytes `json:",omitempty"`
}

type EventResult struct {
	LogID     uint
	Event     string
	Args      map[string]interface{}
	TxHash    common.Hash
	LogIndex  uint
	Timestamp uint64
}
