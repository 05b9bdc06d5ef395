package presenter

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
)

func newStatusResult(status *bridge.Status) *StatusResult {
	return &StatusResult{
		BridgeID: status.ID,
		Mode:     status.Mode[:],
		Owner:    status.Owner,
		Limits: &LimitsResult{
			DailyLimit:          status.Limits.DailyLimit.String(),
			MaxPerTx:            status.Limits.MaxPerTx.String(),
			MinPerTx:            status.Limits.MinPerTx.String(),
			ExecutionDailyLimit: status.Limits.ExecutionDailyLimit.String(),
			ExecutionMaxPerTx:   status.Limits.ExecutionMaxPerTx.String(),
		},
		HomeFee:            status.HomeFee.String(),
		ForeignFee:         status.ForeignFee.String(),
		DecimalShift:       status.DecimalShift,
		RequiredSignatures: status.RequiredSignatures,
		OutOfLimitAmount:   status.OutOfLimitAmount.String(),
		PendingExcess:      status.PendingExcess,
	}
}

func newEventResult(log *entity.Log) (*EventResult, error) {
	name, args, err := abi.BridgeABI.ParseLog(log)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, abi.ErrUnknownEvent
	}
	for k, v := range args {
		switch v := v.(type) {
		case *big.Int:
			args[k] = v.String()
		case [32]byte:
			args[k] = common.Hash(v)
		}
	}
	return &EventResult{
		LogID:     log.ID,
		Event:     name,
		Args:      args,
		TxHash:    log.TransactionHash,
		LogIndex:  log.LogIndex,
		Timestamp: log.Timestamp,
	}, nil
}
