package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/contract/abi"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/limits"
)

const maxAlertRecords = 1000

// BridgeState is the part of the bridge queried by the alert jobs.
type BridgeState interface {
	IsFailed(messageID common.Hash) (bool, error)
	Excess(txHash common.Hash) (*limits.Excess, error)
}

type StateAlertsProvider struct {
	bridge   BridgeState
	messages entity.OutgoingMessagesRepo
	journal  entity.LogsRepo
	now      func() time.Time
}

func NewStateAlertsProvider(bridge BridgeState, messages entity.OutgoingMessagesRepo, journal entity.LogsRepo) *StateAlertsProvider {
	return &StateAlertsProvider{
		bridge:   bridge,
		messages: messages,
		journal:  journal,
		now:      time.Now,
	}
}

type UndeliveredMessageAlert struct {
	SourceBridge string `json:"source_bridge_id"`
	MessageID    string `json:"message_id"`
	Age          string `json:"_value"`
}

func (p *StateAlertsProvider) FindUndeliveredMessages(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	msgs, err := p.messages.FindUndelivered(ctx, params.SourceBridge, maxAlertRecords)
	if err != nil {
		return nil, fmt.Errorf("can't find undelivered messages: %w", err)
	}
	now := p.now()
	res := make([]*UndeliveredMessageAlert, 0, len(msgs))
	for _, msg := range msgs {
		if msg.CreatedAt == nil || msg.MessageID == nil {
			continue
		}
		age := now.Sub(*msg.CreatedAt)
		if age < params.Threshold {
			continue
		}
		res = append(res, &UndeliveredMessageAlert{
			SourceBridge: params.SourceBridge,
			MessageID:    msg.MessageID.String(),
			Age:          fmt.Sprintf("%d", int64(age.Seconds())),
		})
	}
	return res, nil
}

type FailedExecutionAlert struct {
	TxHash    string `json:"tx_hash"`
	MessageID string `json:"message_id"`
	Recipient string `json:"recipient"`
	Value     string `json:"_value"`
}

func (p *StateAlertsProvider) FindFailedExecutions(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	logs, err := p.journal.FindByTopic(ctx, params.Bridge, abi.BridgeABI.Events["TokensBridgingFailed"].ID, maxAlertRecords)
	if err != nil {
		return nil, fmt.Errorf("can't find failed executions: %w", err)
	}
	res := make([]*FailedExecutionAlert, 0, len(logs))
	for _, log := range logs {
		_, args, err := abi.BridgeABI.ParseLog(log)
		if err != nil {
			return nil, err
		}
		messageID := common.Hash(args["messageId"].([32]byte))
		failed, err := p.bridge.IsFailed(messageID)
		if err != nil {
			return nil, err
		}
		if !failed {
			continue
		}
		res = append(res, &FailedExecutionAlert{
			TxHash:    log.TransactionHash.String(),
			MessageID: messageID.String(),
			Recipient: args["recipient"].(common.Address).String(),
			Value:     "1",
		})
	}
	return res, nil
}

type AmountLimitExceededAlert struct {
	TxHash    string `json:"tx_hash"`
	Recipient string `json:"recipient"`
	Remaining string `json:"_value"`
}

func (p *StateAlertsProvider) FindAmountLimitExceeded(ctx context.Context, params *AlertJobParams) (interface{}, error) {
	logs, err := p.journal.FindByTopic(ctx, params.Bridge, abi.BridgeABI.Events["AmountLimitExceeded"].ID, maxAlertRecords)
	if err != nil {
		return nil, fmt.Errorf("can't find deferred executions: %w", err)
	}
	seen := make(map[common.Hash]bool, len(logs))
	res := make([]*AmountLimitExceededAlert, 0, len(logs))
	for _, log := range logs {
		_, args, err := abi.BridgeABI.ParseLog(log)
		if err != nil {
			return nil, err
		}
		txHash := common.Hash(args["transactionHash"].([32]byte))
		if seen[txHash] {
			continue
		}
		seen[txHash] = true
		excess, err := p.bridge.Excess(txHash)
		if err != nil {
			return nil, err
		}
		if excess.Value.Sign() == 0 {
			continue
		}
		res = append(res, &AmountLimitExceededAlert{
			TxHash:    txHash.String(),
			Recipient: excess.Recipient.String(),
			Remaining: excess.Value.String(),
		})
	}
	return res, nil
}
