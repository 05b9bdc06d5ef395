package outbox

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/state"
)

// MessageID derives the transport message id from the outbox row.
func MessageID(bridgeID string, id uint) common.Hash {
	return crypto.Keccak256Hash([]byte(bridgeID), state.Uint64Bytes(uint64(id)))
}

// Transport queues payloads in the outgoing_messages table. A Deliverer of
// the paired bridge picks them up.
type Transport struct {
	bridgeID string
	repo     entity.OutgoingMessagesRepo
}

func NewTransport(bridgeID string, repo entity.OutgoingMessagesRepo) *Transport {
	return &Transport{
		bridgeID: bridgeID,
		repo:     repo,
	}
}

func (t *Transport) Send(ctx context.Context, payload []byte) (common.Hash, error) {
	msg := &entity.OutgoingMessage{
		BridgeID: t.bridgeID,
		Payload:  payload,
	}
	if err := t.repo.Insert(ctx, msg); err != nil {
		return common.Hash{}, fmt.Errorf("can't queue message: %w", err)
	}
	messageID := MessageID(t.bridgeID, msg.ID)
	if err := t.repo.SetMessageID(ctx, msg.ID, messageID); err != nil {
		return common.Hash{}, fmt.Errorf("can't assign message id: %w", err)
	}
	SentMessages.WithLabelValues(t.bridgeID).Inc()
	return messageID, nil
}
