package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// OutgoingMessage is a transport payload waiting to be delivered to the other side.
type OutgoingMessage struct {
	ID          uint         `db:"id"`
	BridgeID    string       `db:"bridge_id"`
	MessageID   *common.Hash `db:"message_id"`
	Payload     []byte       `db:"payload"`
	DeliveredAt *time.Time   `db:"delivered_at"`
	CreatedAt   *time.Time   `db:"created_at"`
	UpdatedAt   *time.Time   `db:"updated_at"`
}

type OutgoingMessagesRepo interface {
	Insert(ctx context.Context, msg *OutgoingMessage) error
	SetMessageID(ctx context.Context, id uint, messageID common.Hash) error
	GetByMessageID(ctx context.Context, bridgeID string, messageID common.Hash) (*OutgoingMessage, error)
	FindUndelivered(ctx context.Context, bridgeID string, limit uint64) ([]*OutgoingMessage, error)
	MarkDelivered(ctx context.Context, bridgeID string, messageID common.Hash) error
}
