package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Log struct {
	ID              uint           `db:"id"`
	BridgeID        string         `db:"bridge_id"`
	Address         common.Address `db:"address"`
	Topic0          *common.Hash   `db:"topic0"`
	Topic1          *common.Hash   `db:"topic1"`
	Topic2          *common.Hash   `db:"topic2"`
	Topic3          *common.Hash   `db:"topic3"`
	Data            []byte         `db:"data"`
	TransactionHash common.Hash    `db:"transaction_hash"`
	LogIndex        uint           `db:"log_index"`
	Timestamp       uint64         `db:"timestamp"`
	CreatedAt       *time.Time     `db:"created_at"`
	UpdatedAt       *time.Time     `db:"updated_at"`
}

func (l *Log) Topics() []common.Hash {
	topics := make([]common.Hash, 0, 4)
	for _, t := range []*common.Hash{l.Topic0, l.Topic1, l.Topic2, l.Topic3} {
		if t == nil {
			break
		}
		topics = append(topics, *t)
	}
	return topics
}

// SetTopics fills up to 4 topics, the rest are ignored.
func (l *Log) SetTopics(topics []common.Hash) {
	dst := []**common.Hash{&l.Topic0, &l.Topic1, &l.Topic2, &l.Topic3}
	for i := range dst {
		if i < len(topics) {
			topic := topics[i]
			*dst[i] = &topic
		} else {
			*dst[i] = nil
		}
	}
}

type LogsRepo interface {
	Ensure(ctx context.Context, logs ...*Log) error
	GetByID(ctx context.Context, id uint) (*Log, error)
	FindByTxHash(ctx context.Context, bridgeID string, txHash common.Hash) ([]*Log, error)
	FindByTopic(ctx context.Context, bridgeID string, topic common.Hash, limit uint64) ([]*Log, error)
}
