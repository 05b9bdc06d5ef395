package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-core/bridge"
	"github.com/omni/tokenbridge-core/bridgeerr"
	"github.com/omni/tokenbridge-core/entity"
	"github.com/omni/tokenbridge-core/limits"
	"github.com/omni/tokenbridge-core/logging"
	"github.com/omni/tokenbridge-core/utils"
)

const (
	defaultDeliveryInterval  = 5 * time.Second
	defaultDeliveryBatchSize = 100
)

type Receiver interface {
	OnReceive(ctx context.Context, call *bridge.Call, messageID common.Hash, payload []byte) (*bridge.Result, error)
}

// Deliverer moves messages queued by the source bridge into the receiving one.
type Deliverer struct {
	source    string
	transport common.Address
	receiver  Receiver
	repo      entity.OutgoingMessagesRepo
	logger    logging.Logger
	interval  time.Duration
	now       func() time.Time
}

// NewDeliverer creates a worker for messages sent by the source bridge.
// Calls reach the receiver from its configured transport address.
func NewDeliverer(source string, transport common.Address, receiver Receiver, repo entity.OutgoingMessagesRepo, logger logging.Logger) *Deliverer {
	return &Deliverer{
		source:    source,
		transport: transport,
		receiver:  receiver,
		repo:      repo,
		logger:    logger.WithField("source_bridge_id", source),
		interval:  defaultDeliveryInterval,
		now:       time.Now,
	}
}

func (d *Deliverer) Start(ctx context.Context) {
	d.logger.Info("starting message deliverer")
	for {
		if _, err := d.DeliverPending(ctx); err != nil {
			d.logger.WithError(err).Error("failed to deliver messages, retrying")
		}
		if utils.ContextSleep(ctx, d.interval) == nil {
			return
		}
	}
}

// retryable reports errors that say nothing about the message itself: storage
// failures and a receiving bridge that is not set up yet.
func retryable(err error) bool {
	return bridgeerr.Category(err) == nil ||
		errors.Is(err, bridge.ErrNotInitialized) ||
		errors.Is(err, bridge.ErrMissingCollaborator) ||
		errors.Is(err, limits.ErrNotInitialized)
}

// DeliverPending hands one batch of undelivered messages to the receiver and
// returns the number of messages marked as delivered. Rejected messages are
// delivered too, they can only be retried through the failed message fix.
func (d *Deliverer) DeliverPending(ctx context.Context) (int, error) {
	msgs, err := d.repo.FindUndelivered(ctx, d.source, defaultDeliveryBatchSize)
	if err != nil {
		return 0, err
	}
	delivered := 0
	for _, msg := range msgs {
		if msg.MessageID == nil {
			continue
		}
		logger := d.logger.WithField("message_id", msg.MessageID.String())
		call := &bridge.Call{
			From:      d.transport,
			TxHash:    *msg.MessageID,
			Timestamp: uint64(d.now().Unix()),
		}
		status := "ok"
		_, err = d.receiver.OnReceive(ctx, call, *msg.MessageID, msg.Payload)
		if err != nil {
			if retryable(err) {
				DeliveredMessages.WithLabelValues(d.source, "error").Inc()
				return delivered, err
			}
			status = bridgeerr.Label(err)
			logger.WithError(err).WithFields(logrus.Fields{
				"status": status,
			}).Warn("message rejected by the receiving bridge")
		}
		if err = d.repo.MarkDelivered(ctx, d.source, *msg.MessageID); err != nil {
			return delivered, err
		}
		DeliveredMessages.WithLabelValues(d.source, status).Inc()
		delivered++
		logger.Debug("delivered message")
	}
	return delivered, nil
}
