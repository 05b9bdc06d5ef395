package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type outgoingMessagesRepo basePostgresRepo

func NewOutgoingMessagesRepo(table string, db *db.DB) entity.OutgoingMessagesRepo {
	return (*outgoingMessagesRepo)(newBasePostgresRepo(table, db))
}

func (r *outgoingMessagesRepo) Insert(ctx context.Context, msg *entity.OutgoingMessage) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "payload").
		Values(msg.BridgeID, msg.Payload).
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	err = r.db.GetContext(ctx, &msg.ID, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert outgoing message: %w", err)
	}
	return nil
}

func (r *outgoingMessagesRepo) SetMessageID(ctx context.Context, id uint, messageID common.Hash) error {
	q, args, err := sq.Update(r.table).
		Set("message_id", messageID).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't set outgoing message id: %w", err)
	}
	return nil
}

func (r *outgoingMessagesRepo) GetByMessageID(ctx context.Context, bridgeID string, messageID common.Hash) (*entity.OutgoingMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "message_id": messageID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msg := new(entity.OutgoingMessage)
	err = r.db.GetContext(ctx, msg, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get outgoing message: %w", err)
	}
	return msg, nil
}

func (r *outgoingMessagesRepo) FindUndelivered(ctx context.Context, bridgeID string, limit uint64) ([]*entity.OutgoingMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "delivered_at": nil}).
		Where(sq.NotEq{"message_id": nil}).
		OrderBy("id").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msgs := make([]*entity.OutgoingMessage, 0, 10)
	err = r.db.SelectContext(ctx, &msgs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get undelivered messages: %w", err)
	}
	return msgs, nil
}

func (r *outgoingMessagesRepo) MarkDelivered(ctx context.Context, bridgeID string, messageID common.Hash) error {
	q, args, err := sq.Update(r.table).
		Set("delivered_at", sq.Expr("NOW()")).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"bridge_id": bridgeID, "message_id": messageID, "delivered_at": nil}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't mark message as delivered: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("can't get affected rows: %w", err)
	}
	if n == 0 {
		return db.ErrNotFound
	}
	return nil
}
