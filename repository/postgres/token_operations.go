package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type tokenOperationsRepo basePostgresRepo

func NewTokenOperationsRepo(table string, db *db.DB) entity.TokenOperationsRepo {
	return (*tokenOperationsRepo)(newBasePostgresRepo(table, db))
}

func (r *tokenOperationsRepo) Insert(ctx context.Context, ops ...*entity.TokenOperation) error {
	if len(ops) == 0 {
		return nil
	}
	builder := sq.Insert(r.table).
		Columns("bridge_id", "token", "operation", "recipient", "amount", "data")
	for _, op := range ops {
		builder = builder.Values(op.BridgeID, op.Token, op.Operation, op.Recipient, op.Amount, op.Data)
	}
	q, args, err := builder.
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	ids := make([]uint, 0, len(ops))
	err = r.db.SelectContext(ctx, &ids, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert token operations: %w", err)
	}
	if len(ids) != len(ops) {
		return fmt.Errorf("returned different number of ids then inserted, expected %d, got %d", len(ops), len(ids))
	}
	for i, id := range ids {
		ops[i].ID = id
	}
	return nil
}

func (r *tokenOperationsRepo) FindByBridgeID(ctx context.Context, bridgeID string, limit uint64) ([]*entity.TokenOperation, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID}).
		OrderBy("id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	ops := make([]*entity.TokenOperation, 0, 10)
	err = r.db.SelectContext(ctx, &ops, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get token operations: %w", err)
	}
	return ops, nil
}
