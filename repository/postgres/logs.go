package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/tokenbridge-core/db"
	"github.com/omni/tokenbridge-core/entity"
)

type logsRepo basePostgresRepo

func NewLogsRepo(table string, db *db.DB) entity.LogsRepo {
	return (*logsRepo)(newBasePostgresRepo(table, db))
}

func (r *logsRepo) Ensure(ctx context.Context, logs ...*entity.Log) error {
	if len(logs) == 0 {
		return nil
	}
	builder := sq.Insert(r.table).
		Columns("bridge_id", "address", "topic0", "topic1", "topic2", "topic3", "data", "transaction_hash", "log_index", "timestamp")
	for _, log := range logs {
		builder = builder.Values(log.BridgeID, log.Address, log.Topic0, log.Topic1, log.Topic2, log.Topic3, log.Data, log.TransactionHash, log.LogIndex, log.Timestamp)
	}
	q, args, err := builder.
		Suffix("ON CONFLICT (bridge_id, transaction_hash, log_index) DO UPDATE SET updated_at = NOW()").
		Suffix("RETURNING id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	ids := make([]uint, 0, len(logs))
	err = r.db.SelectContext(ctx, &ids, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert logs: %w", err)
	}
	if len(ids) != len(logs) {
		return fmt.Errorf("returned different number of ids then inserted, expected %d, got %d", len(logs), len(ids))
	}
	for i, id := range ids {
		logs[i].ID = id
	}
	return nil
}

func (r *logsRepo) GetByID(ctx context.Context, id uint) (*entity.Log, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	log := new(entity.Log)
	err = r.db.GetContext(ctx, log, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get log by id: %w", err)
	}
	return log, nil
}

func (r *logsRepo) FindByTxHash(ctx context.Context, bridgeID string, txHash common.Hash) ([]*entity.Log, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "transaction_hash": txHash}).
		OrderBy("log_index").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	logs := make([]*entity.Log, 0, 4)
	err = r.db.SelectContext(ctx, &logs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get logs by transaction hash: %w", err)
	}
	return logs, nil
}

func (r *logsRepo) FindByTopic(ctx context.Context, bridgeID string, topic common.Hash, limit uint64) ([]*entity.Log, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "topic0": topic}).
		OrderBy("id DESC").
		Limit(limit).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	logs := make([]*entity.Log, 0, 10)
	err = r.db.SelectContext(ctx, &logs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get logs by topic: %w", err)
	}
	return logs, nil
}
