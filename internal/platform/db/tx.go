package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/eessp/eessp/internal/platform/metrics"
)

type txKey struct{}

// Querier is the subset of pgx shared by *pgxpool.Pool, *pgxpool.Conn and
// pgx.Tx, so repositories can run the same statements inside or outside a
// transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// WithTxContext returns a context carrying tx.
func WithTxContext(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction stored in ctx, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(txKey{}).(pgx.Tx)
	return tx
}

// Conn picks the querier a repository should use for ctx: the active
// transaction when there is one, otherwise the pool.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// TxManager runs fn as one all-or-nothing unit. Repositories called with the
// context passed to fn take part in the transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PoolTxManager implements TxManager on a pgx pool.
type PoolTxManager struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewTxManager(pool *pgxpool.Pool, logger zerolog.Logger) *PoolTxManager {
	return &PoolTxManager{pool: pool, logger: logger}
}

// WithTx begins a transaction, runs fn and commits. Any error from fn rolls
// the transaction back before it is returned. Nested calls join the outer
// transaction.
func (m *PoolTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(WithTxContext(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			m.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		metrics.DBTransactions.WithLabelValues("rollback").Inc()
		m.logger.Warn().Err(err).Msg("transaction rolled back")
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		metrics.DBTransactions.WithLabelValues("rollback").Inc()
		return fmt.Errorf("commit transaction: %w", err)
	}
	metrics.DBTransactions.WithLabelValues("commit").Inc()
	return nil
}
