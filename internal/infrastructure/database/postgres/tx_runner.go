package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"mini-bank/internal/domain/account"
	"mini-bank/internal/domain/customer"
	"mini-bank/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxBeginner is the transaction-opening subset of the pgx pool.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ TxBeginner = (*pgxpool.Pool)(nil)

// TxRunner executes a callback inside a single PostgreSQL transaction, handing
// it repositories bound to that transaction. Commit on success, rollback on
// any error; this is the atomic unit behind admission and update.
type TxRunner struct {
	pool   TxBeginner
	logger *slog.Logger
}

var _ customer.TxRunner = (*TxRunner)(nil)

func NewTxRunner(pool TxBeginner, logger *slog.Logger) *TxRunner {
	if pool == nil {
		panic("pgx pool cannot be nil for TxRunner")
	}
	return &TxRunner{pool: pool, logger: logger.With("component", "TxRunner")}
}

func (r *TxRunner) RunInTx(ctx context.Context, fn func(customers customer.CustomerRepository, addresses customer.AddressRepository, accounts account.Repository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to begin transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to begin transaction: %w", apperrors.ErrDatabase, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	customers := NewCustomerRepository(tx, r.logger)
	addresses := NewAddressRepository(tx, r.logger)
	accounts := NewAccountRepository(tx, r.logger)

	if err := fn(customers, addresses, accounts); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.ErrorContext(ctx, "Failed to commit transaction", slog.Any("error", err))
		return fmt.Errorf("%w: failed to commit transaction: %w", apperrors.ErrDatabase, err)
	}
	return nil
}
