package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mini-bank/internal/domain/account"
	"mini-bank/internal/domain/entity"
	"mini-bank/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type AccountRepository struct {
	db     DBTX
	logger *slog.Logger
}

var _ account.Repository = (*AccountRepository)(nil)

func NewAccountRepository(db DBTX, logger *slog.Logger) *AccountRepository {
	if db == nil {
		panic("DBTX cannot be nil for AccountRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewAccountRepository, using default stderr handler")
	}
	return &AccountRepository{
		db:     db,
		logger: logger.With("component", "AccountRepository"),
	}
}

func (r *AccountRepository) FindByID(ctx context.Context, accountID int64) (*account.Account, error) {
	r.logger.InfoContext(ctx, "Attempting to find account by ID", slog.Int64("accountID", accountID))

	query := `
        SELECT id, number_of_owners, version_num, created_by, created_at, modified_by, modified_at
        FROM accounts
        WHERE id = $1`

	var acct account.Account
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&acct.ID,
		&acct.NumberOfOwners,
		&acct.Version,
		&acct.CreatedBy,
		&acct.CreatedAt,
		&acct.ModifiedBy,
		&acct.ModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Account not found")
			return nil, account.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan account by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get account by ID: %w", apperrors.ErrDatabase, err)
	}

	if err := r.loadCustomerIDs(ctx, &acct); err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "Account found successfully", slog.Int("owners", acct.NumberOfOwners))
	return &acct, nil
}

// loadCustomerIDs materializes the attached-customer set from the customer
// rows whose back-reference points at this account.
func (r *AccountRepository) loadCustomerIDs(ctx context.Context, acct *account.Account) error {
	rows, err := r.db.Query(ctx, `SELECT id FROM customers WHERE account_id = $1 ORDER BY id ASC`, acct.ID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query attached customers", slog.Any("error", err))
		return fmt.Errorf("%w: failed to query attached customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("%w: failed to scan attached customer id: %w", apperrors.ErrDatabase, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: error iterating attached customer ids: %w", apperrors.ErrDatabase, err)
	}

	acct.CustomerIDs = ids
	return nil
}

// Save persists the derived owner count and audit block. Accounts are created
// outside this service, so there is no insert path.
func (r *AccountRepository) Save(ctx context.Context, acct *account.Account) error {
	if acct == nil {
		return fmt.Errorf("%w: account cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to update account", slog.Int64("accountID", acct.ID))

	query := `
        UPDATE accounts
        SET number_of_owners = $1,
            version_num = $2,
            modified_by = $3,
            modified_at = $4
        WHERE id = $5 AND version_num = $6`

	cmdTag, err := r.db.Exec(ctx, query,
		acct.NumberOfOwners,
		acct.Version,
		acct.ModifiedBy,
		acct.ModifiedAt,
		acct.ID,
		acct.Version-1,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update account", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update account: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, acct.ID)
	}

	r.logger.InfoContext(ctx, "Account updated successfully")
	return nil
}

func (r *AccountRepository) classifyMissedUpdate(ctx context.Context, accountID int64) error {
	var current int
	err := r.db.QueryRow(ctx, `SELECT version_num FROM accounts WHERE id = $1`, accountID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update affected zero rows, account not found")
			return account.ErrNotFound
		}
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	r.logger.WarnContext(ctx, "Update affected zero rows, stale account version detected", slog.Int("currentVersion", current))
	return account.ErrUpdateConflict
}

func (r *AccountRepository) ReconcileOwnerCounts(ctx context.Context) (int64, error) {
	r.logger.InfoContext(ctx, "Attempting to reconcile account owner counts")

	query := `
        UPDATE accounts a
        SET number_of_owners = sub.cnt,
            modified_by = $1,
            modified_at = NOW()
        FROM (
            SELECT acc.id, COUNT(c.id) AS cnt
            FROM accounts acc
            LEFT JOIN customers c ON c.account_id = acc.id
            GROUP BY acc.id
        ) sub
        WHERE sub.id = a.id AND a.number_of_owners <> sub.cnt`

	cmdTag, err := r.db.Exec(ctx, query, entity.SystemActor)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to reconcile owner counts", slog.Any("error", err))
		return 0, fmt.Errorf("%w: failed to reconcile owner counts: %w", apperrors.ErrDatabase, err)
	}

	repaired := cmdTag.RowsAffected()
	r.logger.InfoContext(ctx, "Owner count reconciliation finished", slog.Int64("repaired", repaired))
	return repaired, nil
}
