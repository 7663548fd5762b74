package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"mini-bank/internal/domain/customer"
	"mini-bank/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type AddressRepository struct {
	db     DBTX
	logger *slog.Logger
}

var _ customer.AddressRepository = (*AddressRepository)(nil)

func NewAddressRepository(db DBTX, logger *slog.Logger) *AddressRepository {
	if db == nil {
		panic("DBTX cannot be nil for AddressRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewAddressRepository, using default stderr handler")
	}
	return &AddressRepository{
		db:     db,
		logger: logger.With("component", "AddressRepository"),
	}
}

func (r *AddressRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]*customer.Address, error) {
	r.logger.InfoContext(ctx, "Attempting to find addresses by customer ID", slog.Int64("customerID", customerID))

	query := `
        SELECT id, street, city, postal_code, customer_id,
               version_num, created_by, created_at, modified_by, modified_at
        FROM addresses
        WHERE customer_id = $1
        ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query addresses", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query addresses: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	addresses := make([]*customer.Address, 0)
	for rows.Next() {
		var addr customer.Address
		err := rows.Scan(
			&addr.ID,
			&addr.Street,
			&addr.City,
			&addr.PostalCode,
			&addr.CustomerID,
			&addr.Version,
			&addr.CreatedBy,
			&addr.CreatedAt,
			&addr.ModifiedBy,
			&addr.ModifiedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan address row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan address row: %w", apperrors.ErrDatabase, err)
		}
		addresses = append(addresses, &addr)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating address rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating address rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Finished finding addresses", slog.Int("count", len(addresses)))
	return addresses, nil
}

func (r *AddressRepository) SaveAll(ctx context.Context, addresses []*customer.Address) error {
	r.logger.InfoContext(ctx, "Attempting to save address batch", slog.Int("count", len(addresses)))

	for _, addr := range addresses {
		if addr == nil {
			return fmt.Errorf("%w: address cannot be nil", apperrors.ErrInvalidArgument)
		}
		var err error
		if addr.IsNew() {
			err = r.insertAddress(ctx, addr)
		} else {
			err = r.updateAddress(ctx, addr)
		}
		if err != nil {
			return err
		}
	}

	r.logger.InfoContext(ctx, "Address batch saved successfully")
	return nil
}

func (r *AddressRepository) insertAddress(ctx context.Context, addr *customer.Address) error {
	query := `
        INSERT INTO addresses (street, city, postal_code, customer_id,
                               version_num, created_by, created_at, modified_by, modified_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id`

	err := r.db.QueryRow(ctx, query,
		addr.Street,
		addr.City,
		addr.PostalCode,
		addr.CustomerID,
		addr.Version,
		addr.CreatedBy,
		addr.CreatedAt,
		addr.ModifiedBy,
		addr.ModifiedAt,
	).Scan(&addr.ID)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert address", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert address: %w", apperrors.ErrDatabase, err)
	}
	return nil
}

func (r *AddressRepository) updateAddress(ctx context.Context, addr *customer.Address) error {
	query := `
        UPDATE addresses
        SET street = $1,
            city = $2,
            postal_code = $3,
            customer_id = $4,
            version_num = $5,
            modified_by = $6,
            modified_at = $7
        WHERE id = $8 AND version_num = $9`

	cmdTag, err := r.db.Exec(ctx, query,
		addr.Street,
		addr.City,
		addr.PostalCode,
		addr.CustomerID,
		addr.Version,
		addr.ModifiedBy,
		addr.ModifiedAt,
		addr.ID,
		addr.Version-1,
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update address", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update address: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, addr.ID)
	}
	return nil
}

func (r *AddressRepository) classifyMissedUpdate(ctx context.Context, addressID int64) error {
	var current int
	err := r.db.QueryRow(ctx, `SELECT version_num FROM addresses WHERE id = $1`, addressID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update affected zero rows, address not found", slog.Int64("addressID", addressID))
			return apperrors.ErrNotFound
		}
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	r.logger.WarnContext(ctx, "Update affected zero rows, stale address version detected", slog.Int("currentVersion", current))
	return customer.ErrUpdateConflict
}

// DeleteOrphaned hard-deletes the customer's addresses not present in keep.
// Reconciliation reuses it for drop-by-omission; an empty keep clears the set.
func (r *AddressRepository) DeleteOrphaned(ctx context.Context, customerID int64, keep []int64) error {
	r.logger.InfoContext(ctx, "Attempting to delete orphaned addresses",
		slog.Int64("customerID", customerID), slog.Int("kept", len(keep)))

	if keep == nil {
		keep = []int64{}
	}
	query := `DELETE FROM addresses WHERE customer_id = $1 AND NOT (id = ANY($2))`

	cmdTag, err := r.db.Exec(ctx, query, customerID, keep)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete orphaned addresses", slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete orphaned addresses: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Orphaned addresses deleted", slog.Int64("deleted", cmdTag.RowsAffected()))
	return nil
}
