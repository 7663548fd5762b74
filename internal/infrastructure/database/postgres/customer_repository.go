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
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const errMsgFormat = "%w: %w"

// DBTX is the subset of pgx operations the repositories need. Both a pooled
// connection and a transaction satisfy it, so the same repositories serve
// request-scoped transactions and standalone reads.
type DBTX interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

var _ DBTX = (*pgxpool.Pool)(nil)
var _ DBTX = (pgx.Tx)(nil)

type CustomerRepository struct {
	db     DBTX
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBTX, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBTX cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

const customerColumns = `id, name, lastname, phone_number, email, type, account_id,
       version_num, created_by, created_at, modified_by, modified_at`

func scanCustomer(row pgx.Row, cust *customer.Customer) error {
	return row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Lastname,
		&cust.PhoneNumber,
		&cust.Email,
		&cust.Type,
		&cust.AccountID,
		&cust.Version,
		&cust.CreatedBy,
		&cust.CreatedAt,
		&cust.ModifiedBy,
		&cust.ModifiedAt,
	)
}

func (r *CustomerRepository) Save(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	if cust.IsNew() {
		return r.insertCustomer(ctx, cust)
	}
	return r.updateCustomer(ctx, cust)
}

func (r *CustomerRepository) insertCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("email", cust.Email))

	query := `
        INSERT INTO customers (name, lastname, phone_number, email, type, account_id,
                               version_num, created_by, created_at, modified_by, modified_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id`

	err := r.db.QueryRow(ctx, query,
		cust.Name,
		cust.Lastname,
		cust.PhoneNumber,
		cust.Email,
		cust.Type,
		cust.AccountID,
		cust.Version,
		cust.CreatedBy,
		cust.CreatedAt,
		cust.ModifiedBy,
		cust.ModifiedAt,
	).Scan(&cust.ID)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.Any("error", err))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

// updateCustomer writes the already-incremented version and guards the UPDATE
// with the previous one, so interleaved updates against stale data surface as
// ErrUpdateConflict instead of silently overwriting.
func (r *CustomerRepository) updateCustomer(ctx context.Context, cust *customer.Customer) error {
	r.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", cust.ID))

	query := `
        UPDATE customers
        SET name = $1,
            lastname = $2,
            phone_number = $3,
            email = $4,
            type = $5,
            account_id = $6,
            version_num = $7,
            modified_by = $8,
            modified_at = $9
        WHERE id = $10 AND version_num = $11`

	cmdTag, err := r.db.Exec(ctx, query,
		cust.Name,
		cust.Lastname,
		cust.PhoneNumber,
		cust.Email,
		cust.Type,
		cust.AccountID,
		cust.Version,
		cust.ModifiedBy,
		cust.ModifiedAt,
		cust.ID,
		cust.Version-1,
	)

	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer: %w", apperrors.ErrDatabase, err)
	}

	if cmdTag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, cust.ID)
	}

	r.logger.InfoContext(ctx, "Customer updated successfully")
	return nil
}

// classifyMissedUpdate tells a vanished row apart from a stale version.
func (r *CustomerRepository) classifyMissedUpdate(ctx context.Context, customerID int64) error {
	var current int
	err := r.db.QueryRow(ctx, `SELECT version_num FROM customers WHERE id = $1`, customerID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update affected zero rows, customer not found")
			return customer.ErrNotFound
		}
		return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	r.logger.WarnContext(ctx, "Update affected zero rows, stale version detected", slog.Int("currentVersion", current))
	return customer.ErrUpdateConflict
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	r.logger.InfoContext(ctx, "Attempting to find customer by ID")

	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	var cust customer.Customer
	err := scanCustomer(r.db.QueryRow(ctx, query, customerID), &cust)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found")
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer found successfully")
	return &cust, nil
}

func (r *CustomerRepository) FindByNaturalKey(ctx context.Context, name, lastname, email, phoneNumber string) (*customer.Customer, error) {
	r.logger.InfoContext(ctx, "Attempting to find customer by natural key")

	// Name, lastname and email match case-insensitively; the phone number
	// matches exactly. The asymmetry is part of the dedup contract.
	query := `SELECT ` + customerColumns + `
        FROM customers
        WHERE LOWER(name) = LOWER($1)
          AND LOWER(lastname) = LOWER($2)
          AND LOWER(email) = LOWER($3)
          AND phone_number = $4`

	var cust customer.Customer
	err := scanCustomer(r.db.QueryRow(ctx, query, name, lastname, email, phoneNumber), &cust)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.InfoContext(ctx, "No customer matches the natural key")
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by natural key", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by natural key: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer found successfully by natural key", slog.Int64("customerID", cust.ID))
	return &cust, nil
}

func (r *CustomerRepository) Search(ctx context.Context, term string, page, size int) ([]*customer.Customer, int64, error) {
	r.logger.InfoContext(ctx, "Attempting to search customers", slog.String("term", term))

	filter := `
        WHERE name ILIKE '%' || $1 || '%'
           OR lastname ILIKE '%' || $1 || '%'
           OR email ILIKE '%' || $1 || '%'
           OR phone_number ILIKE '%' || $1 || '%'
           OR type ILIKE '%' || $1 || '%'`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+filter, term).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count matching customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + filter + `
        ORDER BY id ASC
        LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, term, size, page*size)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var cust customer.Customer
		if err := scanCustomer(rows, &cust); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, 0, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, &cust)
	}

	if err = rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, 0, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Finished searching customers", slog.Int("count", len(customers)), slog.Int64("total", total))
	return customers, total, nil
}

func translateDBError(err error, contextLogger *slog.Logger) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" {
			contextLogger.Warn("Database unique constraint violation", "detail", pgErr.Detail, "constraint", pgErr.ConstraintName)
			return fmt.Errorf("%w: %s", apperrors.ErrAlreadyExists, pgErr.ConstraintName)
		}

		contextLogger.Error("PostgreSQL specific error", "code", pgErr.Code, "message", pgErr.Message, "detail", pgErr.Detail)
		return fmt.Errorf("%w: db error code %s", apperrors.ErrDatabase, pgErr.Code)
	}

	contextLogger.Error("Generic database error", "error", err)
	return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
}
