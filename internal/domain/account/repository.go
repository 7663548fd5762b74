package account

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("account not found")

	ErrCustomerAlreadyAssigned = errors.New("customer is already assigned to this account")

	ErrUpdateConflict = errors.New("account update conflict detected")
)

type Repository interface {
	FindByID(ctx context.Context, accountID int64) (*Account, error)

	Save(ctx context.Context, account *Account) error

	// ReconcileOwnerCounts recomputes number_of_owners from the attached
	// customer rows and returns how many accounts were repaired.
	ReconcileOwnerCounts(ctx context.Context) (int64, error)
}
