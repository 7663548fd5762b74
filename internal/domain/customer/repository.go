package customer

import (
	"context"
	"errors"

	"mini-bank/internal/domain/account"
)

var (
	ErrNotFound = errors.New("customer not found")

	ErrAlreadyAssigned = errors.New("customer is already assigned to this account")

	ErrUnknownType = errors.New("unknown customer type")

	ErrUpdateConflict = errors.New("update conflict detected")
)

// Error is the umbrella customer-domain error raised by UpdateCustomer. It
// carries a fixed message regardless of the true cause; the cause stays on the
// unwrap chain so callers can still discriminate with errors.Is.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

type CustomerRepository interface {
	Save(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	// FindByNaturalKey matches name, lastname and email case-insensitively
	// and the phone number exactly. Returns ErrNotFound on no match.
	FindByNaturalKey(ctx context.Context, name, lastname, email, phoneNumber string) (*Customer, error)

	// Search runs a case-insensitive substring match of term against name,
	// lastname, email, phone number and type. page is zero-based; the
	// returned count is the total number of matches, not the page size.
	Search(ctx context.Context, term string, page, size int) ([]*Customer, int64, error)
}

type AddressRepository interface {
	FindAllByCustomerID(ctx context.Context, customerID int64) ([]*Address, error)

	SaveAll(ctx context.Context, addresses []*Address) error

	// DeleteOrphaned hard-deletes the customer's addresses whose ids are not
	// in keep, matching the orphan-removal semantics of reconciliation.
	DeleteOrphaned(ctx context.Context, customerID int64, keep []int64) error
}

// TxRunner executes fn within a single database transaction, handing it
// repositories bound to that transaction. Either every mutation made inside fn
// commits together or none do.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(customers CustomerRepository, addresses AddressRepository, accounts account.Repository) error) error
}
