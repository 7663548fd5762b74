package customer

import (
	"fmt"
	"strings"
	"time"

	"mini-bank/internal/domain/entity"
)

// CustomerType is the closed classification set for a customer record.
type CustomerType string

const (
	TypePrivate  CustomerType = "PRIVATE"
	TypeBusiness CustomerType = "BUSINESS"
)

// ParseCustomerType resolves a payload label into the closed category set.
func ParseCustomerType(label string) (CustomerType, error) {
	switch CustomerType(strings.ToUpper(strings.TrimSpace(label))) {
	case TypePrivate:
		return TypePrivate, nil
	case TypeBusiness:
		return TypeBusiness, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, label)
	}
}

// Customer is a bank customer record, unique for admission purposes by the
// natural key (name, lastname, email, phone number).
type Customer struct {
	entity.Base
	Name        string       `json:"name"`
	Lastname    string       `json:"lastname"`
	PhoneNumber string       `json:"phoneNumber"`
	Email       string       `json:"email"`
	Type        CustomerType `json:"type"`
	AccountID   *int64       `json:"accountId,omitempty"`
	Addresses   []*Address   `json:"addresses"`
}

// Address is a postal address owned by exactly one customer. Ownership moves
// only by explicit reassignment of CustomerID.
type Address struct {
	entity.Base
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	CustomerID int64  `json:"-"`
}

// MatchesNaturalKey compares the admission natural key: name, lastname and
// email case-insensitively, phone number exactly. The asymmetry is deliberate.
func (c *Customer) MatchesNaturalKey(name, lastname, email, phoneNumber string) bool {
	return strings.EqualFold(c.Name, name) &&
		strings.EqualFold(c.Lastname, lastname) &&
		strings.EqualFold(c.Email, email) &&
		c.PhoneNumber == phoneNumber
}

// AttachTo sets the back-reference to the owning account and records the
// mutation. The account side of the relationship is updated by the caller.
func (c *Customer) AttachTo(accountID int64, now time.Time) {
	c.AccountID = &accountID
	c.Touch(entity.SystemActor, now)
}

// AddressUpdate is one submitted address record during reconciliation. A zero
// ID means the record carries no identifier and is always treated as new.
type AddressUpdate struct {
	ID         int64
	Street     string
	City       string
	PostalCode string
}

// ReconcileAddresses merges submitted address records against the customer's
// stored addresses. Submitted records whose id matches a stored address update
// it in place; all others become new addresses owned by this customer. The
// returned list preserves submission order and is the customer's new active
// set; stored addresses absent from the submission are simply not part of it.
func (c *Customer) ReconcileAddresses(stored []*Address, updates []AddressUpdate, now time.Time) []*Address {
	byID := make(map[int64]*Address, len(stored))
	for _, addr := range stored {
		byID[addr.ID] = addr
	}

	reconciled := make([]*Address, 0, len(updates))
	for _, upd := range updates {
		if existing, ok := byID[upd.ID]; upd.ID != 0 && ok {
			existing.Street = upd.Street
			existing.City = upd.City
			existing.PostalCode = upd.PostalCode
			existing.Touch(entity.SystemActor, now)
			reconciled = append(reconciled, existing)
			continue
		}
		fresh := &Address{
			Street:     upd.Street,
			City:       upd.City,
			PostalCode: upd.PostalCode,
			CustomerID: c.ID,
		}
		fresh.StampNew(entity.SystemActor, now)
		reconciled = append(reconciled, fresh)
	}

	c.Addresses = reconciled
	return reconciled
}
