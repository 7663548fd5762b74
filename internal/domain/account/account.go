package account

import (
	"time"

	"mini-bank/internal/domain/entity"
)

// Account is the aggregation root owning a set of customers. The attached set is
// materialized as the ids of customers whose back-reference points at this
// account; NumberOfOwners is derived from it and never set independently.
type Account struct {
	entity.Base
	NumberOfOwners int     `json:"numberOfOwners"`
	CustomerIDs    []int64 `json:"-"`
}

// Contains reports whether the customer is already attached to this account.
func (a *Account) Contains(customerID int64) bool {
	for _, id := range a.CustomerIDs {
		if id == customerID {
			return true
		}
	}
	return false
}

// Attach adds a customer to the account's owner set. A customer may be attached
// at most once; the owner count always tracks the set size.
func (a *Account) Attach(customerID int64, now time.Time) error {
	if a.Contains(customerID) {
		return ErrCustomerAlreadyAssigned
	}
	a.CustomerIDs = append(a.CustomerIDs, customerID)
	a.NumberOfOwners = len(a.CustomerIDs)
	a.Touch(entity.SystemActor, now)
	return nil
}

// Detach removes a customer from the owner set, keeping the count in sync.
func (a *Account) Detach(customerID int64, now time.Time) {
	for i, id := range a.CustomerIDs {
		if id == customerID {
			a.CustomerIDs = append(a.CustomerIDs[:i], a.CustomerIDs[i+1:]...)
			a.NumberOfOwners = len(a.CustomerIDs)
			a.Touch(entity.SystemActor, now)
			return
		}
	}
}
