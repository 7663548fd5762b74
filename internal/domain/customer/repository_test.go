package customer

import (
	"context"

	"mini-bank/internal/domain/account"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Save(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) FindByNaturalKey(ctx context.Context, name string, lastname string, email string, phoneNumber string) (*Customer, error) {
	ret := _m.Called(ctx, name, lastname, email, phoneNumber)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, string, string, string, string) *Customer); ok {
		r0 = rf(ctx, name, lastname, email, phoneNumber)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, string, string, string) error); ok {
		r1 = rf(ctx, name, lastname, email, phoneNumber)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) Search(ctx context.Context, term string, page int, size int) ([]*Customer, int64, error) {
	ret := _m.Called(ctx, term, page, size)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}

	var r1 int64
	if v, ok := ret.Get(1).(int64); ok {
		r1 = v
	}

	return r0, r1, ret.Error(2)
}

type MockAddressRepository struct {
	mock.Mock
}

func (_m *MockAddressRepository) FindAllByCustomerID(ctx context.Context, customerID int64) ([]*Address, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []*Address
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Address)
	}

	return r0, ret.Error(1)
}

func (_m *MockAddressRepository) SaveAll(ctx context.Context, addresses []*Address) error {
	ret := _m.Called(ctx, addresses)
	return ret.Error(0)
}

func (_m *MockAddressRepository) DeleteOrphaned(ctx context.Context, customerID int64, keep []int64) error {
	ret := _m.Called(ctx, customerID, keep)
	return ret.Error(0)
}

type MockAccountRepository struct {
	mock.Mock
}

func (_m *MockAccountRepository) FindByID(ctx context.Context, accountID int64) (*account.Account, error) {
	ret := _m.Called(ctx, accountID)

	var r0 *account.Account
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*account.Account)
	}

	return r0, ret.Error(1)
}

func (_m *MockAccountRepository) Save(ctx context.Context, acct *account.Account) error {
	ret := _m.Called(ctx, acct)
	return ret.Error(0)
}

func (_m *MockAccountRepository) ReconcileOwnerCounts(ctx context.Context) (int64, error) {
	ret := _m.Called(ctx)

	var r0 int64
	if v, ok := ret.Get(0).(int64); ok {
		r0 = v
	}

	return r0, ret.Error(1)
}

// StubTxRunner hands the configured repositories straight to the callback, so
// service tests exercise the transactional flow without a database.
type StubTxRunner struct {
	Customers CustomerRepository
	Addresses AddressRepository
	Accounts  account.Repository
	BeginErr  error
}

func (s *StubTxRunner) RunInTx(ctx context.Context, fn func(customers CustomerRepository, addresses AddressRepository, accounts account.Repository) error) error {
	if s.BeginErr != nil {
		return s.BeginErr
	}
	return fn(s.Customers, s.Addresses, s.Accounts)
}
