package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"mini-bank/internal/api/handler"
	"mini-bank/internal/api/handler/dto"
	"mini-bank/internal/domain/account"
	"mini-bank/internal/domain/customer"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) CreateCustomer(ctx context.Context, accountID int64, payload customer.CustomerPayload) (*customer.Customer, error) {
	ret := _m.Called(ctx, accountID, payload)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateCustomer(ctx context.Context, customerID int64, payload customer.CustomerPayload) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, payload)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerService) SearchCustomers(ctx context.Context, term string, page int, size int) ([]*customer.Customer, int64, error) {
	ret := _m.Called(ctx, term, page, size)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}

	var r1 int64
	if v, ok := ret.Get(1).(int64); ok {
		r1 = v
	}

	return r0, r1, ret.Error(2)
}

var testLogger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

func newRequestWithParam(method, target, param, value string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(param, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func validRequestBody() []byte {
	body, _ := json.Marshal(dto.CustomerRequest{
		Name:        "John",
		Lastname:    "Doe",
		PhoneNumber: "555-0101",
		Email:       "john.doe@example.com",
		Type:        "PRIVATE",
		Addresses: []dto.AddressPayload{
			{Street: "123 Main St", City: "Springfield", PostalCode: "12345"},
		},
	})
	return body
}

func admittedCustomer() *customer.Customer {
	accountID := int64(7)
	cust := &customer.Customer{
		Name:        "John",
		Lastname:    "Doe",
		PhoneNumber: "555-0101",
		Email:       "john.doe@example.com",
		Type:        customer.TypePrivate,
		AccountID:   &accountID,
	}
	cust.ID = 42
	cust.Version = 1
	return cust
}

func TestCreateCustomer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("CreateCustomer", mock.Anything, int64(7), mock.AnythingOfType("customer.CustomerPayload")).
			Return(admittedCustomer(), nil)

		req := newRequestWithParam(http.MethodPost, "/customers/create/7", "accountID", "7", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.CustomerID)
		require.NotNil(t, resp.AccountID)
		assert.Equal(t, "7", *resp.AccountID)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid account ID", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := newRequestWithParam(http.MethodPost, "/customers/create/abc", "accountID", "abc", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateCustomer")
	})

	t.Run("invalid payload", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := newRequestWithParam(http.MethodPost, "/customers/create/7", "accountID", "7", []byte(`{}`))
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "CreateCustomer")
	})

	t.Run("account not found", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("CreateCustomer", mock.Anything, int64(404), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, account.ErrNotFound)

		req := newRequestWithParam(http.MethodPost, "/customers/create/404", "accountID", "404", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("customer already assigned", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("CreateCustomer", mock.Anything, int64(7), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, customer.ErrAlreadyAssigned)

		req := newRequestWithParam(http.MethodPost, "/customers/create/7", "accountID", "7", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unknown customer type", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("CreateCustomer", mock.Anything, int64(7), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, customer.ErrUnknownType)

		req := newRequestWithParam(http.MethodPost, "/customers/create/7", "accountID", "7", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("unexpected service failure", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("CreateCustomer", mock.Anything, int64(7), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, errors.New("connection reset"))

		req := newRequestWithParam(http.MethodPost, "/customers/create/7", "accountID", "7", validRequestBody())
		rec := httptest.NewRecorder()

		h.CreateCustomer(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockService.AssertExpectations(t)
	})
}

func TestUpdateCustomer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		updated := admittedCustomer()
		updated.Version = 2
		mockService.On("UpdateCustomer", mock.Anything, int64(42), mock.AnythingOfType("customer.CustomerPayload")).
			Return(updated, nil)

		req := newRequestWithParam(http.MethodPatch, "/customers/update/42", "customerID", "42", validRequestBody())
		rec := httptest.NewRecorder()

		h.UpdateCustomer(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.CustomerID)
		assert.Equal(t, 2, resp.Version)
		mockService.AssertExpectations(t)
	})

	t.Run("domain failure surfaces as bad request with the fixed message", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		domainErr := &customer.Error{Message: "customer not found.", Cause: customer.ErrNotFound}
		mockService.On("UpdateCustomer", mock.Anything, int64(404), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, domainErr)

		req := newRequestWithParam(http.MethodPatch, "/customers/update/404", "customerID", "404", validRequestBody())
		rec := httptest.NewRecorder()

		h.UpdateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "customer not found.", resp.Error.Message)
		mockService.AssertExpectations(t)
	})

	t.Run("version conflict wins over the domain wrapper", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		domainErr := &customer.Error{Message: "customer not found.", Cause: customer.ErrUpdateConflict}
		mockService.On("UpdateCustomer", mock.Anything, int64(42), mock.AnythingOfType("customer.CustomerPayload")).
			Return(nil, domainErr)

		req := newRequestWithParam(http.MethodPatch, "/customers/update/42", "customerID", "42", validRequestBody())
		rec := httptest.NewRecorder()

		h.UpdateCustomer(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid customer ID", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := newRequestWithParam(http.MethodPatch, "/customers/update/abc", "customerID", "abc", validRequestBody())
		rec := httptest.NewRecorder()

		h.UpdateCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "UpdateCustomer")
	})
}

func TestGetCustomer(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		cust := admittedCustomer()
		addr := &customer.Address{Street: "123 Main St", City: "Springfield", PostalCode: "12345", CustomerID: 42}
		addr.ID = 9
		addr.Version = 1
		cust.Addresses = []*customer.Address{addr}

		mockService.On("GetCustomer", mock.Anything, int64(42)).Return(cust, nil)

		req := newRequestWithParam(http.MethodGet, "/customers/42", "customerID", "42", nil)
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "42", resp.CustomerID)
		require.Len(t, resp.Addresses, 1)
		assert.Equal(t, "9", resp.Addresses[0].AddressID)
		mockService.AssertExpectations(t)
	})

	t.Run("customer not found", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("GetCustomer", mock.Anything, int64(404)).Return(nil, customer.ErrNotFound)

		req := newRequestWithParam(http.MethodGet, "/customers/404", "customerID", "404", nil)
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("invalid customer ID", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := newRequestWithParam(http.MethodGet, "/customers/abc", "customerID", "abc", nil)
		rec := httptest.NewRecorder()

		h.GetCustomer(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "GetCustomer")
	})
}

func TestSearchCustomers(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("SearchCustomers", mock.Anything, "doe", 0, 10).
			Return([]*customer.Customer{admittedCustomer()}, int64(12), nil)

		req := httptest.NewRequest(http.MethodGet, "/customers/search?searchTerm=doe&page=0&size=10", nil)
		rec := httptest.NewRecorder()

		h.SearchCustomers(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp dto.CustomerSearchResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, int64(12), resp.TotalCount)
		require.Len(t, resp.Customers, 1)
		assert.Equal(t, "42", resp.Customers[0].CustomerID)
		mockService.AssertExpectations(t)
	})

	t.Run("missing pagination parameters", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := httptest.NewRequest(http.MethodGet, "/customers/search?searchTerm=doe", nil)
		rec := httptest.NewRecorder()

		h.SearchCustomers(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "SearchCustomers")
	})

	t.Run("negative page", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := httptest.NewRequest(http.MethodGet, "/customers/search?searchTerm=doe&page=-1&size=10", nil)
		rec := httptest.NewRecorder()

		h.SearchCustomers(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "SearchCustomers")
	})

	t.Run("zero size", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		req := httptest.NewRequest(http.MethodGet, "/customers/search?searchTerm=doe&page=0&size=0", nil)
		rec := httptest.NewRecorder()

		h.SearchCustomers(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "SearchCustomers")
	})

	t.Run("service failure", func(t *testing.T) {
		mockService := new(MockCustomerService)
		h := handler.NewCustomerHandler(mockService, testLogger)

		mockService.On("SearchCustomers", mock.Anything, "doe", 0, 10).
			Return(nil, int64(0), errors.New("query cancelled"))

		req := httptest.NewRequest(http.MethodGet, "/customers/search?searchTerm=doe&page=0&size=10", nil)
		rec := httptest.NewRecorder()

		h.SearchCustomers(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		mockService.AssertExpectations(t)
	})
}
