package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"mini-bank/internal/api/handler/dto"
	"mini-bank/internal/domain/account"
	"mini-bank/internal/domain/customer"
	"mini-bank/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, message, field := http.StatusInternalServerError, "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var customerError *customer.Error

	switch {
	case errors.Is(err, customer.ErrUpdateConflict), errors.Is(err, account.ErrUpdateConflict):
		status, message = http.StatusConflict, "The record was modified concurrently, please retry."
	case errors.As(err, &customerError):
		status, message = http.StatusBadRequest, customerError.Error()
	case errors.Is(err, account.ErrNotFound), errors.Is(err, customer.ErrNotFound), errors.Is(err, apperrors.ErrNotFound):
		status, message = http.StatusNotFound, "Resource not found."
	case errors.Is(err, customer.ErrAlreadyAssigned), errors.Is(err, customer.ErrUnknownType):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.As(err, &validationError):
		status, message, field = http.StatusBadRequest, validationError.Message, validationError.Field
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

func getIDFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s format in URL path: %s", apperrors.ErrInvalidArgument, param, idStr)
	}
	return id, nil
}

// CreateCustomer handles POST /customers/create/{accountID}
// @Summary Admit a customer under an account
// @Description Creates a new customer with its addresses under the account, or reattaches an existing customer when the name/lastname/email/phone natural key matches exactly.
// @Tags Customers
// @Accept json
// @Produce json
// @Param accountID path int true "Account ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Candidate customer payload"
// @Success 201 {object} dto.CustomerResponse "Customer admitted"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload, unknown customer type, or customer already assigned to the account"
// @Failure 404 {object} dto.ErrorResponse "Account not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/create/{accountID} [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	accountID, err := getIDFromURL(r, "accountID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get account ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	h.logger.DebugContext(r.Context(), "Request validation passed")

	h.logger.DebugContext(r.Context(), "Calling customer service CreateCustomer")
	admitted, err := h.service.CreateCustomer(r.Context(), accountID, req.ToPayload())
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, account.ErrNotFound) &&
			!errors.Is(err, customer.ErrAlreadyAssigned) &&
			!errors.Is(err, customer.ErrUnknownType) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to admit customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(admitted)
	h.logger.InfoContext(r.Context(), "Customer admitted successfully", slog.String("customerID", resp.CustomerID))
	respondJSON(w, http.StatusCreated, resp)
}

// UpdateCustomer handles PATCH /customers/update/{customerID}
// @Summary Update a customer
// @Description Overwrites the customer's scalar fields and, when an address list is supplied, reconciles it against the stored addresses: matching ids update in place, records without a matching id insert, omitted stored addresses are dropped.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.CustomerRequest true "Update payload"
// @Success 200 {object} dto.CustomerResponse "Customer updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload or customer-domain failure"
// @Failure 409 {object} dto.ErrorResponse "Concurrent modification detected"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/update/{customerID} [patch]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received update customer request")

	var req dto.CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	h.logger.DebugContext(r.Context(), "Request validation passed")

	h.logger.DebugContext(r.Context(), "Calling customer service UpdateCustomer")
	updated, err := h.service.UpdateCustomer(r.Context(), customerID, req.ToPayload())
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, customer.ErrNotFound) &&
			!errors.Is(err, customer.ErrUnknownType) &&
			!errors.Is(err, customer.ErrUpdateConflict) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to update customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(updated)
	h.logger.InfoContext(r.Context(), "Customer updated successfully", slog.String("customerID", resp.CustomerID))
	respondJSON(w, http.StatusOK, resp)
}

// GetCustomer handles GET /customers/{customerID}
// @Summary Retrieve customer details
// @Description Retrieves a customer with its addresses by ID.
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.DebugContext(r.Context(), "Received get customer request")

	h.logger.DebugContext(r.Context(), "Calling customer service GetCustomer")
	domainCustomer, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		level := slog.LevelWarn
		if !errors.Is(err, customer.ErrNotFound) && !errors.Is(err, apperrors.ErrNotFound) {
			level = slog.LevelError
		}
		h.logger.Log(r.Context(), level, "Service failed to get customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(domainCustomer)
	h.logger.InfoContext(r.Context(), "Customer retrieved successfully")
	respondJSON(w, http.StatusOK, resp)
}

// SearchCustomers handles GET /customers/search
// @Summary Search customers
// @Description Case-insensitive substring search over name, lastname, email, phone number and type; zero-based pagination.
// @Tags Customers
// @Produce json
// @Param searchTerm query string true "Substring to match"
// @Param page query int true "Zero-based page index" Minimum(0)
// @Param size query int true "Page size" Minimum(1)
// @Success 200 {object} dto.CustomerSearchResponse "Matching page of customers plus the total match count"
// @Failure 400 {object} dto.ErrorResponse "Invalid pagination parameters"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/search [get]
// @Security BearerAuth
func (h *CustomerHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received search customers request")

	term := r.URL.Query().Get("searchTerm")

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 0 {
		h.logger.WarnContext(r.Context(), "Invalid page query parameter")
		respondError(w, fmt.Errorf("%w: page must be a non-negative integer", apperrors.ErrInvalidArgument))
		return
	}
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		h.logger.WarnContext(r.Context(), "Invalid size query parameter")
		respondError(w, fmt.Errorf("%w: size must be a positive integer", apperrors.ErrInvalidArgument))
		return
	}
	h.logger.DebugContext(r.Context(), "Query parameter validation passed")

	h.logger.DebugContext(r.Context(), "Calling customer service SearchCustomers")
	customers, total, err := h.service.SearchCustomers(r.Context(), term, page, size)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to search customers", slog.Any("error", err))
		respondError(w, err)
		return
	}

	resp := dto.CustomerSearchResponse{
		TotalCount: total,
		Customers:  make([]dto.CustomerResponse, len(customers)),
	}
	for i, cust := range customers {
		resp.Customers[i] = dto.NewCustomerResponse(cust)
	}

	h.logger.InfoContext(r.Context(), "Customers searched successfully",
		slog.Int("count", len(customers)), slog.Int64("total", total))
	respondJSON(w, http.StatusOK, resp)
}
