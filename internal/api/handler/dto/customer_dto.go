package dto

import (
	"fmt"
	"strconv"
	"strings"

	"mini-bank/internal/domain/customer"
)

// AddressPayload is one submitted address record. A zero id marks the record
// as new; a known id updates the stored address it names.
type AddressPayload struct {
	ID         int64  `json:"id,omitempty"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
}

func (a *AddressPayload) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return fmt.Errorf("address street cannot be empty")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address city cannot be empty")
	}
	if strings.TrimSpace(a.PostalCode) == "" {
		return fmt.Errorf("address postalCode cannot be empty")
	}
	return nil
}

// CustomerRequest is the candidate/update payload. Addresses left out of the
// JSON entirely means "do not touch stored addresses" on update; an explicit
// empty array drops them all.
type CustomerRequest struct {
	Name        string           `json:"name"`
	Lastname    string           `json:"lastname"`
	PhoneNumber string           `json:"phoneNumber"`
	Email       string           `json:"email"`
	Type        string           `json:"type"`
	Addresses   []AddressPayload `json:"addresses"`
}

func (r *CustomerRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(r.Lastname) == "" {
		return fmt.Errorf("lastname cannot be empty")
	}
	if strings.TrimSpace(r.PhoneNumber) == "" {
		return fmt.Errorf("phoneNumber cannot be empty")
	}
	if strings.TrimSpace(r.Email) == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if strings.TrimSpace(r.Type) == "" {
		return fmt.Errorf("type cannot be empty")
	}
	for i := range r.Addresses {
		if err := r.Addresses[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (r *CustomerRequest) ToPayload() customer.CustomerPayload {
	payload := customer.CustomerPayload{
		Name:        r.Name,
		Lastname:    r.Lastname,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		Type:        r.Type,
	}
	if r.Addresses != nil {
		payload.Addresses = make([]customer.AddressUpdate, len(r.Addresses))
		for i, a := range r.Addresses {
			payload.Addresses[i] = customer.AddressUpdate{
				ID:         a.ID,
				Street:     a.Street,
				City:       a.City,
				PostalCode: a.PostalCode,
			}
		}
	}
	return payload
}

type AddressResponse struct {
	AddressID  string `json:"addressId"`
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Version    int    `json:"version"`
}

type CustomerResponse struct {
	CustomerID  string            `json:"customerId"`
	Name        string            `json:"name"`
	Lastname    string            `json:"lastname"`
	PhoneNumber string            `json:"phoneNumber"`
	Email       string            `json:"email"`
	Type        string            `json:"type"`
	AccountID   *string           `json:"accountId,omitempty"`
	Version     int               `json:"version"`
	Addresses   []AddressResponse `json:"addresses"`
}

type CustomerSearchResponse struct {
	TotalCount int64              `json:"totalCount"`
	Customers  []CustomerResponse `json:"customers"`
}

type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type TokenRequest struct {
	Username string `json:"username"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	var accountIDStr *string
	if cust.AccountID != nil {
		s := strconv.FormatInt(*cust.AccountID, 10)
		accountIDStr = &s
	}

	addresses := make([]AddressResponse, len(cust.Addresses))
	for i, addr := range cust.Addresses {
		addresses[i] = AddressResponse{
			AddressID:  strconv.FormatInt(addr.ID, 10),
			Street:     addr.Street,
			City:       addr.City,
			PostalCode: addr.PostalCode,
			Version:    addr.Version,
		}
	}

	return CustomerResponse{
		CustomerID:  strconv.FormatInt(cust.ID, 10),
		Name:        cust.Name,
		Lastname:    cust.Lastname,
		PhoneNumber: cust.PhoneNumber,
		Email:       cust.Email,
		Type:        string(cust.Type),
		AccountID:   accountIDStr,
		Version:     cust.Version,
		Addresses:   addresses,
	}
}
