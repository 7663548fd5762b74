package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"mini-bank/internal/domain/account"
	"mini-bank/internal/domain/entity"
	"mini-bank/internal/event"
)

const customerNotFoundMessage = "customer not found."

// CustomerPayload is the transport-agnostic candidate/update record handed to
// the service. A nil Addresses slice on update means "leave stored addresses
// untouched"; an empty non-nil slice drops every stored address.
type CustomerPayload struct {
	Name        string
	Lastname    string
	PhoneNumber string
	Email       string
	Type        string
	Addresses   []AddressUpdate
}

type CustomerService interface {
	// CreateCustomer admits a candidate customer under an account: an exact
	// natural-key match reattaches the existing customer, otherwise a new
	// customer is created with its addresses.
	CreateCustomer(ctx context.Context, accountID int64, payload CustomerPayload) (*Customer, error)

	// UpdateCustomer overwrites the customer's scalar fields and, when the
	// payload carries an address list, reconciles it against storage.
	UpdateCustomer(ctx context.Context, customerID int64, payload CustomerPayload) (*Customer, error)

	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)

	SearchCustomers(ctx context.Context, term string, page, size int) ([]*Customer, int64, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	tx        TxRunner
	customers CustomerRepository
	addresses AddressRepository
	pub       event.EventPublisher
	logger    *slog.Logger
}

func NewCustomerService(tx TxRunner, customers CustomerRepository, addresses AddressRepository, pub event.EventPublisher, logger *slog.Logger) CustomerService {
	if tx == nil {
		panic("transaction runner cannot be nil")
	}
	if customers == nil {
		panic("customer repository cannot be nil")
	}
	if addresses == nil {
		panic("address repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		tx:        tx,
		customers: customers,
		addresses: addresses,
		pub:       pub,
		logger:    logger.With(slog.String("component", "customerService")),
	}
}

func newCustomerEventPayload(cust *Customer) event.CustomerEventPayload {
	if cust == nil {
		return event.CustomerEventPayload{}
	}
	return event.CustomerEventPayload{
		CustomerID:  cust.ID,
		Name:        cust.Name,
		Lastname:    cust.Lastname,
		PhoneNumber: cust.PhoneNumber,
		Email:       cust.Email,
		Type:        string(cust.Type),
		AccountID:   cust.AccountID,
		Version:     cust.Version,
		ModifiedAt:  cust.ModifiedAt,
	}
}

func (s *customerService) publishCreated(ctx context.Context, cust *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerCreatedEvent{Timestamp: time.Now(), Payload: newCustomerEventPayload(cust)}
	if err := s.pub.PublishCustomerCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish customer created event", slog.Any("error", err))
	}
}

func (s *customerService) publishUpdated(ctx context.Context, cust *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerUpdatedEvent{Timestamp: time.Now(), Payload: newCustomerEventPayload(cust)}
	if err := s.pub.PublishCustomerUpdated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish customer updated event", slog.Any("error", err))
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, accountID int64, payload CustomerPayload) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to admit customer", slog.Int64("accountID", accountID))

	var admitted *Customer
	var reused bool

	err := s.tx.RunInTx(ctx, func(customers CustomerRepository, addresses AddressRepository, accounts account.Repository) error {
		acct, err := accounts.FindByID(ctx, accountID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				s.logger.WarnContext(ctx, "Account not found for admission")
				return account.ErrNotFound
			}
			s.logger.ErrorContext(ctx, "Repository error finding account", slog.Any("error", err))
			return fmt.Errorf("cannot find account %d for admission: %w", accountID, err)
		}

		existing, err := customers.FindByNaturalKey(ctx, payload.Name, payload.Lastname, payload.Email, payload.PhoneNumber)
		switch {
		case err == nil:
			admitted, err = s.reattachCustomer(ctx, customers, accounts, acct, existing)
			reused = true
			return err
		case errors.Is(err, ErrNotFound):
			admitted, err = s.createFreshCustomer(ctx, customers, addresses, accounts, acct, payload)
			return err
		default:
			s.logger.ErrorContext(ctx, "Repository error during natural-key lookup", slog.Any("error", err))
			return fmt.Errorf("natural-key lookup failed: %w", err)
		}
	})
	if err != nil {
		return nil, err
	}

	if reused {
		s.publishUpdated(ctx, admitted)
	} else {
		s.publishCreated(ctx, admitted)
	}

	s.logger.InfoContext(ctx, "Successfully admitted customer",
		slog.Int64("customerID", admitted.ID), slog.Bool("reused", reused))
	return admitted, nil
}

// reattachCustomer handles the reuse path: the natural key matched an existing
// customer, which is attached to the account unless it already belongs to it.
func (s *customerService) reattachCustomer(ctx context.Context, customers CustomerRepository, accounts account.Repository, acct *account.Account, existing *Customer) (*Customer, error) {
	if acct.Contains(existing.ID) {
		s.logger.WarnContext(ctx, "Customer already assigned to this account",
			slog.Int64("customerID", existing.ID), slog.Int64("accountID", acct.ID))
		return nil, ErrAlreadyAssigned
	}

	now := time.Now()
	if err := acct.Attach(existing.ID, now); err != nil {
		return nil, ErrAlreadyAssigned
	}
	existing.AttachTo(acct.ID, now)

	if err := customers.Save(ctx, existing); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save reattached customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save reattached customer: %w", err)
	}
	if err := accounts.Save(ctx, acct); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save account after attachment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save account %d: %w", acct.ID, err)
	}
	return existing, nil
}

// createFreshCustomer handles the creation path: no natural-key match exists,
// so a brand-new customer is built from the candidate with version 1 stamps on
// itself and every submitted address.
func (s *customerService) createFreshCustomer(ctx context.Context, customers CustomerRepository, addresses AddressRepository, accounts account.Repository, acct *account.Account, payload CustomerPayload) (*Customer, error) {
	typ, err := ParseCustomerType(payload.Type)
	if err != nil {
		s.logger.WarnContext(ctx, "Invalid customer type in candidate", slog.String("type", payload.Type))
		return nil, err
	}

	now := time.Now()
	fresh := &Customer{
		Name:        payload.Name,
		Lastname:    payload.Lastname,
		PhoneNumber: payload.PhoneNumber,
		Email:       payload.Email,
		Type:        typ,
		AccountID:   &acct.ID,
	}
	fresh.StampNew(entity.SystemActor, now)

	for _, upd := range payload.Addresses {
		addr := &Address{
			Street:     upd.Street,
			City:       upd.City,
			PostalCode: upd.PostalCode,
		}
		addr.StampNew(entity.SystemActor, now)
		fresh.Addresses = append(fresh.Addresses, addr)
	}

	if err := customers.Save(ctx, fresh); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	for _, addr := range fresh.Addresses {
		addr.CustomerID = fresh.ID
	}
	if len(fresh.Addresses) > 0 {
		if err := addresses.SaveAll(ctx, fresh.Addresses); err != nil {
			s.logger.ErrorContext(ctx, "Repository failed to save new customer addresses", slog.Any("error", err))
			return nil, fmt.Errorf("failed to save addresses for customer %d: %w", fresh.ID, err)
		}
	}

	if err := acct.Attach(fresh.ID, now); err != nil {
		return nil, err
	}
	if err := accounts.Save(ctx, acct); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save account after attachment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save account %d: %w", acct.ID, err)
	}
	return fresh, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID int64, payload CustomerPayload) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", customerID))

	var updated *Customer

	err := s.tx.RunInTx(ctx, func(customers CustomerRepository, addresses AddressRepository, _ account.Repository) error {
		existing, err := customers.FindByID(ctx, customerID)
		if err != nil {
			return err
		}

		typ, err := ParseCustomerType(payload.Type)
		if err != nil {
			return err
		}

		now := time.Now()
		existing.Name = payload.Name
		existing.Lastname = payload.Lastname
		existing.PhoneNumber = payload.PhoneNumber
		existing.Email = payload.Email
		existing.Type = typ
		existing.Touch(entity.SystemActor, now)

		if payload.Addresses != nil {
			stored, err := addresses.FindAllByCustomerID(ctx, existing.ID)
			if err != nil {
				return err
			}

			reconciled := existing.ReconcileAddresses(stored, payload.Addresses, now)
			if err := addresses.SaveAll(ctx, reconciled); err != nil {
				return err
			}

			keep := make([]int64, 0, len(reconciled))
			for _, addr := range reconciled {
				keep = append(keep, addr.ID)
			}
			if err := addresses.DeleteOrphaned(ctx, existing.ID, keep); err != nil {
				return err
			}
		}

		if err := customers.Save(ctx, existing); err != nil {
			return err
		}
		updated = existing
		return nil
	})
	if err != nil {
		// Contract carried over from the origin system: every update failure
		// surfaces under one fixed customer-domain message. The real cause
		// stays on the unwrap chain.
		s.logger.WarnContext(ctx, "Customer update failed", slog.Any("error", err))
		return nil, &Error{Message: customerNotFoundMessage, Cause: err}
	}

	s.publishUpdated(ctx, updated)

	s.logger.InfoContext(ctx, "Successfully updated customer",
		slog.Int64("customerID", updated.ID), slog.Int("version", updated.Version))
	return updated, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer by ID", slog.Int64("customerID", customerID))

	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository")
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	addrs, err := s.addresses.FindAllByCustomerID(ctx, cust.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error loading customer addresses", slog.Any("error", err))
		return nil, fmt.Errorf("failed to load addresses for customer %d: %w", customerID, err)
	}
	cust.Addresses = addrs

	s.logger.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}

func (s *customerService) SearchCustomers(ctx context.Context, term string, page, size int) ([]*Customer, int64, error) {
	s.logger.InfoContext(ctx, "Attempting to search customers",
		slog.String("term", term), slog.Int("page", page), slog.Int("size", size))

	customers, total, err := s.customers.Search(ctx, term, page, size)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error searching customers", slog.Any("error", err))
		return nil, 0, fmt.Errorf("failed to search customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully searched customers",
		slog.Int("count", len(customers)), slog.Int64("total", total))
	return customers, total, nil
}
