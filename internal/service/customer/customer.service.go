package customer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voice-order/internal/common/models"
	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/helper"
)

var ErrCustomerNotFound = errors.New("customer not found")

type record struct {
	name    string
	email   string
	phone   string
	address string
}

var directory = map[string]record{
	"12345": {
		name:    "John Smith",
		email:   "john.smith@email.com",
		phone:   "+1-555-0123",
		address: "123 Main Street, Anytown, ST 12345",
	},
	"67890": {
		name:    "Sarah Johnson",
		email:   "sarah.j@email.com",
		phone:   "+1-555-0456",
		address: "456 Oak Avenue, Somewhere, ST 67890",
	},
}

type Profile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (s *Service) find(ctx context.Context, customerID string) (*Profile, error) {
	if err := helper.Sleep(ctx, s.lookupDelay); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(customerID)
	rec, ok := directory[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	return &Profile{ID: id, Name: rec.name, Email: rec.email, Phone: rec.phone, Address: rec.address}, nil
}

func (s *Service) Lookup(ctx context.Context, customerID string) (*models.CustomerDetails, error) {
	p, err := s.find(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &models.CustomerDetails{
		Name:  helper.StrPtr(p.Name),
		ID:    helper.StrPtr(p.ID),
		Email: helper.StrPtr(p.Email),
	}, nil
}

func (s *Service) GetCustomer(customerID string) *types.Response {
	p, err := s.find(s.ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return helper.ParseResponse(&types.Response{
				Code:    http.StatusNotFound,
				Message: "Customer not found",
				Error:   err,
			})
		}
		return helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to look up customer",
			Error:   err,
		})
	}

	return helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "Customer found",
		Data:    p,
	})
}

// Enrich fills missing name and email from the directory when the customer
// id is known. Lookup failures leave the details untouched.
func Enrich(ctx context.Context, svc IService, details models.CustomerDetails) models.CustomerDetails {
	if details.ID == nil || (details.Name != nil && details.Email != nil) {
		return details
	}
	found, err := svc.Lookup(ctx, *details.ID)
	if err != nil {
		return details
	}
	if details.Name == nil {
		details.Name = found.Name
	}
	if details.Email == nil {
		details.Email = found.Email
	}
	return details
}
