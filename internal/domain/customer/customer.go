// Package customer is the directory of the people leaving devices for repair.
package customer

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

var ErrMissingName = errors.New("customer name cannot be empty")

// Customer is one entry of the directory
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCustomer creates a customer, email and phone are optional
func NewCustomer(name, email, phone string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	email = strings.TrimSpace(email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, shared.NewValidationError("email", "is not a valid address")
		}
	}

	return &Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     strings.ToLower(email),
		Phone:     NormalizePhone(phone),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// NormalizePhone drops the spaces, dots and dashes people type in numbers
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-':
			return -1
		}
		return r
	}, strings.TrimSpace(phone))
}

// Repository manages the customer directory
type Repository interface {
	Create(ctx context.Context, customer *Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	// FindByPhone returns ErrCustomerNotFound when no customer uses phone
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
	// Search matches query against name, email and phone, ignoring case
	Search(ctx context.Context, query string, limit, offset int) ([]*Customer, error)
	CountSearch(ctx context.Context, query string) (int64, error)
}

// ErrCustomerNotFound indicates missing customer
type ErrCustomerNotFound struct {
	Ref string
}

func (e ErrCustomerNotFound) Error() string {
	return "customer not found: " + e.Ref
}
