// Package directory stores the mock backend's account directory keyed by email.
//
// Two implementations exist: Memory for in-process tests and Redis for a
// standalone mock server whose state is inspected from another process.
// Both preserve insertion order, which drives account listing order.
package directory

import (
	"context"
	"errors"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
)

// ErrNotFound is returned when no account matches the lookup key.
var ErrNotFound = errors.New("account not found")

// Store is the account directory.
type Store interface {
	// Get returns the account registered under email.
	Get(ctx context.Context, email string) (pizza.Account, error)
	// FindByID returns the account whose id matches.
	FindByID(ctx context.Context, id string) (pizza.Account, error)
	// Put inserts an account at the end, or replaces it in place when the email exists.
	Put(ctx context.Context, account pizza.Account) error
	// Rekey removes oldEmail and appends account under its own email.
	Rekey(ctx context.Context, oldEmail string, account pizza.Account) error
	// Delete removes the account registered under email.
	Delete(ctx context.Context, email string) error
	// List returns every account in insertion order.
	List(ctx context.Context) ([]pizza.Account, error)
	// Reset replaces the whole directory with seed.
	Reset(ctx context.Context, seed []pizza.Account) error
}
