package directory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
)

// Memory is an in-process Store.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]pizza.Account
	order    []string
}

// NewMemory builds a Memory store holding seed.
func NewMemory(seed []pizza.Account) *Memory {
	m := &Memory{}
	_ = m.Reset(context.Background(), seed)
	return m
}

func (m *Memory) Get(_ context.Context, email string) (pizza.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	account, ok := m.accounts[email]
	if !ok {
		return pizza.Account{}, fmt.Errorf("email %s: %w", email, ErrNotFound)
	}
	return account.Clone(), nil
}

func (m *Memory) FindByID(_ context.Context, id string) (pizza.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, email := range m.order {
		if account := m.accounts[email]; account.ID == id {
			return account.Clone(), nil
		}
	}
	return pizza.Account{}, fmt.Errorf("id %s: %w", id, ErrNotFound)
}

func (m *Memory) Put(_ context.Context, account pizza.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(account)
	return nil
}

func (m *Memory) Rekey(_ context.Context, oldEmail string, account pizza.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(oldEmail)
	m.put(account)
	return nil
}

func (m *Memory) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[email]; !ok {
		return fmt.Errorf("email %s: %w", email, ErrNotFound)
	}
	m.remove(email)
	return nil
}

func (m *Memory) List(_ context.Context) ([]pizza.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]pizza.Account, 0, len(m.order))
	for _, email := range m.order {
		out = append(out, m.accounts[email].Clone())
	}
	return out, nil
}

func (m *Memory) Reset(_ context.Context, seed []pizza.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]pizza.Account, len(seed))
	m.order = make([]string, 0, len(seed))
	for _, account := range seed {
		m.put(account)
	}
	return nil
}

func (m *Memory) put(account pizza.Account) {
	if _, ok := m.accounts[account.Email]; !ok {
		m.order = append(m.order, account.Email)
	}
	m.accounts[account.Email] = account.Clone()
}

func (m *Memory) remove(email string) {
	if _, ok := m.accounts[email]; !ok {
		return
	}
	delete(m.accounts, email)
	if i := slices.Index(m.order, email); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
}
