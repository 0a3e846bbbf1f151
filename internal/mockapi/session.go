package mockapi

import (
	"context"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
)

// Session is the single "current account" slot of one simulated client.
type Session struct {
	account *pizza.Account
}

// Current returns the logged-in account, if any.
func (s *Session) Current() (pizza.Account, bool) {
	if s == nil || s.account == nil {
		return pizza.Account{}, false
	}
	return s.account.Clone(), true
}

// Set makes account the current one.
func (s *Session) Set(account pizza.Account) {
	a := account.Clone()
	s.account = &a
}

// Clear logs the session out.
func (s *Session) Clear() {
	s.account = nil
}

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}
