// Package mockapi simulates the JWT Pizza service in memory: authentication,
// the account directory, and the franchise, store, menu and order endpoints.
//
// A Backend is one test context. It owns its directory, its id sequences and
// one Session, so independent Backends never share state. Operations are
// serialised; the mock answers one request at a time.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/directory"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/platform/httpx"
)

const defaultPageLimit = 10

// Options configures a Backend.
type Options struct {
	// ID names the backend in logs. A random id is used when zero.
	ID     uuid.UUID
	Logger *slog.Logger
	// Store holds the directory. An in-memory store is used when nil.
	Store directory.Store
	// Seed is the initial directory. pizza.SeedAccounts() when nil.
	Seed []pizza.Account
}

// Backend is the in-memory JWT Pizza service.
type Backend struct {
	mu      sync.Mutex
	id      uuid.UUID
	logger  *slog.Logger
	store   directory.Store
	seed    []pizza.Account
	session *Session

	nextAccountID   int
	nextFranchiseID int
	nextStoreID     int
	nextOrderID     int
}

// New builds a Backend seeded with the fixture directory and an empty session.
func New(ctx context.Context, opts Options) (*Backend, error) {
	b := &Backend{
		id:      opts.ID,
		logger:  opts.Logger,
		store:   opts.Store,
		seed:    opts.Seed,
		session: &Session{},
	}
	if b.id == uuid.Nil {
		b.id = uuid.New()
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	b.logger = b.logger.With(slog.String("backend", b.id.String()))
	if b.seed == nil {
		b.seed = pizza.SeedAccounts()
	}
	if b.store == nil {
		b.store = directory.NewMemory(nil)
	}
	if err := b.Reset(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// ID identifies the backend.
func (b *Backend) ID() uuid.UUID { return b.id }

// Session returns the backend's session slot.
func (b *Backend) Session() *Session { return b.session }

// Reset reseeds the directory, restarts id sequences and logs the session out.
func (b *Backend) Reset(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.store.Reset(ctx, b.seed); err != nil {
		return fmt.Errorf("reset directory: %w", err)
	}
	b.session.Clear()
	b.nextAccountID = maxNumericID(b.seed) + 1
	b.nextFranchiseID = pizza.FirstFranchiseID
	b.nextStoreID = pizza.FirstStoreID
	b.nextOrderID = pizza.FirstOrderID
	return nil
}

// AuthResult is returned by login, registration and account updates.
type AuthResult struct {
	User  pizza.Account `json:"user"`
	Token string        `json:"token"`
}

// Registration is the body of a register request.
type Registration struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AccountUpdate is the body of an account update. Empty fields are kept.
type AccountUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ListQuery selects a page of the directory.
type ListQuery struct {
	Page  int
	Limit int
	Name  string
}

// AccountPage is one page of account summaries.
type AccountPage struct {
	Users []pizza.AccountSummary `json:"users"`
	More  bool                   `json:"more"`
}

// Login sets the session when the password matches exactly.
func (b *Backend) Login(ctx context.Context, sess *Session, email, password string) (AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	account, err := b.store.Get(ctx, email)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		return AuthResult{}, err
	}
	if err != nil || account.Password != password {
		b.logger.Info("login failed", slog.String("email", email))
		return AuthResult{}, httpx.Errorf(httpx.ErrUnauthorized, "Unauthorized")
	}
	sess.Set(account)
	b.logger.Info("login", slog.String("email", email), slog.String("id", account.ID))
	return AuthResult{User: account, Token: pizza.LoginToken}, nil
}

// Logout clears the session. Logging out twice is fine.
func (b *Backend) Logout(sess *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sess.Clear()
}

// Register creates a diner account and makes it the session.
func (b *Backend) Register(ctx context.Context, sess *Session, reg Registration) (AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err := b.store.Get(ctx, reg.Email)
	switch {
	case err == nil:
		return AuthResult{}, httpx.Errorf(httpx.ErrDuplicate, "User already exists")
	case !errors.Is(err, directory.ErrNotFound):
		return AuthResult{}, err
	}
	id, err := b.allocateAccountID(ctx)
	if err != nil {
		return AuthResult{}, err
	}
	account := pizza.Account{
		ID:       id,
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
		Roles:    []pizza.RoleAssignment{{Role: pizza.RoleDiner}},
	}
	if err := b.store.Put(ctx, account); err != nil {
		return AuthResult{}, err
	}
	sess.Set(account)
	b.logger.Info("registered", slog.String("email", account.Email), slog.String("id", id))
	return AuthResult{User: account, Token: pizza.RegisterToken}, nil
}

// Current returns the session account.
func (b *Backend) Current(sess *Session) (pizza.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return sess.Current()
}

// UpdateAccount merges upd into the session account. The id is not consulted:
// the mock always edits the account that is logged in.
func (b *Backend) UpdateAccount(ctx context.Context, sess *Session, id string, upd AccountUpdate) (AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := sess.Current()
	if !ok {
		return AuthResult{}, httpx.Errorf(httpx.ErrUnauthorized, "unauthorized")
	}
	oldEmail := current.Email
	updated := current.Clone()
	if upd.Name != "" {
		updated.Name = upd.Name
	}
	if upd.Email != "" {
		updated.Email = upd.Email
	}
	if upd.Password != "" {
		updated.Password = upd.Password
	}
	_, err := b.store.Get(ctx, oldEmail)
	switch {
	case errors.Is(err, directory.ErrNotFound):
	case err != nil:
		return AuthResult{}, err
	case updated.Email != oldEmail:
		if err := b.store.Rekey(ctx, oldEmail, updated); err != nil {
			return AuthResult{}, err
		}
	default:
		if err := b.store.Put(ctx, updated); err != nil {
			return AuthResult{}, err
		}
	}
	sess.Set(updated)
	b.logger.Info("account updated", slog.String("path_id", id), slog.String("id", updated.ID), slog.String("email", updated.Email))
	return AuthResult{User: updated, Token: pizza.UpdateToken}, nil
}

// DeleteAccount removes the account with id. Only admins may delete.
func (b *Backend) DeleteAccount(ctx context.Context, sess *Session, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	forbidden := httpx.Errorf(httpx.ErrForbidden, "Forbidden")
	if err := requireRole(sess, pizza.RoleAdmin, forbidden, forbidden); err != nil {
		return err
	}
	target, err := b.store.FindByID(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return httpx.Errorf(httpx.ErrNotFound, "User not found")
	}
	if err != nil {
		return err
	}
	if err := b.store.Delete(ctx, target.Email); err != nil {
		return err
	}
	b.logger.Info("account deleted", slog.String("id", id), slog.String("email", target.Email))
	return nil
}

// ListAccounts returns a page of the directory filtered by name. Admin only.
func (b *Backend) ListAccounts(ctx context.Context, sess *Session, q ListQuery) (AccountPage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := requireRole(sess, pizza.RoleAdmin, httpx.Errorf(httpx.ErrUnauthorized, "unauthorized"), httpx.Errorf(httpx.ErrForbidden, "unauthorized")); err != nil {
		return AccountPage{}, err
	}
	accounts, err := b.store.List(ctx)
	if err != nil {
		return AccountPage{}, err
	}
	filtered := filterByName(accounts, q.Name)

	page, limit := q.Page, q.Limit
	if page < 0 {
		page = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	start, end := pageBounds(page, limit, len(filtered))
	users := make([]pizza.AccountSummary, 0, end-start)
	for _, a := range filtered[start:end] {
		users = append(users, a.Summary())
	}
	return AccountPage{Users: users, More: end < len(filtered)}, nil
}

// pageBounds returns the slice bounds of page within n items. page and limit
// are non-negative and positive; pages past the end are empty. The offset is
// multiplied out only once it is known to be at most n.
func pageBounds(page, limit, n int) (int, int) {
	if page > n/limit {
		return n, n
	}
	start := page * limit
	return start, start + min(limit, n-start)
}

// requireRole fails with missing without a session and with denied when the
// session lacks role.
func requireRole(sess *Session, role pizza.Role, missing, denied error) error {
	current, ok := sess.Current()
	if !ok {
		return missing
	}
	if !current.HasRole(role) {
		return denied
	}
	return nil
}

// filterByName keeps accounts whose name contains filter, ignoring case.
// An empty filter or "*" keeps everything; other "*" characters are dropped.
func filterByName(accounts []pizza.Account, filter string) []pizza.Account {
	if filter == "" || filter == "*" {
		return accounts
	}
	fold := cases.Fold()
	needle := fold.String(strings.ReplaceAll(filter, "*", ""))
	out := make([]pizza.Account, 0, len(accounts))
	for _, a := range accounts {
		if strings.Contains(fold.String(a.Name), needle) {
			out = append(out, a)
		}
	}
	return out
}

func (b *Backend) allocateAccountID(ctx context.Context) (string, error) {
	for {
		id := strconv.Itoa(b.nextAccountID)
		b.nextAccountID++
		_, err := b.store.FindByID(ctx, id)
		if errors.Is(err, directory.ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func maxNumericID(accounts []pizza.Account) int {
	highest := 0
	for _, a := range accounts {
		if n, err := strconv.Atoi(a.ID); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}
