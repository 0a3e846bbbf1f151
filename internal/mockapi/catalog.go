package mockapi

import (
	"log/slog"
	"maps"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/pizza"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/platform/httpx"
)

// OrderReceipt answers a placed order.
type OrderReceipt struct {
	Order map[string]any `json:"order"`
	JWT   string         `json:"jwt"`
}

// Menu returns the menu fixture.
func (b *Backend) Menu() []pizza.MenuItem {
	return pizza.Menu()
}

// Franchises returns every franchise fixture.
func (b *Backend) Franchises() pizza.FranchiseList {
	return pizza.Franchises()
}

// FranchiseeFranchises returns the franchises run by userID. Every user gets
// the seeded franchisee's list.
func (b *Backend) FranchiseeFranchises(userID string) []pizza.Franchise {
	return pizza.FranchiseeFranchises()
}

// CreateFranchise echoes body with a new id and an empty store list.
func (b *Backend) CreateFranchise(body map[string]any) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := maps.Clone(body)
	if out == nil {
		out = map[string]any{}
	}
	out["id"] = b.nextFranchiseID
	out["stores"] = []pizza.Store{}
	b.nextFranchiseID++
	b.logger.Info("franchise created", slog.Any("id", out["id"]), slog.Any("name", out["name"]))
	return out
}

// DeleteFranchise confirms the deletion. Fixtures are not changed.
func (b *Backend) DeleteFranchise(franchiseID int) httpx.MessageBody {
	b.logger.Info("franchise deleted", slog.Int("id", franchiseID))
	return httpx.MessageBody{Message: "franchise deleted"}
}

// CreateStore echoes body with a new id.
func (b *Backend) CreateStore(franchiseID int, body map[string]any) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := maps.Clone(body)
	if out == nil {
		out = map[string]any{}
	}
	out["id"] = b.nextStoreID
	b.nextStoreID++
	b.logger.Info("store created", slog.Int("franchise", franchiseID), slog.Any("id", out["id"]))
	return out
}

// DeleteStore confirms the deletion. Fixtures are not changed.
func (b *Backend) DeleteStore(franchiseID, storeID int) httpx.MessageBody {
	b.logger.Info("store deleted", slog.Int("franchise", franchiseID), slog.Int("id", storeID))
	return httpx.MessageBody{Message: "store deleted"}
}

// PlaceOrder echoes the order with a new id and an opaque token.
func (b *Backend) PlaceOrder(body map[string]any) OrderReceipt {
	b.mu.Lock()
	defer b.mu.Unlock()
	order := maps.Clone(body)
	if order == nil {
		order = map[string]any{}
	}
	order["id"] = b.nextOrderID
	b.nextOrderID++
	return OrderReceipt{Order: order, JWT: pizza.OrderJWT}
}

// OrderHistory returns the session account's orders. Without a session the
// request is Unauthorized.
func (b *Backend) OrderHistory(sess *Session) (pizza.OrderHistory, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	current, ok := sess.Current()
	if !ok {
		return pizza.OrderHistory{}, httpx.Errorf(httpx.ErrUnauthorized, "unauthorized")
	}
	return pizza.History(current.ID), nil
}
