package mockapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/platform/httpx"
)

// Install registers the API on router. Requests under /api/ that no endpoint
// serves are declined so later routes or the network can answer them.
func (b *Backend) Install(router *intercept.Router) {
	router.Register(intercept.Prefix("", "/api/"), intercept.FromHTTP(b.Handler()))
}

// Handler returns the API as an http.Handler. Unknown paths and methods call
// intercept.Continue.
func (b *Backend) Handler() http.Handler {
	r := chi.NewRouter()
	r.NotFound(intercept.Continue)
	r.MethodNotAllowed(intercept.Continue)
	r.Use(b.withSession)
	b.MountRoutes(r)
	return detachRouteContext(r)
}

// detachRouteContext hides an outer chi routing context so the API router
// matches the full path when it is served behind another chi router.
func detachRouteContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, nil)))
	})
}

// MountRoutes registers the API endpoints on r.
func (b *Backend) MountRoutes(r chi.Router) {
	r.Put("/api/auth", b.handleLogin)
	r.Post("/api/auth", b.handleRegister)
	r.Delete("/api/auth", b.handleLogout)

	r.Get("/api/user", b.handleListAccounts)
	r.Get("/api/user/me", b.handleCurrent)
	r.Put("/api/user/{userID:[0-9]+}", b.handleUpdateAccount)
	r.Delete("/api/user/{userID:[0-9]+}", b.handleDeleteAccount)

	r.Get("/api/order/menu", b.handleMenu)
	r.Get("/api/order", b.handleOrderHistory)
	r.Post("/api/order", b.handlePlaceOrder)

	r.Get("/api/franchise", b.handleFranchises)
	r.Post("/api/franchise", b.handleCreateFranchise)
	r.Get("/api/franchise/{id:[0-9]+}", b.handleFranchiseeFranchises)
	r.Delete("/api/franchise/{id:[0-9]+}", b.handleDeleteFranchise)
	r.Post("/api/franchise/{id:[0-9]+}/store", b.handleCreateStore)
	r.Delete("/api/franchise/{id:[0-9]+}/store/{storeID:[0-9]+}", b.handleDeleteStore)
}

// withSession puts the backend session in the request context unless the
// caller already supplied one.
func (b *Backend) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFromContext(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), b.session)))
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decode(w, r, &req) {
		return
	}
	res, err := b.Login(r.Context(), SessionFromContext(r.Context()), req.Email, req.Password)
	respond(w, res, err)
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req Registration
	if !decode(w, r, &req) {
		return
	}
	res, err := b.Register(r.Context(), SessionFromContext(r.Context()), req)
	respond(w, res, err)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.Logout(SessionFromContext(r.Context()))
	httpx.Message(w, http.StatusOK, "Logged out")
}

func (b *Backend) handleCurrent(w http.ResponseWriter, r *http.Request) {
	account, ok := b.Current(SessionFromContext(r.Context()))
	if !ok {
		httpx.JSON(w, http.StatusOK, nil)
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func (b *Backend) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountUpdate
	if !decode(w, r, &req) {
		return
	}
	res, err := b.UpdateAccount(r.Context(), SessionFromContext(r.Context()), chi.URLParam(r, "userID"), req)
	respond(w, res, err)
}

func (b *Backend) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	err := b.DeleteAccount(r.Context(), SessionFromContext(r.Context()), chi.URLParam(r, "userID"))
	respond(w, httpx.MessageBody{Message: "user deleted"}, err)
}

func (b *Backend) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := ListQuery{
		Page:  intParam(query.Get("page"), 0),
		Limit: intParam(query.Get("limit"), defaultPageLimit),
		Name:  query.Get("name"),
	}
	page, err := b.ListAccounts(r.Context(), SessionFromContext(r.Context()), q)
	respond(w, page, err)
}

func (b *Backend) handleMenu(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, b.Menu())
}

func (b *Backend) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	history, err := b.OrderHistory(SessionFromContext(r.Context()))
	respond(w, history, err)
}

func (b *Backend) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decode(w, r, &body) {
		return
	}
	httpx.JSON(w, http.StatusOK, b.PlaceOrder(body))
}

func (b *Backend) handleFranchises(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, b.Franchises())
}

func (b *Backend) handleCreateFranchise(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decode(w, r, &body) {
		return
	}
	httpx.JSON(w, http.StatusOK, b.CreateFranchise(body))
}

func (b *Backend) handleFranchiseeFranchises(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, b.FranchiseeFranchises(chi.URLParam(r, "id")))
}

func (b *Backend) handleDeleteFranchise(w http.ResponseWriter, r *http.Request) {
	id := intParam(chi.URLParam(r, "id"), 0)
	httpx.JSON(w, http.StatusOK, b.DeleteFranchise(id))
}

func (b *Backend) handleCreateStore(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if !decode(w, r, &body) {
		return
	}
	id := intParam(chi.URLParam(r, "id"), 0)
	httpx.JSON(w, http.StatusOK, b.CreateStore(id, body))
}

func (b *Backend) handleDeleteStore(w http.ResponseWriter, r *http.Request) {
	franchiseID := intParam(chi.URLParam(r, "id"), 0)
	storeID := intParam(chi.URLParam(r, "storeID"), 0)
	httpx.JSON(w, http.StatusOK, b.DeleteStore(franchiseID, storeID))
}

func decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Message(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func respond(w http.ResponseWriter, body any, err error) {
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, body)
}

func intParam(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
