package mockapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/mockapi"
)

const baseURL = "http://localhost:3000"

var errNetwork = errors.New("network disabled")

type offline struct{ seen []string }

func (o *offline) RoundTrip(req *http.Request) (*http.Response, error) {
	o.seen = append(o.seen, req.Method+" "+req.URL.Path)
	return nil, errNetwork
}

type harness struct {
	t       *testing.T
	backend *mockapi.Backend
	router  *intercept.Router
	client  *http.Client
	network *offline
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	b := newBackend(t)
	router := intercept.NewRouter()
	b.Install(router)
	network := &offline{}
	return &harness{
		t:       t,
		backend: b,
		router:  router,
		client:  &http.Client{Transport: intercept.NewTransport(router, network)},
		network: network,
	}
}

func (h *harness) do(method, path string, body any) (int, map[string]any) {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	var out map[string]any
	if trimmed := strings.TrimSpace(string(raw)); trimmed != "" && trimmed != "null" && strings.HasPrefix(trimmed, "{") {
		require.NoError(h.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func (h *harness) login(email, password string) int {
	h.t.Helper()
	status, _ := h.do(http.MethodPut, "/api/auth", map[string]string{"email": email, "password": password})
	return status
}

func userNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	users, ok := body["users"].([]any)
	require.True(t, ok, "users missing: %v", body)
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.(map[string]any)["name"].(string))
	}
	return out
}

func TestHTTPLoginAndCurrent(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPut, "/api/auth", map[string]string{"email": "d@jwt.com", "password": "a"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "abcdef", body["token"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "3", user["id"])
	assert.Equal(t, "Kai Chen", user["name"])

	status, body = h.do(http.MethodGet, "/api/user/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "d@jwt.com", body["email"])

	status, body = h.do(http.MethodDelete, "/api/auth", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Logged out", body["message"])

	status, body = h.do(http.MethodGet, "/api/user/me", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Nil(t, body)
}

func TestHTTPLoginFailure(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPut, "/api/auth", map[string]string{"email": "d@jwt.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Unauthorized", body["message"])

	status, body = h.do(http.MethodPut, "/api/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.NotEmpty(t, body["message"])
}

func TestHTTPInvalidJSON(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodPut, baseURL+"/api/auth", strings.NewReader("{"))
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHTTPRegisterThenCurrent(t *testing.T) {
	h := newHarness(t)

	status, body := h.do(http.MethodPost, "/api/auth", map[string]string{"name": "Julia Jones", "email": "e@jwt.com", "password": "b"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ghijkl", body["token"])
	registered := body["user"].(map[string]any)

	status, current := h.do(http.MethodGet, "/api/user/me", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, registered, current)
	assert.Equal(t, []any{map[string]any{"role": "diner"}}, current["roles"])

	status, body = h.do(http.MethodPost, "/api/auth", map[string]string{"name": "Kai", "email": "d@jwt.com", "password": "a"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User already exists", body["message"])
}

func TestHTTPAdminListFilterDelete(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	require.Equal(t, http.StatusOK, h.login("d@jwt.com", "a"))
	status, _ = h.do(http.MethodGet, "/api/user", nil)
	assert.Equal(t, http.StatusForbidden, status)

	require.Equal(t, http.StatusOK, h.login("admin@jwt.com", "a"))
	status, body := h.do(http.MethodGet, "/api/user?page=0&limit=10&name=*", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, userNames(t, body), "Alice Smith")
	assert.Equal(t, false, body["more"])
	for _, u := range body["users"].([]any) {
		assert.NotContains(t, u.(map[string]any), "password")
	}

	status, body = h.do(http.MethodGet, "/api/user?page=0&limit=10&name=Kai", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Kai Chen"}, userNames(t, body))

	status, body = h.do(http.MethodGet, "/api/user?page=0&limit=2", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["users"], 2)
	assert.Equal(t, true, body["more"])

	status, body = h.do(http.MethodDelete, "/api/user/3", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "user deleted", body["message"])

	status, _ = h.do(http.MethodDelete, "/api/user/3", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = h.do(http.MethodGet, "/api/user?name=Kai", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, userNames(t, body))
}

func TestHTTPListPastLastPage(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login("admin@jwt.com", "a"))

	for _, query := range []string{
		"page=4611686018427387904&limit=2",
		"page=9223372036854775807&limit=9223372036854775807",
		"page=5&limit=2",
	} {
		status, body := h.do(http.MethodGet, "/api/user?"+query, nil)
		require.Equal(t, http.StatusOK, status, query)
		assert.Empty(t, userNames(t, body), query)
		assert.Equal(t, false, body["more"], query)
	}
}

func TestHTTPDeleteRequiresAdmin(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodDelete, "/api/user/4", nil)
	assert.Equal(t, http.StatusForbidden, status)

	require.Equal(t, http.StatusOK, h.login("f@jwt.com", "a"))
	status, _ = h.do(http.MethodDelete, "/api/user/4", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestHTTPUpdateEmailRekeys(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodPut, "/api/user/3", map[string]string{"name": "Kai"})
	assert.Equal(t, http.StatusUnauthorized, status)

	require.Equal(t, http.StatusOK, h.login("d@jwt.com", "a"))
	status, body := h.do(http.MethodPut, "/api/user/3", map[string]string{"name": "Kai Chen", "email": "kai@jwt.com", "password": ""})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "updatedtoken", body["token"])
	assert.Equal(t, "kai@jwt.com", body["user"].(map[string]any)["email"])

	_, _ = h.do(http.MethodDelete, "/api/auth", nil)
	assert.Equal(t, http.StatusUnauthorized, h.login("d@jwt.com", "a"))
	assert.Equal(t, http.StatusOK, h.login("kai@jwt.com", "a"))
}

func TestHTTPCatalog(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/order/menu", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	var menu []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&menu))
	resp.Body.Close()
	require.Len(t, menu, 2)
	assert.Equal(t, "Veggie", menu[0]["title"])

	status, body := h.do(http.MethodGet, "/api/franchise", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["franchises"], 3)

	status, body = h.do(http.MethodPost, "/api/franchise", map[string]any{"name": "Santaquin", "admins": []any{map[string]string{"email": "f@jwt.com"}}})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 5, body["id"])
	assert.Equal(t, "Santaquin", body["name"])
	assert.Equal(t, []any{}, body["stores"])

	status, body = h.do(http.MethodPost, "/api/franchise/5/store", map[string]any{"name": "Orem"})
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 8, body["id"])

	status, body = h.do(http.MethodDelete, "/api/franchise/5/store/8", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "store deleted", body["message"])

	status, body = h.do(http.MethodDelete, "/api/franchise/5", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "franchise deleted", body["message"])

	status, body = h.do(http.MethodPost, "/api/order", map[string]any{"franchiseId": 2, "storeId": 4, "items": []any{}})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "eyJpYXQ", body["jwt"])
	assert.EqualValues(t, 23, body["order"].(map[string]any)["id"])
}

func TestHTTPFranchiseeFranchises(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/franchise/4", nil)
	require.NoError(t, err)
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var franchises []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&franchises))
	require.Len(t, franchises, 1)
	assert.Equal(t, "PizzaCorp", franchises[0]["name"])
}

func TestHTTPOrderHistory(t *testing.T) {
	h := newHarness(t)

	status, _ := h.do(http.MethodGet, "/api/order", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	require.Equal(t, http.StatusOK, h.login("d@jwt.com", "a"))
	status, body := h.do(http.MethodGet, "/api/order", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "3", body["dinerId"])
	assert.Len(t, body["orders"], 1)
}

func TestHTTPUnknownRoutesFallThrough(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/order/verify"},
		{http.MethodPatch, "/api/auth"},
		{http.MethodGet, "/api/user/abc"},
		{http.MethodGet, "/api/docs"},
		{http.MethodGet, "/index.html"},
	} {
		req, err := http.NewRequest(tc.method, baseURL+tc.path, nil)
		require.NoError(t, err)
		_, err = h.client.Do(req)
		require.ErrorIs(t, err, errNetwork, tc.path)
	}
	assert.Equal(t, []string{
		"POST /api/order/verify",
		"PATCH /api/auth",
		"GET /api/user/abc",
		"GET /api/docs",
		"GET /index.html",
	}, h.network.seen)
}

func TestHTTPSessionFromContextOverridesBackendSession(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.login("admin@jwt.com", "a"))

	other := &mockapi.Session{}
	req, err := intercept.NewRequest(http.MethodGet, baseURL+"/api/user/me", nil, nil)
	require.NoError(t, err)
	ctx := mockapi.ContextWithSession(context.Background(), other)
	resp, err := h.router.Dispatch(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "null", strings.TrimSpace(string(resp.Body)))
}

func TestHTTPCallJournal(t *testing.T) {
	h := newHarness(t)
	h.login("d@jwt.com", "a")
	h.do(http.MethodGet, "/api/order/menu", nil)

	calls := h.router.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "* /api/*", calls[0].Route)
	assert.Equal(t, http.StatusOK, calls[1].Status)
}
