package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveReset()

	body := scrape(t, metrics)
	assert.Contains(t, body, "jwtpizza_backend_resets_total 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	assert.Contains(t, body, `jwtpizza_http_requests_total{code="418",route="/test"} 1`)
	assert.Contains(t, body, `jwtpizza_http_request_duration_seconds_bucket{route="/test"`)
}

func TestObserveInterceptCountsRouterCalls(t *testing.T) {
	metrics := NewMetrics()
	router := intercept.NewRouter(intercept.WithObserver(metrics.ObserveIntercept))
	router.Register(intercept.Exact("GET", "/api/order/menu"), func(context.Context, *intercept.Request) (*intercept.Response, error) {
		return intercept.JSON(http.StatusOK, []string{})
	})

	for _, path := range []string{"/api/order/menu", "/api/order/menu", "/api/other"} {
		req, err := intercept.NewRequest(http.MethodGet, "http://localhost"+path, nil, nil)
		require.NoError(t, err)
		_, _ = router.Dispatch(context.Background(), req)
	}

	body := scrape(t, metrics)
	assert.Contains(t, body, `jwtpizza_intercepted_calls_total{code="200",route="GET /api/order/menu"} 2`)
	assert.Contains(t, body, `jwtpizza_intercepted_calls_total{code="0",route="unmatched"} 1`)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveIntercept("x", 200)
	m.ObserveReset()

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
