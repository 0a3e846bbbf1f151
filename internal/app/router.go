package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/mockapi"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/observability"
	"github.com/jwt-pizza/jwt-pizza-mock/internal/platform/httpx"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger    *slog.Logger
	Config    *Config
	Backend   *mockapi.Backend
	Intercept *intercept.Router
	Metrics   *observability.Metrics
}

// recordedCall is the wire form of an intercept.Call.
type recordedCall struct {
	Method string `json:"method"`
	URL    string `json:"url"`
	Body   string `json:"body,omitempty"`
	Route  string `json:"route"`
	Status int    `json:"status"`
}

// NewRouter constructs the chi.Router serving the mock API and its control
// endpoints.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "backend": params.Backend.ID().String()})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/__mock", func(r chi.Router) {
		r.Post("/reset", func(w http.ResponseWriter, r *http.Request) {
			if err := params.Backend.Reset(r.Context()); err != nil {
				params.Logger.Error("reset backend", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			params.Intercept.ResetCalls()
			params.Metrics.ObserveReset()
			httpx.Message(w, http.StatusOK, "reset")
		})
		r.Get("/calls", func(w http.ResponseWriter, r *http.Request) {
			calls := params.Intercept.Calls()
			out := make([]recordedCall, 0, len(calls))
			for _, c := range calls {
				out = append(out, recordedCall{Method: c.Method, URL: c.URL, Body: string(c.Body), Route: c.Route, Status: c.Status})
			}
			httpx.JSON(w, http.StatusOK, out)
		})
		r.Get("/routes", func(w http.ResponseWriter, r *http.Request) {
			httpx.JSON(w, http.StatusOK, params.Intercept.Routes())
		})
	})

	r.Handle("/api/*", params.Intercept)

	return r
}
