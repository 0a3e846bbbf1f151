// Package intercept answers outbound HTTP calls from registered routes
// instead of the network.
//
// A Router holds (Matcher, Handler) pairs and tries them most specific
// first: exact paths, then regular expressions, then prefixes, longer
// literal text first, ties in registration order. A handler either answers
// or declines with ErrContinue. Adapters expose the router as an
// http.Handler, an http.RoundTripper (Transport) and, in package browser,
// as a hijacker for a real browser page.
package intercept

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
)

var (
	// ErrContinue is returned by a handler to pass the request to the next route.
	ErrContinue = errors.New("intercept: continue")
	// ErrUnmatched is returned by Dispatch when no route answered.
	ErrUnmatched = errors.New("intercept: no route matched")
)

// Handler answers an intercepted request.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Observer is notified once per dispatched request. status is 0 when no route answered.
type Observer func(route string, status int)

// Call records a dispatched request.
type Call struct {
	Method string
	URL    string
	Body   []byte
	Route  string
	Status int
}

type route struct {
	matcher Matcher
	handler Handler
}

// Router dispatches intercepted requests to registered routes.
type Router struct {
	mu       sync.RWMutex
	routes   []route
	calls    []Call
	logger   *slog.Logger
	observer Observer
	fallback http.Handler
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the router logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithObserver sets a hook called for every dispatched request.
func WithObserver(o Observer) Option {
	return func(r *Router) { r.observer = o }
}

// WithFallback sets the handler ServeHTTP uses for unmatched requests.
func WithFallback(h http.Handler) Option {
	return func(r *Router) { r.fallback = h }
}

// NewRouter builds an empty Router.
func NewRouter(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Register adds a route. It is placed after every route at least as specific.
func (r *Router) Register(m Matcher, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	score := m.Specificity()
	i := slices.IndexFunc(r.routes, func(existing route) bool {
		return existing.matcher.Specificity() < score
	})
	if i < 0 {
		i = len(r.routes)
	}
	r.routes = slices.Insert(r.routes, i, route{matcher: m, handler: h})
}

// Routes describes the registered routes in evaluation order.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.routes))
	for i, rt := range r.routes {
		out[i] = rt.matcher.String()
	}
	return out
}

// Dispatch answers req from the first route that does not decline.
func (r *Router) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	r.mu.RLock()
	candidates := slices.Clone(r.routes)
	r.mu.RUnlock()

	for _, rt := range candidates {
		if !rt.matcher.Match(req.Method, req.URL) {
			continue
		}
		resp, err := rt.handler(ctx, req)
		if errors.Is(err, ErrContinue) {
			continue
		}
		name := rt.matcher.String()
		if err != nil {
			r.logger.Error("intercept handler failed", slog.String("route", name), slog.String("url", req.URL.String()), slog.Any("error", err))
			r.record(req, name, http.StatusInternalServerError)
			return nil, fmt.Errorf("route %s: %w", name, err)
		}
		if resp == nil {
			resp = &Response{Status: http.StatusOK}
		}
		r.record(req, name, resp.status())
		return resp, nil
	}

	r.logger.Debug("intercept unmatched", slog.String("method", req.Method), slog.String("url", req.URL.String()))
	r.record(req, "", 0)
	return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ErrUnmatched)
}

// ServeHTTP dispatches a server-side request through the router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	ireq, err := FromHTTPRequest(req)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	resp, err := r.Dispatch(req.Context(), ireq)
	switch {
	case errors.Is(err, ErrUnmatched) && r.fallback != nil:
		ireq.restoreBody(req)
		r.fallback.ServeHTTP(w, req)
	case errors.Is(err, ErrUnmatched):
		resp, _ = JSON(http.StatusNotFound, map[string]string{"message": "no mock route for " + req.Method + " " + req.URL.Path})
		resp.Write(w)
	case err != nil:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	default:
		resp.Write(w)
	}
}

// Calls returns the journal of dispatched requests.
func (r *Router) Calls() []Call {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.calls)
}

// ResetCalls clears the journal.
func (r *Router) ResetCalls() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Router) record(req *Request, name string, status int) {
	r.mu.Lock()
	r.calls = append(r.calls, Call{
		Method: req.Method,
		URL:    req.URL.String(),
		Body:   slices.Clone(req.Body),
		Route:  name,
		Status: status,
	})
	r.mu.Unlock()
	if r.observer != nil {
		if name == "" {
			name = "unmatched"
		}
		r.observer(name, status)
	}
}
