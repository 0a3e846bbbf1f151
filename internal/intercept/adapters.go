package intercept

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
)

const continueHeader = "X-Intercept-Continue"

// Continue declines a request from inside a handler adapted with FromHTTP.
func Continue(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set(continueHeader, "1")
	w.WriteHeader(http.StatusNotFound)
}

// FromHTTP adapts a standard handler into a route handler.
func FromHTTP(h http.Handler) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req.HTTPRequest(ctx))
		if rec.Header().Get(continueHeader) != "" {
			return nil, ErrContinue
		}
		return &Response{Status: rec.Code, Header: rec.Header().Clone(), Body: rec.Body.Bytes()}, nil
	}
}

// Transport is an http.RoundTripper that answers from a Router and sends
// unmatched requests to Next.
type Transport struct {
	Router *Router
	// Next receives unmatched requests. http.DefaultTransport when nil.
	Next http.RoundTripper
}

// NewTransport builds a Transport over router.
func NewTransport(router *Router, next http.RoundTripper) *Transport {
	return &Transport{Router: router, Next: next}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ireq, err := FromHTTPRequest(req)
	if err != nil {
		return nil, err
	}
	if req.Body != nil {
		_ = req.Body.Close()
	}
	resp, err := t.Router.Dispatch(req.Context(), ireq)
	if errors.Is(err, ErrUnmatched) {
		out := req.Clone(req.Context())
		ireq.restoreBody(out)
		return t.next().RoundTrip(out)
	}
	if err != nil {
		return nil, fmt.Errorf("intercept transport: %w", err)
	}
	return resp.HTTPResponse(req), nil
}

func (t *Transport) next() http.RoundTripper {
	if t.Next != nil {
		return t.Next
	}
	return http.DefaultTransport
}
