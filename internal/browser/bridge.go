// Package browser connects an intercept.Router to a Chrome page driven by
// Rod, so the page's fetches are answered by registered routes and anything
// unmatched goes to the network.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
)

// Bridge feeds hijacked page requests into a Router.
type Bridge struct {
	router  *intercept.Router
	hijack  *rod.HijackRouter
	logger  *slog.Logger
	pattern string
	cors    string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPattern limits hijacking to URLs matching a Chrome wildcard pattern.
// Everything is hijacked by default.
func WithPattern(pattern string) Option {
	return func(b *Bridge) { b.pattern = pattern }
}

// WithCORS adds Access-Control headers for origin to every mocked response
// and answers preflight requests.
func WithCORS(origin string) Option {
	return func(b *Bridge) { b.cors = origin }
}

// WithLogger sets the bridge logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// Route starts hijacking requests made by page. Call Stop when done.
func Route(page *rod.Page, router *intercept.Router, opts ...Option) (*Bridge, error) {
	b := &Bridge{router: router, logger: slog.Default(), pattern: "*"}
	for _, opt := range opts {
		opt(b)
	}
	b.hijack = page.HijackRequests()
	if err := b.hijack.Add(b.pattern, "", b.handle(page.GetContext())); err != nil {
		return nil, fmt.Errorf("hijack %s: %w", b.pattern, err)
	}
	go b.hijack.Run()
	return b, nil
}

// Stop ends hijacking.
func (b *Bridge) Stop() error {
	return b.hijack.Stop()
}

func (b *Bridge) handle(ctx context.Context) func(*rod.Hijack) {
	return func(h *rod.Hijack) {
		method := h.Request.Method()
		if method == http.MethodOptions && b.cors != "" {
			status, pairs := fulfill(&intercept.Response{Status: http.StatusNoContent}, b.cors)
			h.Response.Payload().ResponseCode = status
			h.Response.SetHeader(pairs...)
			return
		}

		req, err := intercept.NewRequest(method, h.Request.URL().String(), h.Request.Req().Header.Clone(), []byte(h.Request.Body()))
		if err != nil {
			b.logger.Warn("hijacked request unreadable", slog.Any("error", err))
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		}

		resp, err := b.router.Dispatch(ctx, req)
		switch {
		case errors.Is(err, intercept.ErrUnmatched):
			h.ContinueRequest(&proto.FetchContinueRequest{})
			return
		case err != nil:
			b.logger.Error("mock route failed", slog.String("method", method), slog.String("url", req.URL.String()), slog.Any("error", err))
			h.Response.Fail(proto.NetworkErrorReasonFailed)
			return
		}

		status, pairs := fulfill(resp, b.cors)
		h.Response.Payload().ResponseCode = status
		h.Response.SetHeader(pairs...)
		h.Response.SetBody(resp.Body)
	}
}

// fulfill flattens resp into the status and header pairs Chrome expects.
// Header names are sorted so responses are reproducible.
func fulfill(resp *intercept.Response, corsOrigin string) (int, []string) {
	header := resp.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	if len(resp.Body) > 0 && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/json")
	}
	if corsOrigin != "" {
		header.Set("Access-Control-Allow-Origin", corsOrigin)
		header.Set("Access-Control-Allow-Credentials", "true")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		header.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	}
	header.Set("Content-Length", strconv.Itoa(len(resp.Body)))

	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		for _, v := range header[name] {
			pairs = append(pairs, name, v)
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	return status, pairs
}
