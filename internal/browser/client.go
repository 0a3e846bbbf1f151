package browser

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
)

// Config configures Chrome launch options.
type Config struct {
	Headless bool          // Run without a window (default: true)
	Timeout  time.Duration // Per-operation timeout (default: 30s)
	// Bin overrides the Chrome binary. Rod downloads one when empty.
	Bin string
}

// DefaultConfig returns defaults suitable for CI containers.
func DefaultConfig() Config {
	return Config{Headless: true, Timeout: 30 * time.Second}
}

// Client drives one Chrome instance whose page is answered by a Router.
type Client struct {
	browser *rod.Browser
	page    *rod.Page
	bridge  *Bridge
	timeout time.Duration
}

// Launch starts Chrome and connects to it.
func Launch(cfg Config) (*Client, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		Set("no-sandbox").
		Set("disable-gpu")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	var cleanup undo
	defer func() { _ = cleanup.run() }()
	cleanup.push(func() error { l.Kill(); return nil })

	browser := rod.New().ControlURL(url)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect chrome: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig().Timeout
	}
	cleanup.keep()
	return &Client{browser: browser, timeout: timeout}, nil
}

// Open creates a page, routes its requests through router and navigates to
// url. Routes must be installed before the page loads, so the page is created
// blank first.
func (c *Client) Open(url string, router *intercept.Router, opts ...Option) (*rod.Page, error) {
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	var cleanup undo
	defer func() { _ = cleanup.run() }()
	cleanup.push(page.Close)

	bridge, err := Route(page, router, opts...)
	if err != nil {
		return nil, err
	}
	cleanup.push(bridge.Stop)

	if err := page.Timeout(c.timeout).Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate to %s: %w", url, err)
	}
	// Timeout is scoped to navigation; later calls set their own.
	page.CancelTimeout()
	cleanup.keep()
	c.page, c.bridge = page, bridge
	return page, nil
}

// undo releases a partly built resource when setup fails. Cleanups run in
// reverse order of push unless keep was called.
type undo struct {
	fns  []func() error
	kept bool
}

func (u *undo) push(fn func() error) {
	u.fns = append(u.fns, fn)
}

func (u *undo) keep() {
	u.kept = true
}

func (u *undo) run() error {
	if u.kept {
		return nil
	}
	var errs []error
	for i := len(u.fns) - 1; i >= 0; i-- {
		errs = append(errs, u.fns[i]())
	}
	u.fns = nil
	return errors.Join(errs...)
}

// Page returns the open page, or nil.
func (c *Client) Page() *rod.Page {
	return c.page
}

// Eval runs js on the page and returns the result as JSON text.
func (c *Client) Eval(js string) (string, error) {
	if c.page == nil {
		return "", errors.New("no page open, call Open first")
	}
	result, err := c.page.Timeout(c.timeout).Eval(js)
	if err != nil {
		return "", fmt.Errorf("eval: %w", err)
	}
	return result.Value.JSON("", ""), nil
}

// WaitStable waits until the DOM stops changing.
func (c *Client) WaitStable() error {
	if c.page == nil {
		return errors.New("no page open")
	}
	return c.page.WaitStable(c.timeout)
}

// Text waits for the first element matching selector and returns its text.
func (c *Client) Text(selector string) (string, error) {
	if c.page == nil {
		return "", errors.New("no page open")
	}
	el, err := c.page.Timeout(c.timeout).Element(selector)
	if err != nil {
		return "", fmt.Errorf("find %s: %w", selector, err)
	}
	return el.Text()
}

// Close stops request routing and shuts Chrome down.
func (c *Client) Close() error {
	var errs []error
	if c.bridge != nil {
		errs = append(errs, c.bridge.Stop())
	}
	if c.browser != nil {
		errs = append(errs, c.browser.Close())
	}
	return errors.Join(errs...)
}
