package intercept

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Matcher selects intercepted requests by method and URL path.
// An empty method matches any method.
type Matcher interface {
	Match(method string, u *url.URL) bool
	// Specificity orders candidates; higher values are tried first.
	Specificity() int
	String() string
}

const (
	kindPrefix = iota + 1
	kindRegexp
	kindExact
)

// specificity packs the matcher kind above the literal text length so that
// any exact path outranks any regular expression, which outranks any prefix.
func specificity(kind, literal int, method string) int {
	score := kind<<20 | literal<<1
	if method != "" {
		score |= 1
	}
	return score
}

func methodMatches(want, got string) bool {
	return want == "" || strings.EqualFold(want, got)
}

func describe(method, shape string) string {
	if method == "" {
		method = "*"
	}
	return method + " " + shape
}

type exactMatcher struct {
	method string
	path   string
}

// Exact matches a path exactly. The query string is ignored.
func Exact(method, path string) Matcher {
	return exactMatcher{method: strings.ToUpper(method), path: path}
}

func (m exactMatcher) Match(method string, u *url.URL) bool {
	return methodMatches(m.method, method) && u.Path == m.path
}

func (m exactMatcher) Specificity() int {
	return specificity(kindExact, len(m.path), m.method)
}

func (m exactMatcher) String() string { return describe(m.method, m.path) }

type prefixMatcher struct {
	method string
	prefix string
}

// Prefix matches every path starting with prefix.
func Prefix(method, prefix string) Matcher {
	return prefixMatcher{method: strings.ToUpper(method), prefix: prefix}
}

func (m prefixMatcher) Match(method string, u *url.URL) bool {
	return methodMatches(m.method, method) && strings.HasPrefix(u.Path, m.prefix)
}

func (m prefixMatcher) Specificity() int {
	return specificity(kindPrefix, len(m.prefix), m.method)
}

func (m prefixMatcher) String() string { return describe(m.method, m.prefix+"*") }

type regexpMatcher struct {
	method string
	expr   *regexp.Regexp
}

// Regexp matches paths against a regular expression.
func Regexp(method, expr string) (Matcher, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("intercept: compile %q: %w", expr, err)
	}
	return regexpMatcher{method: strings.ToUpper(method), expr: re}, nil
}

// MustRegexp is like Regexp but panics on an invalid expression.
func MustRegexp(method, expr string) Matcher {
	m, err := Regexp(method, expr)
	if err != nil {
		panic(err)
	}
	return m
}

func (m regexpMatcher) Match(method string, u *url.URL) bool {
	return methodMatches(m.method, method) && m.expr.MatchString(u.Path)
}

func (m regexpMatcher) Specificity() int {
	prefix, _ := m.expr.LiteralPrefix()
	return specificity(kindRegexp, len(prefix), m.method)
}

func (m regexpMatcher) String() string { return describe(m.method, m.expr.String()) }
