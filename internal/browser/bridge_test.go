package browser

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwt-pizza/jwt-pizza-mock/internal/intercept"
)

func TestFulfillDefaults(t *testing.T) {
	status, pairs := fulfill(&intercept.Response{Body: []byte(`{"a":1}`)}, "")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{
		"Content-Length", "7",
		"Content-Type", "application/json",
	}, pairs)
}

func TestFulfillKeepsHeadersAndAddsCORS(t *testing.T) {
	resp := &intercept.Response{
		Status: http.StatusUnauthorized,
		Header: http.Header{"Content-Type": {"text/plain"}, "X-Trace": {"1", "2"}},
		Body:   []byte("no"),
	}
	status, pairs := fulfill(resp, "http://localhost:5173")

	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, []string{
		"Access-Control-Allow-Credentials", "true",
		"Access-Control-Allow-Headers", "Content-Type, Authorization",
		"Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS",
		"Access-Control-Allow-Origin", "http://localhost:5173",
		"Content-Length", "2",
		"Content-Type", "text/plain",
		"X-Trace", "1",
		"X-Trace", "2",
	}, pairs)
	assert.Equal(t, []string{"1", "2"}, resp.Header["X-Trace"], "response header must not be mutated")
	assert.Len(t, resp.Header, 2)
}

func TestFulfillEmptyBody(t *testing.T) {
	status, pairs := fulfill(&intercept.Response{Status: http.StatusNoContent}, "")

	assert.Equal(t, http.StatusNoContent, status)
	assert.Equal(t, []string{"Content-Length", "0"}, pairs)
}
