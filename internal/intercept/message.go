package intercept

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// Request is an intercepted outbound call.
type Request struct {
	Method string
	URL    *url.URL
	Header http.Header
	Body   []byte
}

// NewRequest builds a Request from its parts.
func NewRequest(method, rawURL string, header http.Header, body []byte) (*Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("intercept: parse url: %w", err)
	}
	if header == nil {
		header = make(http.Header)
	}
	return &Request{Method: method, URL: u, Header: header, Body: body}, nil
}

// FromHTTPRequest reads r into a Request. The body of r is consumed.
func FromHTTPRequest(r *http.Request) (*Request, error) {
	var body []byte
	if r.Body != nil {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("intercept: read body: %w", err)
		}
		body = b
	}
	u := *r.URL
	return &Request{Method: r.Method, URL: &u, Header: r.Header.Clone(), Body: body}, nil
}

// DecodeJSON decodes the body into v. An empty body is not an error.
func (r *Request) DecodeJSON(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Body, v)
}

// HTTPRequest converts r into a server-side *http.Request.
func (r *Request) HTTPRequest(ctx context.Context) *http.Request {
	req := (&http.Request{
		Method:        r.Method,
		URL:           r.URL,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Host:          r.URL.Host,
		RequestURI:    r.URL.RequestURI(),
	}).WithContext(ctx)
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	return req
}

// Response is what a route answers instead of the network.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON builds a JSON response.
func JSON(status int, v any) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("intercept: encode response: %w", err)
	}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	return &Response{Status: status, Header: header, Body: body}, nil
}

// Write copies the response to w.
func (r *Response) Write(w http.ResponseWriter) {
	for k, values := range r.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(r.status())
	_, _ = w.Write(r.Body)
}

// HTTPResponse converts r into a client-side *http.Response for req.
func (r *Response) HTTPResponse(req *http.Request) *http.Response {
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	status := r.status()
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

func (r *Response) status() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}

func (r *Request) restoreBody(req *http.Request) {
	req.Body = io.NopCloser(bytes.NewReader(r.Body))
	req.ContentLength = int64(len(r.Body))
}
