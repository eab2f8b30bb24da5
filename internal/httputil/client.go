package httputil

import (
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// userAgent identifies this service to upstream APIs; NASA asks clients to
// send one.
const userAgent = "jupiter/1.0"

type uaTransport struct {
	base http.RoundTripper
}

func (t uaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return t.base.RoundTrip(req)
}

// NewClient returns an HTTP client with standard timeout configuration and a
// service User-Agent.
func NewClient() *http.Client {
	return &http.Client{
		Timeout:   DefaultTimeout,
		Transport: uaTransport{base: http.DefaultTransport},
	}
}
