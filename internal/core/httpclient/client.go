// Package httpclient configures the HTTP client used by the load tools.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// NewOutbound returns a keep-alive client sized for maxConns concurrent
// requests to one host. timeout <= 0 means 30s.
func NewOutbound(timeout time.Duration, maxConns int) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxConns <= 0 {
		maxConns = 128
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          2 * maxConns,
		MaxIdleConnsPerHost:   maxConns,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
