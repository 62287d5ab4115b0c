// Package network provides the HTTP client shared by the tracker, skip-window and filler lookups.
package network

import (
	"net/http"
	"time"

	"github.com/yato-cli/yato/constant"
)

// Client is the shared client. It stamps every request with yato's User-Agent.
var Client = &http.Client{
	Timeout:   30 * time.Second,
	Transport: userAgent{next: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 8
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 20 * time.Second
	return t
}

type userAgent struct {
	next http.RoundTripper
}

func (u userAgent) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", constant.UserAgent)
	}
	return u.next.RoundTrip(req)
}
