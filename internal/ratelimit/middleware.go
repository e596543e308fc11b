package ratelimit

import (
	"fmt"
	"net/http"
)

// Transport waits on the throttle for the request's host before sending it.
type Transport struct {
	Throttle *Throttle
	Base     http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(th *Throttle, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Throttle: th, Base: base}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Throttle.Wait(req.Context(), req.URL.Host); err != nil {
		return nil, fmt.Errorf("ratelimit: waiting for %s: %w", req.URL.Host, err)
	}
	return t.Base.RoundTrip(req)
}
