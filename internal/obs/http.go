package obs

import (
	"net/http"
	"time"
)

// Transport logs one structured event per outbound request.
type Transport struct {
	Base http.RoundTripper
	Pkg  string
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(pkg string, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Pkg: pkg}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.Base.RoundTrip(req)
	durMS := float64(time.Since(start).Microseconds()) / 1000.0

	l := From(req.Context()).With("pkg", t.Pkg)
	if err != nil {
		l.Warn(
			"http_client_error",
			"method", req.Method,
			"url", req.URL.Redacted(),
			"dur_ms", durMS,
			"error", err,
		)
		return nil, err
	}
	l.Debug(
		"http_client",
		"method", req.Method,
		"url", req.URL.Redacted(),
		"status", resp.StatusCode,
		"dur_ms", durMS,
		"resp_bytes", resp.ContentLength,
	)
	return resp, nil
}
