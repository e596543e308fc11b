// Package apiclient drives the storefront's public JSON API and asserts on the
// shape of what comes back. Every request is throttled per host and logged
// with credentials redacted.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kuitang/storefront-e2e/internal/config"
	"github.com/kuitang/storefront-e2e/internal/errs"
	"github.com/kuitang/storefront-e2e/internal/logutil"
	"github.com/kuitang/storefront-e2e/internal/obs"
	"github.com/kuitang/storefront-e2e/internal/ratelimit"
	"github.com/kuitang/storefront-e2e/internal/urlutil"
)

const logBodyBytes = 2048

// Request describes one API call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Form is sent as application/x-www-form-urlencoded.
	Form map[string]string
	// JSON is marshalled as the body when Form is nil.
	JSON any
	// Raw is sent verbatim with ContentType, for malformed-body checks.
	Raw         []byte
	ContentType string
	Headers     map[string]string
	// AllowErrorStatus returns non-2xx responses instead of failing the call.
	// Negative-path checks set it and assert on the status themselves.
	AllowErrorStatus bool
}

// Option adjusts a Request built by an endpoint helper.
type Option func(*Request)

// AllowErrorStatus is the Option form of Request.AllowErrorStatus.
func AllowErrorStatus() Option {
	return func(r *Request) { r.AllowErrorStatus = true }
}

// WithHeader sets a request header.
func WithHeader(key, value string) Option {
	return func(r *Request) {
		if r.Headers == nil {
			r.Headers = make(map[string]string)
		}
		r.Headers[key] = value
	}
}

// Client calls the storefront API.
type Client struct {
	baseURL  string
	http     *http.Client
	throttle *ratelimit.Throttle
	log      *slog.Logger
}

// New builds a client for the profile's API URL.
func New(p *config.Profile) *Client {
	th := ratelimit.NewThrottle(ratelimit.Config{
		RPS:             p.APIRatePerSecond,
		Burst:           p.APIBurst,
		CleanupInterval: ratelimit.DefaultConfig.CleanupInterval,
	})
	hc := &http.Client{
		Timeout:   p.RequestTimeout + p.ResponseTimeout,
		Transport: ratelimit.NewTransport(th, obs.NewTransport("apiclient", nil)),
	}
	c := NewWithHTTPClient(p.APIURL, hc)
	c.throttle = th
	return c
}

// NewWithHTTPClient builds a client around hc, for tests and custom transports.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
		log:     obs.Pkg("apiclient"),
	}
}

// BaseURL returns the API root the client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close stops the client's throttle.
func (c *Client) Close() {
	if c.throttle != nil {
		c.throttle.Stop()
	}
}

// Do sends req. The returned Response is non-nil whenever the server answered,
// including when Do also returns an UnexpectedStatus error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	target := urlutil.BuildAbsolute(c.baseURL, req.Path)
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidConfiguration, "build request", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	obs.From(ctx).With("pkg", "apiclient").Debug("api_request",
		"method", method,
		"path", req.Path,
		"query", logutil.RedactQueryForLog(req.Query),
		"headers", logutil.FormatHeadersForLog(httpReq.Header),
		"body", logutil.FormatBodyForLog(contentType, body, logBodyBytes, false),
	)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, errs.Wrap(errs.Timeout, fmt.Sprintf("%s %s", method, req.Path), err)
		}
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("%s %s", method, req.Path), err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("read %s %s response", method, req.Path), err)
	}
	resp := &Response{
		Method:   method,
		Path:     req.Path,
		Status:   httpResp.StatusCode,
		Header:   httpResp.Header,
		Body:     respBody,
		Duration: time.Since(start),
	}

	obs.From(ctx).With("pkg", "apiclient").Debug("api_response",
		"method", method,
		"path", req.Path,
		"status", resp.Status,
		"dur_ms", float64(resp.Duration.Microseconds())/1000.0,
		"body", logutil.FormatBodyForLog(httpResp.Header.Get("Content-Type"), respBody, logBodyBytes, false),
	)

	if !req.AllowErrorStatus && (resp.Status < 200 || resp.Status > 299) {
		return resp, errs.Newf(errs.UnexpectedStatus, "%s %s: status %d: %s",
			method, req.Path, resp.Status, logutil.TruncateForLog(string(respBody), 200))
	}
	return resp, nil
}

func encodeBody(req Request) ([]byte, string, error) {
	switch {
	case req.Raw != nil:
		return req.Raw, req.ContentType, nil
	case req.Form != nil:
		values := url.Values{}
		for k, v := range req.Form {
			values.Set(k, v)
		}
		return []byte(values.Encode()), "application/x-www-form-urlencoded", nil
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", errs.Wrap(errs.InvalidConfiguration, "encode JSON body", err)
		}
		return b, "application/json", nil
	default:
		return nil, "", nil
	}
}
