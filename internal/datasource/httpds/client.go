// Package httpds reads samples over HTTP. A Client issues GET requests and
// retries transport errors and transient statuses (429, 5xx) with capped
// exponential backoff, stopping early when the context ends. Source binds a
// Client to one sample URL.
package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config configures a Client. Zero values select a 30s timeout, no retries
// and a 200ms..5s backoff.
type Config struct {
	// Timeout bounds one attempt, body download included.
	Timeout time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialBackoff is the wait before the first retry; each further retry
	// doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// InsecureSkipVerify disables TLS certificate checks. Ignored when
	// Transport is set.
	InsecureSkipVerify bool
	// Headers go out with every request, e.g. Authorization.
	Headers http.Header
	// Transport replaces the default transport.
	Transport http.RoundTripper
}

// Client fetches sample bytes.
type Client struct {
	hc      *http.Client
	retries int
	backoff backoff
	headers http.Header

	wait func(ctx context.Context, d time.Duration) error // replaced in tests
}

// NewClient builds a Client, filling zero Config values with defaults.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	tr := cfg.Transport
	if tr == nil {
		tr = &http.Transport{
			Proxy:           http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}, //nolint:gosec // opt-in
		}
	}

	hdr := make(http.Header, len(cfg.Headers))
	for k, vs := range cfg.Headers {
		for _, v := range vs {
			hdr.Add(k, v)
		}
	}
	return &Client{
		hc:      &http.Client{Timeout: cfg.Timeout, Transport: tr},
		retries: max(cfg.MaxRetries, 0),
		backoff: backoff{initial: cfg.InitialBackoff, max: cfg.MaxBackoff},
		headers: hdr,
		wait:    waitCtx,
	}
}

// get sends GET url with the client headers, then extra on top. Transient
// failures are retried; any other final status comes back as a response for
// the caller to judge. The caller closes the response body.
func (c *Client) get(ctx context.Context, url string, extra http.Header) (*http.Response, error) {
	if url == "" {
		return nil, errors.New("httpds: empty url")
	}
	for retry := 0; ; retry++ {
		resp, err := c.attempt(ctx, url, extra)
		switch {
		case err == nil && !transient(resp.StatusCode):
			return resp, nil
		case err == nil:
			_ = resp.Body.Close()
			err = fmt.Errorf("httpds: GET %s: transient status %d", url, resp.StatusCode)
		case ctx.Err() != nil:
			return nil, ctx.Err()
		}
		if retry >= c.retries {
			return nil, err
		}
		if werr := c.wait(ctx, c.backoff.delay(retry)); werr != nil {
			return nil, werr
		}
	}
}

func (c *Client) attempt(ctx context.Context, url string, extra http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("httpds: build request: %w", err)
	}
	for _, h := range []http.Header{c.headers, extra} {
		for k, vs := range h {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
	return c.hc.Do(req)
}

// transient reports a status worth retrying: 429 or any 5xx.
func transient(code int) bool {
	return code == http.StatusTooManyRequests || (code >= 500 && code <= 599)
}

// backoff is a doubling delay capped at max.
type backoff struct{ initial, max time.Duration }

// delay returns the wait before retry number retry, counting from 0.
func (b backoff) delay(retry int) time.Duration {
	d := b.initial
	for i := 0; i < retry && d < b.max; i++ {
		d *= 2
	}
	return min(d, b.max)
}

// waitCtx sleeps for d or until ctx ends.
func waitCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
