package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// HTTPFetcher downloads feed documents. It never retries: a failed fetch is
// reported to the caller, which leaves the feed unchanged until the next cycle.
type HTTPFetcher struct {
	client  *http.Client
	config  Config
	limiter *hostLimiter
}

// New creates an HTTPFetcher. The configuration is assumed to be validated.
func New(cfg Config) *HTTPFetcher {
	f := &HTTPFetcher{
		config:  cfg,
		limiter: newHostLimiter(cfg.HostRate, cfg.HostBurst),
	}

	f.client = &http.Client{
		// Backstop in case a caller passes a context without deadline.
		Timeout: cfg.Timeout + 5*time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}
	return f
}

// Fetch performs a GET on feedURL and returns the body.
// Non-2xx responses yield a *StatusError; exceeding Config.Timeout yields ErrTimeout.
func (f *HTTPFetcher) Fetch(ctx context.Context, feedURL string) ([]byte, error) {
	if err := validateURL(feedURL, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	u, _ := url.Parse(feedURL)
	if err := f.limiter.Wait(ctx, u.Host); err != nil {
		return nil, fmt.Errorf("host limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, text/xml;q=0.9, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if timedOut(ctx, reqCtx, err) {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, f.config.Timeout)
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		if timedOut(ctx, reqCtx, err) {
			return nil, fmt.Errorf("%w: reading body exceeded %v", ErrTimeout, f.config.Timeout)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.config.MaxBodySize)
	}
	return body, nil
}

// timedOut reports whether err comes from the fetch's own deadline or a
// transport timeout rather than from the caller's context ending.
func timedOut(ctx, reqCtx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
