// Package fetch retrieves the document to summarize over HTTP.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/gosummarize/internal/cache"
	"github.com/hyperifyio/gosummarize/internal/robots"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes = 10 << 20

var (
	ErrUnsupportedScheme      = errors.New("unsupported URL scheme")
	ErrUnsupportedContentType = errors.New("unsupported content type")
	ErrBodyTooLarge           = errors.New("response body too large")
	ErrDisallowed             = errors.New("disallowed by robots.txt")
)

// StatusError is a non-2xx, non-304 response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	if e.Code >= 500 {
		return fmt.Sprintf("server error: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status: %d", e.Code)
}

// Page is a fetched document.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
	// FromCache is true when the body was served from the on-disk cache after
	// a 304 revalidation.
	FromCache bool
}

// Client wraps http.Client with timeouts, limited retry on transient errors
// and optional conditional revalidation against an HTTPCache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each attempt. Zero leaves it to the context.
	PerRequestTimeout time.Duration
	Cache             *cache.HTTPCache
	// BypassCache skips conditional headers but still stores fresh responses.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
	// MaxBodyBytes caps the body size. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Backoff is the base delay between attempts; attempt n waits n*Backoff.
	// Zero means 200ms.
	Backoff time.Duration
	// Robots, when set, is consulted before the page is requested.
	Robots *robots.Checker
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{Timeout: c.PerRequestTimeout}
	if c.HTTPClient != nil {
		// copy so the caller's client keeps its own redirect policy
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect
	return &base
}

// Get fetches rawURL, retrying 5xx responses and timeouts.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return Page{}, fmt.Errorf("parse url: %w", err)
	}
	if !isHTTPScheme(u) {
		return Page{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	target := u.String()

	if c.Robots != nil {
		ok, err := c.Robots.Allowed(ctx, target)
		if err != nil {
			log.Debug().Err(err).Str("url", target).Msg("robots.txt unavailable; proceeding")
		}
		if !ok {
			return Page{}, fmt.Errorf("%w: %s", ErrDisallowed, target)
		}
	}

	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, target); err == nil {
			etag, lastMod = meta.ETag, meta.LastModified
		}
	}

	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := c.Backoff
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return Page{}, ctx.Err()
			case <-time.After(time.Duration(i) * backoff):
			}
		}
		page, err := c.tryOnce(ctx, target, etag, lastMod)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !isTransient(err) {
			break
		}
	}
	return Page{}, lastErr
}

func (c *Client) tryOnce(ctx context.Context, target, etag, lastMod string) (Page, error) {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Page{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && c.Cache != nil {
		body, err := c.Cache.LoadBody(ctx, target)
		if err != nil {
			return Page{}, fmt.Errorf("304 without cached body: %w", err)
		}
		ct := resp.Header.Get("Content-Type")
		if meta, err := c.Cache.LoadMeta(ctx, target); err == nil && ct == "" {
			ct = meta.ContentType
		}
		return Page{URL: target, ContentType: ct, Body: body, FromCache: true}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, &StatusError{Code: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if !isAllowedContentType(ct) {
		return Page{}, fmt.Errorf("%w: %s", ErrUnsupportedContentType, ct)
	}
	limit := c.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return Page{}, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}
	if c.Cache != nil {
		_ = c.Cache.Save(ctx, target, ct, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), body)
	}
	return Page{URL: target, ContentType: ct, Body: body}, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.Code >= 500
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return errors.New("redirect to unsupported scheme")
	}
	return nil
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

// IsHTML reports whether a Content-Type header names an HTML document.
func IsHTML(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mt = strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func isAllowedContentType(ct string) bool {
	if IsHTML(ct) {
		return true
	}
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "text/plain"
}
