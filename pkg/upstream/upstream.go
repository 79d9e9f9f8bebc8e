// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package upstream implements the proxy client that forwards requests to
// the S3-compatible object store and reconstructs a shadow of its response
// for the caller.
package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/s3hookproxy/proxy/pkg/metrics"
)

// interestingHeaders is the whitelist of response headers the proxy mirrors
// back to the client.
var interestingHeaders = []string{
	"Cookie", "Host", "Referer", "User-Agent", "Accept", "Accept-Language",
}

// Error reports a 4xx/5xx response from the object store.
type Error struct {
	Status int
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Status, e.Reason)
}

// Response is the buffered upstream response: status, reason, a whitelisted
// subset of headers, and a body. Its lifetime is one request.
type Response struct {
	Status  int
	Reason  string
	Headers http.Header
	Body    []byte
}

// Client forwards requests to the configured object store over a shared,
// connection-pooled *http.Client.
type Client struct {
	httpClient *http.Client
	scheme     string
	host       string
	port       int
	metrics    *metrics.Metrics
}

// New constructs a Client targeting the given object store host/port,
// using HTTPS when ssl is true. The underlying *http.Client is tuned for
// connection reuse and shared across all requests the proxy serves. m may
// be nil, in which case upstream requests go unrecorded.
func New(host string, port int, ssl bool, timeout time.Duration, m *metrics.Metrics) *Client {
	scheme := "http"
	if ssl {
		scheme = "https"
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		scheme:     scheme,
		host:       host,
		port:       port,
		metrics:    m,
	}
}

// targetURL composes {scheme}://{host}:{port}{path}?{query}, preserving the
// incoming path (leading separator stripped before joining) and query
// string verbatim.
func (c *Client) targetURL(path, rawQuery string) string {
	u := url.URL{
		Scheme:   c.scheme,
		Host:     net.JoinHostPort(c.host, strconv.Itoa(c.port)),
		Path:     "/" + strings.TrimPrefix(path, "/"),
		RawQuery: rawQuery,
	}
	return u.String()
}

// Do forwards method/path/query/headers to the object store, with body
// supplied for PUT. It returns the buffered upstream Response, or an *Error
// wrapping any 4xx/5xx status.
func (c *Client) Do(ctx context.Context, method, path, rawQuery string, headers http.Header, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.targetURL(path, rawQuery), reader)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	copyHeaders(req.Header, headers)
	if body != nil {
		req.Header.Set("Content-Length", strconv.Itoa(len(body)))
		req.ContentLength = int64(len(body))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("perform upstream request: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if c.metrics != nil {
		c.metrics.RecordUpstreamRequest(method, resp.StatusCode, time.Since(start))
	}

	shadow := &Response{
		Status:  resp.StatusCode,
		Reason:  http.StatusText(resp.StatusCode),
		Headers: filterHeaders(resp.Header),
		Body:    content,
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return shadow, &Error{Status: resp.StatusCode, Reason: shadow.Reason}
	}

	return shadow, nil
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}

func filterHeaders(src http.Header) http.Header {
	dst := make(http.Header, len(interestingHeaders))
	for _, k := range interestingHeaders {
		if v := src.Get(k); v != "" {
			dst.Set(k, v)
		}
	}
	return dst
}
