// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s3hookproxy/proxy/pkg/metrics"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host := u.Hostname()
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	return New(host, port, false, 0, nil)
}

func TestDoForwardsHeadersBodyAndQuery(t *testing.T) {
	var gotMethod, gotPath, gotQuery, gotHeader string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotHeader = r.Header.Get("X-Foo")
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		gotBody = body
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	headers := http.Header{"X-Foo": []string{"bar"}}
	resp, err := c.Do(context.Background(), http.MethodPut, "/bucket/key", "X-param-1=param-1", headers, []byte("You can read binary?"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/bucket/key", gotPath)
	assert.Equal(t, "X-param-1=param-1", gotQuery)
	assert.Equal(t, "bar", gotHeader)
	assert.Equal(t, []byte("You can read binary?"), gotBody)
	assert.Equal(t, http.StatusOK, resp.Status)
}

func TestDoReturnsErrorOn4xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Do(context.Background(), http.MethodGet, "/bucket/key", "", nil, nil)
	require.Error(t, err)
	require.NotNil(t, resp)

	var upErr *Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusBadRequest, upErr.Status)
}

func TestDoDoesNotSetContentLengthWithoutBody(t *testing.T) {
	var gotContentLength string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentLength = r.Header.Get("Content-Length")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.Do(context.Background(), http.MethodGet, "/bucket/key", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "", gotContentLength)
}

func TestDoRecordsUpstreamMetrics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, err := strconv.Atoi(u.Port())
	require.NoError(t, err)
	c := New(u.Hostname(), port, false, 0, m)

	_, err = c.Do(context.Background(), http.MethodGet, "/bucket/key", "", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.UpstreamRequests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamDuration))
}
