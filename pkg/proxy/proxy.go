// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package proxy

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/s3hookproxy/proxy/pkg/config"
	"github.com/s3hookproxy/proxy/pkg/event"
	"github.com/s3hookproxy/proxy/pkg/hooks"
	"github.com/s3hookproxy/proxy/pkg/httpresp"
	"github.com/s3hookproxy/proxy/pkg/metrics"
	"github.com/s3hookproxy/proxy/pkg/s3object"
	"github.com/s3hookproxy/proxy/pkg/upstream"
)

// Handler implements http.Handler, routing GET/PUT through the hook
// pipeline and passing every other allowed method straight through to the
// object store.
type Handler struct {
	cfg      config.Config
	registry *event.Registry
	client   *upstream.Client
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New constructs a Handler. reg must already hold every hook the caller
// wants registered — registration concurrent with in-flight dispatch is
// undefined, so all registration must happen before serving begins.
func New(cfg config.Config, reg *event.Registry, m *metrics.Metrics) *Handler {
	return &Handler{
		cfg:      cfg,
		registry: reg,
		client:   upstream.New(cfg.ObjectStoreHost, cfg.ObjectStorePort, cfg.ObjectStoreSSLEnabled, cfg.RequestTimeout, m),
		metrics:  m,
		logger:   log.With().Str("component", "proxy").Logger(),
	}
}

// ServeHTTP routes the request by method: GET and PUT run the transform
// pipeline, any other method within the allowed set passes through
// unmodified, and a disallowed method gets a 405.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.NewString()
	reqLog := h.logger.With().
		Str("request_id", reqID).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote_addr", r.RemoteAddr).
		Logger()
	w.Header().Set("X-Request-Id", reqID)

	if _, allowed := h.cfg.AllowedMethods[r.Method]; !allowed {
		reqLog.Warn().Msg("method not allowed")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, reqLog)
	case http.MethodPut:
		h.handlePut(w, r, reqLog)
	default:
		h.handlePassThrough(w, r, reqLog)
	}

	reqLog.Info().Dur("duration", time.Since(start)).Msg("request handled")
}

// handlePassThrough forwards any method other than GET/PUT unchanged. A
// client-error condition from the upstream is translated to a diagnostic
// 400 response, which is returned to the caller.
func (h *Handler) handlePassThrough(w http.ResponseWriter, r *http.Request, reqLog zerolog.Logger) {
	body, err := readBody(r)
	if err != nil {
		reqLog.Error().Err(err).Msg("failed to read request body")
		httpresp.WriteError(w, nil, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	resp, err := h.client.Do(r.Context(), r.Method, r.URL.Path, r.URL.RawQuery, r.Header, body)
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) {
			results := []event.Result{{
				Name:    fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				Success: false,
				Value:   fmt.Sprintf("Failed to pass request to upstream: %s", upErr.Error()),
			}}
			httpresp.WriteError(w, results, "Failed to pass request to upstream", http.StatusBadRequest)
			return
		}
		reqLog.Error().Err(err).Msg("pass-through upstream call failed")
		httpresp.WriteError(w, nil, fmt.Sprintf("Failed to pass request to upstream: %v", err), http.StatusBadGateway)
		return
	}

	writeShadow(w, resp, resp.Body)
}

// handleGet fetches the upstream bytes and, when the path names an object,
// runs post_retrieve_data on them, substituting the decrypted payload
// produced by hook_decrypt_data.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, reqLog zerolog.Logger) {
	resp, err := h.client.Do(r.Context(), http.MethodGet, r.URL.Path, r.URL.RawQuery, r.Header, nil)
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && resp != nil {
			writeShadow(w, resp, resp.Body)
			return
		}
		reqLog.Error().Err(err).Msg("GET upstream call failed")
		httpresp.WriteError(w, nil, fmt.Sprintf("Failed to fetch object: %v", err), http.StatusBadGateway)
		return
	}

	content := resp.Body
	obj, hasObj := s3object.Extract(r)
	if len(content) > 0 && hasObj {
		reqLog.Debug().Str("bucket", obj.Bucket).Str("name", obj.Name).Msg("running post-retrieve hooks")
		results := h.registry.PostRetrieveData.Invoke(r, content)
		if h.metrics != nil {
			h.metrics.RecordHookResults("post_retrieve_data", results)
		}
		if !event.AllSucceeded(results) {
			httpresp.WriteError(w, results, "Retrieval of object failed", http.StatusBadRequest)
			return
		}
		if dec, ok := event.Find(results, hooks.DecryptHookName); ok {
			if b, ok := dec.BytesValue(); ok {
				content = b
			}
		}
	}

	writeShadow(w, resp, content)
}

// handlePut buffers the request body, runs pre_upload_before_check (whose
// default hook encrypts), then pre_upload_unsafe against the original
// bytes, forwards the encrypted body upstream, and fires post_upload on
// success.
func (h *Handler) handlePut(w http.ResponseWriter, r *http.Request, reqLog zerolog.Logger) {
	_, hasObj := s3object.Extract(r)
	if !hasObj {
		// Uploading an object requires both bucket and object name.
		httpresp.WriteError(w, nil, "Failed to get bucket and object-id from upload request", http.StatusBadRequest)
		return
	}

	content, err := readBody(r)
	if err != nil {
		reqLog.Error().Err(err).Msg("failed to read upload body")
		httpresp.WriteError(w, nil, fmt.Sprintf("Failed to read request body: %v", err), http.StatusBadRequest)
		return
	}

	results := h.registry.PreUploadBeforeCheck.Invoke(r, content)
	if h.metrics != nil {
		h.metrics.RecordHookResults("pre_upload_before_check", results)
	}
	if !event.AllSucceeded(results) {
		httpresp.WriteError(w, results, "Pre-upload hook failed", http.StatusBadRequest)
		return
	}

	encrypted := content
	if enc, ok := event.Find(results, hooks.EncryptHookName); ok {
		if b, ok := enc.BytesValue(); ok {
			encrypted = b
		}
	}

	// pre_upload_unsafe runs against the original, pre-transform bytes —
	// scan/inspection hooks need plaintext, not the encrypted form.
	checkResults := h.registry.PreUploadUnsafe.Invoke(r, content)
	if h.metrics != nil {
		h.metrics.RecordHookResults("pre_upload_unsafe", checkResults)
	}
	if !event.AllSucceeded(checkResults) {
		httpresp.WriteError(w, checkResults, "Upload failed sanity checks", http.StatusBadRequest)
		return
	}

	resp, err := h.client.Do(r.Context(), http.MethodPut, r.URL.Path, r.URL.RawQuery, r.Header, encrypted)
	if err != nil {
		var upErr *upstream.Error
		if errors.As(err, &upErr) && resp != nil {
			writeShadow(w, resp, resp.Body)
			return
		}
		reqLog.Error().Err(err).Msg("PUT upstream call failed")
		httpresp.WriteError(w, nil, fmt.Sprintf("Failed to upload object: %v", err), http.StatusBadGateway)
		return
	}

	if resp.Status < http.StatusBadRequest {
		h.registry.PostUpload.Invoke(r, nil)
	}

	writeShadow(w, resp, resp.Body)
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer r.Body.Close()
	return io.ReadAll(r.Body)
}

// writeShadow renders the upstream response shadow: whitelisted headers,
// rewritten Content-Length, status, and body.
func writeShadow(w http.ResponseWriter, resp *upstream.Response, body []byte) {
	for k, vv := range resp.Headers {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if resp.Reason != "" {
		w.Header().Set(httpresp.ReasonHeader, resp.Reason)
	}
	w.WriteHeader(resp.Status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}
