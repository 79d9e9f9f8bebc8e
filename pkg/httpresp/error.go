// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package httpresp composes the proxy's diagnostic error responses: empty
// body, numeric status, and a human-readable reason assembled from failed
// hook results.
package httpresp

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/s3hookproxy/proxy/pkg/event"
)

// ReasonHeader carries the composed diagnostic reason. net/http's server
// does not let handlers set an arbitrary non-standard reason phrase on the
// status line the way some HTTP frameworks do, so the reason travels as a
// response header instead; the body stays empty per the contract.
const ReasonHeader = "X-Proxy-Reason"

// WriteError composes the reason line "<general>. <name> : <msg>, ...." from
// the failing entries in results (entries with Success=false) and writes it
// to w with an empty body. If no failures are present, the reason is just
// "<general>." with no trailing list.
func WriteError(w http.ResponseWriter, results []event.Result, general string, status int) {
	w.Header().Set(ReasonHeader, Reason(results, general))
	w.WriteHeader(status)
}

// Reason composes the diagnostic reason string without writing a response,
// for callers that need the text directly (e.g. tests).
func Reason(results []event.Result, general string) string {
	var parts []string
	for _, r := range results {
		if r.Success {
			continue
		}
		parts = append(parts, fmt.Sprintf("<%s> : %v", r.Name, r.Value))
	}
	if len(parts) == 0 {
		return general + "."
	}
	return general + ". " + strings.Join(parts, ", ") + "."
}
