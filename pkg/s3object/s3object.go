// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package s3object extracts the (bucket, name) pair the rest of the proxy
// keys derived encryption and hook dispatch on.
package s3object

import (
	"net/http"
	"strings"
)

// Object is the (bucket, name) pair parsed from a request path. Its
// lifetime is a single request.
type Object struct {
	Bucket string
	Name   string
}

// Extract parses the request path into an Object iff the path splits into
// exactly three segments ["", bucket, name] (i.e. exactly "/bucket/name").
// This is intentionally strict: sub-paths under a bucket such as
// "/bucket/prefix/key" are treated as non-object requests and bypass the
// transform pipeline.
func Extract(r *http.Request) (Object, bool) {
	return ExtractPath(r.URL.Path)
}

// ExtractPath is the path-only form of Extract.
func ExtractPath(path string) (Object, bool) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != "" {
		return Object{}, false
	}
	bucket, name := parts[1], parts[2]
	if bucket == "" || name == "" {
		return Object{}, false
	}
	return Object{Bucket: bucket, Name: name}, true
}
