// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

package event

// Registry holds the four named Events the proxy dispatches on. It is a
// plain value constructed once at process start and injected into the
// request handler, rather than package-level mutable globals, so tests can
// build isolated registries per case.
type Registry struct {
	// PreUploadBeforeCheck runs on PUT before any additional checks; the
	// default hook encrypts here.
	PreUploadBeforeCheck *Event
	// PreUploadUnsafe runs on PUT for checks that must see the original,
	// pre-transform bytes.
	PreUploadUnsafe *Event
	// PostUpload fires after a successful upstream PUT.
	PostUpload *Event
	// PostRetrieveData runs on GET after a successful upstream fetch; the
	// default hook decrypts here.
	PostRetrieveData *Event
}

// NewRegistry constructs a Registry with all four Events in non-blocking
// mode, matching the source proxy's defaults.
func NewRegistry() *Registry {
	return &Registry{
		PreUploadBeforeCheck: New(false),
		PreUploadUnsafe:      New(false),
		PostUpload:           New(false),
		PostRetrieveData:     New(false),
	}
}
