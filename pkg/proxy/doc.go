// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package proxy wires the event pipeline and the upstream client into an
// http.Handler. GET and PUT intercept and transform the object body through
// the registered hooks; every other method passes through to the object
// store unmodified.
package proxy
