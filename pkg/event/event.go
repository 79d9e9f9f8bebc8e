// Copyright © 2025 Prabhjot Singh Sethi, All Rights reserved
// Author: Prabhjot Singh Sethi <prabhjot.sethi@gmail.com>

// Package event implements the ordered hook registry and dispatcher that
// sits at the core of the proxy's transform pipeline. An Event owns a
// position-sorted list of named hooks and can invoke them either serially,
// in position order, or fanned out across a bounded worker pool while
// still returning results in position order.
package event

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
)

const defaultWorkerPoolSize = 16

// hookErrorValue is returned for a hook whose invocation panicked, matching
// the diagnostic the source proxy surfaces for a hook that raised.
const hookErrorValue = "Hook caused an error."

var (
	// ErrInvalidArgument is returned when a supplied position cannot be
	// coerced to an integer.
	ErrInvalidArgument = errors.New("position must be an integer")
	// ErrDuplicatePosition is returned when the requested position is
	// already held by another hook on the same Event.
	ErrDuplicatePosition = errors.New("position already registered")
	// ErrDuplicateName is returned when the requested name is already held
	// by another hook on the same Event.
	ErrDuplicateName = errors.New("name already registered")
)

// Hook is the callable signature every registered hook must satisfy. It
// receives the inbound request and the relevant payload and reports whether
// the operation may proceed, plus an optional value: transformed bytes for
// hooks that substitute the payload, or a diagnostic string on failure.
type Hook func(r *http.Request, data []byte) (bool, any)

// Result is one hook's outcome from an Event invocation.
type Result struct {
	Name    string
	Success bool
	Value   any
}

// BytesValue returns Value as []byte when the hook produced transformed
// payload bytes, and ok=false otherwise.
func (r Result) BytesValue() ([]byte, bool) {
	b, ok := r.Value.([]byte)
	return b, ok
}

type hookEntry struct {
	position int
	name     string
	fn       Hook
}

// Event is a named dispatch point holding an ordered, uniquely-positioned
// and uniquely-named sequence of hooks, invoked either serially (blocking)
// or fanned out to a worker pool (non-blocking, the default).
type Event struct {
	mu       sync.RWMutex
	hooks    []hookEntry
	blocking bool
	poolSize int
}

// New constructs an Event. blocking selects serial, in-order dispatch;
// non-blocking (the default used by all four registered proxy events)
// fans hooks out to a bounded worker pool.
func New(blocking bool) *Event {
	return &Event{blocking: blocking, poolSize: defaultWorkerPoolSize}
}

// Blocking reports whether the Event runs its hooks serially.
func (e *Event) Blocking() bool {
	return e.blocking
}

// Register adds a hook to the Event under the given name and optional
// position. position may be nil (auto-assigned), an int, or a string
// that parses as an int; anything else fails with ErrInvalidArgument.
//
// If position is supplied and already held by another hook,
// ErrDuplicatePosition is returned. If name collides with an existing
// entry, ErrDuplicateName is returned. If position is omitted, it is
// assigned max(existing positions)+1, or 0 when the Event is empty.
func (e *Event) Register(fn Hook, name string, position any) error {
	pos, err := coercePosition(position)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, h := range e.hooks {
		if h.name == name {
			return ErrDuplicateName
		}
	}

	var assigned int
	if pos != nil {
		assigned = *pos
		for _, h := range e.hooks {
			if h.position == assigned {
				return ErrDuplicatePosition
			}
		}
	} else if len(e.hooks) == 0 {
		assigned = 0
	} else {
		max := e.hooks[0].position
		for _, h := range e.hooks {
			if h.position > max {
				max = h.position
			}
		}
		assigned = max + 1
	}

	e.hooks = append(e.hooks, hookEntry{position: assigned, name: name, fn: fn})
	sort.Slice(e.hooks, func(i, j int) bool { return e.hooks[i].position < e.hooks[j].position })
	return nil
}

// coercePosition normalizes the dynamic position argument Register accepts.
func coercePosition(position any) (*int, error) {
	switch v := position.(type) {
	case nil:
		return nil, nil
	case int:
		p := v
		return &p, nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, ErrInvalidArgument
		}
		return &n, nil
	default:
		return nil, ErrInvalidArgument
	}
}

// Invoke runs the Event's hooks against the given request and payload,
// returning one Result per hook in ascending-position order. An Event with
// no hooks returns a nil slice, which callers treat as unanimous success.
//
// In blocking mode hooks run serially on the caller's goroutine and a
// panicking hook is not recovered, so the panic reaches the caller, matching the source contract that
// exceptions escape blocking dispatch. In non-blocking mode (the default)
// each hook runs on an independent worker from a bounded pool; a panicking
// hook is recovered and reported as a failed Result instead of cancelling
// its siblings.
func (e *Event) Invoke(r *http.Request, data []byte) []Result {
	e.mu.RLock()
	hooks := make([]hookEntry, len(e.hooks))
	copy(hooks, e.hooks)
	e.mu.RUnlock()

	if len(hooks) == 0 {
		return nil
	}

	if e.blocking {
		results := make([]Result, len(hooks))
		for i, h := range hooks {
			success, value := h.fn(r, data)
			results[i] = Result{Name: h.name, Success: success, Value: value}
		}
		return results
	}

	return invokeParallel(r, data, hooks, e.poolSize)
}

func invokeParallel(r *http.Request, data []byte, hooks []hookEntry, poolSize int) []Result {
	results := make([]Result, len(hooks))
	var wg sync.WaitGroup
	sem := make(chan struct{}, poolSize)

	for i, h := range hooks {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, h hookEntry) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = runSafely(r, data, h)
		}(i, h)
	}

	wg.Wait()
	return results
}

// runSafely invokes a single hook, converting a panic into a failed Result
// so sibling hooks in the same dispatch are unaffected.
func runSafely(r *http.Request, data []byte, h hookEntry) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Name: h.name, Success: false, Value: hookErrorValue}
		}
	}()
	success, value := h.fn(r, data)
	return Result{Name: h.name, Success: success, Value: value}
}

// AllSucceeded reports whether every result in the slice succeeded. A nil
// or empty slice (no hooks registered) counts as unanimous success.
func AllSucceeded(results []Result) bool {
	for _, res := range results {
		if !res.Success {
			return false
		}
	}
	return true
}

// Find returns the first result with the given hook name.
func Find(results []Result, name string) (Result, bool) {
	for _, res := range results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}
