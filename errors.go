package controller

import (
	"errors"
	"fmt"
)

// HandlerFunc answers an error intercepted by the pipeline. It may write to
// the response directly or return Context.Halt; any other non-nil return is
// a secondary failure and escapes Call untouched.
type HandlerFunc func(*Context, error) error

// Handler describes how a matched error turns into a response: a bare status
// (reason-phrase body, no user code runs), a function, or both, in which
// case the status is applied before the function runs.
type Handler struct {
	Status int
	Func   HandlerFunc
}

// handlerEntry is one registration. match inspects a single link of an
// unwrap chain and must not unwrap further itself: walking the chain is the
// resolver's job, and keeping matchers shallow is what makes the nearest
// wrapper win over anything it wraps.
type handlerEntry struct {
	match   func(error) bool
	handler Handler
}

func sentinelMatcher(target error) func(error) bool {
	return func(link error) bool {
		if link == target {
			return true
		}
		is, ok := link.(interface{ Is(error) bool })
		return ok && is.Is(target)
	}
}

// OfType builds a HandleMatch predicate that matches one link by concrete
// type:
//
//	a.HandleMatch(controller.OfType[*ValidationError](), controller.Handler{Status: 422})
//
// It never unwraps, so a type registration obeys the same nearest-wrapper
// rule as sentinel registrations.
func OfType[T error]() func(error) bool {
	return func(link error) bool {
		_, ok := link.(T)
		return ok
	}
}

// resolveHandler returns the handler for the nearest match in err's unwrap
// chain. The chain is walked outside-in, so a handler registered for the
// concrete error beats one registered for an error it wraps regardless of
// declaration order. Among entries matching the same link, the most recently
// declared wins.
func resolveHandler(entries []handlerEntry, err error) (Handler, bool) {
	for link := err; link != nil; link = errors.Unwrap(link) {
		for i := len(entries) - 1; i >= 0; i-- {
			if entries[i].match(link) {
				return entries[i].handler, true
			}
		}
	}
	return Handler{}, false
}

// ConfigError reports a declaration or usage mistake: an unknown format
// name, a builder call after the action sealed, SetFormat outside the
// accepted list, Session without a store. It is raised as a panic at the
// point of misuse and deliberately skips handler resolution, so tests see
// the mistake instead of a mapped response.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string {
	return e.msg
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// PanicError wraps a panic recovered from a callback, body or the request's
// own plumbing so it can go through handler resolution like any error value.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to sentinel handlers, so
// panic(ErrX) resolves like returning ErrX.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// UncaughtThrowError reports a Throw that reached the pipeline without
// meeting its Catch.
type UncaughtThrowError struct {
	Tag   any
	Value any
}

func (e *UncaughtThrowError) Error() string {
	return fmt.Sprintf("uncaught throw: tag %v", e.Tag)
}
