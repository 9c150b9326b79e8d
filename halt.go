package controller

import (
	"fmt"
)

// haltSignal stops an invocation early. It travels up as an error so a
// callback aborts the pipeline with a plain return, but the dispatch loop
// consumes it before handler resolution: a halt is a result, not a failure.
type haltSignal struct {
	status int
	body   []byte
	keep   bool // leave the already staged body or stream in place
}

func (h *haltSignal) Error() string {
	return fmt.Sprintf("halt %d", h.status)
}

// asHalt detects a halt by direct type assertion. A wrapped halt is not
// unwrapped on purpose: wrapping one means some layer mistook it for a real
// error, and hiding that would turn the mistake into silent behavior.
func asHalt(err error) (*haltSignal, bool) {
	h, ok := err.(*haltSignal)
	return h, ok
}

// thrown carries a Throw value while the stack unwinds to its Catch.
type thrown struct {
	tag   any
	value any
}

// Throw unwinds to the nearest enclosing Catch registered for the same tag
// and makes it return value. Tags are compared with ==, so use strings or
// other comparable values. A Throw that never meets its Catch surfaces as an
// *UncaughtThrowError through the action's normal error handling.
func Throw(tag, value any) {
	panic(&thrown{tag: tag, value: value})
}

// Catch runs fn, intercepting a Throw with a matching tag and returning its
// value. Throws with other tags, and every other panic, keep unwinding.
func Catch(tag any, fn func()) (value any) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		t, ok := v.(*thrown)
		if !ok || t.tag != tag {
			panic(v)
		}
		value = t.value
	}()
	fn()
	return nil
}
