package controller

import (
	"fmt"
	"net/http"
	"reflect"
)

// Redirect stages a redirect: Location header plus status, 302 unless
// overridden. It does not halt; code after it still runs, so pair it with
// a return or a Halt when the rest of the body must not execute.
//
// The location may be any string-like value. Wrapper types (fmt.Stringer,
// []byte, named string types) are flattened to a plain string so nothing but
// text ever reaches the header.
func (c *Context) Redirect(location any, status ...int) {
	code := http.StatusFound
	if len(status) > 0 {
		code = status[0]
	}
	c.Response.Status = code
	c.Response.Header.Set("Location", plainString(location))
}

func plainString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case fmt.Stringer:
		return s.String()
	case error:
		return s.Error()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String()
	}
	panic(configErrorf("redirect: location %T is not a string value", v))
}
