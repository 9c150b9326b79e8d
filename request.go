package controller

import (
	"context"
	"net/http"
)

type pathParamsKey struct{}

// SetPathParams attaches route parameters to a request. Router adapters call
// it before handing the request to an action, which merges the values into
// Params with the highest precedence.
func SetPathParams(r *http.Request, params map[string]string) *http.Request {
	if len(params) == 0 {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), pathParamsKey{}, params))
}

// PathParams returns the route parameters attached with SetPathParams, or
// nil when the request came straight from a router that never set any.
func PathParams(r *http.Request) map[string]string {
	params, _ := r.Context().Value(pathParamsKey{}).(map[string]string)
	return params
}
